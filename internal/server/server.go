// Package server exposes the walkthrough sessions over HTTP. It is a
// thin orchestration layer: every handler resolves a session handle
// through the manager and delegates; no pipeline state lives here.
package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pipewalk/pipewalk/internal/session"
)

// Server hosts the REST surface for interactive pipeline walkthroughs.
type Server struct {
	log      logr.Logger
	sessions *session.Manager
	http     *http.Server
	engine   *gin.Engine
}

// New creates a server listening on addr once Run is called.
func New(addr string, log logr.Logger, sessions *session.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		log:      log,
		sessions: sessions,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	s.routes(engine)
	s.engine = engine

	s.http = &http.Server{
		Addr:    addr,
		Handler: engine,
	}

	return s
}

func (s *Server) routes(router *gin.Engine) {
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/metrics", s.listMetrics)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", s.createSession)
			sessions.GET("", s.listSessions)
			sessions.GET("/:sessionID", s.getSession)
			sessions.DELETE("/:sessionID", s.destroySession)

			sessions.POST("/:sessionID/advance", s.advance)
			sessions.POST("/:sessionID/reset", s.reset)
			sessions.PUT("/:sessionID/pipeline", s.loadPipeline)

			sessions.GET("/:sessionID/graph", s.graph)
			sessions.GET("/:sessionID/records", s.records)
			sessions.GET("/:sessionID/log", s.logLines)
			sessions.GET("/:sessionID/metrics/:name", s.evaluateMetric)
		}
	}
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run blocks serving HTTP until Close is called or the listener
// fails.
func (s *Server) Run() error {
	s.log.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts the server down gracefully.
func (s *Server) Close(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
