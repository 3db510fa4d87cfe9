package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pipewalk/pipewalk/dag"
	"github.com/pipewalk/pipewalk/internal/session"
	"github.com/pipewalk/pipewalk/sim"
)

type createSessionRequest struct {
	// Pipeline is an optional pipeline document; when absent or
	// unusable the default pipeline is used (unless strict mode).
	Pipeline json.RawMessage `json:"pipeline,omitempty"`

	// Seed optionally replaces the default seed record collection.
	Seed []sim.Record `json:"seed,omitempty"`
}

type sessionState struct {
	SessionID string       `json:"session_id"`
	Stage     int          `json:"stage"`
	StageName string       `json:"stage_name"`
	Pending   string       `json:"pending,omitempty"`
	Records   []sim.Record `json:"records"`
	Log       []string     `json:"log"`
}

func state(s *session.Session) sessionState {
	stage := s.Stage()
	return sessionState{
		SessionID: s.ID,
		Stage:     int(stage),
		StageName: stage.String(),
		Pending:   stage.Pending(),
		Records:   s.Records(),
		Log:       s.Log(),
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	// Bind whatever body arrived; an absent body (io.EOF) is a valid
	// empty request. Checking ContentLength instead would drop the
	// body of chunked requests.
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var document []byte
	if len(req.Pipeline) > 0 {
		document = req.Pipeline
	}

	sess, usedDefault, err := s.sessions.Create(document, req.Seed)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"session":          state(sess),
		"default_pipeline": usedDefault,
	}
	if usedDefault && document != nil {
		resp["warning"] = "pipeline document was not usable; the default pipeline is in effect"
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.sessions.IDs()})
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, state(sess))
}

func (s *Server) destroySession(c *gin.Context) {
	if err := s.sessions.Destroy(c.Param("sessionID")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) advance(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	_, advanced := sess.Advance()
	c.JSON(http.StatusOK, gin.H{
		"advanced": advanced,
		"session":  state(sess),
	})
}

func (s *Server) reset(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	sess.Reset()
	c.JSON(http.StatusOK, state(sess))
}

func (s *Server) loadPipeline(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	document, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	usedDefault, err := sess.LoadPipeline(document)
	if err != nil {
		// Strict mode; the session keeps its previous pipeline.
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"default_pipeline": usedDefault,
		"graph":            sess.View(),
	}
	if usedDefault {
		resp["warning"] = "pipeline document was not usable; the default pipeline is in effect"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) graph(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	if highlight, set := c.GetQuery("highlight"); set {
		c.JSON(http.StatusOK, sess.ViewWithHighlight(dag.NodeID(highlight)))
		return
	}
	c.JSON(http.StatusOK, sess.View())
}

func (s *Server) records(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": sess.Records()})
}

func (s *Server) logLines(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"log": sess.Log()})
}

func (s *Server) listMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"metrics": sim.Metrics()})
}

func (s *Server) evaluateMetric(c *gin.Context) {
	sess, ok := s.lookup(c)
	if !ok {
		return
	}

	name := c.Param("name")
	value, err := sess.Evaluate(name)
	switch {
	case errors.Is(err, sim.ErrUnknownMetric):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, sim.ErrPipelineNotComplete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"name": name, "value": value})
	}
}

func (s *Server) lookup(c *gin.Context) (*session.Session, bool) {
	sess, err := s.sessions.Get(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return nil, false
	}
	return sess, true
}
