// Package pipewalk is an educational visualizer for a toy big-data
// transformation pipeline. It renders a directed graph of pipeline
// stages and steps a small in-memory record collection through three
// fixed transformations (map, filter, reduceByKey), one stage per
// user action.
package pipewalk

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/pipewalk/pipewalk/internal/server"
	"github.com/pipewalk/pipewalk/internal/session"
)

const shutdownTimeout = 5 * time.Second

// App wires the session manager and the HTTP host together.
type App struct {
	addr   string
	log    logr.Logger
	strict bool

	sessions *session.Manager
	server   *server.Server

	eg *errgroup.Group
}

// New creates an app. Defaults: listen on :8080, discard logs,
// permissive pipeline documents.
func New(opts ...Option) *App {
	a := &App{
		addr: ":8080",
		log:  logr.Discard(),
	}

	for _, opt := range opts {
		opt(a)
	}

	a.sessions = session.NewManager(a.log.WithName("session"), a.strict)
	a.server = server.New(a.addr, a.log.WithName("http"), a.sessions)

	return a
}

// Sessions returns the app's session manager.
func (a *App) Sessions() *session.Manager {
	return a.sessions
}

// Run blocks until it's exited, either by an error or by a graceful
// shutdown triggered by a call to Close.
func (a *App) Run() error {
	grp := errgroup.Group{}
	a.eg = &grp
	grp.Go(a.server.Run)
	return grp.Wait()
}

// Close shuts the app down and waits for Run to return.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Close(ctx); err != nil {
		return err
	}
	if a.eg != nil {
		return a.eg.Wait()
	}
	return nil
}
