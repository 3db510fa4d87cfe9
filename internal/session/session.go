// Package session owns the lifecycle of interactive walkthrough
// sessions. Each session holds its own pipeline graph and simulator;
// there is no cross-session shared mutable state and nothing here is
// a process-global singleton.
package session

import (
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/pipewalk/pipewalk/dag"
	"github.com/pipewalk/pipewalk/internal/metrics"
	"github.com/pipewalk/pipewalk/layout"
	"github.com/pipewalk/pipewalk/sim"
)

// Session is one user's walkthrough: a pipeline graph plus the
// simulator stepping over it. All methods are safe for concurrent
// use; the lock serializes the single-session interaction the way a
// single interactive caller would.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	doc    dag.Document
	graph  *dag.Graph
	sim    *sim.Simulator
	strict bool
	log    logr.Logger
}

func newSession(id string, log logr.Logger, strict bool, document []byte, seed []sim.Record) (*Session, bool, error) {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		strict:    strict,
		log:       log,
	}

	usedDefault, err := s.loadLocked(document)
	if err != nil {
		return nil, false, err
	}

	if seed == nil {
		seed = sim.DefaultSeed()
	}
	s.sim = sim.New(seed)

	return s, usedDefault, nil
}

// LoadPipeline replaces the session's pipeline with the given JSON
// document. A nil or unusable document falls back to the built-in
// default pipeline; the returned bool reports that fallback. In
// strict mode an unusable document is an error instead and the
// session keeps its previous pipeline.
//
// The simulator is deliberately untouched: reloading the graph is a
// display concern, not a data reset.
func (s *Session) LoadPipeline(document []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(document)
}

func (s *Session) loadLocked(document []byte) (bool, error) {
	doc := dag.Default()
	usedDefault := true

	if document != nil {
		parsed, err := dag.Parse(document)
		if err == nil && s.strict {
			err = parsed.Validate()
		}
		switch {
		case err == nil:
			doc = parsed
			usedDefault = false
		case s.strict:
			return false, err
		default:
			s.log.Info("pipeline document rejected, using default pipeline",
				"session", s.ID, "reason", err.Error())
			metrics.PipelineFallbacks.Inc()
		}
	}

	opts := []dag.GraphOption{}
	if s.strict {
		opts = append(opts, dag.Strict())
	}
	graph, err := doc.Build(opts...)
	if err != nil {
		return false, err
	}

	s.doc = doc
	s.graph = graph
	return usedDefault, nil
}

// Advance applies the next pending transformation. The bool is false
// when the pipeline is already at its terminal stage and nothing ran.
func (s *Session) Advance() (sim.Stage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage, advanced := s.sim.Advance()
	if advanced {
		metrics.StageAdvances.WithLabelValues(stage.String()).Inc()
		s.log.V(1).Info("stage advanced", "session", s.ID, "stage", stage.String())
	}
	return stage, advanced
}

// Reset returns the session's data to its initial state. The pipeline
// graph is untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sim.Reset()
	s.log.V(1).Info("session reset", "session", s.ID)
}

// Stage returns the simulator's current stage.
func (s *Session) Stage() sim.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Stage()
}

// Records returns a copy of the current record collection.
func (s *Session) Records() []sim.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Records()
}

// Log returns a copy of the transformation log.
func (s *Session) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Log()
}

// Evaluate computes a named metric over the current records.
func (s *Session) Evaluate(name string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sim.Evaluate(name)
}

// View renders the session's graph. The highlighted node is derived
// from the current stage counter via the stage naming convention; see
// stageNodes.
func (s *Session) View() layout.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return layout.Render(s.graph, s.highlightLocked())
}

// ViewWithHighlight renders the graph with an explicit highlight,
// bypassing the stage-derived one.
func (s *Session) ViewWithHighlight(highlight dag.NodeID) layout.View {
	s.mu.Lock()
	defer s.mu.Unlock()

	return layout.Render(s.graph, highlight)
}

// stageNodes are the nodes whose id matches the transformation-stage
// naming convention ("map", "filter", "reduce" as substrings), in
// document order. The node highlighted is the one at the index of the
// current stage counter; once the counter passes the last stage node,
// nothing is highlighted.
func (s *Session) stageNodes() []dag.NodeID {
	var ids []dag.NodeID
	for _, n := range s.doc.Nodes {
		if strings.Contains(n.ID, "map") ||
			strings.Contains(n.ID, "filter") ||
			strings.Contains(n.ID, "reduce") {
			ids = append(ids, dag.NodeID(n.ID))
		}
	}
	return ids
}

func (s *Session) highlightLocked() dag.NodeID {
	stages := s.stageNodes()
	i := int(s.sim.Stage())
	if i >= len(stages) {
		return ""
	}
	return stages[i]
}
