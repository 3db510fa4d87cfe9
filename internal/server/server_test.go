package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/go-logr/logr"

	"github.com/pipewalk/pipewalk/internal/session"
	"github.com/pipewalk/pipewalk/layout"
	"github.com/pipewalk/pipewalk/sim"
)

func newTestServer(strict bool) *Server {
	return New(":0", logr.Discard(), session.NewManager(logr.Discard(), strict))
}

func do(t *testing.T, s *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), into))
}

type createResponse struct {
	Session         sessionState `json:"session"`
	DefaultPipeline bool         `json:"default_pipeline"`
	Warning         string       `json:"warning"`
}

func createSession(t *testing.T, s *Server, body []byte) createResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/v1/sessions", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp createResponse
	decode(t, w, &resp)
	assert.NotEqual(t, "", resp.Session.SessionID)
	return resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(false)
	w := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSession(t *testing.T) {
	t.Run("empty body uses defaults", func(t *testing.T) {
		s := newTestServer(false)
		resp := createSession(t, s, nil)
		assert.True(t, resp.DefaultPipeline)
		assert.Equal(t, "", resp.Warning)
		assert.Equal(t, 0, resp.Session.Stage)
		assert.Equal(t, sim.DefaultSeed(), resp.Session.Records)
	})

	t.Run("custom pipeline", func(t *testing.T) {
		s := newTestServer(false)
		resp := createSession(t, s, []byte(`{
			"pipeline": {
				"nodes": [
					{"id": "in", "type": "source"},
					{"id": "out", "type": "sink"}
				],
				"edges": [["in", "out"]]
			}
		}`))
		assert.False(t, resp.DefaultPipeline)
	})

	t.Run("unusable pipeline falls back with a warning", func(t *testing.T) {
		s := newTestServer(false)
		resp := createSession(t, s, []byte(`{"pipeline": {}}`))
		assert.True(t, resp.DefaultPipeline)
		assert.NotEqual(t, "", resp.Warning)
	})

	t.Run("strict mode rejects unusable pipeline", func(t *testing.T) {
		s := newTestServer(true)
		w := do(t, s, http.MethodPost, "/v1/sessions", []byte(`{"pipeline": {}}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("custom seed", func(t *testing.T) {
		s := newTestServer(false)
		resp := createSession(t, s, []byte(`{"seed": [{"key": "x", "value": 7}]}`))
		assert.Equal(t, []sim.Record{{Key: "x", Value: 7}}, resp.Session.Records)
	})

	t.Run("chunked body is not dropped", func(t *testing.T) {
		s := newTestServer(false)

		// A chunked request carries no Content-Length; the body must
		// still be bound.
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewReader([]byte(`{"seed": [{"key": "x", "value": 7}]}`)))
		req.Header.Set("Content-Type", "application/json")
		req.TransferEncoding = []string{"chunked"}
		req.ContentLength = -1

		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp createResponse
		decode(t, w, &resp)
		assert.Equal(t, []sim.Record{{Key: "x", Value: 7}}, resp.Session.Records)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		s := newTestServer(false)
		w := do(t, s, http.MethodPost, "/v1/sessions", []byte(`{"seed": [`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdvanceFlow(t *testing.T) {
	s := newTestServer(false)
	id := createSession(t, s, nil).Session.SessionID

	type advanceResponse struct {
		Advanced bool         `json:"advanced"`
		Session  sessionState `json:"session"`
	}

	var third advanceResponse
	for i := 0; i < 3; i++ {
		w := do(t, s, http.MethodPost, "/v1/sessions/"+id+"/advance", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		// Fields omitted from the response (omitempty) would otherwise
		// keep their value from the previous iteration's decode.
		third = advanceResponse{}
		decode(t, w, &third)
		assert.True(t, third.Advanced)
	}
	assert.Equal(t, []sim.Record{
		{Key: "apple", Value: 4},
		{Key: "carrot", Value: 2},
	}, third.Session.Records)
	assert.Equal(t, 3, len(third.Session.Log))

	// Fourth advance is a no-op: same records, stage, and log.
	w := do(t, s, http.MethodPost, "/v1/sessions/"+id+"/advance", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var fourth advanceResponse
	decode(t, w, &fourth)
	assert.False(t, fourth.Advanced)
	assert.Equal(t, third.Session, fourth.Session)
}

func TestReset(t *testing.T) {
	s := newTestServer(false)
	id := createSession(t, s, nil).Session.SessionID

	do(t, s, http.MethodPost, "/v1/sessions/"+id+"/advance", nil)
	w := do(t, s, http.MethodPost, "/v1/sessions/"+id+"/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var st sessionState
	decode(t, w, &st)
	assert.Equal(t, 0, st.Stage)
	assert.Equal(t, sim.DefaultSeed(), st.Records)
	assert.Equal(t, 0, len(st.Log))
}

func TestMetricEndpoints(t *testing.T) {
	s := newTestServer(false)
	id := createSession(t, s, nil).Session.SessionID
	metricPath := func(name string) string {
		return "/v1/sessions/" + id + "/metrics/" + url.PathEscape(name)
	}

	t.Run("before completion", func(t *testing.T) {
		w := do(t, s, http.MethodGet, metricPath(sim.MetricTotalUniqueKeys), nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	for i := 0; i < 3; i++ {
		do(t, s, http.MethodPost, "/v1/sessions/"+id+"/advance", nil)
	}

	t.Run("total unique keys", func(t *testing.T) {
		w := do(t, s, http.MethodGet, metricPath(sim.MetricTotalUniqueKeys), nil)
		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
		}
		decode(t, w, &resp)
		assert.Equal(t, 2.0, resp.Value)
	})

	t.Run("max value", func(t *testing.T) {
		w := do(t, s, http.MethodGet, metricPath(sim.MetricMaxValue), nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown metric", func(t *testing.T) {
		w := do(t, s, http.MethodGet, metricPath("Median"), nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("recognized names are listed", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/v1/metrics", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Metrics []string `json:"metrics"`
		}
		decode(t, w, &resp)
		assert.Equal(t, sim.Metrics(), resp.Metrics)
	})
}

func TestGraphEndpoint(t *testing.T) {
	s := newTestServer(false)
	id := createSession(t, s, nil).Session.SessionID

	t.Run("stage-derived highlight", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/v1/sessions/"+id+"/graph", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var view layout.View
		decode(t, w, &view)
		assert.Equal(t, 5, len(view.Nodes))

		var found string
		for _, n := range view.Nodes {
			if n.Highlighted {
				found = string(n.ID)
			}
		}
		assert.Equal(t, "map1", found)
	})

	t.Run("explicit highlight override", func(t *testing.T) {
		w := do(t, s, http.MethodGet, "/v1/sessions/"+id+"/graph?highlight=output", nil)
		var view layout.View
		decode(t, w, &view)
		for _, n := range view.Nodes {
			assert.Equal(t, n.ID == "output", n.Highlighted)
		}
	})
}

func TestLoadPipelineEndpoint(t *testing.T) {
	t.Run("garbage body falls back", func(t *testing.T) {
		s := newTestServer(false)
		id := createSession(t, s, nil).Session.SessionID

		w := do(t, s, http.MethodPut, "/v1/sessions/"+id+"/pipeline", []byte(`{{{`))
		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			DefaultPipeline bool   `json:"default_pipeline"`
			Warning         string `json:"warning"`
		}
		decode(t, w, &resp)
		assert.True(t, resp.DefaultPipeline)
		assert.NotEqual(t, "", resp.Warning)
	})

	t.Run("strict mode returns the validation error", func(t *testing.T) {
		s := newTestServer(true)
		id := createSession(t, s, nil).Session.SessionID

		w := do(t, s, http.MethodPut, "/v1/sessions/"+id+"/pipeline", []byte(`{{{`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSessionNotFound(t *testing.T) {
	s := newTestServer(false)

	for _, path := range []string{
		"/v1/sessions/missing",
		"/v1/sessions/missing/graph",
		"/v1/sessions/missing/records",
		"/v1/sessions/missing/log",
	} {
		w := do(t, s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "GET %s", path)
	}

	w := do(t, s, http.MethodPost, "/v1/sessions/missing/advance", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDestroySession(t *testing.T) {
	s := newTestServer(false)
	id := createSession(t, s, nil).Session.SessionID

	w := do(t, s, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodGet, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
