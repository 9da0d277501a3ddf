package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/automata/pkg/adapters/memory"
	"github.com/aretw0/automata/pkg/registry"
	"github.com/aretw0/automata/pkg/session"
)

type stubWatcher struct {
	events []string
}

func (w *stubWatcher) Watch(ctx context.Context) (<-chan string, error) {
	ch := make(chan string, len(w.events))
	for _, e := range w.events {
		ch <- e
	}
	close(ch)
	return ch, nil
}

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	reg := registry.WithBuiltins()
	mgr := session.NewManager(memory.NewStore(), reg)
	h, err := NewHandler(reg, append([]Option{WithSessions(mgr)}, opts...)...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestGetSwagger(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.NotNil(t, doc.Paths.Find("/machines/{name}/calculate"))
}

func TestHealthAndInfo(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	info := decode[map[string]string](t, w)
	assert.Equal(t, "automata-http", info["app"])
	assert.NotEmpty(t, info["api_version"])
}

func TestOpenAPIDocument(t *testing.T) {
	w := do(t, newTestHandler(t), "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestListMachines(t *testing.T) {
	w := do(t, newTestHandler(t), "GET", "/machines", nil)
	require.Equal(t, http.StatusOK, w.Code)

	machines := decode[[]MachineInfo](t, w)
	require.Len(t, machines, 3)
	assert.Equal(t, "mod3", machines[0].Name)
	assert.Equal(t, "S0", machines[0].Initial)
	assert.Equal(t, 6, machines[0].Rules)
}

func TestCalculate(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name       string
		path       string
		body       any
		wantStatus int
		wantState  string
		wantOutput any
		wantKind   string
	}{
		{"Accepted", "/machines/mod3/calculate", map[string]any{"input": "110"}, http.StatusOK, "S0", float64(0), ""},
		{"Parity", "/machines/parity/calculate", map[string]any{"input": "111"}, http.StatusOK, "ODD", true, ""},
		{"No Transition", "/machines/mod3/calculate", map[string]any{"input": "102"}, http.StatusUnprocessableEntity, "", nil, "no_transition"},
		{"Trap", "/machines/trap/calculate", map[string]any{"input": "100"}, http.StatusUnprocessableEntity, "", nil, "trap"},
		{"Input Shape", "/machines/mod3/calculate", map[string]any{"input": 5}, http.StatusUnprocessableEntity, "", nil, "input_shape"},
		{"Null Input", "/machines/mod3/calculate", map[string]any{"input": nil}, http.StatusBadRequest, "", nil, "missing_input"},
		{"Missing Field", "/machines/mod3/calculate", map[string]any{}, http.StatusBadRequest, "", nil, "bad_request"},
		{"Unknown Machine", "/machines/nope/calculate", map[string]any{"input": "1"}, http.StatusNotFound, "", nil, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", tt.path, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantKind != "" {
				body := decode[errorBody](t, w)
				assert.Equal(t, tt.wantKind, body.Kind)
				return
			}
			resp := decode[CalculateResponse](t, w)
			assert.Equal(t, tt.wantState, resp.State)
			assert.Equal(t, tt.wantOutput, resp.Output)
		})
	}
}

func TestCalculate_NoTransitionDetails(t *testing.T) {
	w := do(t, newTestHandler(t), "POST", "/machines/mod3/calculate", map[string]any{"input": "10x"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	body := decode[errorBody](t, w)
	assert.Equal(t, "S2", body.State)
	require.NotNil(t, body.Index)
	assert.Equal(t, 2, *body.Index)
}

func TestRequestBodyLimit(t *testing.T) {
	h := newTestHandler(t, WithMaxBodySize(1024))
	big := map[string]any{"input": strings.Repeat("0", 2048)}

	for _, path := range []string{"/machines/mod3/calculate", "/sessions"} {
		t.Run(path, func(t *testing.T) {
			w := do(t, h, "POST", path, big)
			require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
			assert.Equal(t, "too_large", decode[errorBody](t, w).Kind)
		})
	}

	w := do(t, h, "POST", "/machines/mod3/calculate", map[string]any{"input": "110"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestValidate(t *testing.T) {
	w := do(t, newTestHandler(t), "GET", "/machines/mod3/validate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[ValidateResponse](t, w)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.Diagnostics)
}

func TestGetGraph(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/machines/trap/graph", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "graph LR")
	assert.Contains(t, w.Body.String(), "TRAP{{")

	w = do(t, h, "GET", "/machines/mod3/graph?format=yaml", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "initial: S0")

	w = do(t, h, "GET", "/machines/mod3/graph?format=svg", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "GET", "/machines/nope/graph", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_Lifecycle(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/sessions/abc", map[string]any{"machine": "mod3", "input": "1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, "S1", resp.State)
	assert.Equal(t, float64(1), resp.Output)

	w = do(t, h, "POST", "/sessions/abc", map[string]any{"input": "0"})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[SessionResponse](t, w)
	assert.Equal(t, "S2", resp.State)
	assert.Equal(t, 2, resp.Steps)
	assert.Equal(t, []string{"S0", "S1", "S2"}, resp.History)

	// A rejected feed leaves the session where it was.
	w = do(t, h, "POST", "/sessions/abc", map[string]any{"input": "1x"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, h, "GET", "/sessions/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S2", decode[SessionResponse](t, w).State)

	w = do(t, h, "POST", "/sessions/abc", map[string]any{"machine": "parity", "input": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"abc"}, decode[[]string](t, w))

	w = do(t, h, "DELETE", "/sessions/abc", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/sessions/abc", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_Trap(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/sessions/t1", map[string]any{"machine": "trap", "input": "00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	assert.Equal(t, "TRAP", resp.State)
	assert.Nil(t, resp.Output)
	assert.Contains(t, resp.Trap, "trapped")
}

func TestSessions_FeedUnknown(t *testing.T) {
	w := do(t, newTestHandler(t), "POST", "/sessions/ghost", map[string]any{"input": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSession(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/sessions", map[string]any{"machine": "parity"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[SessionResponse](t, w)
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
	assert.Equal(t, "EVEN", resp.State)
	assert.Equal(t, false, resp.Output)

	w = do(t, h, "POST", "/sessions", map[string]any{"machine": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessions_Disabled(t *testing.T) {
	h, err := NewHandler(registry.WithBuiltins())
	require.NoError(t, err)

	w := do(t, h, "GET", "/sessions", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsMount(t *testing.T) {
	h := newTestHandler(t, WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("automata_transitions_total 1\n"))
	})))

	w := do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "automata_transitions_total")
}

func TestSubscribeEvents_Global(t *testing.T) {
	h := newTestHandler(t, WithWatcher(&stubWatcher{events: []string{"mod3"}}))

	w := do(t, h, "GET", "/events", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "event: ping")
	assert.Contains(t, body, "data: mod3")
}

func TestSubscribeEvents_NoWatcher(t *testing.T) {
	w := do(t, newTestHandler(t), "GET", "/events", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestStreamManager(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", `{"state":"S1"}`)
	sm.Broadcast("other", "ignored")
	assert.Equal(t, `{"state":"S1"}`, <-ch)

	cancel()
	assert.Equal(t, 0, sm.Subscribers("s1"))
	_, open := <-ch
	assert.False(t, open)
}
