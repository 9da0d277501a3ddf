package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/automata"
	"github.com/aretw0/automata/internal/compiler"
	"github.com/aretw0/automata/internal/logging"
	"github.com/aretw0/automata/internal/presentation/graph"
	"github.com/aretw0/automata/pkg/domain"
	"github.com/aretw0/automata/pkg/ports"
	"github.com/aretw0/automata/pkg/session"
)

// Server serves the machines of a catalog over HTTP.
type Server struct {
	Catalog  ports.Catalog
	Sessions *session.Manager // Optional: enables /sessions
	Watcher  ports.Watchable  // Optional: enables the global /events stream
	Metrics  http.Handler     // Optional: mounted at /metrics
	Streams  *StreamManager
	Logger   *slog.Logger

	MaxBodySize int64 // Request bodies above this many bytes get 413
}

// DefaultMaxBodySize bounds request bodies when WithMaxBodySize is not used.
const DefaultMaxBodySize = 1 << 20

// Option configures the Server.
type Option func(*Server)

// WithSessions enables the session endpoints.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) { s.Sessions = m }
}

// WithWatcher streams definition changes on /events.
func WithWatcher(w ports.Watchable) Option {
	return func(s *Server) { s.Watcher = w }
}

// WithMetrics mounts a metrics handler (typically promhttp) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithMaxBodySize caps request bodies. n <= 0 keeps DefaultMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.MaxBodySize = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the catalog.
// Requests to documented routes are validated against the embedded OpenAPI
// document before they reach a handler.
func NewHandler(catalog ports.Catalog, opts ...Option) (http.Handler, error) {
	s := &Server{
		Catalog: catalog,
		Streams: NewStreamManager(),
		Logger:  logging.NewNop(),

		MaxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger

	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc, s.Logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Use(limitBody(s.MaxBodySize))
	r.Use(validate)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec())
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo(doc.Info.Version))
	r.Get("/events", s.SubscribeEvents)

	r.Route("/machines", func(r chi.Router) {
		r.Get("/", s.ListMachines)
		r.Post("/{name}/calculate", s.Calculate)
		r.Get("/{name}/validate", s.Validate)
		r.Get("/{name}/graph", s.GetGraph)
	})

	if s.Sessions != nil {
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.ListSessions)
			r.Post("/", s.CreateSession)
			r.Get("/{id}", s.GetSession)
			r.Post("/{id}", s.FeedSession)
			r.Delete("/{id}", s.DeleteSession)
		})
	}

	return r, nil
}

// limitBody caps what any later reader, the schema validator included, can
// pull from a request body.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Automata API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(apiVersion string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"app":         "automata-http",
			"version":     strings.TrimSpace(automata.Version),
			"api_version": apiVersion,
		})
	}
}

// ListMachines handles the GET /machines request.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	names := s.Catalog.Names()
	resp := make([]MachineInfo, 0, len(names))
	for _, name := range names {
		bp, err := s.Catalog.Get(name)
		if err != nil {
			// Removed between Names and Get.
			continue
		}
		info := MachineInfo{
			Name:     name,
			Initial:  bp.Initial.Name,
			Splitter: bp.SplitterName,
			Rules:    bp.Table.Len(),
		}
		for _, st := range bp.Table.States() {
			info.States = append(info.States, st.Name)
		}
		resp = append(resp, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Calculate handles the POST /machines/{name}/calculate request.
func (s *Server) Calculate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body CalculateRequest
	if err := decodeBody(r.Body, &body); err != nil {
		s.Logger.Warn("Calculate: Invalid request body", "err", err)
		writeBodyError(w, err, "invalid request body")
		return
	}

	m, err := s.Catalog.New(name)
	if err != nil {
		s.fail(w, "Calculate", err)
		return
	}

	out, err := m.Calculate(r.Context(), compiler.Normalize(body.Input))
	if err != nil {
		s.fail(w, "Calculate", err)
		return
	}

	writeJSON(w, http.StatusOK, CalculateResponse{
		Machine: name,
		State:   m.CurrentState().Name,
		Output:  out,
	})
}

// Validate handles the GET /machines/{name}/validate request.
func (s *Server) Validate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, err := s.Catalog.New(name)
	if err != nil {
		s.fail(w, "Validate", err)
		return
	}
	diags := m.Validate()
	if diags == nil {
		diags = []domain.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, ValidateResponse{
		Machine:     name,
		Valid:       len(diags) == 0,
		Diagnostics: diags,
	})
}

// GetGraph handles the GET /machines/{name}/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	bp, err := s.Catalog.Get(name)
	if err != nil {
		s.fail(w, "GetGraph", err)
		return
	}

	format := r.URL.Query().Get("format")
	var data []byte
	switch format {
	case "", "mermaid":
		data = []byte(graph.GenerateMermaid(bp, nil))
	default:
		data, err = compiler.Encode(bp, format)
		if err != nil {
			s.fail(w, "GetGraph", err)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(data)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := decodeBody(r.Body, &body); err != nil {
		writeBodyError(w, err, "machine is required")
		return
	}
	if body.Machine == "" {
		writeError(w, http.StatusBadRequest, errorBody{Error: "machine is required", Kind: "bad_request"})
		return
	}

	res, err := s.Sessions.Start(r.Context(), uuid.NewString(), body.Machine)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(res))
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	res, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(res))
}

// FeedSession handles the POST /sessions/{id} request.
func (s *Server) FeedSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body FeedRequest
	if err := decodeBody(r.Body, &body); err != nil {
		s.Logger.Warn("FeedSession: Invalid request body", "err", err)
		writeBodyError(w, err, "invalid request body")
		return
	}
	if body.Input == nil {
		s.fail(w, "FeedSession", domain.ErrMissingInput)
		return
	}

	res, err := s.Sessions.Feed(r.Context(), id, body.Machine, compiler.Normalize(body.Input))
	if err != nil {
		s.fail(w, "FeedSession", err)
		return
	}

	resp := newSessionResponse(res)
	if data, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(id, string(data))
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles the GET /events request (SSE).
//
// With ?session_id= it streams the session after every feed; without it,
// the names of definitions reloaded by the watcher.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	var events <-chan string
	sessionID := r.URL.Query().Get("session_id")
	if sessionID != "" {
		ch, cancel := s.Streams.Subscribe(sessionID)
		defer cancel()
		events = ch
		s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	} else {
		if s.Watcher == nil {
			http.Error(w, "Watch not supported", http.StatusNotImplemented)
			return
		}
		ch, err := s.Watcher.Watch(r.Context())
		if err != nil {
			http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
			return
		}
		events = ch
		s.Logger.Info("SSE: Subscribing to Definition Reloads")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// fail maps domain errors to status codes and writes the error body.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		s.Logger.Error(op+" failed", "err", err)
	} else {
		s.Logger.Debug(op+" rejected", "status", status, "err", err)
	}
	writeError(w, status, body)
}

func errorResponse(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var (
		noTransition *domain.NoTransitionError
		trap         *domain.TrapStateError
	)
	switch {
	case errors.As(err, &noTransition):
		body.Kind = "no_transition"
		body.State = noTransition.State.Name
		body.Index = &noTransition.Index
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &trap):
		body.Kind = "trap"
		body.State = trap.State.Name
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrInputShape):
		body.Kind = "input_shape"
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, domain.ErrMissingInput):
		body.Kind = "missing_input"
		return http.StatusBadRequest, body
	case errors.Is(err, domain.ErrMachineNotFound), errors.Is(err, domain.ErrSessionNotFound):
		body.Kind = "not_found"
		return http.StatusNotFound, body
	case errors.Is(err, session.ErrMachineMismatch):
		body.Kind = "conflict"
		return http.StatusConflict, body
	}
	body.Kind = "internal"
	return http.StatusInternalServerError, body
}

// decodeBody reads a JSON body keeping numbers exact.
func decodeBody(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// writeBodyError answers a body that could not be read or decoded.
func writeBodyError(w http.ResponseWriter, err error, msg string) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, errorBody{
			Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
			Kind:  "too_large",
		})
		return
	}
	writeError(w, http.StatusBadRequest, errorBody{Error: msg, Kind: "bad_request"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, body)
}
