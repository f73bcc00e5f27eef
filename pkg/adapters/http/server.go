package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Lokiragnarock/srm-cia-survey/internal/presentation/graph"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/domain"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/ports"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/runner"
	"github.com/Lokiragnarock/srm-cia-survey/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 16

// Watcher emits an event whenever the survey definition is reloaded.
type Watcher interface {
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the survey API on top of a session manager.
type Server struct {
	Sessions  *session.Manager
	Responses ports.ResponseReader
	Streams   *StreamManager

	watcher  Watcher
	metrics  http.Handler
	logger   *slog.Logger
	maxInput int
	app      string
	version  string
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithResponses enables GET /responses.
func WithResponses(reader ports.ResponseReader) Option {
	return func(s *Server) {
		s.Responses = reader
	}
}

// WithWatcher enables the global reload stream on GET /events.
func WithWatcher(w Watcher) Option {
	return func(s *Server) {
		s.watcher = w
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxInputSize sets the maximum accepted answer size in bytes.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// WithInfo sets what GET /info reports.
func WithInfo(app, version string) Option {
	return func(s *Server) {
		s.app = app
		s.version = version
	}
}

// NewServer creates a Server.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		Sessions: sessions,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		app:      "survey-http",
		version:  "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the session manager.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(sessions, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", s.GetSpec)
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(swaggerHTML))
	})

	r.Get("/graph", s.GetGraph)
	r.Get("/graph.mmd", s.GetGraphMermaid)
	r.Get("/responses", s.ListResponses)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.StartSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/advance", s.AdvanceSession)
			r.Post("/retreat", s.RetreatSession)
			r.Post("/submit", s.SubmitSession)
			r.Get("/peek", s.PeekNextLabel)
		})
	})
	return r
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
    <title>Survey API Documentation</title>
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

// SessionResponse is the body of every session endpoint.
type SessionResponse struct {
	*runner.View
	Submitted bool  `json:"submitted,omitempty"`
	Undone    *bool `json:"undone,omitempty"`
}

type startRequest struct {
	SessionID string `json:"session_id"`
}

type advanceRequest struct {
	Answer string `json:"answer"`
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &body); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	out, err := s.Sessions.Start(r.Context(), body.SessionID)
	if err != nil {
		s.fail(w, "StartSession", err)
		return
	}
	s.broadcast(out)
	s.respond(w, http.StatusCreated, out, nil)
}

// ListSessions handles GET /sessions.
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

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	s.respond(w, http.StatusOK, &session.Outcome{State: state}, nil)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceSession handles POST /sessions/{id}/advance.
func (s *Server) AdvanceSession(w http.ResponseWriter, r *http.Request) {
	var body advanceRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	answer, err := runner.CleanAnswer(body.Answer, s.maxInput)
	if err != nil {
		s.logger.Warn("AdvanceSession: Input rejected", "err", err, "size", len(body.Answer))
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.Sessions.Advance(r.Context(), chi.URLParam(r, "id"), answer)
	if err != nil {
		s.fail(w, "AdvanceSession", err)
		return
	}
	s.broadcast(out)
	s.respond(w, http.StatusOK, out, nil)
}

// RetreatSession handles POST /sessions/{id}/retreat.
func (s *Server) RetreatSession(w http.ResponseWriter, r *http.Request) {
	out, undone, err := s.Sessions.Retreat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "RetreatSession", err)
		return
	}
	if undone {
		s.broadcast(out)
	}
	s.respond(w, http.StatusOK, out, &undone)
}

// SubmitSession handles POST /sessions/{id}/submit.
func (s *Server) SubmitSession(w http.ResponseWriter, r *http.Request) {
	out, err := s.Sessions.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "SubmitSession", err)
		return
	}
	s.broadcast(out)
	s.respond(w, http.StatusOK, out, nil)
}

// PeekNextLabel handles GET /sessions/{id}/peek.
func (s *Server) PeekNextLabel(w http.ResponseWriter, r *http.Request) {
	state, err := s.Sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "PeekNextLabel", err)
		return
	}
	label := s.Sessions.Engine().PeekNextLabel(state, r.URL.Query().Get("answer"))
	writeJSON(w, http.StatusOK, map[string]domain.NextLabel{"label": label})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Sessions.Engine().Graph().Nodes())
}

// GetGraphMermaid handles GET /graph.mmd. With ?session_id= the session's
// path is highlighted.
func (s *Server) GetGraphMermaid(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("session_id"); id != "" {
		state, err := s.Sessions.Load(r.Context(), id)
		if err != nil {
			s.fail(w, "GetGraphMermaid", err)
			return
		}
		overlay = graph.OverlayFor(state)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(s.Sessions.Engine().Graph(), overlay))
}

// ListResponses handles GET /responses. Rows are flattened the way the
// response sheet lays them out.
func (s *Server) ListResponses(w http.ResponseWriter, r *http.Request) {
	if s.Responses == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("response storage is not readable"))
		return
	}
	rows, err := s.Responses.ListResponses(r.Context())
	if err != nil {
		s.fail(w, "ListResponses", err)
		return
	}

	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		flat := map[string]string{
			"Timestamp":  row.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			"Path_Taken": row.PathTaken,
		}
		if row.SessionID != "" {
			flat["Session_ID"] = row.SessionID
		}
		for k, v := range row.Columns {
			flat[k] = v
		}
		out = append(out, flat)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := LoadSpec(r.Context()); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"app":         s.app,
		"version":     strings.TrimSpace(s.version),
		"api_version": apiVersion,
		"questions":   s.Sessions.Engine().Graph().Len(),
	})
}

// GetSpec handles GET /openapi.yaml.
func (s *Server) GetSpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	_, _ = w.Write(RawSpec())
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		s.streamReloads(w, r, flusher)
		return
	}

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	setStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	var watchList []string
	if watch := r.URL.Query().Get("watch"); watch != "" {
		watchList = strings.Split(watch, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watchList) > 0 && !matchesWatch(msg, watchList) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// streamReloads forwards survey reload events when no session is given.
func (s *Server) streamReloads(w http.ResponseWriter, r *http.Request, flusher http.Flusher) {
	if s.watcher == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}
	events, err := s.watcher.Watch(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	setStreamHeaders(w)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}

// matchesWatch reports whether the diff in msg touches one of fields.
func matchesWatch(msg string, fields []string) bool {
	var diff domain.StateDiff
	if err := json.Unmarshal([]byte(msg), &diff); err != nil {
		return true
	}
	for _, field := range fields {
		switch strings.TrimSpace(field) {
		case "node":
			if diff.CurrentNodeID != nil {
				return true
			}
		case "status":
			if diff.Status != nil {
				return true
			}
		case "position":
			if diff.Position != nil {
				return true
			}
		case "answers":
			if len(diff.Answers) > 0 {
				return true
			}
		case "path":
			if diff.Path != nil {
				return true
			}
		}
	}
	return false
}

// broadcast sends the diff of a step to the session's SSE subscribers.
func (s *Server) broadcast(out *session.Outcome) {
	diff := domain.Diff(out.Previous, out.State)
	if diff == nil {
		return
	}
	data, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("failed to encode diff", "err", err)
		return
	}
	s.Streams.Broadcast(out.State.SessionID, string(data))
}

func (s *Server) respond(w http.ResponseWriter, status int, out *session.Outcome, undone *bool) {
	view, err := runner.NewView(s.Sessions.Engine(), out.State)
	if err != nil {
		s.fail(w, "view", err)
		return
	}
	writeJSON(w, status, SessionResponse{
		View:      view,
		Submitted: out.Submission != nil,
		Undone:    undone,
	})
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err)
	}
	s.writeError(w, status, err)
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMissingAnswer), errors.Is(err, domain.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotTerminal):
		return http.StatusConflict
	case errors.Is(err, runner.ErrAnswerTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSubmitFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
