// Package api implements the HTTP API for the agent.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/moodniko/niko-agent/internal/agent"
	"github.com/moodniko/niko-agent/internal/archive"
	"github.com/moodniko/niko-agent/internal/buildinfo"
	"github.com/moodniko/niko-agent/internal/connwatch"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// ChatRequest is the body for POST /v1/chat.
type ChatRequest struct {
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message"`
}

// ChatResponse is the reply for POST /v1/chat. Mood, content type and
// stage reflect the session after the turn was processed.
type ChatResponse struct {
	Reply       string `json:"reply"`
	UserID      string `json:"user_id"`
	Mood        string `json:"mood,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Stage       int    `json:"stage"`
}

// Server is the HTTP API server.
type Server struct {
	listen  string
	loop    *agent.Loop
	archive *archive.Store
	watch   *connwatch.Manager
	logger  *slog.Logger
	server  *http.Server
}

// NewServer creates a new API server. listen is a host:port string.
func NewServer(listen string, loop *agent.Loop, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		listen: listen,
		loop:   loop,
		logger: logger.With("component", "api"),
	}
}

// SetArchiveStore enables the transcript endpoint.
func (s *Server) SetArchiveStore(as *archive.Store) {
	s.archive = as
}

// SetWatchManager enables per-dependency status in the health endpoint.
func (s *Server) SetWatchManager(m *connwatch.Manager) {
	s.watch = m
}

// routes builds the request mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat", s.handleChat)

	mux.HandleFunc("GET /v1/session/{id}", s.handleSessionGet)
	mux.HandleFunc("POST /v1/session/{id}/reset", s.handleSessionReset)
	mux.HandleFunc("GET /v1/session/{id}/transcript", s.handleTranscript)

	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests. It blocks until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.listen,
		Handler:      s.routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // model calls can be slow
	}

	s.logger.Info("starting API server", "listen", s.listen)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

// handleChat processes one conversation turn.
// POST /v1/chat {"user_id": "...", "message": "I'm feeling sad"}
// An empty user_id starts a fresh anonymous session; the assigned ID
// comes back in the response so the client can continue it.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = uuid.New().String()
	}

	reply, err := s.loop.Chat(r.Context(), userID, req.Message)
	if err != nil {
		s.logger.Error("chat turn failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "agent error")
		return
	}

	sess := s.loop.SessionState(userID)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ChatResponse{
		Reply:       reply,
		UserID:      userID,
		Mood:        sess.CurrentMood,
		ContentType: sess.CurrentContentType,
		Stage:       sess.Stage,
	}, s.logger)
}

// handleSessionGet returns the live session state for a user.
func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess := s.loop.SessionState(r.PathValue("id"))
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, sess, s.logger)
}

// handleSessionReset clears a user's session and shown-item tracking.
func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.loop.ResetSession(id)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "reset", "user_id": id}, s.logger)
}

// handleTranscript returns archived turns for a user, oldest first.
func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.errorResponse(w, http.StatusNotFound, "transcript archive not enabled")
		return
	}

	turns, err := s.archive.Recent(r.PathValue("id"), 100)
	if err != nil {
		s.logger.Error("transcript query failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "transcript query failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"turns": turns}, s.logger)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "Niko",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{"status": "healthy", "model": "ok"}
	if err := s.loop.Ping(r.Context()); err != nil {
		// Degraded, not down: turns still complete with the fallback reply.
		status["model"] = "unreachable"
	}
	if s.watch != nil {
		status["services"] = s.watch.Status()
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, status, s.logger)
}
