package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"werewolf-client/internal/domain"
)

// ScreenSource exposes what the client is currently showing
type ScreenSource interface {
	Current() domain.Location
	History() []domain.Location
}

// StatusServer is a small loopback HTTP server that reports the client's
// current screen, for scripts and smoke tests driving several clients.
type StatusServer struct {
	server  *http.Server
	source  ScreenSource
	version string
	logger  *slog.Logger
}

// ScreenResponse is the response for GET /screen
type ScreenResponse struct {
	Screen   string   `json:"screen"`
	URL      string   `json:"url"`
	GameID   string   `json:"gameId"`
	PlayerID string   `json:"playerId"`
	History  []string `json:"history"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// NewStatusServer creates a new status server listening on addr
func NewStatusServer(addr string, source ScreenSource, version string, logger *slog.Logger) *StatusServer {
	s := &StatusServer{
		source:  source,
		version: version,
		logger:  logger,
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the routed handler wrapped in the logging middleware
func (s *StatusServer) Handler() http.Handler {
	mux := httprouter.New()
	mux.GET("/healthz", s.handleHealth)
	mux.GET("/version", s.handleVersion)
	mux.GET("/screen", s.handleScreen)
	return s.middleware(mux)
}

// Start starts the status server
func (s *StatusServer) Start() error {
	s.logger.Info("status server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the status server
func (s *StatusServer) Shutdown(ctx context.Context) error {
	s.logger.Info("status server shutting down")
	return s.server.Shutdown(ctx)
}

// middleware wraps the handler with request logging
func (s *StatusServer) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Debug("status request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

// handleHealth handles GET /healthz
func (s *StatusServer) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

// handleVersion handles GET /version
func (s *StatusServer) handleVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("werewolf-client v" + s.version + "\n"))
}

// handleScreen handles GET /screen
func (s *StatusServer) handleScreen(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cur := s.source.Current()
	history := s.source.History()

	resp := &ScreenResponse{
		Screen:   cur.Screen.String(),
		GameID:   cur.GameID,
		PlayerID: cur.PlayerID,
		History:  make([]string, 0, len(history)),
	}
	if cur.Screen != "" {
		resp.URL = cur.URL()
	}
	for _, loc := range history {
		resp.History = append(resp.History, loc.URL())
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
