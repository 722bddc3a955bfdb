// Package server exposes the translation pipeline over a local HTTP API so
// that a browser helper or global hotkey can trigger it.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/latextocalc/latextocalc/pkg/clipboard"
	"github.com/latextocalc/latextocalc/pkg/models"
	"github.com/latextocalc/latextocalc/pkg/pipeline"
)

// maxBodySize caps request bodies.
const maxBodySize = 1 << 20

// Server is the local trigger API.
type Server struct {
	listen string
	svc    *pipeline.Service
	source pipeline.TextSource
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Server. source is read when a trigger carries no expression,
// normally the system clipboard.
func New(listen string, svc *pipeline.Service, source pipeline.TextSource, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		listen: listen,
		svc:    svc,
		source: source,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.mux.HandleFunc("/v1/translate", s.handleTranslate)
	s.mux.HandleFunc("/v1/settings", s.handleSettings)
	s.mux.HandleFunc("/v1/cache/stats", s.handleCacheStats)
	s.mux.HandleFunc("/healthz", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server and shuts it down gracefully when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listen,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("latextocalc listening", "addr", s.listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	r.Body.Close()

	var req models.TriggerRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	src := s.source
	if req.Expression != "" {
		src = clipboard.Static(req.Expression)
	}
	if src == nil {
		writeJSONError(w, http.StatusBadRequest, "expression is required")
		return
	}

	out := s.svc.Trigger(r.Context(), src)
	if out.Cached {
		w.Header().Set("X-Latextocalc-Cache", "hit")
	} else if out.Status == models.StatusTranslated {
		w.Header().Set("X-Latextocalc-Cache", "miss")
	}
	writeJSON(w, statusCode(out.Status), out)
}

func statusCode(status models.OutcomeStatus) int {
	switch status {
	case models.StatusTranslated:
		return http.StatusOK
	case models.StatusCancelled:
		return http.StatusConflict
	case models.StatusNoInput:
		return http.StatusUnprocessableEntity
	case models.StatusNoInternet, models.StatusServerDown:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		current, err := s.svc.Settings(r.Context())
		if err != nil {
			s.logger.Warn("settings load failed", "error", err)
		}
		writeJSON(w, http.StatusOK, current)

	case http.MethodPut:
		var changes models.Settings
		if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&changes); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		current, err := s.svc.Settings(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, "settings unavailable")
			return
		}
		updated, err := s.svc.UpdateSettings(r.Context(), current.Apply(changes))
		if err != nil {
			s.logger.Error("settings save failed", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "failed to save settings")
			return
		}
		writeJSON(w, http.StatusOK, updated)

	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.svc.Cache().Stats()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "cache stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"error":{"message":%q,"type":"latextocalc_error","code":%d}}`, message, code)
}
