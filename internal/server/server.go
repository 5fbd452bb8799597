// Package server exposes the daemon's trigger surface over HTTP:
// fade-out, restore, the diagnostics report and the adaptive-control
// loop's state writes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woodyard/duskd/internal/diag"
	"github.com/woodyard/duskd/internal/fade"
	"github.com/woodyard/duskd/internal/hub"
	"github.com/woodyard/duskd/internal/insights"
	"github.com/woodyard/duskd/internal/state"
)

// Server is the HTTP API server.
type Server struct {
	addr       string
	httpServer *http.Server

	coordinator *fade.Coordinator
	reporter    *diag.Reporter
	registry    *state.Registry
	alWindows   *state.WindowTracker
	insights    insights.Recorder

	defaultDuration time.Duration
	defaultBuffer   time.Duration
}

// New creates a new API server.
func New(host string, port int, coordinator *fade.Coordinator, reporter *diag.Reporter, registry *state.Registry, alWindows *state.WindowTracker, recorder insights.Recorder, defaultDuration, defaultBuffer time.Duration) *Server {
	return &Server{
		addr:            fmt.Sprintf("%s:%d", host, port),
		coordinator:     coordinator,
		reporter:        reporter,
		registry:        registry,
		alWindows:       alWindows,
		insights:        recorder,
		defaultDuration: defaultDuration,
		defaultBuffer:   defaultBuffer,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /fade/{device}", s.handleFade)
	mux.HandleFunc("POST /restore/{device}", s.handleRestore)
	mux.HandleFunc("GET /report", s.handleReport)
	mux.HandleFunc("POST /adaptive/{device}", s.handleAdaptiveState)
	mux.HandleFunc("POST /adaptive/{device}/window", s.handleAdaptiveWindow)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	})

	return mux
}

// Run starts the API server. It blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	log.Info().Str("addr", s.addr).Msg("Starting API server")

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("API server shutdown error")
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}

// resultResponse is a coordinator result plus its rendered summary line.
type resultResponse struct {
	*fade.Result
	Summary string `json:"summary"`
}

func (s *Server) handleFade(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device")

	duration, err := parseDurationParam(r, "duration", s.defaultDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	buffer, err := parseDurationParam(r, "buffer", s.defaultBuffer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := s.coordinator.FadeOut(r.Context(), deviceID, duration, buffer)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{Result: result, Summary: result.Summary()})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	result, err := s.coordinator.Restore(r.Context(), r.PathValue("device"))
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{Result: result, Summary: result.Summary()})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.reporter.Report(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(report))
}

// adaptiveStateRequest carries a merge-write from the adaptive-control
// loop; absent fields leave the stored state untouched.
type adaptiveStateRequest struct {
	ManualOverride *bool   `json:"manual_override,omitempty"`
	Profile        *string `json:"profile,omitempty"`
}

func (s *Server) handleAdaptiveState(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device")

	var req adaptiveStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.ManualOverride == nil && req.Profile == nil {
		writeError(w, http.StatusBadRequest, errors.New("nothing to update"))
		return
	}

	if req.ManualOverride != nil {
		if err := s.registry.SetOverride(deviceID, *req.ManualOverride); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.insights.Override(deviceID, *req.ManualOverride)
	}
	if req.Profile != nil {
		if err := s.registry.SetProfile(deviceID, *req.Profile); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}

	log.Debug().
		Str("device", deviceID).
		Interface("override", req.ManualOverride).
		Interface("profile", req.Profile).
		Msg("Adaptive state updated")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAdaptiveWindow(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("device")

	duration, err := parseDurationParam(r, "duration", s.defaultDuration)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	buffer, err := parseDurationParam(r, "buffer", s.defaultBuffer)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	activeUntil, err := s.alWindows.MarkActive(deviceID, duration, buffer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"active_until": activeUntil})
}

func parseDurationParam(r *http.Request, name string, fallback time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}

func writeOperationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, hub.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, fade.ErrNoDevice):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
