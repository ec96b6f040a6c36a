// Package http serves the status endpoints of the watch daemon.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/IbnNafis007/tlgen/app"
	"github.com/IbnNafis007/tlgen/core/formatter"
)

// ErrorResponseBody represents an error response body.
type ErrorResponseBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse summarizes the most recent compilation run.
type StatusResponse struct {
	Status      string     `json:"status"` // "waiting" until the first run
	Runs        int        `json:"runs"`
	RunID       string     `json:"run_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	DurationMS  int64      `json:"duration_ms,omitempty"`
	Definitions int        `json:"definitions,omitempty"`
	Types       int        `json:"types,omitempty"`
	Functions   int        `json:"functions,omitempty"`
	Skipped     int        `json:"skipped,omitempty"`
	Artifacts   int        `json:"artifacts,omitempty"`
	Diagnostics []string   `json:"diagnostics,omitempty"`
}

// StatusHandler exposes tracker state over HTTP.
type StatusHandler struct {
	tracker *app.Tracker
	logger  zerolog.Logger
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(tracker *app.Tracker, logger zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		tracker: tracker,
		logger:  logger,
	}
}

// Healthz returns a simple liveness check.
func (h *StatusHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Status reports the outcome of the last compilation run.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	last := h.tracker.Last()
	if last == nil {
		writeJSON(w, http.StatusOK, StatusResponse{Status: "waiting"})
		return
	}

	resp := StatusResponse{
		Status:      last.Outcome,
		Runs:        h.tracker.Runs(),
		RunID:       last.RunID,
		StartedAt:   &last.StartedAt,
		DurationMS:  last.Duration.Milliseconds(),
		Definitions: last.Definitions,
		Types:       last.Types,
		Functions:   last.Functions,
		Skipped:     last.Skipped,
		Artifacts:   len(last.Artifacts),
	}
	for _, d := range last.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, d.Error())
	}

	writeJSON(w, http.StatusOK, resp)
}

// Registry lists the compiled constructors. The optional kind query
// parameter restricts the listing to "types" or "functions".
func (h *StatusHandler) Registry(w http.ResponseWriter, r *http.Request) {
	reg := h.tracker.Registry()
	if reg == nil {
		writeError(w, http.StatusServiceUnavailable, "no_registry", "No successful compilation yet")
		return
	}

	rows := formatter.Rows(reg)
	if kind := r.URL.Query().Get("kind"); kind != "" {
		kind = strings.TrimSuffix(kind, "s")
		var filtered []formatter.Row
		for _, row := range rows {
			if row.Kind == kind {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}

	f, ok := formatter.Get("json")
	if !ok {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := f.FormatRows(w, rows, formatter.FormatOptions{}); err != nil {
		h.logger.Error().Err(err).Msg("failed to format registry listing")
	}
}

// RegistryEntry looks up one constructor by id, hex or decimal.
func (h *StatusHandler) RegistryEntry(w http.ResponseWriter, r *http.Request) {
	reg := h.tracker.Registry()
	if reg == nil {
		writeError(w, http.StatusServiceUnavailable, "no_registry", "No successful compilation yet")
		return
	}

	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 0, 32)
	if err != nil {
		// Bare hex without the 0x prefix
		id, err = strconv.ParseUint(raw, 16, 32)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_id", fmt.Sprintf("Cannot parse constructor id %q", raw))
		return
	}

	spec, ok := reg.Lookup(uint32(id))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_id", fmt.Sprintf("No constructor with id 0x%08x", id))
		return
	}

	kind := "type"
	if spec.Def.IsFunction {
		kind = "function"
	}
	writeJSON(w, http.StatusOK, formatter.Row{
		ID:     fmt.Sprintf("0x%08x", spec.Def.ID),
		Kind:   kind,
		Name:   spec.Def.FullName(),
		Args:   len(spec.Def.Args),
		Result: spec.Def.Result,
	})
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	MetricsHandler http.Handler // /metrics endpoint, nil disables it
	Version        string       // reported by /version, default "dev"
}

// NewRouter creates the status server router.
func NewRouter(status *StatusHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", status.Healthz)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Get("/version", versionHandler(cfg.Version))

	r.Get("/v1/status", status.Status)
	r.Get("/v1/registry", status.Registry)
	r.Get("/v1/registry/{id}", status.RegistryEntry)

	return r
}

func versionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{
			Version: version,
			Service: "tlgen",
		})
	}
}

// NewLoggingMiddleware creates HTTP request logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponseBody{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
