package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	pinger Pinger
}

// NewSystemHandler returns the health and version handlers. A nil pinger
// always reports healthy.
func NewSystemHandler(p Pinger) *SystemHandler {
	return &SystemHandler{pinger: p}
}

func (h *SystemHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.pinger != nil {
		if err := h.pinger.PingContext(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "health check failed", slog.Any("err", err))
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintln(w, `{"status":"unavailable","service":"portfolio"}`)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"status":"ok","service":"portfolio"}`)
}

func (h *SystemHandler) VersionHandler(version, buildTime string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"version": version, "buildTime": buildTime})
	}
}
