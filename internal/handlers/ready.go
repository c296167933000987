package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"langsite/internal/logger"
	"langsite/middleware"
)

const readinessTimeout = 2 * time.Second

// ReadinessProbe reports whether one dependency can serve traffic.
type ReadinessProbe func(ctx context.Context) error

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HealthCheck answers liveness probes.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(readinessResponse{Status: "ok"})
}

// ReadinessCheck runs every probe and answers 503 when one fails.
func ReadinessCheck(probes map[string]ReadinessProbe) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		response := readinessResponse{Status: "ok"}
		status := http.StatusOK
		for name, probe := range probes {
			if response.Checks == nil {
				response.Checks = make(map[string]string, len(probes))
			}
			if err := probe(ctx); err != nil {
				response.Checks[name] = err.Error()
				response.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			response.Checks[name] = "ok"
		}

		logger.HTTPEvent(r.Method, r.URL.Path, status, 0).
			Str("request_id", requestID).
			Msg("readiness check")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}
}
