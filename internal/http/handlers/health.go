package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Mojtabakargaran/identity-service/internal/http/helpers"
	"github.com/Mojtabakargaran/identity-service/internal/session"
)

// Pinger cubre lo que exponen *pgxpool.Pool y clientes similares.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health responde las sondas de liveness y readiness.
type Health struct {
	DB       Pinger
	Sessions session.Store
}

// Live maneja GET /healthz
func (h *Health) Live(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready maneja GET /readyz
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			checks["database"] = err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	}
	if h.Sessions != nil {
		if err := h.Sessions.Ping(ctx); err != nil {
			checks["sessions"] = err.Error()
			healthy = false
		} else {
			checks["sessions"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
}
