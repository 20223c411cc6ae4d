package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the store answers a ping.
type HealthHandler struct {
	Store Pinger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, body := http.StatusOK, map[string]string{"status": "ok"}
	if err := h.Store.Ping(ctx); err != nil {
		zctx.From(r.Context()).Warn("Health check failed", zap.Error(err))
		status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
