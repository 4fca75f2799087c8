package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/gamelib/internal/server/storage"
	"github.com/iudanet/gamelib/pkg/api"
)

// pingTimeout ограничивает проверку доступности хранилища
const pingTimeout = 2 * time.Second

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	store   storage.Pinger
	version string
}

// NewHealthHandler создает новый handler для health check.
// store может быть nil, тогда хранилище не проверяется.
func NewHealthHandler(logger *slog.Logger, store storage.Pinger, version string) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		store:   store,
		version: version,
	}
}

// Health обрабатывает GET /health
// Возвращает 503, если хранилище учетных записей не отвечает
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := api.HealthResponse{
		Status:  "ok",
		Version: h.version,
	}

	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "storage ping failed", slog.Any("error", err))
			resp.Status = "unavailable"
			sendJSON(h.logger, w, resp, http.StatusServiceUnavailable)
			return
		}
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}
