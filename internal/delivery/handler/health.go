package handler

import (
	"context"
	"net/http"
	"time"

	"adv-service/pkg/logger"
	"adv-service/pkg/utils"
)

const healthCheckTimeout = 5 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	logger *logger.Loggers
}

func NewHealthHandler(db Pinger, logger *logger.Loggers) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// CheckHealth answers 200 when the database responds to a ping and 503
// otherwise.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.ErrorLogger.Error().Err(err).Msg("database health check failed")
		utils.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":        "healthy",
		"database":      "ok",
		"response_time": time.Since(start).String(),
	})
}
