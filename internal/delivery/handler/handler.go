package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"adv-service/internal/infrastructure/metrics"
	"adv-service/internal/service"
	"adv-service/internal/validation"
	"adv-service/pkg/logger"
	"adv-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxBodyBytes bounds POST bodies; a description is unbounded in the table
// but not on the wire.
const maxBodyBytes = 1 << 20

type AdvertisementHandler struct {
	service service.AdvertisementService
	logger  *logger.Loggers
	metrics *metrics.HandlerMetrics
	tracer  trace.Tracer
}

func NewAdvertisementHandler(service service.AdvertisementService, logger *logger.Loggers, metrics *metrics.HandlerMetrics) *AdvertisementHandler {
	tracer := otel.Tracer("adv-service/handler")
	return &AdvertisementHandler{
		service: service,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
	}
}

func (h *AdvertisementHandler) observe(method, endpoint string, startTime time.Time, status *string) {
	duration := time.Since(startTime).Seconds()
	h.metrics.RequestCount.WithLabelValues(method, endpoint, *status).Inc()
	h.metrics.RequestDuration.WithLabelValues(method, endpoint, *status).Observe(duration)
}

// parseID reads the {id} segment. The route already restricts it to digits,
// so the only failures are zero and values outside the INTEGER id column,
// neither of which can name a row.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *AdvertisementHandler) CreateAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateAdvertisement")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer h.observe("POST", "/adv", startTime, &status)

	adv, err := validation.DecodeCreateAdvertisement(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status = "invalid"
		span.RecordError(err)

		var verr *validation.Error
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			utils.RespondWithErrorDetails(w, http.StatusBadRequest, verr.Message, verr.Fields)
			return
		}
		utils.RespondWithErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	span.SetAttributes(attribute.String("adv.title", adv.Title))

	created, err := h.service.CreateAdvertisement(ctx, adv)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, service.ErrConflict) {
			status = "conflict"
			utils.RespondWithErrorJSON(w, http.StatusBadRequest, "advertisement already exists")
			return
		}
		status = "error"
		h.logger.ErrorLogger.Error().Err(err).Msg("could not create advertisement")
		utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, created)
}

func (h *AdvertisementHandler) GetAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetAdvertisement")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer h.observe("GET", "/adv/{id}", startTime, &status)

	id, ok := parseID(r)
	if !ok {
		status = "not_found"
		utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
		return
	}

	span.SetAttributes(attribute.Int64("adv.id", id))

	adv, err := h.service.GetAdvertisement(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrAdvNotFound) || errors.Is(err, service.ErrInvalidID) {
			status = "not_found"
			utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
			return
		}
		status = "error"
		span.RecordError(err)
		h.logger.ErrorLogger.Error().Err(err).Int64("adv_id", id).Msg("failed to get advertisement")
		utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, adv)
}

func (h *AdvertisementHandler) DeleteAdvertisement(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteAdvertisement")
	defer span.End()

	startTime := time.Now()
	status := "success"
	defer h.observe("DELETE", "/adv/{id}", startTime, &status)

	id, ok := parseID(r)
	if !ok {
		status = "not_found"
		utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
		return
	}

	span.SetAttributes(attribute.Int64("adv.id", id))

	if err := h.service.DeleteAdvertisement(ctx, id); err != nil {
		if errors.Is(err, service.ErrAdvNotFound) || errors.Is(err, service.ErrInvalidID) {
			status = "not_found"
			utils.RespondWithErrorJSON(w, http.StatusNotFound, "advertisement not found")
			return
		}
		status = "error"
		span.RecordError(err)
		h.logger.ErrorLogger.Error().Err(err).Int64("adv_id", id).Msg("failed to delete advertisement")
		utils.RespondWithErrorJSON(w, http.StatusInternalServerError, "internal server error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
