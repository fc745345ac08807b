package router

import (
	"net/http"

	"adv-service/internal/delivery/handler"
	"adv-service/internal/delivery/middleware"
	"adv-service/internal/infrastructure/metrics"
	"adv-service/internal/service"
	"adv-service/pkg/logger"
	"adv-service/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// idPattern only admits decimal ids; anything else falls through to 404.
const idPattern = "/adv/{id:[0-9]+}"

type Dependencies struct {
	Service     service.AdvertisementService
	DB          handler.Pinger
	Loggers     *logger.Loggers
	Metrics     *metrics.HandlerMetrics
	RateLimiter *middleware.RateLimiter // nil disables rate limiting
}

func SetupRoutes(r *chi.Mux, deps Dependencies) {
	r.Use(chimw.RequestID)
	r.Use(middleware.PeerAddr)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog(deps.Loggers))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithErrorJSON(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithErrorJSON(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	advHandler := handler.NewAdvertisementHandler(deps.Service, deps.Loggers, deps.Metrics)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Loggers)

	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware)
		}
		r.Post("/adv", advHandler.CreateAdvertisement)
		r.Get(idPattern, advHandler.GetAdvertisement)
		r.Delete(idPattern, advHandler.DeleteAdvertisement)
	})

	r.Get("/healthz", healthHandler.CheckHealth)
	r.Handle("/metrics", deps.Metrics.HTTPHandler())
}
