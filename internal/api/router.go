// Package api provides the HTTP API of the transit catalogue.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/megannnn98/transport-catalogue/internal/api/handler"
	"github.com/megannnn98/transport-catalogue/internal/api/middleware"
	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	Catalogue *catalogue.Catalogue
	Router    *router.Router
	Renderer  *mapview.Renderer

	// RouteRateLimit limits GET /v1/routes (default: middleware.RouteRateLimit).
	RouteRateLimit middleware.RateLimitConfig

	// AllowedOrigins enables CORS for the listed origins when non-empty.
	AllowedOrigins []string

	// ReadinessChecks are evaluated by GET /v1/ops/ready.
	ReadinessChecks []handler.ReadinessCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "transit-api"
	}
	routeLimit := cfg.RouteRateLimit
	if routeLimit.RequestLimit == 0 {
		routeLimit = middleware.RouteRateLimit
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
			MaxAge:         300,
		}).Handler)
	}

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks...)
	transitHandler := handler.NewTransitHandler(handler.TransitHandlerConfig{
		Catalogue: cfg.Catalogue,
		Router:    cfg.Router,
		Renderer:  cfg.Renderer,
		Logger:    cfg.Logger,
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
		})

		r.Get("/stops", transitHandler.ListStops)
		r.Get("/stops/{name}", transitHandler.GetStop)
		r.Get("/buses", transitHandler.ListBuses)
		r.Get("/buses/{name}", transitHandler.GetBus)

		// Journey queries may trigger the one-time graph build.
		r.With(middleware.RateLimitByIP(routeLimit)).Get("/routes", transitHandler.FindRoute)

		r.Get("/map.svg", transitHandler.MapSVG)
		r.Get("/map.geojson", transitHandler.MapGeoJSON)

		r.With(
			middleware.RateLimitByIP(middleware.BatchRateLimit),
			middleware.RequireJSON,
		).Post("/requests", transitHandler.ProcessRequests)
	})

	return r
}
