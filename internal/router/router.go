package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appLogger "github.com/FACorreiaa/go-parisian-doors/app/logger"
	appMiddleware "github.com/FACorreiaa/go-parisian-doors/app/middleware"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/door"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/geocoding"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/location"
)

// Config contains dependencies needed for the router setup
type Config struct {
	Logger           *slog.Logger
	LocationHandler  *location.HandlerImpl
	GeocodingHandler *geocoding.HandlerImpl
	DoorHandler      *door.HandlerImpl

	// AuthenticateMiddleware guards the admin routes.
	AuthenticateMiddleware func(http.Handler) http.Handler
	MetricsHandler         http.Handler

	AllowedOrigins []string
	Timeout        time.Duration
	AdminTimeout   time.Duration
}

// SetupRouter builds the application router with its server-wide middleware.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Compress(5, "application/json"))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(orDefault(cfg.Timeout, 60*time.Second)))

			r.Get("/location/resolve", cfg.LocationHandler.Resolve)
			r.Get("/location/district", cfg.LocationHandler.FindDistrict)
			r.Get("/location/districts", cfg.LocationHandler.ListDistricts)
			r.Get("/location/arrondissements", cfg.LocationHandler.ListArrondissements)
			r.Get("/location/pois", cfg.LocationHandler.ListPOIs)

			r.Post("/geocode", cfg.GeocodingHandler.Geocode)
			r.Get("/geocode/reverse", cfg.GeocodingHandler.Reverse)
		})

		// Batches walk the whole catalog at 1 geocode/s.
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Use(appMiddleware.RequireRole(appMiddleware.RoleAdmin))
			r.Use(middleware.Timeout(orDefault(cfg.AdminTimeout, 30*time.Minute)))

			r.Post("/admin/doors/geocode", cfg.DoorHandler.GeocodeDoors)
			r.Post("/admin/doors/neighborhoods", cfg.DoorHandler.RefreshNeighborhoods)
		})
	})

	return r
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
