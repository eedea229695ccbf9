package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appMiddleware "github.com/FACorreiaa/go-trip-planner/app/middleware"
	_ "github.com/FACorreiaa/go-trip-planner/docs"
	"github.com/FACorreiaa/go-trip-planner/internal/api/itinerary"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ItineraryHandler itinerary.Handler
	AllowedOrigins   []string
	// GenerateRateLimit caps plan generations per client IP per minute.
	// Zero disables the limit.
	GenerateRateLimit int
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "If-Match", "X-Request-Id"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Heartbeat/Health check endpoint
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/trips/{tripID}", func(r chi.Router) {
			r.Get("/plan", cfg.ItineraryHandler.GetPlanHandler)
			r.Put("/plan/days", cfg.ItineraryHandler.ReorderPlanHandler)
			r.Get("/budget", cfg.ItineraryHandler.GetBudgetHandler)

			// Generation fans out to rate and weather sources
			r.Group(func(r chi.Router) {
				if cfg.GenerateRateLimit > 0 {
					r.Use(appMiddleware.RateLimitByIP(cfg.GenerateRateLimit, time.Minute))
				}
				r.Post("/plan/generate", cfg.ItineraryHandler.GeneratePlanHandler)
			})
		})

		r.Get("/rates/convert", cfg.ItineraryHandler.ConvertHandler)
	})

	return r
}
