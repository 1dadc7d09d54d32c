// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"miniregion/internal/config"
	"miniregion/internal/domain/activity"
	"miniregion/internal/domain/restaurant"
	"miniregion/internal/logging"
	"miniregion/internal/server/handlers"
)

// Dependencies are the services the HTTP server exposes
type Dependencies struct {
	Engine      handlers.Aggregator
	Places      handlers.Autocompleter
	Restaurants restaurant.Store
	Activities  activity.Store

	// Subscriber is nil when NATS is not configured
	Subscriber     handlers.Subscriber
	RefreshSubject string
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewServer(cfg config.Config, deps Dependencies, log zerolog.Logger) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logging.RequestLogger(log))
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CorsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Create handler dependencies
	restaurantHandler := handlers.NewRestaurantHandler(deps.Engine, deps.Places, deps.Restaurants)
	activityHandler := handlers.NewActivityHandler(deps.Activities)

	// Health check
	router.With(middleware.Timeout(60*time.Second)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := json.Marshal(map[string]interface{}{"status": "OK", "timestamp": time.Now()})
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	})

	// Routes
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(rateLimiter(cfg.RateLimit))

		r.Get("/place-autocomplete", restaurantHandler.Autocomplete)
		r.Get("/restaurants", restaurantHandler.GetRestaurants)
		r.Get("/refresh-restaurants", restaurantHandler.RefreshRestaurants)

		r.Get("/events", activityHandler.GetEvents)
		r.Get("/family-activities", activityHandler.GetFamilyActivities)

		r.Get("/social-meetups", activityHandler.GetSocialMeetups)
		r.Post("/social-meetups", activityHandler.CreateSocialMeetup)
	})

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler())

	// WebSocket endpoint for refresh notifications
	router.Get("/ws/restaurants", handlers.RefreshWebSocketHandler(deps.Subscriber, deps.RefreshSubject))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// rateLimiter is a sliding-window counter shared by every caller
func rateLimiter(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(func(*http.Request) (string, error) {
			return "global", nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too many requests, please try again later"}`))
		}),
	)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.server.Addr
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
