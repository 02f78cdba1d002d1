// Package server provides the HTTP server and routing for tradebook.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/di"
	analyticshandlers "github.com/aristath/tradebook/internal/modules/analytics/handlers"
	portfoliohandlers "github.com/aristath/tradebook/internal/modules/portfolio/handlers"
	tradinghandlers "github.com/aristath/tradebook/internal/modules/trading/handlers"
	usershandlers "github.com/aristath/tradebook/internal/modules/users/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container // DI container with all services
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
	rateLimiter    *RateLimiter
	stopLimiter    context.CancelFunc
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		systemHandlers: NewSystemHandlers(
			cfg.Container.JournalDB,
			cfg.Container.Scheduler,
			cfg.Log,
		),
		rateLimiter: NewRateLimiter(cfg.Config.RateLimitRPS, cfg.Config.RateLimitBurst, cfg.Log),
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware shared by every route
func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Metrics and logging
	s.router.Use(s.container.Metrics.Middleware)
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Per-client rate limit
	s.router.Use(s.rateLimiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container
	authMW := c.AuthMiddleware

	s.router.Handle("/metrics", c.Metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		// The event stream is long-lived: no request timeout, no compression
		stream := NewEventsStreamHandler(c.EventBus, c.Authorizer, s.cfg.CORSOrigins, s.log)
		r.With(authMW.Authenticate).Get("/events/ws", stream.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			if !s.cfg.DevMode {
				r.Use(middleware.Compress(5))
			}

			usersHandler := usershandlers.NewHandler(c.UserService, c.Tokens, authMW.RequireAdmin, s.log)

			// Public
			r.Get("/system/health", s.systemHandlers.HandleHealth)
			usersHandler.RegisterPublicRoutes(r)

			// Authenticated
			r.Group(func(r chi.Router) {
				r.Use(authMW.Authenticate)

				usersHandler.RegisterRoutes(r)
				portfoliohandlers.NewHandler(c.PortfolioService, c.Authorizer, s.log).RegisterRoutes(r)
				tradinghandlers.NewTradingHandlers(c.TradingService, c.Authorizer, s.log).RegisterRoutes(r)
				analyticshandlers.NewHandler(c.AnalyticsService, c.Authorizer, s.log).RegisterRoutes(r)

				r.With(authMW.RequireAdmin).Get("/system/status", s.systemHandlers.HandleStatus)
			})
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopLimiter = cancel
	go s.rateLimiter.Run(ctx)

	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	if s.stopLimiter != nil {
		s.stopLimiter()
	}
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
