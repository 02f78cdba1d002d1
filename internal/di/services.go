package di

import (
	"context"
	"fmt"

	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/events"
	"github.com/aristath/tradebook/internal/metrics"
	"github.com/aristath/tradebook/internal/modules/analytics"
	"github.com/aristath/tradebook/internal/modules/attachments"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/modules/users"
	"github.com/rs/zerolog"
)

// InitializeServices creates the collaborators and services. Order matters:
// events before anything that emits, users before the auth middleware.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	// Events
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	// Instrumentation
	container.Metrics = metrics.New("tradebook")

	// Attachment storage
	store, err := attachments.NewStore(ctx, cfg.Attachments, log)
	if err != nil {
		return fmt.Errorf("failed to initialize attachment store: %w", err)
	}
	container.Attachments = store

	// Core services
	container.PortfolioService = portfolio.NewPortfolioService(container.PortfolioRepo, container.EventManager, log)
	container.TradingService = trading.NewTradingService(
		container.TradeRepo,
		container.PortfolioRepo,
		container.Attachments,
		container.EventManager,
		log,
	)
	container.UserService = users.NewUserService(container.UserRepo, container.EventManager, log)
	container.AnalyticsService = analytics.NewService(container.TradeRepo, container.PortfolioRepo, log)

	// Auth
	container.Tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	container.AuthMiddleware = auth.NewMiddleware(container.Tokens, container.UserService, log)
	container.Authorizer = auth.NewAuthorizer(container.PortfolioRepo, container.TradeRepo)

	log.Debug().Str("attachments", cfg.Attachments.Backend).Msg("Services initialized")
	return nil
}
