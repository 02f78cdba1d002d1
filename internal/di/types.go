/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server and the CLI for access to services.
 */
package di

import (
	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/config"
	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/events"
	"github.com/aristath/tradebook/internal/metrics"
	"github.com/aristath/tradebook/internal/modules/analytics"
	"github.com/aristath/tradebook/internal/modules/attachments"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/modules/users"
	"github.com/aristath/tradebook/internal/reliability"
	"github.com/aristath/tradebook/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	// Database
	JournalDB *database.DB

	// Events
	EventBus     *events.Bus
	EventManager *events.Manager

	// Instrumentation
	Metrics *metrics.Metrics

	// Auth
	Tokens         *auth.TokenManager
	AuthMiddleware *auth.Middleware
	Authorizer     *auth.Authorizer

	// Storage collaborators
	Attachments attachments.Store

	// Repositories
	PortfolioRepo *portfolio.Repository
	TradeRepo     *trading.TradeRepository
	UserRepo      *users.Repository

	// Services
	PortfolioService *portfolio.PortfolioService
	TradingService   *trading.TradingService
	UserService      *users.UserService
	AnalyticsService *analytics.Service

	// Jobs
	Scheduler      *scheduler.Scheduler
	MaintenanceJob *reliability.MaintenanceJob
	IntegrityJob   *scheduler.CheckIntegrityJob
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.JournalDB == nil {
		return nil
	}
	return c.JournalDB.Close()
}
