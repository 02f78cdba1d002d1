package auth

import (
	"context"
	"fmt"

	"github.com/aristath/tradebook/internal/domain"
)

// PortfolioOwnerLookup returns the owning user of a portfolio, or
// domain.ErrNotFound.
type PortfolioOwnerLookup interface {
	GetOwnerID(ctx context.Context, portfolioID int64) (int64, error)
}

// TradePortfolioLookup returns the portfolio a trade belongs to, or
// domain.ErrNotFound.
type TradePortfolioLookup interface {
	GetPortfolioID(ctx context.Context, tradeID int64) (int64, error)
}

// Authorizer decides whether a user may act on a portfolio.
// Only the owner may; administrators get no bypass.
type Authorizer struct {
	portfolios PortfolioOwnerLookup
	trades     TradePortfolioLookup
}

// NewAuthorizer creates an authorizer
func NewAuthorizer(portfolios PortfolioOwnerLookup, trades TradePortfolioLookup) *Authorizer {
	return &Authorizer{portfolios: portfolios, trades: trades}
}

// CanAccessPortfolio returns nil when userID owns the portfolio,
// domain.ErrNotFound for unknown portfolios and domain.ErrForbidden otherwise.
func (a *Authorizer) CanAccessPortfolio(ctx context.Context, portfolioID, userID int64) error {
	ownerID, err := a.portfolios.GetOwnerID(ctx, portfolioID)
	if err != nil {
		return err
	}
	if ownerID != userID {
		return fmt.Errorf("portfolio %d: %w", portfolioID, domain.ErrForbidden)
	}
	return nil
}

// CanAccessTrade authorizes through the trade's portfolio
func (a *Authorizer) CanAccessTrade(ctx context.Context, tradeID, userID int64) error {
	portfolioID, err := a.trades.GetPortfolioID(ctx, tradeID)
	if err != nil {
		return err
	}
	return a.CanAccessPortfolio(ctx, portfolioID, userID)
}
