package analytics

import (
	"context"
	"fmt"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	"github.com/aristath/tradebook/internal/utils"
	"github.com/aristath/tradebook/pkg/formulas"
	"github.com/rs/zerolog"
)

// ClosedTradeSource lists a portfolio's closed trades in a stable order
type ClosedTradeSource interface {
	ListClosed(ctx context.Context, portfolioID int64) ([]trading.Trade, error)
}

// PortfolioSource resolves a portfolio, or domain.ErrNotFound
type PortfolioSource interface {
	GetByID(ctx context.Context, id int64) (*portfolio.Portfolio, error)
}

// Service computes analytics. Nothing is cached: every call reads the
// current closed trades.
type Service struct {
	trades     ClosedTradeSource
	portfolios PortfolioSource
	log        zerolog.Logger
}

// NewService creates a new analytics service
func NewService(trades ClosedTradeSource, portfolios PortfolioSource, log zerolog.Logger) *Service {
	return &Service{
		trades:     trades,
		portfolios: portfolios,
		log:        log.With().Str("service", "analytics").Logger(),
	}
}

// PortfolioAnalytics computes the aggregate statistics for one portfolio
func (s *Service) PortfolioAnalytics(ctx context.Context, portfolioID int64) (*PortfolioAnalytics, error) {
	defer utils.OperationTimer("portfolio_analytics", s.log)()

	p, err := s.portfolios.GetByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	closed, err := s.trades.ListClosed(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	result, err := Compute(closed)
	if err != nil {
		s.log.Warn().Err(err).Int64("portfolio_id", portfolioID).Msg("Cannot compute portfolio analytics")
		return nil, err
	}
	result.PortfolioID = p.ID
	result.PortfolioName = p.Name

	s.log.Debug().
		Int64("portfolio_id", portfolioID).
		Int("closed_trades", result.TotalTrades).
		Msg("Computed portfolio analytics")
	return result, nil
}

// AnalyticsBySymbol groups the closed trades by instrument
func (s *Service) AnalyticsBySymbol(ctx context.Context, portfolioID int64) (*SymbolBreakdown, error) {
	defer utils.OperationTimer("analytics_by_symbol", s.log)()

	if _, err := s.portfolios.GetByID(ctx, portfolioID); err != nil {
		return nil, err
	}
	closed, err := s.trades.ListClosed(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	symbols, err := ComputeBySymbol(closed)
	if err != nil {
		s.log.Warn().Err(err).Int64("portfolio_id", portfolioID).Msg("Cannot compute symbol analytics")
		return nil, err
	}

	return &SymbolBreakdown{
		PortfolioID: portfolioID,
		Symbols:     symbols,
	}, nil
}

// Compute derives the aggregate statistics from closed trades.
// A null P&L counts as zero and zero counts as a loss. Sums run at full
// precision; rounding happens once on the way out. Totals that are not
// finite yield domain.ErrInvalidInput.
func Compute(closed []trading.Trade) (*PortfolioAnalytics, error) {
	result := &PortfolioAnalytics{TotalTrades: len(closed)}
	if len(closed) == 0 {
		return result, nil
	}

	all := make([]float64, len(closed))
	var wins, losses []float64
	for i, t := range closed {
		pnl := profitLoss(t)
		all[i] = pnl
		if pnl > 0 {
			wins = append(wins, pnl)
		} else {
			losses = append(losses, pnl)
		}
	}

	total := formulas.Sum(all)
	winSum := formulas.Sum(wins)
	lossSum := formulas.Sum(losses)
	if !formulas.Finite(total, winSum, lossSum) {
		return nil, errOverflow
	}

	result.TotalProfitLoss = formulas.Round2(total)
	result.TotalWins = len(wins)
	result.TotalLosses = len(losses)
	result.WinRate = formulas.Round2(formulas.Percent(float64(len(wins)), float64(len(closed))))
	result.AverageProfitLoss = formulas.Round2(formulas.Mean(all))
	result.AverageWin = formulas.Round2(formulas.Mean(wins))
	result.AverageLoss = formulas.Round2(formulas.Mean(losses))
	result.ProfitFactor = formulas.Round2(formulas.Ratio(winSum, lossSum))

	best := closed[formulas.MaxIndex(all)]
	worst := closed[formulas.MinIndex(all)]
	result.BestTrade = summarize(best)
	result.WorstTrade = summarize(worst)
	return result, nil
}

// ComputeBySymbol groups closed trades by symbol in first-appearance order
func ComputeBySymbol(closed []trading.Trade) ([]SymbolStats, error) {
	groups := make([]SymbolStats, 0)
	totals := make([]float64, 0)
	index := make(map[string]int)

	for _, t := range closed {
		i, ok := index[t.Symbol]
		if !ok {
			i = len(groups)
			index[t.Symbol] = i
			groups = append(groups, SymbolStats{Symbol: t.Symbol})
			totals = append(totals, 0)
		}

		pnl := profitLoss(t)
		g := &groups[i]
		g.TotalTrades++
		totals[i] += pnl
		if pnl > 0 {
			g.Wins++
		} else {
			g.Losses++
		}
	}

	for i := range groups {
		if !formulas.Finite(totals[i]) {
			return nil, fmt.Errorf("%w: symbol %s", errOverflow, groups[i].Symbol)
		}
		groups[i].TotalProfitLoss = formulas.Round2(totals[i])
		groups[i].WinRate = formulas.Round2(formulas.Percent(float64(groups[i].Wins), float64(groups[i].TotalTrades)))
	}
	return groups, nil
}

var errOverflow = fmt.Errorf("%w: profit/loss totals are out of range", domain.ErrInvalidInput)

func profitLoss(t trading.Trade) float64 {
	if t.ProfitLoss == nil {
		return 0
	}
	return *t.ProfitLoss
}

func summarize(t trading.Trade) *TradeSummary {
	return &TradeSummary{
		ID:         t.ID,
		Symbol:     t.Symbol,
		ProfitLoss: formulas.Round2(profitLoss(t)),
	}
}
