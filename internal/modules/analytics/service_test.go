package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/aristath/tradebook/internal/modules/trading"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closedTrade(id int64, symbol string, pnl *float64) trading.Trade {
	return trading.Trade{ID: id, Symbol: symbol, Status: trading.StatusClosed, ProfitLoss: pnl}
}

func mustCompute(t *testing.T, closed []trading.Trade) *PortfolioAnalytics {
	t.Helper()
	result, err := Compute(closed)
	require.NoError(t, err)
	return result
}

func mustComputeBySymbol(t *testing.T, closed []trading.Trade) []SymbolStats {
	t.Helper()
	groups, err := ComputeBySymbol(closed)
	require.NoError(t, err)
	return groups
}

func TestCompute_ZeroState(t *testing.T) {
	result := mustCompute(t, nil)
	assert.Equal(t, 0, result.TotalTrades)
	assert.Zero(t, result.TotalProfitLoss)
	assert.Zero(t, result.WinRate)
	assert.Zero(t, result.ProfitFactor)
	assert.Nil(t, result.BestTrade)
	assert.Nil(t, result.WorstTrade)
}

func TestCompute_Aggregates(t *testing.T) {
	closed := []trading.Trade{
		closedTrade(1, "AAPL", testingpkg.Float(200)),
		closedTrade(2, "MSFT", testingpkg.Float(-50)),
		closedTrade(3, "AAPL", testingpkg.Float(100)),
		closedTrade(4, "TSLA", testingpkg.Float(0)),
	}

	result := mustCompute(t, closed)
	assert.Equal(t, 4, result.TotalTrades)
	assert.Equal(t, 250.0, result.TotalProfitLoss)
	assert.Equal(t, 2, result.TotalWins)
	assert.Equal(t, 2, result.TotalLosses, "zero P&L counts as a loss")
	assert.Equal(t, 50.0, result.WinRate)
	assert.Equal(t, 62.5, result.AverageProfitLoss)
	assert.Equal(t, 150.0, result.AverageWin)
	assert.Equal(t, -25.0, result.AverageLoss)
	assert.Equal(t, 6.0, result.ProfitFactor)

	require.NotNil(t, result.BestTrade)
	assert.Equal(t, TradeSummary{ID: 1, Symbol: "AAPL", ProfitLoss: 200}, *result.BestTrade)
	require.NotNil(t, result.WorstTrade)
	assert.Equal(t, TradeSummary{ID: 2, Symbol: "MSFT", ProfitLoss: -50}, *result.WorstTrade)
}

func TestCompute_EdgeCases(t *testing.T) {
	t.Run("only winners has zero profit factor", func(t *testing.T) {
		result := mustCompute(t, []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(10)),
			closedTrade(2, "B", testingpkg.Float(30)),
		})
		assert.Zero(t, result.ProfitFactor)
		assert.Equal(t, 100.0, result.WinRate)
		assert.Zero(t, result.AverageLoss)
	})

	t.Run("ties go to the first trade", func(t *testing.T) {
		result := mustCompute(t, []trading.Trade{
			closedTrade(5, "A", testingpkg.Float(10)),
			closedTrade(6, "B", testingpkg.Float(10)),
		})
		assert.Equal(t, int64(5), result.BestTrade.ID)
		assert.Equal(t, int64(5), result.WorstTrade.ID)
	})

	t.Run("null P&L counts as zero", func(t *testing.T) {
		result := mustCompute(t, []trading.Trade{closedTrade(1, "A", nil)})
		assert.Equal(t, 1, result.TotalLosses)
		assert.Zero(t, result.TotalProfitLoss)
		assert.Zero(t, result.BestTrade.ProfitLoss)
	})

	t.Run("rounding happens after summation", func(t *testing.T) {
		result := mustCompute(t, []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(0.004)),
			closedTrade(2, "A", testingpkg.Float(0.004)),
		})
		assert.Equal(t, 0.01, result.TotalProfitLoss)
		assert.Equal(t, 0.0, result.BestTrade.ProfitLoss)
	})
}

func TestComputeBySymbol(t *testing.T) {
	closed := []trading.Trade{
		closedTrade(1, "TSLA", testingpkg.Float(120.25)),
		closedTrade(2, "AAPL", testingpkg.Float(-10)),
		closedTrade(3, "TSLA", testingpkg.Float(-20)),
		closedTrade(4, "TSLA", testingpkg.Float(0)),
	}

	groups := mustComputeBySymbol(t, closed)
	require.Len(t, groups, 2)

	assert.Equal(t, SymbolStats{Symbol: "TSLA", TotalTrades: 3, TotalProfitLoss: 100.25, Wins: 1, Losses: 2, WinRate: 33.33}, groups[0])
	assert.Equal(t, SymbolStats{Symbol: "AAPL", TotalTrades: 1, TotalProfitLoss: -10, Wins: 0, Losses: 1, WinRate: 0}, groups[1])

	assert.NotNil(t, mustComputeBySymbol(t, nil))
	assert.Empty(t, mustComputeBySymbol(t, nil))
}

func TestCompute_NonFiniteTotals(t *testing.T) {
	tests := []struct {
		name   string
		closed []trading.Trade
	}{
		{"sum overflows", []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(1e308)),
			closedTrade(2, "A", testingpkg.Float(1e308)),
		}},
		{"losses overflow", []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(-1e308)),
			closedTrade(2, "A", testingpkg.Float(-1e308)),
		}},
		{"stored infinity", []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(math.Inf(1))),
		}},
		{"stored NaN", []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(math.NaN())),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result *PortfolioAnalytics
			var err error
			require.NotPanics(t, func() { result, err = Compute(tt.closed) })
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, result)

			var groups []SymbolStats
			require.NotPanics(t, func() { groups, err = ComputeBySymbol(tt.closed) })
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Nil(t, groups)
		})
	}

	t.Run("offsetting extremes stay finite", func(t *testing.T) {
		result := mustCompute(t, []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(1e308)),
			closedTrade(2, "B", testingpkg.Float(-1e308)),
		})
		assert.Zero(t, result.TotalProfitLoss)
		assert.Equal(t, 1.0, result.ProfitFactor)
	})
}

func TestComputeBySymbol_PartitionsTheAggregate(t *testing.T) {
	tests := []struct {
		name   string
		closed []trading.Trade
	}{
		{"empty", nil},
		{"single symbol", []trading.Trade{
			closedTrade(1, "AAPL", testingpkg.Float(10)),
			closedTrade(2, "AAPL", testingpkg.Float(-10)),
		}},
		{"mixed with nulls and zeros", []trading.Trade{
			closedTrade(1, "TSLA", testingpkg.Float(120.25)),
			closedTrade(2, "AAPL", nil),
			closedTrade(3, "TSLA", testingpkg.Float(0)),
			closedTrade(4, "NVDA", testingpkg.Float(-33.3)),
			closedTrade(5, "AAPL", testingpkg.Float(7.77)),
		}},
		{"interleaved symbols", []trading.Trade{
			closedTrade(1, "A", testingpkg.Float(1)),
			closedTrade(2, "B", testingpkg.Float(2)),
			closedTrade(3, "A", testingpkg.Float(-3)),
			closedTrade(4, "C", testingpkg.Float(4)),
			closedTrade(5, "B", testingpkg.Float(-5)),
			closedTrade(6, "A", testingpkg.Float(6)),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregate := mustCompute(t, tt.closed)
			groups := mustComputeBySymbol(t, tt.closed)

			var trades, wins, losses int
			for _, g := range groups {
				assert.Equal(t, g.TotalTrades, g.Wins+g.Losses, "symbol %s", g.Symbol)
				trades += g.TotalTrades
				wins += g.Wins
				losses += g.Losses
			}
			assert.Equal(t, aggregate.TotalTrades, trades)
			assert.Equal(t, aggregate.TotalWins, wins)
			assert.Equal(t, aggregate.TotalLosses, losses)
		})
	}
}

func TestService_Idempotent(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	log := zerolog.Nop()
	userID := testingpkg.SeedUser(t, db.Conn(), "bob")
	svc := NewService(trading.NewTradeRepository(db.Conn(), log), portfolio.NewRepository(db.Conn(), log), log)
	ctx := context.Background()
	entry := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	portfolios := map[string][]testingpkg.TradeFixture{
		"empty": nil,
		"winners only": {
			{Symbol: "AAPL", EntryPrice: 10, Quantity: 1, EntryDate: entry, ExitPrice: testingpkg.Float(12), ProfitLoss: testingpkg.Float(2)},
		},
		"mixed": {
			{Symbol: "AAPL", EntryPrice: 10, Quantity: 1, EntryDate: entry, ExitPrice: testingpkg.Float(12), ProfitLoss: testingpkg.Float(2)},
			{Symbol: "MSFT", EntryPrice: 20, Quantity: 3, EntryDate: entry, ExitPrice: testingpkg.Float(19), ProfitLoss: testingpkg.Float(-3)},
			{Symbol: "AAPL", EntryPrice: 10, Quantity: 1, EntryDate: entry},
			{Symbol: "AAPL", EntryPrice: 10, Quantity: 2, EntryDate: entry, ExitPrice: testingpkg.Float(10), ProfitLoss: testingpkg.Float(0)},
		},
	}

	for name, fixtures := range portfolios {
		t.Run(name, func(t *testing.T) {
			portfolioID := testingpkg.SeedPortfolio(t, db.Conn(), userID, name)
			for _, f := range fixtures {
				testingpkg.SeedTrade(t, db.Conn(), portfolioID, f)
			}

			first, err := svc.PortfolioAnalytics(ctx, portfolioID)
			require.NoError(t, err)
			second, err := svc.PortfolioAnalytics(ctx, portfolioID)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			firstBreakdown, err := svc.AnalyticsBySymbol(ctx, portfolioID)
			require.NoError(t, err)
			secondBreakdown, err := svc.AnalyticsBySymbol(ctx, portfolioID)
			require.NoError(t, err)
			assert.Equal(t, firstBreakdown, secondBreakdown)
		})
	}
}

func TestService_ReadsCurrentState(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	log := zerolog.Nop()
	userID := testingpkg.SeedUser(t, db.Conn(), "alice")
	portfolioID := testingpkg.SeedPortfolio(t, db.Conn(), userID, "Main")

	trades := trading.NewTradeRepository(db.Conn(), log)
	svc := NewService(trades, portfolio.NewRepository(db.Conn(), log), log)
	ctx := context.Background()

	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	testingpkg.SeedTrade(t, db.Conn(), portfolioID, testingpkg.TradeFixture{
		Symbol: "AAPL", EntryPrice: 100, Quantity: 10, EntryDate: entry,
		ExitPrice: testingpkg.Float(120), ProfitLoss: testingpkg.Float(200),
	})
	testingpkg.SeedTrade(t, db.Conn(), portfolioID, testingpkg.TradeFixture{
		Symbol: "AAPL", EntryPrice: 100, Quantity: 10, EntryDate: entry,
	})

	result, err := svc.PortfolioAnalytics(ctx, portfolioID)
	require.NoError(t, err)
	assert.Equal(t, "Main", result.PortfolioName)
	assert.Equal(t, 1, result.TotalTrades, "open trades are excluded")
	assert.Equal(t, 200.0, result.TotalProfitLoss)

	testingpkg.SeedTrade(t, db.Conn(), portfolioID, testingpkg.TradeFixture{
		Symbol: "NVDA", EntryPrice: 50, Quantity: 2, EntryDate: entry,
		ExitPrice: testingpkg.Float(40), ProfitLoss: testingpkg.Float(-20),
	})

	result, err = svc.PortfolioAnalytics(ctx, portfolioID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalTrades)
	assert.Equal(t, 180.0, result.TotalProfitLoss)

	breakdown, err := svc.AnalyticsBySymbol(ctx, portfolioID)
	require.NoError(t, err)
	require.Len(t, breakdown.Symbols, 2)
	assert.Equal(t, "AAPL", breakdown.Symbols[0].Symbol)
	assert.Equal(t, "NVDA", breakdown.Symbols[1].Symbol)

	_, err = svc.PortfolioAnalytics(ctx, portfolioID+1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.AnalyticsBySymbol(ctx, portfolioID+1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
