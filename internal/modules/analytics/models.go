// Package analytics derives read-only statistics from a portfolio's closed trades.
package analytics

// TradeSummary is the compact form of a best or worst trade
type TradeSummary struct {
	ID         int64   `json:"id" msgpack:"id"`
	Symbol     string  `json:"symbol" msgpack:"symbol"`
	ProfitLoss float64 `json:"profit_loss" msgpack:"profit_loss"`
}

// PortfolioAnalytics aggregates every closed trade of one portfolio.
// Monetary values are rounded to cents; with no closed trades every number
// is zero and both trade summaries are nil.
type PortfolioAnalytics struct {
	PortfolioID       int64         `json:"portfolio_id" msgpack:"portfolio_id"`
	PortfolioName     string        `json:"portfolio_name" msgpack:"portfolio_name"`
	TotalTrades       int           `json:"total_trades" msgpack:"total_trades"`
	TotalProfitLoss   float64       `json:"total_profit_loss" msgpack:"total_profit_loss"`
	WinRate           float64       `json:"win_rate" msgpack:"win_rate"`
	AverageProfitLoss float64       `json:"average_profit_loss" msgpack:"average_profit_loss"`
	BestTrade         *TradeSummary `json:"best_trade" msgpack:"best_trade"`
	WorstTrade        *TradeSummary `json:"worst_trade" msgpack:"worst_trade"`
	TotalWins         int           `json:"total_wins" msgpack:"total_wins"`
	TotalLosses       int           `json:"total_losses" msgpack:"total_losses"`
	AverageWin        float64       `json:"average_win" msgpack:"average_win"`
	AverageLoss       float64       `json:"average_loss" msgpack:"average_loss"`
	ProfitFactor      float64       `json:"profit_factor" msgpack:"profit_factor"`
}

// SymbolStats is one per-instrument group
type SymbolStats struct {
	Symbol          string  `json:"symbol" msgpack:"symbol"`
	TotalTrades     int     `json:"total_trades" msgpack:"total_trades"`
	TotalProfitLoss float64 `json:"total_profit_loss" msgpack:"total_profit_loss"`
	Wins            int     `json:"wins" msgpack:"wins"`
	Losses          int     `json:"losses" msgpack:"losses"`
	WinRate         float64 `json:"win_rate" msgpack:"win_rate"`
}

// SymbolBreakdown lists groups in the order their symbol first appears
type SymbolBreakdown struct {
	PortfolioID int64         `json:"portfolio_id" msgpack:"portfolio_id"`
	Symbols     []SymbolStats `json:"symbols" msgpack:"symbols"`
}
