package trading

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// TradeRepository handles trade database operations
type TradeRepository struct {
	journalDB *sql.DB // journal.db - trades table
	log       zerolog.Logger
}

// tradesColumns is the list of columns for the trades table.
// Column order must match scanTrade()
const tradesColumns = `id, portfolio_id, symbol, trade_type, status, entry_price, entry_date, quantity,
	exit_price, exit_date, profit_loss, profit_loss_percentage, notes, tags, screenshot_path,
	created_at, updated_at`

// NewTradeRepository creates a new trade repository
func NewTradeRepository(journalDB *sql.DB, log zerolog.Logger) *TradeRepository {
	return &TradeRepository{
		journalDB: journalDB,
		log:       log.With().Str("repo", "trade").Logger(),
	}
}

// Insert stores a new trade and sets its ID
func (r *TradeRepository) Insert(ctx context.Context, trade *Trade) error {
	query := `
		INSERT INTO trades
		(portfolio_id, symbol, trade_type, status, entry_price, entry_date, quantity,
		 exit_price, exit_date, profit_loss, profit_loss_percentage, notes, tags,
		 screenshot_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := r.journalDB.ExecContext(ctx, query,
		trade.PortfolioID,
		trade.Symbol,
		string(trade.Direction),
		string(trade.Status),
		trade.EntryPrice,
		trade.EntryDate.Unix(),
		trade.Quantity,
		database.NullFloat64(trade.ExitPrice),
		database.NullUnix(trade.ExitDate),
		database.NullFloat64(trade.ProfitLoss),
		database.NullFloat64(trade.ProfitLossPercentage),
		trade.Notes,
		trade.Tags,
		database.NullString(trade.ScreenshotPath),
		trade.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trade id: %w", err)
	}
	trade.ID = id

	r.log.Debug().Int64("trade_id", id).Str("symbol", trade.Symbol).Msg("Trade inserted")
	return nil
}

// GetByID retrieves a trade by id. Missing trades yield domain.ErrNotFound.
func (r *TradeRepository) GetByID(ctx context.Context, id int64) (*Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE id = ?"

	trade, err := scanTrade(r.journalDB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trade %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", id, err)
	}
	return trade, nil
}

// GetPortfolioID returns the portfolio a trade belongs to
func (r *TradeRepository) GetPortfolioID(ctx context.Context, id int64) (int64, error) {
	var portfolioID int64
	err := r.journalDB.QueryRowContext(ctx, "SELECT portfolio_id FROM trades WHERE id = ?", id).Scan(&portfolioID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("trade %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get portfolio of trade %d: %w", id, err)
	}
	return portfolioID, nil
}

// ListByPortfolio returns a portfolio's trades, most recent entry first.
// Ties on entry date keep insertion order. A nil status returns every trade.
func (r *TradeRepository) ListByPortfolio(ctx context.Context, portfolioID int64, status *Status) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE portfolio_id = ?"
	args := []interface{}{portfolioID}
	if status != nil {
		query += " AND status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY entry_date DESC, id ASC"

	return r.query(ctx, query, args...)
}

// ListClosed returns a portfolio's closed trades in id order
func (r *TradeRepository) ListClosed(ctx context.Context, portfolioID int64) ([]Trade, error) {
	query := "SELECT " + tradesColumns + " FROM trades WHERE portfolio_id = ? AND status = ? ORDER BY id ASC"
	return r.query(ctx, query, portfolioID, string(StatusClosed))
}

// Save writes every mutable column of an existing trade
func (r *TradeRepository) Save(ctx context.Context, trade *Trade) error {
	query := `
		UPDATE trades SET
			symbol = ?, trade_type = ?, status = ?, entry_price = ?, entry_date = ?, quantity = ?,
			exit_price = ?, exit_date = ?, profit_loss = ?, profit_loss_percentage = ?,
			notes = ?, tags = ?, screenshot_path = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.journalDB.ExecContext(ctx, query,
		trade.Symbol,
		string(trade.Direction),
		string(trade.Status),
		trade.EntryPrice,
		trade.EntryDate.Unix(),
		trade.Quantity,
		database.NullFloat64(trade.ExitPrice),
		database.NullUnix(trade.ExitDate),
		database.NullFloat64(trade.ProfitLoss),
		database.NullFloat64(trade.ProfitLossPercentage),
		trade.Notes,
		trade.Tags,
		database.NullString(trade.ScreenshotPath),
		database.NullUnix(trade.UpdatedAt),
		trade.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trade %d: %w", trade.ID, err)
	}
	return requireRow(res, trade.ID)
}

// CloseOpen performs the open -> closed transition as one conditional update.
// It reports false when the trade is missing or no longer open, in which
// case nothing was written.
func (r *TradeRepository) CloseOpen(ctx context.Context, trade *Trade) (bool, error) {
	query := `
		UPDATE trades SET
			status = ?, exit_price = ?, exit_date = ?, profit_loss = ?, profit_loss_percentage = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	res, err := r.journalDB.ExecContext(ctx, query,
		string(StatusClosed),
		database.NullFloat64(trade.ExitPrice),
		database.NullUnix(trade.ExitDate),
		database.NullFloat64(trade.ProfitLoss),
		database.NullFloat64(trade.ProfitLossPercentage),
		database.NullUnix(trade.UpdatedAt),
		trade.ID,
		string(StatusOpen),
	)
	if err != nil {
		return false, fmt.Errorf("failed to close trade %d: %w", trade.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// Delete removes a trade unconditionally
func (r *TradeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.journalDB.ExecContext(ctx, "DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	return requireRow(res, id)
}

func (r *TradeRepository) query(ctx context.Context, query string, args ...interface{}) ([]Trade, error) {
	rows, err := r.journalDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}
	defer rows.Close()

	trades := make([]Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, *trade)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades: %w", err)
	}
	return trades, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(row rowScanner) (*Trade, error) {
	var trade Trade
	var direction, status string
	var entryDate, createdAt int64
	var exitDate, updatedAt sql.NullInt64
	var exitPrice, pnl, pnlPct sql.NullFloat64
	var screenshot sql.NullString

	err := row.Scan(
		&trade.ID,
		&trade.PortfolioID,
		&trade.Symbol,
		&direction,
		&status,
		&trade.EntryPrice,
		&entryDate,
		&trade.Quantity,
		&exitPrice,
		&exitDate,
		&pnl,
		&pnlPct,
		&trade.Notes,
		&trade.Tags,
		&screenshot,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	trade.Direction = Direction(direction)
	trade.Status = Status(status)
	trade.EntryDate = database.FromUnix(entryDate)
	trade.ExitPrice = database.Float64Ptr(exitPrice)
	trade.ExitDate = database.TimePtr(exitDate)
	trade.ProfitLoss = database.Float64Ptr(pnl)
	trade.ProfitLossPercentage = database.Float64Ptr(pnlPct)
	trade.ScreenshotPath = database.StringPtr(screenshot)
	trade.CreatedAt = database.FromUnix(createdAt)
	trade.UpdatedAt = database.TimePtr(updatedAt)

	return &trade, nil
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trade %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// now is the clock used for audit timestamps, truncated to stored precision
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
