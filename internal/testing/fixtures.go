package testing

import (
	"database/sql"
	"fmt"
	"testing"
	"time"
)

// Fixtures are written with raw SQL so module tests can seed parents
// without importing each other's packages.

// SeedUser inserts an active user and returns its id.
func SeedUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO users (email, username, hashed_password, is_active, is_admin, created_at)
		VALUES (?, ?, 'not-a-real-hash', 1, 0, ?)
	`, fmt.Sprintf("%s@example.com", username), username, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to seed user %s: %v", username, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// SeedPortfolio inserts a portfolio owned by userID and returns its id.
func SeedPortfolio(t *testing.T, db *sql.DB, userID int64, name string) int64 {
	t.Helper()
	res, err := db.Exec(`
		INSERT INTO portfolios (name, description, initial_balance, user_id, created_at)
		VALUES (?, NULL, 10000, ?, ?)
	`, name, userID, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to seed portfolio %s: %v", name, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// TradeFixture describes a trade row to seed. A nil ExitPrice seeds an open trade.
type TradeFixture struct {
	Symbol     string
	Direction  string // "long" or "short"
	EntryPrice float64
	Quantity   float64
	EntryDate  time.Time
	ExitPrice  *float64
	ProfitLoss *float64
}

// SeedTrade inserts a trade row as-is (no P&L derivation) and returns its id.
func SeedTrade(t *testing.T, db *sql.DB, portfolioID int64, f TradeFixture) int64 {
	t.Helper()
	if f.Direction == "" {
		f.Direction = "long"
	}
	if f.EntryDate.IsZero() {
		f.EntryDate = time.Now()
	}

	status := "open"
	var exitDate sql.NullInt64
	if f.ExitPrice != nil {
		status = "closed"
		exitDate = sql.NullInt64{Int64: f.EntryDate.Add(24 * time.Hour).Unix(), Valid: true}
	}

	var exitPrice, pnl sql.NullFloat64
	if f.ExitPrice != nil {
		exitPrice = sql.NullFloat64{Float64: *f.ExitPrice, Valid: true}
	}
	if f.ProfitLoss != nil {
		pnl = sql.NullFloat64{Float64: *f.ProfitLoss, Valid: true}
	}

	res, err := db.Exec(`
		INSERT INTO trades (portfolio_id, symbol, trade_type, status, entry_price, entry_date,
			quantity, exit_price, exit_date, profit_loss, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, portfolioID, f.Symbol, f.Direction, status, f.EntryPrice, f.EntryDate.Unix(),
		f.Quantity, exitPrice, exitDate, pnl, time.Now().Unix())
	if err != nil {
		t.Fatalf("Failed to seed trade %s: %v", f.Symbol, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// CountRows returns the row count of table, optionally filtered by a WHERE clause.
func CountRows(t *testing.T, db *sql.DB, table, where string, args ...interface{}) int {
	t.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	var n int
	if err := db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
