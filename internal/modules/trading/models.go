// Package trading implements the trade ledger and its open/closed lifecycle.
package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/pkg/formulas"
)

// Direction is the intent of a position
type Direction string

const (
	// DirectionLong profits when the price rises
	DirectionLong Direction = "long"
	// DirectionShort profits when the price falls
	DirectionShort Direction = "short"
)

// ParseDirection accepts "long"/"short" in any case
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case DirectionLong:
		return DirectionLong, nil
	case DirectionShort:
		return DirectionShort, nil
	}
	return "", fmt.Errorf("%w: trade_type must be long or short, got %q", domain.ErrInvalidInput, s)
}

// Side converts the direction for the P&L calculator
func (d Direction) Side() formulas.Side {
	if d == DirectionShort {
		return formulas.SideShort
	}
	return formulas.SideLong
}

// Status is the lifecycle state of a trade
type Status string

const (
	// StatusOpen is the initial state
	StatusOpen Status = "open"
	// StatusClosed is terminal; there is no reopen
	StatusClosed Status = "closed"
)

// ParseStatus accepts "open"/"closed" in any case
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOpen:
		return StatusOpen, nil
	case StatusClosed:
		return StatusClosed, nil
	}
	return "", fmt.Errorf("%w: status must be open or closed, got %q", domain.ErrInvalidInput, s)
}

// Trade is a single position within a portfolio.
// ProfitLoss and ProfitLossPercentage are set exactly when ExitPrice is set.
type Trade struct {
	ID                   int64      `json:"id"`
	PortfolioID          int64      `json:"portfolio_id"`
	Symbol               string     `json:"symbol"`
	Direction            Direction  `json:"trade_type"`
	Status               Status     `json:"status"`
	EntryPrice           float64    `json:"entry_price"`
	EntryDate            time.Time  `json:"entry_date"`
	Quantity             float64    `json:"quantity"`
	ExitPrice            *float64   `json:"exit_price"`
	ExitDate             *time.Time `json:"exit_date"`
	ProfitLoss           *float64   `json:"profit_loss"`
	ProfitLossPercentage *float64   `json:"profit_loss_percentage"`
	Notes                string     `json:"notes"`
	Tags                 string     `json:"tags"`
	ScreenshotPath       *string    `json:"screenshot_path"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at"`
}

// IsClosed reports whether the lifecycle state is closed
func (t *Trade) IsClosed() bool {
	return t.Status == StatusClosed
}

// TradeCreate is the input for opening a trade
type TradeCreate struct {
	PortfolioID int64     `json:"portfolio_id"`
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"trade_type"`
	EntryPrice  float64   `json:"entry_price"`
	EntryDate   time.Time `json:"entry_date"`
	Quantity    float64   `json:"quantity"`
	Notes       string    `json:"notes"`
	Tags        string    `json:"tags"`
}

// Validate checks the shape of a new trade
func (c *TradeCreate) Validate() error {
	if c.PortfolioID <= 0 {
		return fmt.Errorf("%w: portfolio_id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	if _, err := ParseDirection(string(c.Direction)); err != nil {
		return err
	}
	if c.EntryPrice <= 0 {
		return fmt.Errorf("%w: entry_price must be positive", domain.ErrInvalidInput)
	}
	if c.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// TradeUpdate is a partial edit. Nil fields are left untouched.
// Direction and status remain editable here; Close is the only transition
// that keeps status and exit data consistent.
type TradeUpdate struct {
	Symbol         *string    `json:"symbol,omitempty"`
	Direction      *Direction `json:"trade_type,omitempty"`
	Status         *Status    `json:"status,omitempty"`
	EntryPrice     *float64   `json:"entry_price,omitempty"`
	EntryDate      *time.Time `json:"entry_date,omitempty"`
	Quantity       *float64   `json:"quantity,omitempty"`
	ExitPrice      *float64   `json:"exit_price,omitempty"`
	ExitDate       *time.Time `json:"exit_date,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
	Tags           *string    `json:"tags,omitempty"`
	ScreenshotPath *string    `json:"screenshot_path,omitempty"`
}

// TradeClose is the input of the close transition. A zero ExitDate means now.
type TradeClose struct {
	ExitPrice float64   `json:"exit_price"`
	ExitDate  time.Time `json:"exit_date"`
}
