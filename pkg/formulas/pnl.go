// Package formulas holds the pure financial calculations used by the journal.
package formulas

import (
	"errors"
	"math"
)

// Side is the direction of a position.
type Side int

const (
	// SideLong profits when the price rises
	SideLong Side = iota
	// SideShort profits when the price falls
	SideShort
)

// ErrUndefinedPercentage is returned when entry price times quantity is zero,
// so the return on committed capital has no meaning.
var ErrUndefinedPercentage = errors.New("profit/loss percentage undefined: entry price times quantity is zero")

// ErrOutOfRange is returned when the inputs are too large for the result to
// be represented as a finite float64.
var ErrOutOfRange = errors.New("profit/loss out of range")

// PnL is a realized profit or loss.
type PnL struct {
	Amount     float64
	Percentage float64
}

// ProfitLoss computes the realized P&L of a position.
//
//	LONG:  amount = (exit - entry) * quantity
//	SHORT: amount = (entry - exit) * quantity
//	percentage = amount / (entry * quantity) * 100
//
// A nil exit price yields the zero PnL. The function never returns NaN or Inf.
func ProfitLoss(side Side, entryPrice float64, exitPrice *float64, quantity float64) (PnL, error) {
	if exitPrice == nil {
		return PnL{}, nil
	}

	var amount float64
	if side == SideShort {
		amount = (entryPrice - *exitPrice) * quantity
	} else {
		amount = (*exitPrice - entryPrice) * quantity
	}

	committed := entryPrice * quantity
	if committed == 0 || math.IsNaN(committed) {
		return PnL{}, ErrUndefinedPercentage
	}

	percentage := amount / committed * 100
	if !Finite(amount, committed, percentage) {
		return PnL{}, ErrOutOfRange
	}

	return PnL{
		Amount:     amount,
		Percentage: percentage,
	}, nil
}
