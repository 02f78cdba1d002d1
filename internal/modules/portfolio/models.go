// Package portfolio manages named groupings of trades and their cascade rules.
package portfolio

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
)

// Portfolio is a named collection of trades owned by exactly one user.
// UserID is fixed at creation.
type Portfolio struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description"`
	InitialBalance float64    `json:"initial_balance"`
	UserID         int64      `json:"user_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// PortfolioCreate is the input for creating a portfolio
type PortfolioCreate struct {
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	InitialBalance float64 `json:"initial_balance"`
}

// Validate checks the shape of a new portfolio.
// A negative initial balance is accepted.
func (c *PortfolioCreate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	return nil
}

// PortfolioUpdate is a partial edit; nil fields are left untouched.
// There is deliberately no owner field.
type PortfolioUpdate struct {
	Name           *string  `json:"name,omitempty"`
	Description    *string  `json:"description,omitempty"`
	InitialBalance *float64 `json:"initial_balance,omitempty"`
}
