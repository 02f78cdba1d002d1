// Package users manages accounts, credentials and account-level cascades.
package users

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
)

// User is an account. HashedPassword never leaves the process.
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Username       string     `json:"username"`
	FullName       *string    `json:"full_name"`
	HashedPassword string     `json:"-"`
	IsActive       bool       `json:"is_active"`
	IsAdmin        bool       `json:"is_admin"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// UserCreate is the registration payload
type UserCreate struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// Validate normalizes and checks a registration
func (c *UserCreate) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	c.Username = strings.TrimSpace(c.Username)

	if err := validateEmail(c.Email); err != nil {
		return err
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	return nil
}

// UserUpdate is an administrative partial edit
type UserUpdate struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

// DeleteResult counts what a user deletion removed
type DeleteResult struct {
	PortfoliosRemoved int64
	TradesRemoved     int64
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: %q is not a valid email address", domain.ErrInvalidInput, email)
	}
	return nil
}
