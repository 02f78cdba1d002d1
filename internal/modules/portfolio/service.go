package portfolio

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/events"
	"github.com/rs/zerolog"
)

// RepositoryInterface defines the interface for portfolio persistence
type RepositoryInterface interface {
	Create(ctx context.Context, p *Portfolio) error
	GetByID(ctx context.Context, id int64) (*Portfolio, error)
	ListByUser(ctx context.Context, userID int64) ([]Portfolio, error)
	Save(ctx context.Context, p *Portfolio) error
	Delete(ctx context.Context, id int64) (int64, error)
}

// Compile-time check that Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)

// PortfolioService orchestrates portfolio operations.
//
// Responsibilities:
//   - Create and edit portfolios (owner is immutable)
//   - Delete a portfolio together with its trades, atomically
//
// Access control is done by the caller before any method is invoked.
type PortfolioService struct {
	repo         RepositoryInterface
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(repo RepositoryInterface, eventManager *events.Manager, log zerolog.Logger) *PortfolioService {
	return &PortfolioService{
		repo:         repo,
		eventManager: eventManager,
		log:          log.With().Str("service", "portfolio").Logger(),
	}
}

// Create adds a portfolio owned by userID
func (s *PortfolioService) Create(ctx context.Context, userID int64, in PortfolioCreate) (*Portfolio, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	p := &Portfolio{
		Name:           strings.TrimSpace(in.Name),
		Description:    in.Description,
		InitialBalance: in.InitialBalance,
		UserID:         userID,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to create portfolio")
		return nil, err
	}

	s.log.Info().Int64("portfolio_id", p.ID).Int64("user_id", userID).Str("name", p.Name).Msg("Portfolio created")
	s.eventManager.EmitTyped("portfolio", &events.PortfolioEventData{
		Kind:        events.PortfolioCreated,
		PortfolioID: p.ID,
		UserID:      userID,
		Name:        p.Name,
	})
	return p, nil
}

// Get returns a portfolio by id
func (s *PortfolioService) Get(ctx context.Context, id int64) (*Portfolio, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns a user's portfolios
func (s *PortfolioService) ListByUser(ctx context.Context, userID int64) ([]Portfolio, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies a partial edit; only supplied fields change
func (s *PortfolioService) Update(ctx context.Context, id int64, in PortfolioUpdate) (*Portfolio, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", domain.ErrInvalidInput)
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.InitialBalance != nil {
		p.InitialBalance = *in.InitialBalance
	}
	updated := time.Now().UTC().Truncate(time.Second)
	p.UpdatedAt = &updated

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info().Int64("portfolio_id", id).Msg("Portfolio updated")
	s.eventManager.EmitTyped("portfolio", &events.PortfolioEventData{
		Kind:        events.PortfolioUpdated,
		PortfolioID: p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
	})
	return p, nil
}

// Delete removes the portfolio and every trade in it
func (s *PortfolioService) Delete(ctx context.Context, id int64) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	tradesRemoved, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("portfolio_id", id).Msg("Failed to delete portfolio")
		return err
	}

	s.log.Info().
		Int64("portfolio_id", id).
		Int64("trades_removed", tradesRemoved).
		Msg("Portfolio deleted")
	s.eventManager.EmitTyped("portfolio", &events.PortfolioEventData{
		Kind:          events.PortfolioDeleted,
		PortfolioID:   id,
		UserID:        p.UserID,
		Name:          p.Name,
		TradesRemoved: tradesRemoved,
	})
	return nil
}
