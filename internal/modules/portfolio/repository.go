package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles portfolio database operations
type Repository struct {
	journalDB *sql.DB // journal.db - portfolios table (and trades for cascades)
	log       zerolog.Logger
}

const portfolioColumns = `id, name, description, initial_balance, user_id, created_at, updated_at`

// NewRepository creates a new portfolio repository
func NewRepository(journalDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		journalDB: journalDB,
		log:       log.With().Str("repo", "portfolio").Logger(),
	}
}

// Create inserts a portfolio and sets its ID
func (r *Repository) Create(ctx context.Context, p *Portfolio) error {
	res, err := r.journalDB.ExecContext(ctx, `
		INSERT INTO portfolios (name, description, initial_balance, user_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, database.NullString(p.Description), p.InitialBalance, p.UserID, p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to create portfolio: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read portfolio id: %w", err)
	}
	p.ID = id
	return nil
}

// GetByID retrieves a portfolio; missing ones yield domain.ErrNotFound
func (r *Repository) GetByID(ctx context.Context, id int64) (*Portfolio, error) {
	row := r.journalDB.QueryRowContext(ctx, "SELECT "+portfolioColumns+" FROM portfolios WHERE id = ?", id)
	p, err := scanPortfolio(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("portfolio %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio %d: %w", id, err)
	}
	return p, nil
}

// GetOwnerID returns the owning user of a portfolio
func (r *Repository) GetOwnerID(ctx context.Context, id int64) (int64, error) {
	var userID int64
	err := r.journalDB.QueryRowContext(ctx, "SELECT user_id FROM portfolios WHERE id = ?", id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("portfolio %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get portfolio owner: %w", err)
	}
	return userID, nil
}

// Exists reports whether a portfolio with id exists
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := r.journalDB.QueryRowContext(ctx, "SELECT 1 FROM portfolios WHERE id = ? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check portfolio %d: %w", id, err)
	}
	return true, nil
}

// ListByUser returns a user's portfolios in creation order
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Portfolio, error) {
	rows, err := r.journalDB.QueryContext(ctx,
		"SELECT "+portfolioColumns+" FROM portfolios WHERE user_id = ? ORDER BY id ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := make([]Portfolio, 0)
	for rows.Next() {
		p, err := scanPortfolio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		portfolios = append(portfolios, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}
	return portfolios, nil
}

// Save writes the mutable columns. The owner column is never written.
func (r *Repository) Save(ctx context.Context, p *Portfolio) error {
	res, err := r.journalDB.ExecContext(ctx, `
		UPDATE portfolios SET name = ?, description = ?, initial_balance = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, database.NullString(p.Description), p.InitialBalance, database.NullUnix(p.UpdatedAt), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update portfolio %d: %w", p.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("portfolio %d: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a portfolio and all of its trades in one transaction and
// returns how many trades went with it. Either everything is removed or
// nothing is.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	var tradesRemoved int64

	err := database.WithTransaction(ctx, r.journalDB, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM portfolios WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("portfolio %d: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check portfolio: %w", err)
		}

		n, err := DeleteCascadeTx(ctx, tx, id)
		if err != nil {
			return err
		}
		tradesRemoved = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.Debug().Int64("portfolio_id", id).Int64("trades_removed", tradesRemoved).Msg("Portfolio cascade committed")
	return tradesRemoved, nil
}

// DeleteCascadeTx deletes a portfolio's trades and then the portfolio inside tx.
// Shared with user deletion so both cascades follow the same order.
func DeleteCascadeTx(ctx context.Context, tx *sql.Tx, portfolioID int64) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM trades WHERE portfolio_id = ?", portfolioID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trades of portfolio %d: %w", portfolioID, err)
	}
	trades, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM portfolios WHERE id = ?", portfolioID); err != nil {
		return 0, fmt.Errorf("failed to delete portfolio %d: %w", portfolioID, err)
	}
	return trades, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPortfolio(row rowScanner) (*Portfolio, error) {
	var p Portfolio
	var description sql.NullString
	var createdAt int64
	var updatedAt sql.NullInt64

	if err := row.Scan(&p.ID, &p.Name, &description, &p.InitialBalance, &p.UserID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Description = database.StringPtr(description)
	p.CreatedAt = database.FromUnix(createdAt)
	p.UpdatedAt = database.TimePtr(updatedAt)
	return &p, nil
}
