package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/tradebook/internal/database"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/modules/portfolio"
	"github.com/rs/zerolog"
)

// DefaultListLimit is the page size when the caller passes none
const DefaultListLimit = 100

const userColumns = `id, email, username, full_name, hashed_password, is_active, is_admin, created_at, updated_at`

// Repository handles user database operations
type Repository struct {
	journalDB *sql.DB // journal.db - users table, plus portfolios/trades for cascades
	log       zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(journalDB *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		journalDB: journalDB,
		log:       log.With().Str("repo", "users").Logger(),
	}
}

// Create inserts a user and sets its ID. The first user in an empty table
// is made an administrator; counting and inserting share one transaction.
func (r *Repository) Create(ctx context.Context, u *User) error {
	err := database.WithTransaction(ctx, r.journalDB, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if count == 0 {
			u.IsAdmin = true
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (email, username, full_name, hashed_password, is_active, is_admin, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, u.Email, u.Username, database.NullString(u.FullName), u.HashedPassword,
			boolToInt(u.IsActive), boolToInt(u.IsAdmin), u.CreatedAt.Unix())
		if err != nil {
			return mapConstraintError(err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read user id: %w", err)
		}
		u.ID = id
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by id
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by exact email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByUsername retrieves a user by exact username
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, "username = ?", username)
}

// Count returns the number of users
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.journalDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// List returns a page of users ordered by id
func (r *Repository) List(ctx context.Context, skip, limit int) ([]User, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if skip < 0 {
		skip = 0
	}

	rows, err := r.journalDB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id ASC LIMIT ? OFFSET ?", limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Save writes every mutable column except the password hash
func (r *Repository) Save(ctx context.Context, u *User) error {
	res, err := r.journalDB.ExecContext(ctx, `
		UPDATE users
		SET email = ?, username = ?, full_name = ?, is_active = ?, is_admin = ?, updated_at = ?
		WHERE id = ?
	`, u.Email, u.Username, database.NullString(u.FullName), boolToInt(u.IsActive), boolToInt(u.IsAdmin),
		database.NullUnix(u.UpdatedAt), u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", u.ID, mapConstraintError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", u.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a user, their portfolios and the trades in them in one
// transaction.
func (r *Repository) Delete(ctx context.Context, id int64) (DeleteResult, error) {
	var result DeleteResult

	err := database.WithTransaction(ctx, r.journalDB, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}

		portfolioIDs, err := ownedPortfolios(ctx, tx, id)
		if err != nil {
			return err
		}
		for _, pid := range portfolioIDs {
			trades, err := portfolio.DeleteCascadeTx(ctx, tx, pid)
			if err != nil {
				return err
			}
			result.TradesRemoved += trades
			result.PortfoliosRemoved++
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete user %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	r.log.Debug().
		Int64("user_id", id).
		Int64("portfolios_removed", result.PortfoliosRemoved).
		Int64("trades_removed", result.TradesRemoved).
		Msg("User cascade committed")
	return result, nil
}

func ownedPortfolios(ctx context.Context, tx *sql.Tx, userID int64) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, "SELECT id FROM portfolios WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios of user %d: %w", userID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) getOne(ctx context.Context, where string, arg interface{}) (*User, error) {
	row := r.journalDB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var fullName sql.NullString
	var isActive, isAdmin int
	var createdAt int64
	var updatedAt sql.NullInt64

	err := row.Scan(&u.ID, &u.Email, &u.Username, &fullName, &u.HashedPassword,
		&isActive, &isAdmin, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	u.FullName = database.StringPtr(fullName)
	u.IsActive = isActive != 0
	u.IsAdmin = isAdmin != 0
	u.CreatedAt = database.FromUnix(createdAt)
	u.UpdatedAt = database.TimePtr(updatedAt)
	return &u, nil
}

// mapConstraintError turns unique index violations into domain.ErrConflict.
// Both sqlite drivers report them with the same message prefix.
func mapConstraintError(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: email or username already in use", domain.ErrConflict)
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
