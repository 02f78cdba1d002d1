package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/tradebook/internal/auth"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/events"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// RepositoryInterface defines the interface for user persistence
type RepositoryInterface interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, skip, limit int) ([]User, error)
	Save(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) (DeleteResult, error)
}

// Compile-time checks
var (
	_ RepositoryInterface  = (*Repository)(nil)
	_ auth.PrincipalLoader = (*UserService)(nil)
)

// UserService handles registration, credentials and account administration
type UserService struct {
	repo         RepositoryInterface
	eventManager *events.Manager
	hashCost     int
	log          zerolog.Logger
}

// NewUserService creates a new user service
func NewUserService(repo RepositoryInterface, eventManager *events.Manager, log zerolog.Logger) *UserService {
	return &UserService{
		repo:         repo,
		eventManager: eventManager,
		hashCost:     bcrypt.DefaultCost,
		log:          log.With().Str("service", "users").Logger(),
	}
}

// SetHashCost overrides the bcrypt cost. Values outside bcrypt's range are ignored.
func (s *UserService) SetHashCost(cost int) {
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		s.hashCost = cost
	}
}

// Register creates an account. Email and username must both be unused.
func (s *UserService) Register(ctx context.Context, in UserCreate) (*User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if err := s.ensureUnused(ctx, in.Email, in.Username, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	u := &User{
		Email:          in.Email,
		Username:       in.Username,
		FullName:       in.FullName,
		HashedPassword: string(hash),
		IsActive:       true,
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Bool("admin", u.IsAdmin).Msg("User registered")
	return u, nil
}

// Authenticate checks credentials. login may be a username or an email.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*User, error) {
	login = strings.TrimSpace(login)

	u, err := s.repo.GetByUsername(ctx, login)
	if errors.Is(err, domain.ErrNotFound) {
		u, err = s.repo.GetByEmail(ctx, login)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) != nil {
		s.log.Debug().Str("login", login).Msg("Password mismatch")
		return nil, fmt.Errorf("%w: incorrect username or password", domain.ErrUnauthorized)
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: inactive user", domain.ErrUnauthorized)
	}
	return u, nil
}

// LoadPrincipal resolves an active user for the auth middleware
func (s *UserService) LoadPrincipal(ctx context.Context, userID int64) (*auth.Principal, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: inactive user", domain.ErrUnauthorized)
	}
	return &auth.Principal{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of users; limit <= 0 means DefaultListLimit
func (s *UserService) List(ctx context.Context, skip, limit int) ([]User, error) {
	return s.repo.List(ctx, skip, limit)
}

// Update applies an administrative partial edit
func (s *UserService) Update(ctx context.Context, id int64, in UserUpdate) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email, username := "", ""
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
	}
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, fmt.Errorf("%w: username must not be empty", domain.ErrInvalidInput)
		}
	}
	if err := s.ensureUnused(ctx, email, username, id); err != nil {
		return nil, err
	}

	if email != "" {
		u.Email = email
	}
	if username != "" {
		u.Username = username
	}
	if in.FullName != nil {
		u.FullName = in.FullName
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if in.IsAdmin != nil {
		u.IsAdmin = *in.IsAdmin
	}
	updated := time.Now().UTC().Truncate(time.Second)
	u.UpdatedAt = &updated

	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", id).Msg("User updated")
	return u, nil
}

// Delete removes a user with everything they own. actingUserID may not
// delete their own account.
func (s *UserService) Delete(ctx context.Context, id, actingUserID int64) error {
	if id == actingUserID {
		return fmt.Errorf("%w: cannot delete your own account", domain.ErrInvalidInput)
	}

	result, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("user_id", id).Msg("Failed to delete user")
		return err
	}

	s.log.Info().
		Int64("user_id", id).
		Int64("portfolios_removed", result.PortfoliosRemoved).
		Int64("trades_removed", result.TradesRemoved).
		Msg("User deleted")
	s.eventManager.EmitTyped("users", &events.UserDeletedData{
		UserID:            id,
		PortfoliosRemoved: result.PortfoliosRemoved,
		TradesRemoved:     result.TradesRemoved,
	})
	return nil
}

// ensureUnused rejects an email or username held by a user other than self.
// Empty values are skipped.
func (s *UserService) ensureUnused(ctx context.Context, email, username string, self int64) error {
	if email != "" {
		existing, err := s.repo.GetByEmail(ctx, email)
		if err == nil && existing.ID != self {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	if username != "" {
		existing, err := s.repo.GetByUsername(ctx, username)
		if err == nil && existing.ID != self {
			return fmt.Errorf("%w: username already taken", domain.ErrConflict)
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}
