package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aristath/tradebook/internal/api"
	"github.com/aristath/tradebook/internal/domain"
	"github.com/rs/zerolog"
)

// Principal is the authenticated user attached to a request
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// PrincipalLoader resolves an active user by id.
// It returns domain.ErrNotFound or domain.ErrUnauthorized for unknown or inactive users.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, userID int64) (*Principal, error)
}

type contextKey struct{}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKey{}, p)
}

// CurrentUser returns the authenticated principal, if any
func CurrentUser(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(contextKey{}).(*Principal)
	return p, ok && p != nil
}

// Middleware authenticates bearer tokens
type Middleware struct {
	tokens *TokenManager
	users  PrincipalLoader
	log    zerolog.Logger
}

// NewMiddleware creates the authentication middleware
func NewMiddleware(tokens *TokenManager, users PrincipalLoader, log zerolog.Logger) *Middleware {
	return &Middleware{
		tokens: tokens,
		users:  users,
		log:    log.With().Str("component", "auth").Logger(),
	}
}

// Authenticate rejects requests without a valid token for an active user
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			api.WriteError(w, m.log, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized))
			return
		}

		userID, _, err := m.tokens.Verify(token)
		if err != nil {
			m.log.Debug().Err(err).Msg("Rejected token")
			api.WriteError(w, m.log, err)
			return
		}

		principal, err := m.users.LoadPrincipal(r.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				err = fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
			}
			api.WriteError(w, m.log, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin allows only administrators through. Must run after Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := CurrentUser(r.Context())
		if !ok {
			api.WriteError(w, m.log, domain.ErrUnauthorized)
			return
		}
		if !p.IsAdmin {
			api.WriteError(w, m.log, fmt.Errorf("%w: administrator rights required", domain.ErrForbidden))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken reads the Authorization header. Browsers cannot set headers on
// websocket handshakes, so upgrades may pass the token as ?access_token=.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}
