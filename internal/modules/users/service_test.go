package users

import (
	"context"
	"testing"

	"github.com/aristath/tradebook/internal/domain"
	"github.com/aristath/tradebook/internal/events"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*UserService, *[]events.Event) {
	t.Helper()
	db := testingpkg.NewJournalDB(t)
	captured := make([]events.Event, 0)
	bus := events.NewBus()
	bus.SubscribeAll(func(e events.Event) { captured = append(captured, e) })

	svc := NewUserService(NewRepository(db.Conn(), zerolog.Nop()), events.NewManager(bus, zerolog.Nop()), zerolog.Nop())
	svc.SetHashCost(bcrypt.MinCost)
	return svc, &captured
}

func register(t *testing.T, svc *UserService, name string) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), UserCreate{
		Email:    name + "@example.com",
		Username: name,
		Password: "s3cret-" + name,
	})
	require.NoError(t, err)
	return u
}

func TestUserService_Register(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := register(t, svc, "alice")
	assert.True(t, first.IsAdmin)
	assert.True(t, first.IsActive)
	assert.NotEqual(t, "s3cret-alice", first.HashedPassword)

	second := register(t, svc, "bob")
	assert.False(t, second.IsAdmin)

	testCases := []struct {
		name     string
		in       UserCreate
		expected error
	}{
		{"duplicate email", UserCreate{Email: "alice@example.com", Username: "x", Password: "p"}, domain.ErrConflict},
		{"duplicate username", UserCreate{Email: "x@example.com", Username: "alice", Password: "p"}, domain.ErrConflict},
		{"bad email", UserCreate{Email: "not-an-email", Username: "x", Password: "p"}, domain.ErrInvalidInput},
		{"missing username", UserCreate{Email: "y@example.com", Password: "p"}, domain.ErrInvalidInput},
		{"missing password", UserCreate{Email: "z@example.com", Username: "z"}, domain.ErrInvalidInput},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := register(t, svc, "alice")

	u, err := svc.Authenticate(ctx, "alice", "s3cret-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	u, err = svc.Authenticate(ctx, "alice@example.com", "s3cret-alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody", "s3cret-alice")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	inactive := false
	_, err = svc.Update(ctx, alice.ID, UserUpdate{IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "alice", "s3cret-alice")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = svc.LoadPrincipal(ctx, alice.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestUserService_LoadPrincipal(t *testing.T) {
	svc, _ := newTestService(t)
	alice := register(t, svc, "alice")

	p, err := svc.LoadPrincipal(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, p.UserID)
	assert.Equal(t, "alice", p.Username)
	assert.True(t, p.IsAdmin)

	_, err = svc.LoadPrincipal(context.Background(), alice.ID+99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Update(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	alice := register(t, svc, "alice")
	bob := register(t, svc, "bob")

	name := "Bob Builder"
	admin := true
	u, err := svc.Update(ctx, bob.ID, UserUpdate{FullName: &name, IsAdmin: &admin})
	require.NoError(t, err)
	require.NotNil(t, u.FullName)
	assert.Equal(t, name, *u.FullName)
	assert.True(t, u.IsAdmin)
	assert.NotNil(t, u.UpdatedAt)

	taken := "alice"
	_, err = svc.Update(ctx, bob.ID, UserUpdate{Username: &taken})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Re-submitting one's own email is not a conflict
	own := "alice@example.com"
	_, err = svc.Update(ctx, alice.ID, UserUpdate{Email: &own})
	assert.NoError(t, err)

	bad := "nope"
	_, err = svc.Update(ctx, alice.ID, UserUpdate{Email: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Update(ctx, 999, UserUpdate{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserService_Delete(t *testing.T) {
	svc, captured := newTestService(t)
	ctx := context.Background()
	admin := register(t, svc, "admin")
	bob := register(t, svc, "bob")

	assert.ErrorIs(t, svc.Delete(ctx, admin.ID, admin.ID), domain.ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, bob.ID, admin.ID))
	require.NotEmpty(t, *captured)
	last := (*captured)[len(*captured)-1]
	assert.Equal(t, events.UserDeleted, last.Type)
	assert.Equal(t, "users", last.Module)

	_, err := svc.Get(ctx, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, admin.ID), domain.ErrNotFound)
}
