package portfolio

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aristath/tradebook/internal/domain"
	testingpkg "github.com/aristath/tradebook/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateAndGet(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	userID := testingpkg.SeedUser(t, db.Conn(), "alice")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	desc := "swing trades"
	p := &Portfolio{Name: "Swing", Description: &desc, InitialBalance: 5000, UserID: userID, CreatedAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, repo.Create(ctx, p))
	assert.NotZero(t, p.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Swing", got.Name)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Equal(t, 5000.0, got.InitialBalance)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
	assert.Nil(t, got.UpdatedAt)

	owner, err := repo.GetOwnerID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, userID, owner)

	exists, err := repo.Exists(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, p.ID+100)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.GetByID(ctx, p.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = repo.GetOwnerID(ctx, p.ID+100)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_ListByUser(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	alice := testingpkg.SeedUser(t, db.Conn(), "alice")
	bob := testingpkg.SeedUser(t, db.Conn(), "bob")
	testingpkg.SeedPortfolio(t, db.Conn(), alice, "A1")
	testingpkg.SeedPortfolio(t, db.Conn(), bob, "B1")
	testingpkg.SeedPortfolio(t, db.Conn(), alice, "A2")

	repo := NewRepository(db.Conn(), zerolog.Nop())

	list, err := repo.ListByUser(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A1", list[0].Name)
	assert.Equal(t, "A2", list[1].Name)

	empty, err := repo.ListByUser(context.Background(), 999)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRepository_SaveKeepsOwner(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	alice := testingpkg.SeedUser(t, db.Conn(), "alice")
	id := testingpkg.SeedPortfolio(t, db.Conn(), alice, "Main")
	repo := NewRepository(db.Conn(), zerolog.Nop())
	ctx := context.Background()

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	p.Name = "Renamed"
	p.UserID = alice + 42
	now := time.Now().UTC().Truncate(time.Second)
	p.UpdatedAt = &now
	require.NoError(t, repo.Save(ctx, p))

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, alice, got.UserID)
	require.NotNil(t, got.UpdatedAt)

	err = repo.Save(ctx, &Portfolio{ID: id + 10, Name: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_DeleteCascades(t *testing.T) {
	db := testingpkg.NewJournalDB(t)
	alice := testingpkg.SeedUser(t, db.Conn(), "alice")
	keep := testingpkg.SeedPortfolio(t, db.Conn(), alice, "Keep")
	drop := testingpkg.SeedPortfolio(t, db.Conn(), alice, "Drop")
	for i := 0; i < 3; i++ {
		testingpkg.SeedTrade(t, db.Conn(), drop, testingpkg.TradeFixture{Symbol: "AAPL", Direction: "long", EntryPrice: 10, Quantity: 1})
	}
	testingpkg.SeedTrade(t, db.Conn(), keep, testingpkg.TradeFixture{Symbol: "MSFT", Direction: "short", EntryPrice: 10, Quantity: 1})

	repo := NewRepository(db.Conn(), zerolog.Nop())
	removed, err := repo.Delete(context.Background(), drop)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	assert.Equal(t, 0, testingpkg.CountRows(t, db.Conn(), "trades", "portfolio_id = ?", drop))
	assert.Equal(t, 1, testingpkg.CountRows(t, db.Conn(), "trades", "portfolio_id = ?", keep))
	assert.Equal(t, 0, testingpkg.CountRows(t, db.Conn(), "portfolios", "id = ?", drop))

	_, err = repo.Delete(context.Background(), drop)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRepository_DeleteRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM portfolios WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trades WHERE portfolio_id = ?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM portfolios WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	repo := NewRepository(db, zerolog.Nop())
	removed, err := repo.Delete(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Zero(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
