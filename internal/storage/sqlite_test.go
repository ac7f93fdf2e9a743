package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func newTestRepository(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func expense(desc string, cents int64, y, m, d int) core.Transaction {
	return core.Transaction{
		Kind:        core.Expense,
		Date:        core.NewDate(y, m, d),
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Category:    "Groceries",
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")

	v1, err := RunMigrations(path)
	require.NoError(t, err)
	v2, err := RunMigrations(path)
	require.NoError(t, err)
	assert.Equal(t, uint(2), v1)
	assert.Equal(t, v1, v2)
}

func TestSQLiteRepositoryCRUD(t *testing.T) {
	fixed := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	repo := newTestRepository(t).WithClock(func() time.Time { return fixed })
	ctx := context.Background()

	older, err := repo.Create(ctx, "u1", expense("Market", 1250, 2024, 3, 1))
	require.NoError(t, err)
	newer, err := repo.Create(ctx, "u1", expense("Bakery", 300, 2024, 3, 9))
	require.NoError(t, err)
	_, err = repo.Create(ctx, "u2", expense("Other user", 999, 2024, 3, 9))
	require.NoError(t, err)

	list, err := repo.List(ctx, "u1", core.Expense)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].ID)
	assert.Equal(t, older, list[1].ID)
	assert.Equal(t, core.Expense, list[0].Kind)
	assert.True(t, list[0].Date.Equal(core.NewDate(2024, 3, 9).Time))
	assert.True(t, list[0].CreatedAt.Equal(fixed))

	income, err := repo.List(ctx, "u1", core.Income)
	require.NoError(t, err)
	assert.Empty(t, income)

	err = repo.Update(ctx, "u1", core.Expense, older, core.Patch{
		Date:        core.NewDate(2024, 3, 2),
		Description: "Farmers market",
		Amount:      core.Money{Cents: 1500},
		Category:    "Groceries",
		Notes:       "eggs",
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "u1", core.Expense, older)
	require.NoError(t, err)
	assert.Equal(t, "Farmers market", got.Description)
	assert.Equal(t, int64(1500), got.Amount.Cents)
	assert.Equal(t, "eggs", got.Notes)

	require.NoError(t, repo.Delete(ctx, "u1", core.Expense, older))
	_, err = repo.Get(ctx, "u1", core.Expense, older)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteRepositoryNotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, "u1", expense("Market", 1250, 2024, 3, 1))
	require.NoError(t, err)

	tests := []struct {
		name string
		err  error
	}{
		{"other user get", func() error { _, err := repo.Get(ctx, "u2", core.Expense, id); return err }()},
		{"wrong kind delete", repo.Delete(ctx, "u1", core.Income, id)},
		{"non numeric id", repo.Delete(ctx, "u1", core.Expense, "abc")},
		{"missing update", repo.Update(ctx, "u1", core.Expense, "999", expense("Market", 1, 2024, 3, 1).Patch())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, core.ErrNotFound)
		})
	}
}

func TestSQLiteRepositoryValidates(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Create(context.Background(), "u1", expense("Market", 0, 2024, 3, 1))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestSQLiteRepositoryUnavailableAfterClose(t *testing.T) {
	repo := newTestRepository(t)
	require.NoError(t, repo.Close())

	_, err := repo.List(context.Background(), "u1", core.Expense)
	assert.ErrorIs(t, err, core.ErrUnavailable)
	assert.ErrorIs(t, repo.Ping(context.Background()), core.ErrUnavailable)
}
