package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketspend/internal/core"
	"pocketspend/internal/remote"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSeedUsers(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	seed := []core.User{
		{Username: "alice", Email: "alice@example.com", Name: "Alice"},
		{Username: "bob", Email: "bob@example.com", Name: "Bob"},
	}
	n, err := repo.SeedUsers(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.SeedUsers(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, n, "seeding a populated table is a no-op")

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "Bob", users[1].Name)

	_, err = repo.CreateUser(ctx, core.User{Username: "alice"})
	assert.Error(t, err, "usernames are unique")
}

func TestExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	list, err := repo.ListExpenses(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	created, err := repo.CreateExpense(ctx, core.Expense{
		ID:          "client-supplied",
		Name:        "Lunch",
		Amount:      "12.50",
		Description: "Sandwich",
		Category:    "Food",
		CreatedAt:   "2024-01-02T12:00:00.000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "12.50", created.Amount)
	assert.Equal(t, "2024-01-02T12:00:00.000Z", created.CreatedAt)

	second, err := repo.CreateExpense(ctx, core.Expense{Name: "Bus", Amount: "2", Description: "Ticket"})
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID)

	list, err = repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, created, list[0])

	deleted, err := repo.DeleteExpense(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, created, deleted)

	_, err = repo.DeleteExpense(ctx, "1")
	assert.ErrorIs(t, err, remote.ErrNotFound)
	_, err = repo.DeleteExpense(ctx, "abc")
	assert.ErrorIs(t, err, remote.ErrNotFound)

	list, err = repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Bus", list[0].Name)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "api.db")

	repo, err := NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	_, err = repo.CreateExpense(ctx, core.Expense{Name: "Coffee", Amount: "3", Description: "Espresso"})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path, nil)
	require.NoError(t, err)
	defer repo.Close()
	list, err := repo.ListExpenses(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Coffee", list[0].Name)
}
