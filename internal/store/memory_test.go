package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catatkas/backend/internal/models"
)

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func expense(id, category string, amount int64) models.Transaction {
	return models.Transaction{
		ID:       id,
		Type:     models.TransactionExpense,
		Category: category,
		Amount:   -amount,
	}
}

func TestMemoryStore_CategoryBudgets(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStoreWithClock(fixedClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Second))

	t.Run("upsert overwrites", func(t *testing.T) {
		require.NoError(t, s.UpsertCategoryBudget(ctx, "42", "MAKAN", 1000000))
		require.NoError(t, s.UpsertCategoryBudget(ctx, "42", "MAKAN", 1500000))

		budgets, err := s.GetAllCategoryBudgets(ctx, "42")
		require.NoError(t, err)
		require.Len(t, budgets, 1)
		assert.Equal(t, int64(1500000), budgets[0].MonthlyBudget)
		assert.False(t, budgets[0].LastUpdated.IsZero())
	})

	t.Run("chats are isolated", func(t *testing.T) {
		budgets, err := s.GetAllCategoryBudgets(ctx, "43")
		require.NoError(t, err)
		assert.Empty(t, budgets)
	})

	t.Run("non-positive budget rejected", func(t *testing.T) {
		err := s.UpsertCategoryBudget(ctx, "42", "MAKAN", 0)
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})
}

func TestMemoryStore_Transactions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStoreWithClock(fixedClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Minute))

	first, err := s.PutTransaction(ctx, "42", expense("AAAAAA", "MAKAN", 50000))
	require.NoError(t, err)
	second, err := s.PutTransaction(ctx, "42", models.Transaction{
		ID: "BBBBBB", Type: models.TransactionIncome, Category: "GAJI", Amount: 5000000,
	})
	require.NoError(t, err)
	assert.True(t, second.Timestamp.After(first.Timestamp))

	t.Run("duplicate id is not overwritten", func(t *testing.T) {
		_, err := s.PutTransaction(ctx, "42", expense("AAAAAA", "TRANSPORT", 1))
		assert.ErrorIs(t, err, ErrDuplicateID)

		tx, err := s.GetTransaction(ctx, "42", "AAAAAA")
		require.NoError(t, err)
		assert.Equal(t, "MAKAN", tx.Category)
	})

	t.Run("sign must match type", func(t *testing.T) {
		_, err := s.PutTransaction(ctx, "42", models.Transaction{
			ID: "CCCCCC", Type: models.TransactionExpense, Category: "MAKAN", Amount: 100,
		})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})

	t.Run("recent is newest first and limited", func(t *testing.T) {
		recent, err := s.GetRecentTransactions(ctx, "42", 1)
		require.NoError(t, err)
		require.Len(t, recent, 1)
		assert.Equal(t, "BBBBBB", recent[0].ID)

		recent, err = s.GetRecentTransactions(ctx, "42", 10)
		require.NoError(t, err)
		assert.Len(t, recent, 2)
	})

	t.Run("delete then get", func(t *testing.T) {
		require.NoError(t, s.DeleteTransaction(ctx, "42", "AAAAAA"))
		_, err := s.GetTransaction(ctx, "42", "AAAAAA")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.DeleteTransaction(ctx, "42", "AAAAAA"), ErrNotFound)

		all, err := s.GetAllTransactions(ctx, "42")
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("other chat sees nothing", func(t *testing.T) {
		_, err := s.GetTransaction(ctx, "99", "BBBBBB")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore_SameInstantKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	instant := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStoreWithClock(func() time.Time { return instant })

	for _, id := range []string{"AAAAA1", "AAAAA2", "AAAAA3"} {
		_, err := s.PutTransaction(ctx, "42", expense(id, "MAKAN", 1000))
		require.NoError(t, err)
	}

	recent, err := s.GetRecentTransactions(ctx, "42", 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "AAAAA3", recent[0].ID)
	assert.Equal(t, "AAAAA1", recent[2].ID)
}

func TestMemoryStore_ReadsDoNotCreateLedgers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetAllCategoryBudgets(ctx, "1")
	require.NoError(t, err)
	_, err = s.GetRecentTransactions(ctx, "2", 10)
	require.NoError(t, err)
	_, err = s.GetTransaction(ctx, "3", "AAAAAA")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, "4", "AAAAAA"), ErrNotFound)
	all, err := s.GetAllTransactions(ctx, "5")
	require.NoError(t, err)
	assert.Empty(t, all)

	assert.Empty(t, s.chats)
}

func TestMemoryStore_RejectsAmountsAboveMaximum(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.UpsertCategoryBudget(ctx, "42", "MAKAN", models.MaxAmount+1)
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = s.PutTransaction(ctx, "42", expense("AAAAAA", "MAKAN", models.MaxAmount+1))
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = s.PutTransaction(ctx, "42", expense("BBBBBB", "MAKAN", models.MaxAmount))
	assert.NoError(t, err)
}
