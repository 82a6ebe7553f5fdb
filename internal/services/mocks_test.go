package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/catatkas/backend/internal/models"
)

type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) UpsertCategoryBudget(ctx context.Context, chatID, category string, amount int64) error {
	args := m.Called(ctx, chatID, category, amount)
	return args.Error(0)
}

func (m *MockLedgerStore) GetAllCategoryBudgets(ctx context.Context, chatID string) ([]models.CategoryBudget, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryBudget), args.Error(1)
}

func (m *MockLedgerStore) PutTransaction(ctx context.Context, chatID string, tx models.Transaction) (models.Transaction, error) {
	args := m.Called(ctx, chatID, tx)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) GetRecentTransactions(ctx context.Context, chatID string, limit int) ([]models.Transaction, error) {
	args := m.Called(ctx, chatID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) GetTransaction(ctx context.Context, chatID, id string) (models.Transaction, error) {
	args := m.Called(ctx, chatID, id)
	return args.Get(0).(models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) DeleteTransaction(ctx context.Context, chatID, id string) error {
	args := m.Called(ctx, chatID, id)
	return args.Error(0)
}

func (m *MockLedgerStore) GetAllTransactions(ctx context.Context, chatID string) ([]models.Transaction, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockLedgerStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockLedgerStore) Close() error {
	return m.Called().Error(0)
}

// sequenceIDs returns ids in order, then repeats the last one.
func sequenceIDs(ids ...string) IDGenerator {
	i := 0
	return func() (string, error) {
		id := ids[i]
		if i < len(ids)-1 {
			i++
		}
		return id, nil
	}
}
