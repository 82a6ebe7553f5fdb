package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/catatkas/backend/internal/models"
)

type chatLedger struct {
	categories   map[string]models.CategoryBudget
	transactions map[string]models.Transaction
	order        map[string]uint64
	seq          uint64
	lastStamp    time.Time
}

// MemoryStore keeps ledgers in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	now       func() time.Time
	chats     map[string]*chatLedger
	validator recordValidator
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		now:       now,
		chats:     make(map[string]*chatLedger),
		validator: newRecordValidator(),
	}
}

func (s *MemoryStore) ledger(chatID string) *chatLedger {
	l, ok := s.chats[chatID]
	if !ok {
		l = &chatLedger{
			categories:   make(map[string]models.CategoryBudget),
			transactions: make(map[string]models.Transaction),
			order:        make(map[string]uint64),
		}
		s.chats[chatID] = l
	}
	return l
}

// lookup returns the chat's ledger without creating one.
func (s *MemoryStore) lookup(chatID string) (*chatLedger, bool) {
	l, ok := s.chats[chatID]
	return l, ok
}

// stamp returns the clock reading, never earlier than the chat's previous one.
func (l *chatLedger) stamp(now time.Time) time.Time {
	if now.Before(l.lastStamp) {
		now = l.lastStamp
	}
	l.lastStamp = now
	return now
}

func (s *MemoryStore) UpsertCategoryBudget(_ context.Context, chatID, category string, amount int64) error {
	b := models.CategoryBudget{Category: category, MonthlyBudget: amount}
	if err := s.validator.budget(b); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(chatID)
	b.LastUpdated = l.stamp(s.now())
	l.categories[category] = b
	return nil
}

func (s *MemoryStore) GetAllCategoryBudgets(_ context.Context, chatID string) ([]models.CategoryBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookup(chatID)
	if !ok {
		return []models.CategoryBudget{}, nil
	}
	out := make([]models.CategoryBudget, 0, len(l.categories))
	for _, b := range l.categories {
		out = append(out, b)
	}
	return out, nil
}

func (s *MemoryStore) PutTransaction(_ context.Context, chatID string, tx models.Transaction) (models.Transaction, error) {
	if err := s.validator.transaction(tx); err != nil {
		return models.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.ledger(chatID)
	if _, exists := l.transactions[tx.ID]; exists {
		return models.Transaction{}, ErrDuplicateID
	}
	tx.Timestamp = l.stamp(s.now())
	l.seq++
	l.transactions[tx.ID] = tx
	l.order[tx.ID] = l.seq
	return tx, nil
}

func (s *MemoryStore) GetRecentTransactions(_ context.Context, chatID string, limit int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookup(chatID)
	if !ok {
		return []models.Transaction{}, nil
	}
	all := l.snapshot()
	order := l.order
	sort.Slice(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return order[all[i].ID] > order[all[j].ID]
		}
		return all[i].Timestamp.After(all[j].Timestamp)
	})
	if limit >= 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) GetTransaction(_ context.Context, chatID, id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookup(chatID)
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	tx, ok := l.transactions[id]
	if !ok {
		return models.Transaction{}, ErrNotFound
	}
	return tx, nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, chatID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookup(chatID)
	if !ok {
		return ErrNotFound
	}
	if _, ok := l.transactions[id]; !ok {
		return ErrNotFound
	}
	delete(l.transactions, id)
	delete(l.order, id)
	return nil
}

func (s *MemoryStore) GetAllTransactions(_ context.Context, chatID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lookup(chatID)
	if !ok {
		return []models.Transaction{}, nil
	}
	return l.snapshot(), nil
}

func (l *chatLedger) snapshot() []models.Transaction {
	out := make([]models.Transaction, 0, len(l.transactions))
	for _, tx := range l.transactions {
		out = append(out, tx)
	}
	return out
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
