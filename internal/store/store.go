// Package store holds the per-chat ledger persistence contract and its
// engines. Every operation is scoped to one chat identity; engines never
// read or write across chats.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/catatkas/backend/internal/models"
	"github.com/catatkas/backend/internal/validation"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicateID      = errors.New("transaction id already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidRecord    = errors.New("invalid record")
)

// LedgerStore is the document-store contract the command handlers need.
type LedgerStore interface {
	UpsertCategoryBudget(ctx context.Context, chatID, category string, amount int64) error
	GetAllCategoryBudgets(ctx context.Context, chatID string) ([]models.CategoryBudget, error)

	// PutTransaction creates tx and returns it with the store-assigned
	// timestamp. It never overwrites: an existing id yields ErrDuplicateID.
	PutTransaction(ctx context.Context, chatID string, tx models.Transaction) (models.Transaction, error)
	GetRecentTransactions(ctx context.Context, chatID string, limit int) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, chatID, id string) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, chatID, id string) error
	GetAllTransactions(ctx context.Context, chatID string) ([]models.Transaction, error)

	Ping(ctx context.Context) error
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}

// recordValidator checks records on their way in and out of an engine.
type recordValidator struct {
	helper *validation.ValidationHelper
}

func newRecordValidator() recordValidator {
	return recordValidator{helper: validation.NewValidationHelper()}
}

func (v recordValidator) transaction(tx models.Transaction) error {
	if err := v.helper.ValidateStruct(&tx); err != nil {
		return fmt.Errorf("%w: transaction %s: %v", ErrInvalidRecord, tx.ID, err)
	}
	if !tx.SignMatchesType() {
		return fmt.Errorf("%w: transaction %s: amount %d does not match type %s", ErrInvalidRecord, tx.ID, tx.Amount, tx.Type)
	}
	return nil
}

func (v recordValidator) budget(b models.CategoryBudget) error {
	if err := v.helper.ValidateStruct(&b); err != nil {
		return fmt.Errorf("%w: category %s: %v", ErrInvalidRecord, b.Category, err)
	}
	return nil
}

// keepValidTransactions drops records that fail validation, logging each.
func (v recordValidator) keepValidTransactions(ctx context.Context, chatID string, txs []models.Transaction) []models.Transaction {
	out := txs[:0]
	for _, tx := range txs {
		if err := v.transaction(tx); err != nil {
			slog.WarnContext(ctx, "Skipping invalid transaction record", "chat_id", chatID, "error", err)
			continue
		}
		out = append(out, tx)
	}
	return out
}

func (v recordValidator) keepValidBudgets(ctx context.Context, chatID string, budgets []models.CategoryBudget) []models.CategoryBudget {
	out := budgets[:0]
	for _, b := range budgets {
		if err := v.budget(b); err != nil {
			slog.WarnContext(ctx, "Skipping invalid category record", "chat_id", chatID, "error", err)
			continue
		}
		out = append(out, b)
	}
	return out
}
