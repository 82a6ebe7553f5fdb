package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/catatkas/backend/internal/models"
)

// PostgresStore keeps the two per-chat collections as tables keyed by
// (chat_id, name) and (chat_id, id). Timestamps come from the database clock.
type PostgresStore struct {
	db        *sql.DB
	validator recordValidator
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:        db,
		validator: newRecordValidator(),
	}
}

const transactionColumns = `id, type, category, amount, description, recorded_at`

func (s *PostgresStore) UpsertCategoryBudget(ctx context.Context, chatID, category string, amount int64) error {
	if err := s.validator.budget(models.CategoryBudget{Category: category, MonthlyBudget: amount}); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (chat_id, name, monthly_budget, last_updated)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chat_id, name)
		DO UPDATE SET monthly_budget = EXCLUDED.monthly_budget, last_updated = now()`,
		chatID, category, amount)
	if err != nil {
		return unavailable("upsert category budget", err)
	}
	return nil
}

func (s *PostgresStore) GetAllCategoryBudgets(ctx context.Context, chatID string) ([]models.CategoryBudget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, monthly_budget, last_updated
		FROM categories
		WHERE chat_id = $1`, chatID)
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	defer rows.Close()

	budgets := []models.CategoryBudget{}
	for rows.Next() {
		var b models.CategoryBudget
		if err := rows.Scan(&b.Category, &b.MonthlyBudget, &b.LastUpdated); err != nil {
			return nil, unavailable("list categories", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list categories", err)
	}
	return s.validator.keepValidBudgets(ctx, chatID, budgets), nil
}

func (s *PostgresStore) PutTransaction(ctx context.Context, chatID string, tx models.Transaction) (models.Transaction, error) {
	if err := s.validator.transaction(tx); err != nil {
		return models.Transaction{}, err
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO transactions (chat_id, id, type, category, amount, description, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp())
		ON CONFLICT (chat_id, id) DO NOTHING
		RETURNING recorded_at`,
		chatID, tx.ID, string(tx.Type), tx.Category, tx.Amount, tx.Description,
	).Scan(&tx.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrDuplicateID
	}
	if err != nil {
		return models.Transaction{}, unavailable("put transaction", err)
	}
	return tx, nil
}

func (s *PostgresStore) GetRecentTransactions(ctx context.Context, chatID string, limit int) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, chatID, "recent transactions", `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE chat_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2`, chatID, limit)
}

func (s *PostgresStore) GetTransaction(ctx context.Context, chatID, id string) (models.Transaction, error) {
	var tx models.Transaction
	err := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE chat_id = $1 AND id = $2`, chatID, id,
	).Scan(&tx.ID, &tx.Type, &tx.Category, &tx.Amount, &tx.Description, &tx.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrNotFound
	}
	if err != nil {
		return models.Transaction{}, unavailable("get transaction", err)
	}
	if err := s.validator.transaction(tx); err != nil {
		slog.WarnContext(ctx, "Transaction record failed validation", "chat_id", chatID, "error", err)
	}
	return tx, nil
}

func (s *PostgresStore) DeleteTransaction(ctx context.Context, chatID, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM transactions
		WHERE chat_id = $1 AND id = $2`, chatID, id)
	if err != nil {
		return unavailable("delete transaction", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete transaction", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetAllTransactions(ctx context.Context, chatID string) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, chatID, "all transactions", `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE chat_id = $1`, chatID)
}

func (s *PostgresStore) queryTransactions(ctx context.Context, chatID, op, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.Category, &tx.Amount, &tx.Description, &tx.Timestamp); err != nil {
			return nil, unavailable(op, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}
	return s.validator.keepValidTransactions(ctx, chatID, txs), nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
