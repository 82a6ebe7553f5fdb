package store

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/catatkas/backend/internal/models"
)

// RedisStore lays each chat out as documents under users:{chatID}:
//
//	users:{chatID}:categories          set of category names
//	users:{chatID}:categories:{NAME}   hash {monthly_budget, last_updated}
//	users:{chatID}:transactions        zset of ids scored by timestamp (µs)
//	users:{chatID}:transactions:{ID}   hash {id, type, category, amount, description, timestamp}
//
// Timestamps come from the Redis server clock (TIME).
type RedisStore struct {
	rdb       *redis.Client
	validator recordValidator
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb:       rdb,
		validator: newRecordValidator(),
	}
}

func categoryIndexKey(chatID string) string {
	return fmt.Sprintf("users:%s:categories", chatID)
}

func categoryKey(chatID, category string) string {
	return fmt.Sprintf("users:%s:categories:%s", chatID, category)
}

func transactionIndexKey(chatID string) string {
	return fmt.Sprintf("users:%s:transactions", chatID)
}

func transactionKey(chatID, id string) string {
	return fmt.Sprintf("users:%s:transactions:%s", chatID, id)
}

func (s *RedisStore) serverTime(ctx context.Context) (time.Time, error) {
	now, err := s.rdb.Time(ctx).Result()
	if err != nil {
		return time.Time{}, err
	}
	return now.UTC(), nil
}

func (s *RedisStore) UpsertCategoryBudget(ctx context.Context, chatID, category string, amount int64) error {
	if err := s.validator.budget(models.CategoryBudget{Category: category, MonthlyBudget: amount}); err != nil {
		return err
	}

	now, err := s.serverTime(ctx)
	if err != nil {
		return unavailable("upsert category budget", err)
	}

	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, categoryKey(chatID, category),
			"monthly_budget", strconv.FormatInt(amount, 10),
			"last_updated", now.Format(time.RFC3339Nano),
		)
		pipe.SAdd(ctx, categoryIndexKey(chatID), category)
		return nil
	})
	if err != nil {
		return unavailable("upsert category budget", err)
	}
	return nil
}

func (s *RedisStore) GetAllCategoryBudgets(ctx context.Context, chatID string) ([]models.CategoryBudget, error) {
	names, err := s.rdb.SMembers(ctx, categoryIndexKey(chatID)).Result()
	if err != nil {
		return nil, unavailable("list categories", err)
	}
	if len(names) == 0 {
		return []models.CategoryBudget{}, nil
	}

	docs := make([]*redis.StringStringMapCmd, len(names))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, name := range names {
			docs[i] = pipe.HGetAll(ctx, categoryKey(chatID, name))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("list categories", err)
	}

	budgets := make([]models.CategoryBudget, 0, len(names))
	for i, name := range names {
		fields := docs[i].Val()
		if len(fields) == 0 {
			continue
		}
		b, err := decodeBudget(name, fields)
		if err != nil {
			slog.WarnContext(ctx, "Skipping undecodable category record", "chat_id", chatID, "category", name, "error", err)
			continue
		}
		budgets = append(budgets, b)
	}
	return s.validator.keepValidBudgets(ctx, chatID, budgets), nil
}

func (s *RedisStore) PutTransaction(ctx context.Context, chatID string, tx models.Transaction) (models.Transaction, error) {
	if err := s.validator.transaction(tx); err != nil {
		return models.Transaction{}, err
	}

	now, err := s.serverTime(ctx)
	if err != nil {
		return models.Transaction{}, unavailable("put transaction", err)
	}
	tx.Timestamp = now

	// HSETNX on the id field claims the document atomically.
	key := transactionKey(chatID, tx.ID)
	claimed, err := s.rdb.HSetNX(ctx, key, "id", tx.ID).Result()
	if err != nil {
		return models.Transaction{}, unavailable("put transaction", err)
	}
	if !claimed {
		return models.Transaction{}, ErrDuplicateID
	}

	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, encodeTransaction(tx)...)
		pipe.ZAdd(ctx, transactionIndexKey(chatID), &redis.Z{
			Score:  float64(now.UnixMicro()),
			Member: tx.ID,
		})
		return nil
	})
	if err != nil {
		if delErr := s.rdb.Del(ctx, key).Err(); delErr != nil {
			slog.WarnContext(ctx, "Failed to release claimed transaction id", "chat_id", chatID, "id", tx.ID, "error", delErr)
		}
		return models.Transaction{}, unavailable("put transaction", err)
	}
	return tx, nil
}

func (s *RedisStore) GetRecentTransactions(ctx context.Context, chatID string, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		return []models.Transaction{}, nil
	}
	ids, err := s.rdb.ZRevRange(ctx, transactionIndexKey(chatID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, unavailable("recent transactions", err)
	}
	return s.loadTransactions(ctx, chatID, ids)
}

func (s *RedisStore) GetTransaction(ctx context.Context, chatID, id string) (models.Transaction, error) {
	fields, err := s.rdb.HGetAll(ctx, transactionKey(chatID, id)).Result()
	if err != nil {
		return models.Transaction{}, unavailable("get transaction", err)
	}
	if len(fields) == 0 {
		return models.Transaction{}, ErrNotFound
	}

	// A damaged document is still returned by id so that it can be revised away.
	tx, err := decodeTransaction(fields)
	if err != nil {
		slog.WarnContext(ctx, "Transaction record is undecodable", "chat_id", chatID, "id", id, "error", err)
		return models.Transaction{
			ID:          id,
			Type:        models.TransactionType(fields["type"]),
			Category:    fields["category"],
			Description: fields["description"],
		}, nil
	}
	if err := s.validator.transaction(tx); err != nil {
		slog.WarnContext(ctx, "Transaction record failed validation", "chat_id", chatID, "error", err)
	}
	return tx, nil
}

func (s *RedisStore) DeleteTransaction(ctx context.Context, chatID, id string) error {
	var deleted *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, transactionKey(chatID, id))
		pipe.ZRem(ctx, transactionIndexKey(chatID), id)
		return nil
	})
	if err != nil {
		return unavailable("delete transaction", err)
	}
	if deleted.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) GetAllTransactions(ctx context.Context, chatID string) ([]models.Transaction, error) {
	ids, err := s.rdb.ZRange(ctx, transactionIndexKey(chatID), 0, -1).Result()
	if err != nil {
		return nil, unavailable("all transactions", err)
	}
	return s.loadTransactions(ctx, chatID, ids)
}

// loadTransactions fetches the documents for ids, preserving their order.
// Index entries whose document is gone are skipped.
func (s *RedisStore) loadTransactions(ctx context.Context, chatID string, ids []string) ([]models.Transaction, error) {
	if len(ids) == 0 {
		return []models.Transaction{}, nil
	}

	docs := make([]*redis.StringStringMapCmd, len(ids))
	_, err := s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			docs[i] = pipe.HGetAll(ctx, transactionKey(chatID, id))
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("load transactions", err)
	}

	txs := make([]models.Transaction, 0, len(ids))
	for i, id := range ids {
		fields := docs[i].Val()
		if len(fields) == 0 {
			slog.DebugContext(ctx, "Transaction index entry without document", "chat_id", chatID, "id", id)
			continue
		}
		tx, err := decodeTransaction(fields)
		if err != nil {
			slog.WarnContext(ctx, "Skipping undecodable transaction record", "chat_id", chatID, "id", id, "error", err)
			continue
		}
		txs = append(txs, tx)
	}
	return s.validator.keepValidTransactions(ctx, chatID, txs), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func encodeTransaction(tx models.Transaction) []interface{} {
	return []interface{}{
		"id", tx.ID,
		"type", string(tx.Type),
		"category", tx.Category,
		"amount", strconv.FormatInt(tx.Amount, 10),
		"description", tx.Description,
		"timestamp", tx.Timestamp.Format(time.RFC3339Nano),
	}
}

func decodeTransaction(fields map[string]string) (models.Transaction, error) {
	amount, err := strconv.ParseInt(fields["amount"], 10, 64)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: amount %q", ErrInvalidRecord, fields["amount"])
	}
	ts, err := time.Parse(time.RFC3339Nano, fields["timestamp"])
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%w: timestamp %q", ErrInvalidRecord, fields["timestamp"])
	}
	return models.Transaction{
		ID:          fields["id"],
		Type:        models.TransactionType(fields["type"]),
		Category:    fields["category"],
		Amount:      amount,
		Description: fields["description"],
		Timestamp:   ts,
	}, nil
}

func decodeBudget(category string, fields map[string]string) (models.CategoryBudget, error) {
	amount, err := strconv.ParseInt(fields["monthly_budget"], 10, 64)
	if err != nil {
		return models.CategoryBudget{}, fmt.Errorf("%w: monthly_budget %q", ErrInvalidRecord, fields["monthly_budget"])
	}
	b := models.CategoryBudget{Category: category, MonthlyBudget: amount}
	if raw, ok := fields["last_updated"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			b.LastUpdated = ts
		}
	}
	return b, nil
}
