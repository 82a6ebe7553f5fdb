// Package audit records every ledger mutation as a structured event.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/catatkas/backend/internal/events"
)

const (
	EventBudgetSet           = "BUDGET_SET"
	EventTransactionRecorded = "TRANSACTION_RECORDED"
	EventTransactionRevised  = "TRANSACTION_REVISED"
	EventError               = "ERROR"
)

type Event struct {
	ID            string            `json:"id"`
	Timestamp     time.Time         `json:"timestamp"`
	EventType     string            `json:"event_type"`
	ChatID        string            `json:"chat_id"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Category      string            `json:"category,omitempty"`
	Amount        int64             `json:"amount,omitempty"`
	Status        string            `json:"status"`
	Details       map[string]string `json:"details,omitempty"`
}

// RoutingKey is the broker routing key for the event, e.g. ledger.budget_set.
func (e Event) RoutingKey() string {
	return "ledger." + strings.ToLower(e.EventType)
}

type AuditLogger struct {
	logger    *slog.Logger
	publisher events.Publisher
	now       func() time.Time
}

// NewAuditLogger writes events to logger and forwards them to publisher.
// A nil publisher disables forwarding.
func NewAuditLogger(logger *slog.Logger, publisher events.Publisher) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AuditLogger{
		logger:    logger,
		publisher: publisher,
		now:       time.Now,
	}
}

func (a *AuditLogger) LogBudgetSet(ctx context.Context, chatID, category string, amount int64) {
	a.log(ctx, Event{
		EventType: EventBudgetSet,
		ChatID:    chatID,
		Category:  category,
		Amount:    amount,
		Status:    "SUCCESS",
	})
}

func (a *AuditLogger) LogTransactionRecorded(ctx context.Context, chatID, transactionID, category string, amount int64) {
	a.log(ctx, Event{
		EventType:     EventTransactionRecorded,
		ChatID:        chatID,
		TransactionID: transactionID,
		Category:      category,
		Amount:        amount,
		Status:        "SUCCESS",
	})
}

func (a *AuditLogger) LogTransactionRevised(ctx context.Context, chatID, transactionID, category string, amount int64) {
	a.log(ctx, Event{
		EventType:     EventTransactionRevised,
		ChatID:        chatID,
		TransactionID: transactionID,
		Category:      category,
		Amount:        amount,
		Status:        "SUCCESS",
	})
}

func (a *AuditLogger) LogError(ctx context.Context, chatID, operation string, err error) {
	a.log(ctx, Event{
		EventType: EventError,
		ChatID:    chatID,
		Status:    "FAILED",
		Details: map[string]string{
			"operation": operation,
			"error":     err.Error(),
		},
	})
}

func (a *AuditLogger) log(ctx context.Context, event Event) {
	event.ID = uuid.NewString()
	event.Timestamp = a.now()

	a.logger.InfoContext(ctx, "AUDIT",
		"id", event.ID,
		"event_type", event.EventType,
		"chat_id", event.ChatID,
		"transaction_id", event.TransactionID,
		"category", event.Category,
		"amount", event.Amount,
		"status", event.Status,
	)

	if err := a.publisher.Publish(ctx, event.RoutingKey(), event); err != nil {
		a.logger.WarnContext(ctx, "Failed to publish audit event", "id", event.ID, "error", err)
	}
}
