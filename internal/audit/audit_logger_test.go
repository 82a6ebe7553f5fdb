package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(ctx, routingKey, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func newTestLogger(buf *bytes.Buffer, publisher *MockPublisher) *AuditLogger {
	a := NewAuditLogger(slog.New(slog.NewJSONHandler(buf, nil)), publisher)
	a.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return a
}

func TestAuditLogger_LogTransactionRecorded(t *testing.T) {
	var buf bytes.Buffer
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "ledger.transaction_recorded", mock.MatchedBy(func(e Event) bool {
		return e.ID != "" && e.ChatID == "42" && e.TransactionID == "K3J9QX" && e.Amount == -50000
	})).Return(nil)

	a := newTestLogger(&buf, publisher)
	a.LogTransactionRecorded(context.Background(), "42", "K3J9QX", "MAKAN", -50000)

	publisher.AssertExpectations(t)
	assert.Contains(t, buf.String(), `"msg":"AUDIT"`)
	assert.Contains(t, buf.String(), `"event_type":"TRANSACTION_RECORDED"`)
}

func TestAuditLogger_PublishFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "ledger.budget_set", mock.Anything).Return(errors.New("channel closed"))

	a := newTestLogger(&buf, publisher)
	a.LogBudgetSet(context.Background(), "42", "MAKAN", 1500000)

	publisher.AssertExpectations(t)
	assert.Contains(t, buf.String(), "Failed to publish audit event")
}

func TestAuditLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, "ledger.error", mock.MatchedBy(func(e Event) bool {
		return e.Status == "FAILED" && e.Details["operation"] == "revise"
	})).Return(nil)

	a := newTestLogger(&buf, publisher)
	a.LogError(context.Background(), "42", "revise", errors.New("store unavailable"))

	publisher.AssertExpectations(t)
}

func TestNewAuditLogger_Defaults(t *testing.T) {
	a := NewAuditLogger(nil, nil)
	assert.NotPanics(t, func() {
		a.LogTransactionRevised(context.Background(), "42", "K3J9QX", "MAKAN", -50000)
	})
}
