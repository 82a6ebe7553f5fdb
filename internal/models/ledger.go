package models

import (
	"time"
)

type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// MaxAmount bounds every budget and transaction magnitude (one quadrillion rupiah).
const MaxAmount int64 = 1_000_000_000_000_000

// Default categories used when a transaction is recorded without one.
const (
	DefaultIncomeCategory  = "PEMASUKAN_LAIN"
	DefaultExpenseCategory = "NON_BUDGET"
)

// CategoryBudget is the monthly budget a chat attached to a category.
type CategoryBudget struct {
	Category      string    `json:"category" db:"name" validate:"required"`
	MonthlyBudget int64     `json:"monthly_budget" db:"monthly_budget" validate:"gt=0,lte=1000000000000000"`
	LastUpdated   time.Time `json:"last_updated" db:"last_updated"`
}

// Transaction is a single income or expense entry. Amount is signed:
// positive for income, negative for expense.
type Transaction struct {
	ID          string          `json:"id" db:"id" validate:"required"`
	Type        TransactionType `json:"type" db:"type" validate:"required,oneof=INCOME EXPENSE"`
	Category    string          `json:"category" db:"category" validate:"required"`
	Amount      int64           `json:"amount" db:"amount" validate:"ne=0,min=-1000000000000000,max=1000000000000000"`
	Description string          `json:"description" db:"description"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
}

func (t Transaction) IsIncome() bool {
	return t.Type == TransactionIncome
}

func (t Transaction) IsExpense() bool {
	return t.Type == TransactionExpense
}

// Magnitude returns the unsigned amount of the transaction.
func (t Transaction) Magnitude() int64 {
	if t.Amount < 0 {
		return -t.Amount
	}
	return t.Amount
}

// SignMatchesType reports whether the sign of Amount agrees with Type.
func (t Transaction) SignMatchesType() bool {
	switch t.Type {
	case TransactionIncome:
		return t.Amount > 0
	case TransactionExpense:
		return t.Amount < 0
	default:
		return false
	}
}
