package validation

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/catatkas/backend/internal/models"
)

type testBudget struct {
	Category string `validate:"required"`
	Amount   int64  `validate:"gt=0"`
}

func TestValidationHelper_ValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("valid struct", func(t *testing.T) {
		err := vh.ValidateStruct(&testBudget{Category: "MAKAN", Amount: 1500000})
		assert.NoError(t, err)
	})

	t.Run("missing category and non-positive amount", func(t *testing.T) {
		err := vh.ValidateStruct(&testBudget{Amount: 0})
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 2)
	})

	t.Run("transaction type must be known", func(t *testing.T) {
		err := vh.ValidateStruct(&models.Transaction{
			ID:       "ABC123",
			Type:     "REFUND",
			Category: "MAKAN",
			Amount:   10,
		})
		assert.Error(t, err)

		validationErrors, ok := err.(validator.ValidationErrors)
		assert.True(t, ok)
		assert.Len(t, validationErrors, 1)
		assert.Equal(t, "Type", validationErrors[0].Field())
		assert.Equal(t, "oneof", validationErrors[0].Tag())
	})

	t.Run("zero amount transaction", func(t *testing.T) {
		err := vh.ValidateStruct(&models.Transaction{
			ID:       "ABC123",
			Type:     models.TransactionExpense,
			Category: "MAKAN",
		})
		assert.Error(t, err)
	})
}

func TestDetails(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("validation errors", func(t *testing.T) {
		details := Details(vh.ValidateStruct(&testBudget{}))
		assert.Contains(t, details, "Category")
		assert.Contains(t, details, "Amount")
		assert.Equal(t, "Field Validation Failed on 'gt' tag", details["Amount"])
	})

	t.Run("other errors", func(t *testing.T) {
		assert.Nil(t, Details(errors.New("boom")))
		assert.Nil(t, Details(nil))
	})
}
