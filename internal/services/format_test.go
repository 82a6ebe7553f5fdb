package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.000"},
		{500000, "500.000"},
		{1500000, "1.500.000"},
		{-50000, "-50.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.amount))
	}
	assert.Equal(t, "Rp1.500.000", FormatRupiah(1500000))
}

func TestFormatDate(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	late := time.Date(2024, 4, 30, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, "30/4/2024", FormatDate(late, time.UTC))
	assert.Equal(t, "1/5/2024", FormatDate(late, jakarta))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `NON\_BUDGET`, escapeMarkdown("NON_BUDGET"))
	assert.Equal(t, `\*bold\* \[link`, escapeMarkdown("*bold* [link"))
}

func TestNewTransactionID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id, err := NewTransactionID()
		assert.NoError(t, err)
		assert.Regexp(t, `^[0-9A-Z]{6}$`, id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 45)
}
