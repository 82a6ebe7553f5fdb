package services

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.Indonesian)

// FormatAmount renders whole-unit currency with id-ID grouping, e.g. 1.500.000.
func FormatAmount(amount int64) string {
	return amountPrinter.Sprintf("%d", amount)
}

// FormatRupiah is FormatAmount with the Rp prefix.
func FormatRupiah(amount int64) string {
	return "Rp" + FormatAmount(amount)
}

// FormatDate renders the calendar date in loc as d/m/yyyy.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year())
}

func escapeMarkdown(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
