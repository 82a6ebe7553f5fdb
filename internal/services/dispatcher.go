package services

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const unknownCommandText = "Perintah tidak dikenal. Ketik /help untuk melihat daftar perintah."

// Reply is the single message sent back for one command. A zero Reply means
// nothing is sent.
type Reply struct {
	Text      string
	ParseMode string
}

func (r Reply) Empty() bool {
	return r.Text == ""
}

func markdownReply(text string) Reply {
	return Reply{Text: text, ParseMode: tgbotapi.ModeMarkdown}
}

func plainReply(text string) Reply {
	return Reply{Text: text}
}

// Dispatcher routes a chat line to the matching LedgerService handler.
type Dispatcher struct {
	ledger *LedgerService
}

func NewDispatcher(ledger *LedgerService) *Dispatcher {
	return &Dispatcher{ledger: ledger}
}

// Dispatch parses text and runs the command for chatID. Invalid input and
// unknown commands are answered with a reply, never an error; only store
// failures are returned.
func (d *Dispatcher) Dispatch(ctx context.Context, chatID, text string) (Reply, error) {
	cmd, err := ParseCommand(text)
	if errors.Is(err, ErrNotACommand) {
		return Reply{}, nil
	}
	var invalid *InvalidFormatError
	if errors.As(err, &invalid) {
		slog.DebugContext(ctx, "Invalid command format", "chat_id", chatID, "command", invalid.Command)
		return plainReply("Format salah. Gunakan: " + invalid.Usage), nil
	}
	if err != nil {
		return Reply{}, err
	}

	switch cmd.Kind {
	case CommandSetBudget:
		return d.ledger.SetBudget(ctx, chatID, cmd)
	case CommandIncome:
		return d.ledger.RecordIncome(ctx, chatID, cmd)
	case CommandExpense:
		return d.ledger.RecordExpense(ctx, chatID, cmd)
	case CommandHistory:
		return d.ledger.History(ctx, chatID)
	case CommandRevise:
		return d.ledger.Revise(ctx, chatID, cmd)
	case CommandList:
		return d.ledger.List(ctx, chatID)
	case CommandHelp:
		return d.ledger.Help(), nil
	default:
		return plainReply(unknownCommandText), nil
	}
}
