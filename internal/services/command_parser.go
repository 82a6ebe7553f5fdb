package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/catatkas/backend/internal/models"
	"github.com/catatkas/backend/internal/validation"
)

const commandPrefix = "/"

var (
	ErrInvalidFormat = errors.New("invalid command format")
	ErrNotACommand   = errors.New("not a command")
)

type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandSetBudget
	CommandIncome
	CommandExpense
	CommandHistory
	CommandRevise
	CommandList
	CommandHelp
)

var commandNames = map[string]CommandKind{
	"tipe":    CommandSetBudget,
	"masuk":   CommandIncome,
	"keluar":  CommandExpense,
	"history": CommandHistory,
	"revisi":  CommandRevise,
	"list":    CommandList,
	"help":    CommandHelp,
}

var commandUsage = map[CommandKind]string{
	CommandSetBudget: "/tipe NAMA_KATEGORI JUMLAH_BUDGET (contoh: /tipe MAKAN 1000000)",
	CommandIncome:    "/masuk JUMLAH KATEGORI [KETERANGAN] (contoh: /masuk 500000 BONUS)",
	CommandExpense:   "/keluar JUMLAH KATEGORI [KETERANGAN] (contoh: /keluar 50000 MAKAN)",
	CommandRevise:    "/revisi ID_TRANSAKSI (Lihat ID transaksi dengan /history)",
}

// Command is one parsed chat command. Only the fields its Kind uses are set.
type Command struct {
	Kind          CommandKind
	Name          string
	Category      string `validate:"omitempty,max=64"`
	Amount        int64  `validate:"omitempty,gt=0,lte=1000000000000000"`
	Description   string `validate:"max=256"`
	TransactionID string `validate:"omitempty,max=64"`
}

// InvalidFormatError carries the usage hint for the command that failed to parse.
type InvalidFormatError struct {
	Command string
	Usage   string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format for /%s, usage: %s", e.Command, e.Usage)
}

func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

var commandValidator = validation.NewValidationHelper()

// ParseCommand turns a raw chat line into a Command. Lines that do not start
// with the command prefix yield ErrNotACommand; malformed arguments yield an
// *InvalidFormatError.
func ParseCommand(text string) (Command, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], commandPrefix) {
		return Command{}, ErrNotACommand
	}

	name := strings.TrimPrefix(fields[0], commandPrefix)
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	args := fields[1:]

	kind, ok := commandNames[name]
	if !ok {
		return Command{Kind: CommandUnknown, Name: name}, nil
	}

	cmd := Command{Kind: kind, Name: name}
	invalid := &InvalidFormatError{Command: name, Usage: commandUsage[kind]}

	switch kind {
	case CommandSetBudget:
		if len(args) < 2 {
			return Command{}, invalid
		}
		amount, err := parseAmount(args[1])
		if err != nil {
			return Command{}, invalid
		}
		cmd.Category = strings.ToUpper(args[0])
		cmd.Amount = amount

	case CommandIncome, CommandExpense:
		if len(args) < 1 {
			return Command{}, invalid
		}
		amount, err := parseAmount(args[0])
		if err != nil {
			return Command{}, invalid
		}
		cmd.Amount = amount
		cmd.Category = defaultCategory(kind)
		if len(args) > 1 {
			cmd.Category = strings.ToUpper(args[1])
		}
		if len(args) > 2 {
			cmd.Description = strings.Join(args[2:], " ")
		}

	case CommandRevise:
		if len(args) < 1 {
			return Command{}, invalid
		}
		cmd.TransactionID = strings.ToUpper(args[0])
	}

	if err := commandValidator.ValidateStruct(&cmd); err != nil {
		return Command{}, invalid
	}
	return cmd, nil
}

func parseAmount(raw string) (int64, error) {
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %d", amount)
	}
	if amount > models.MaxAmount {
		return 0, fmt.Errorf("amount %d exceeds %d", amount, models.MaxAmount)
	}
	return amount, nil
}

func defaultCategory(kind CommandKind) string {
	if kind == CommandIncome {
		return models.DefaultIncomeCategory
	}
	return models.DefaultExpenseCategory
}
