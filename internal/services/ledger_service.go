package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/catatkas/backend/internal/audit"
	"github.com/catatkas/backend/internal/models"
	"github.com/catatkas/backend/internal/store"
)

const (
	defaultHistoryLimit = 10
	defaultIDAttempts   = 3
)

type LedgerOptions struct {
	HistoryLimit int
	IDAttempts   int
	Location     *time.Location
}

// LedgerService executes parsed commands against one chat's ledger. Each
// handler performs at most one store write and returns exactly one reply.
type LedgerService struct {
	store        store.LedgerStore
	audit        *audit.AuditLogger
	newID        IDGenerator
	historyLimit int
	idAttempts   int
	loc          *time.Location
}

func NewLedgerService(ledgerStore store.LedgerStore, auditLogger *audit.AuditLogger, opts LedgerOptions) *LedgerService {
	if auditLogger == nil {
		auditLogger = audit.NewAuditLogger(nil, nil)
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.IDAttempts <= 0 {
		opts.IDAttempts = defaultIDAttempts
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &LedgerService{
		store:        ledgerStore,
		audit:        auditLogger,
		newID:        NewTransactionID,
		historyLimit: opts.HistoryLimit,
		idAttempts:   opts.IDAttempts,
		loc:          opts.Location,
	}
}

func (s *LedgerService) SetBudget(ctx context.Context, chatID string, cmd Command) (Reply, error) {
	if err := s.store.UpsertCategoryBudget(ctx, chatID, cmd.Category, cmd.Amount); err != nil {
		s.audit.LogError(ctx, chatID, "set_budget", err)
		return Reply{}, fmt.Errorf("set budget: %w", err)
	}
	s.audit.LogBudgetSet(ctx, chatID, cmd.Category, cmd.Amount)

	return markdownReply(fmt.Sprintf("✅ Budget Kategori *%s* berhasil diatur: %s.",
		escapeMarkdown(cmd.Category), FormatRupiah(cmd.Amount))), nil
}

func (s *LedgerService) RecordIncome(ctx context.Context, chatID string, cmd Command) (Reply, error) {
	tx, err := s.record(ctx, chatID, models.TransactionIncome, cmd)
	if err != nil {
		return Reply{}, fmt.Errorf("record income: %w", err)
	}
	return markdownReply(fmt.Sprintf("💰 Pemasukan *%s* %s dicatat (ID: %s).",
		escapeMarkdown(tx.Category), FormatRupiah(tx.Magnitude()), tx.ID)), nil
}

func (s *LedgerService) RecordExpense(ctx context.Context, chatID string, cmd Command) (Reply, error) {
	tx, err := s.record(ctx, chatID, models.TransactionExpense, cmd)
	if err != nil {
		return Reply{}, fmt.Errorf("record expense: %w", err)
	}
	return markdownReply(fmt.Sprintf("💸 Pengeluaran *%s* %s dicatat (ID: %s).",
		escapeMarkdown(tx.Category), FormatRupiah(tx.Magnitude()), tx.ID)), nil
}

// record creates the transaction, drawing a new id whenever the store
// reports a collision. Only the final attempt can succeed, so at most one
// record is written.
func (s *LedgerService) record(ctx context.Context, chatID string, txType models.TransactionType, cmd Command) (models.Transaction, error) {
	amount := cmd.Amount
	if txType == models.TransactionExpense {
		amount = -amount
	}

	var lastErr error
	for attempt := 1; attempt <= s.idAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return models.Transaction{}, err
		}

		saved, err := s.store.PutTransaction(ctx, chatID, models.Transaction{
			ID:          id,
			Type:        txType,
			Category:    cmd.Category,
			Amount:      amount,
			Description: cmd.Description,
		})
		if err == nil {
			s.audit.LogTransactionRecorded(ctx, chatID, saved.ID, saved.Category, saved.Amount)
			return saved, nil
		}
		if !errors.Is(err, store.ErrDuplicateID) {
			s.audit.LogError(ctx, chatID, "record_transaction", err)
			return models.Transaction{}, err
		}

		slog.WarnContext(ctx, "Transaction id collision, regenerating",
			"chat_id", chatID, "id", id, "attempt", attempt)
		lastErr = err
	}

	s.audit.LogError(ctx, chatID, "record_transaction", lastErr)
	return models.Transaction{}, fmt.Errorf("no free transaction id after %d attempts: %w", s.idAttempts, lastErr)
}

func (s *LedgerService) History(ctx context.Context, chatID string) (Reply, error) {
	txs, err := s.store.GetRecentTransactions(ctx, chatID, s.historyLimit)
	if err != nil {
		return Reply{}, fmt.Errorf("history: %w", err)
	}

	if len(txs) == 0 {
		return plainReply("Belum ada riwayat transaksi yang tercatat."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%d Transaksi Terbaru:*\n\n", s.historyLimit)
	for i, tx := range txs {
		sign := "🔴"
		if tx.IsIncome() {
			sign = "🟢"
		}
		fmt.Fprintf(&b, "%d. %s *%s* (%s)\n", i+1, sign, FormatAmount(tx.Magnitude()), escapeMarkdown(tx.Category))
		fmt.Fprintf(&b, "   - ID: %s | %s\n", escapeMarkdown(tx.ID), FormatDate(tx.Timestamp, s.loc))
		if tx.Description != "" {
			fmt.Fprintf(&b, "   - Ket: %s\n", escapeMarkdown(tx.Description))
		}
	}
	b.WriteString("\n*Gunakan /revisi ID jika ada kesalahan.*")

	return markdownReply(b.String()), nil
}

func (s *LedgerService) Revise(ctx context.Context, chatID string, cmd Command) (Reply, error) {
	notFound := markdownReply(fmt.Sprintf("❌ Transaksi dengan ID *%s* tidak ditemukan.", escapeMarkdown(cmd.TransactionID)))

	tx, err := s.store.GetTransaction(ctx, chatID, cmd.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound, nil
	}
	if err != nil {
		return Reply{}, fmt.Errorf("revise: %w", err)
	}

	err = s.store.DeleteTransaction(ctx, chatID, cmd.TransactionID)
	if errors.Is(err, store.ErrNotFound) {
		return notFound, nil
	}
	if err != nil {
		s.audit.LogError(ctx, chatID, "revise", err)
		return Reply{}, fmt.Errorf("revise: %w", err)
	}
	s.audit.LogTransactionRevised(ctx, chatID, tx.ID, tx.Category, tx.Amount)

	return markdownReply(fmt.Sprintf("✅ Transaksi (ID: %s) berhasil *DIHAPUS*.\n\n"+
		"Sekarang Anda dapat memasukkan data yang benar menggunakan /masuk atau /keluar.",
		escapeMarkdown(cmd.TransactionID))), nil
}

// List reads budgets and transactions concurrently. The two reads are not
// atomic with respect to concurrent writes.
func (s *LedgerService) List(ctx context.Context, chatID string) (Reply, error) {
	var (
		budgets []models.CategoryBudget
		txs     []models.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.store.GetAllCategoryBudgets(gctx, chatID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.GetAllTransactions(gctx, chatID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Reply{}, fmt.Errorf("list: %w", err)
	}

	return markdownReply(BuildReport(budgets, txs).Render()), nil
}

func (s *LedgerService) Help() Reply {
	return markdownReply(fmt.Sprintf(helpText, s.historyLimit))
}

const helpText = "*Panduan Penggunaan Bot Keuangan:*\n\n" +
	"*1. Pengaturan Budget:*\n" +
	"`/tipe NAMA_KATEGORI JUMLAH_BULANAN`\n" +
	"    Contoh: `/tipe MAKAN 1500000`\n\n" +
	"*2. Mencatat Transaksi:*\n" +
	"`/masuk JUMLAH KATEGORI [KETERANGAN]`\n" +
	"    Contoh: `/masuk 500000 BONUS istri`\n" +
	"`/keluar JUMLAH KATEGORI [KETERANGAN]`\n" +
	"    Contoh: `/keluar 50000 MAKAN siang`\n\n" +
	"*3. Laporan & Bantuan:*\n" +
	"/list\n" +
	"    Menampilkan semua budget dan saldo kas saat ini.\n" +
	"/history\n" +
	"    Menampilkan %d transaksi terakhir (bersama ID).\n" +
	"`/revisi ID_TRANSAKSI`\n" +
	"    Menghapus transaksi berdasarkan ID (Gunakan /history untuk melihat ID).\n" +
	"/help\n" +
	"    Menampilkan panduan ini.\n"
