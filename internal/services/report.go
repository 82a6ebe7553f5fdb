package services

import (
	"math"
	"sort"
	"strings"

	"github.com/catatkas/backend/internal/models"
)

// CategoryReport is the budget-vs-spend line for one category.
type CategoryReport struct {
	Category  string
	Budget    int64
	Spent     int64
	Remaining int64
}

// Surplus reports whether the category is still within budget.
func (c CategoryReport) Surplus() bool {
	return c.Remaining >= 0
}

// Report is the aggregate view rendered by /list. TotalExpense is never
// positive and TotalIncome never negative.
type Report struct {
	Categories   []CategoryReport
	TotalIncome  int64
	TotalExpense int64
	NetCash      int64
}

// BuildReport aggregates one chat's budgets and transactions.
func BuildReport(budgets []models.CategoryBudget, txs []models.Transaction) Report {
	var r Report
	spent := make(map[string]int64)

	for _, tx := range txs {
		switch {
		case tx.IsIncome():
			r.TotalIncome = addClamped(r.TotalIncome, tx.Amount)
		case tx.IsExpense():
			r.TotalExpense = addClamped(r.TotalExpense, tx.Amount)
			spent[tx.Category] = addClamped(spent[tx.Category], tx.Magnitude())
		}
	}

	r.Categories = make([]CategoryReport, 0, len(budgets))
	for _, b := range budgets {
		used := spent[b.Category]
		r.Categories = append(r.Categories, CategoryReport{
			Category:  b.Category,
			Budget:    b.MonthlyBudget,
			Spent:     used,
			Remaining: addClamped(b.MonthlyBudget, -used),
		})
	}
	sort.Slice(r.Categories, func(i, j int) bool {
		return r.Categories[i].Category < r.Categories[j].Category
	})

	r.NetCash = addClamped(r.TotalIncome, r.TotalExpense)
	return r
}

// addClamped adds a and b, saturating at the int64 bounds instead of wrapping.
func addClamped(a, b int64) int64 {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt64
	}
	return sum
}

// Render formats the report as a Markdown chat message. The budget block is
// omitted when there are no categories; the totals block is always present.
func (r Report) Render() string {
	var b strings.Builder
	b.WriteString("*Laporan Keuangan Saat Ini:*\n\n")

	if len(r.Categories) > 0 {
		b.WriteString("*--- Budget Bulanan ---*\n")
		for _, c := range r.Categories {
			status := "🔴 Overbudget"
			if c.Surplus() {
				status = "🟢 Sisa"
			}
			b.WriteString("*" + escapeMarkdown(c.Category) + "*\n")
			b.WriteString("  - Budget: " + FormatRupiah(c.Budget) + "\n")
			b.WriteString("  - Terpakai: " + FormatRupiah(c.Spent) + "\n")
			b.WriteString("  - " + status + ": " + FormatRupiah(abs(c.Remaining)) + "\n\n")
		}
	}

	b.WriteString("*--- Total Kas ---*\n")
	b.WriteString("💰 Pemasukan (Total): " + FormatRupiah(r.TotalIncome) + "\n")
	b.WriteString("💸 Pengeluaran (Total): " + FormatRupiah(abs(r.TotalExpense)) + "\n")
	b.WriteString("*Saldo Kas Bersih: " + FormatRupiah(r.NetCash) + "*\n")
	return b.String()
}
