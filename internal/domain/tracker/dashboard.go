package tracker

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/user"
	"fintrack/internal/domain/validation"
)

// RecentCount is the number of transactions shown as recent activity.
const RecentCount = 5

// Dashboard is the dashboard page model.
type Dashboard struct {
	Balance          decimal.Decimal            `json:"currentBalance"`
	Income           decimal.Decimal            `json:"totalIncome"`
	Expenses         decimal.Decimal            `json:"totalExpenses"`
	MonthlyBudget    decimal.Decimal            `json:"monthlyBudget"`
	CategoryBudgets  CategoryBudgetSummary      `json:"categoryBudgets"`
	Filter           ledger.Filter              `json:"filters"`
	Transactions     []ledger.Transaction       `json:"transactions"`
	Recent           []ledger.Transaction       `json:"recentTransactions"`
	MonthlySummary   []ledger.MonthBucket       `json:"monthlySummary"`
	CashFlow         map[string]decimal.Decimal `json:"cashFlow"`
	DailySummary     []ledger.DayBucket         `json:"dailySummary"`
	ExpenseBreakdown map[string]decimal.Decimal `json:"expenseBreakdown"`
	Categories       []string                   `json:"categories"`
	SkippedEntries   int                        `json:"skippedEntries,omitempty"`
}

// Dashboard computes the dashboard for the transactions matching f.
func (s *Service) Dashboard(ctx context.Context, userID string, f ledger.Filter) (*Dashboard, error) {
	var out *Dashboard
	err := s.view(ctx, "Dashboard", userID, func(rec *user.Record, now time.Time) error {
		txs, skipped := ledger.ParseAll(rec.Transactions)
		s.reportSkipped(ctx, rec.ID, skipped)

		all := ledger.Totals(txs)
		current := ledger.Aggregate(txs, now.Year(), now.Month())

		filtered := ledger.Apply(txs, f)
		ledger.SortNewestFirst(filtered)
		recent := filtered
		if len(recent) > RecentCount {
			recent = recent[:RecentCount]
		}

		monthly := ledger.MonthlySummary(txs, now)
		out = &Dashboard{
			Balance:          all.Balance,
			Income:           all.Income,
			Expenses:         all.Expense,
			MonthlyBudget:    rec.Budget.Monthly,
			CategoryBudgets:  summarizeCategoryBudgets(&rec.Budget, current),
			Filter:           f,
			Transactions:     filtered,
			Recent:           recent,
			MonthlySummary:   monthly,
			CashFlow:         ledger.CashFlow(monthly),
			DailySummary:     ledger.DailySummary(txs, now),
			ExpenseBreakdown: current.ByCategory,
			Categories:       ledger.Categories,
			SkippedEntries:   len(skipped),
		}
		return nil
	})
	return out, err
}

// Profile is the profile page model.
type Profile struct {
	Name              string                     `json:"name"`
	Email             string                     `json:"email"`
	Income            decimal.Decimal            `json:"totalIncome"`
	Expenses          decimal.Decimal            `json:"totalExpenses"`
	Balance           decimal.Decimal            `json:"balance"`
	IncomeCount       int                        `json:"incomeCount"`
	ExpenseCount      int                        `json:"expenseCount"`
	TotalTransactions int                        `json:"totalTransactions"`
	LargestIncome     *ledger.Transaction        `json:"largestIncome,omitempty"`
	LargestExpense    *ledger.Transaction        `json:"largestExpense,omitempty"`
	TopCategory       string                     `json:"topCategory"`
	TopCategoryAmount decimal.Decimal            `json:"topCategoryAmount"`
	CategoryTotals    map[string]decimal.Decimal `json:"categoryTotals"`
	TotalSavings      decimal.Decimal            `json:"totalSavings"`
	Settings          user.Settings              `json:"settings"`
	JournalEntries    []user.JournalEntry        `json:"journalEntries"`
}

// Profile computes all-time statistics for the user.
func (s *Service) Profile(ctx context.Context, userID string) (*Profile, error) {
	var out *Profile
	err := s.view(ctx, "Profile", userID, func(rec *user.Record, _ time.Time) error {
		sum := ledger.Totals(s.parse(ctx, rec))
		top, topAmount := sum.TopCategory()
		out = &Profile{
			Name:              rec.Name,
			Email:             rec.Email,
			Income:            sum.Income,
			Expenses:          sum.Expense,
			Balance:           sum.Balance,
			IncomeCount:       sum.IncomeCount,
			ExpenseCount:      sum.ExpenseCount,
			TotalTransactions: len(rec.Transactions),
			LargestIncome:     sum.LargestIncome,
			LargestExpense:    sum.LargestExpense,
			TopCategory:       top,
			TopCategoryAmount: topAmount,
			CategoryTotals:    sum.ByCategory,
			TotalSavings:      goal.Allocated(rec.Goals),
			Settings:          *rec.Settings,
			JournalEntries:    rec.JournalEntries,
		}
		return nil
	})
	return out, err
}

// UpdateSettings replaces the profile toggles.
func (s *Service) UpdateSettings(ctx context.Context, userID string, settings user.Settings) (user.Settings, error) {
	err := s.update(ctx, "UpdateSettings", userID, func(rec *user.Record, _ time.Time) error {
		rec.Settings = &settings
		return nil
	})
	return settings, err
}

// AddJournalEntry prepends a journal entry.
func (s *Service) AddJournalEntry(ctx context.Context, userID, content string) (user.JournalEntry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return user.JournalEntry{}, validation.New("content", "journal entry cannot be empty")
	}

	var entry user.JournalEntry
	err := s.update(ctx, "AddJournalEntry", userID, func(rec *user.Record, now time.Time) error {
		entry = user.JournalEntry{
			ID:      s.newID(),
			Content: content,
			Date:    now.Format(time.RFC3339),
		}
		rec.JournalEntries = append([]user.JournalEntry{entry}, rec.JournalEntries...)
		return nil
	})
	return entry, err
}
