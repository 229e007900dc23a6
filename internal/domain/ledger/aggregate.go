package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// SummaryMonths is the width of the trailing monthly summary.
	SummaryMonths = 12
	// SummaryDays is the width of the trailing daily summary.
	SummaryDays = 30

	MonthKeyLayout = "2006-01"
)

// MonthTotals holds the totals of a single calendar month.
type MonthTotals struct {
	Income     decimal.Decimal            `json:"income"`
	Expense    decimal.Decimal            `json:"expense"`
	ByCategory map[string]decimal.Decimal `json:"byCategory"`
}

// CategoryExpense returns the month's spend in category (zero if none).
func (m MonthTotals) CategoryExpense(category string) decimal.Decimal {
	return m.ByCategory[category]
}

// Aggregate totals the transactions that fall in the given calendar month.
// Only expenses contribute to ByCategory.
func Aggregate(txs []Transaction, year int, month time.Month) MonthTotals {
	totals := MonthTotals{ByCategory: make(map[string]decimal.Decimal)}
	for _, tx := range txs {
		if tx.Timestamp.Year() != year || tx.Timestamp.Month() != month {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			totals.Income = totals.Income.Add(tx.Amount)
		case TypeExpense:
			totals.Expense = totals.Expense.Add(tx.Amount)
			totals.ByCategory[tx.Category] = totals.ByCategory[tx.Category].Add(tx.Amount)
		}
	}
	return totals
}

// AggregateEntries parses entries, skipping malformed ones, and aggregates
// the month. The skipped entries are returned for diagnostics.
func AggregateEntries(entries []Entry, year int, month time.Month) (MonthTotals, []*ParseError) {
	txs, skipped := ParseAll(entries)
	return Aggregate(txs, year, month), skipped
}

// Summary holds all-time ledger statistics.
type Summary struct {
	Income         decimal.Decimal            `json:"totalIncome"`
	Expense        decimal.Decimal            `json:"totalExpenses"`
	Balance        decimal.Decimal            `json:"balance"`
	IncomeCount    int                        `json:"incomeCount"`
	ExpenseCount   int                        `json:"expenseCount"`
	LargestIncome  *Transaction               `json:"largestIncome,omitempty"`
	LargestExpense *Transaction               `json:"largestExpense,omitempty"`
	ByCategory     map[string]decimal.Decimal `json:"categoryTotals"`
}

// Totals computes all-time statistics over txs.
func Totals(txs []Transaction) Summary {
	s := Summary{ByCategory: make(map[string]decimal.Decimal)}
	for i := range txs {
		tx := txs[i]
		switch tx.Type {
		case TypeIncome:
			s.Income = s.Income.Add(tx.Amount)
			s.IncomeCount++
			if s.LargestIncome == nil || tx.Amount.GreaterThan(s.LargestIncome.Amount) {
				s.LargestIncome = &tx
			}
		case TypeExpense:
			s.Expense = s.Expense.Add(tx.Amount)
			s.ExpenseCount++
			if s.LargestExpense == nil || tx.Amount.GreaterThan(s.LargestExpense.Amount) {
				s.LargestExpense = &tx
			}
			s.ByCategory[tx.Category] = s.ByCategory[tx.Category].Add(tx.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense)
	return s
}

// TopCategory returns the expense category with the highest total, or
// ("None", 0) when there are no expenses. Ties go to the alphabetically
// first category.
func (s Summary) TopCategory() (string, decimal.Decimal) {
	names := make([]string, 0, len(s.ByCategory))
	for name := range s.ByCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	top, amount := "None", decimal.Zero
	for _, name := range names {
		if top == "None" || s.ByCategory[name].GreaterThan(amount) {
			top, amount = name, s.ByCategory[name]
		}
	}
	return top, amount
}

// MonthBucket is one month of the trailing monthly summary.
type MonthBucket struct {
	Key     string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net_flow"`
}

// MonthlySummary buckets txs into the SummaryMonths calendar months ending
// with now's month, oldest first. Transactions outside the window are ignored.
func MonthlySummary(txs []Transaction, now time.Time) []MonthBucket {
	start := AddMonths(MonthStart(now), -(SummaryMonths - 1))
	buckets := make([]MonthBucket, SummaryMonths)
	index := make(map[string]int, SummaryMonths)
	for i := range buckets {
		key := AddMonths(start, i).Format(MonthKeyLayout)
		buckets[i].Key = key
		index[key] = i
	}

	for _, tx := range txs {
		i, ok := index[tx.Timestamp.Format(MonthKeyLayout)]
		if !ok {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			buckets[i].Income = buckets[i].Income.Add(tx.Amount)
			buckets[i].Net = buckets[i].Net.Add(tx.Amount)
		case TypeExpense:
			buckets[i].Expense = buckets[i].Expense.Add(tx.Amount)
			buckets[i].Net = buckets[i].Net.Sub(tx.Amount)
		}
	}
	return buckets
}

// CashFlow maps each bucket's month key to its net flow.
func CashFlow(buckets []MonthBucket) map[string]decimal.Decimal {
	flow := make(map[string]decimal.Decimal, len(buckets))
	for _, b := range buckets {
		flow[b.Key] = b.Net
	}
	return flow
}

// DayBucket is one calendar day of the trailing daily summary.
type DayBucket struct {
	Key     string          `json:"day"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// DailySummary buckets txs into the SummaryDays calendar days ending today,
// oldest first.
func DailySummary(txs []Transaction, now time.Time) []DayBucket {
	today := DayStart(now)
	buckets := make([]DayBucket, SummaryDays)
	index := make(map[string]int, SummaryDays)
	for i := range buckets {
		key := today.AddDate(0, 0, i-(SummaryDays-1)).Format(DateLayout)
		buckets[i].Key = key
		index[key] = i
	}

	for _, tx := range txs {
		i, ok := index[tx.Timestamp.Format(DateLayout)]
		if !ok {
			continue
		}
		switch tx.Type {
		case TypeIncome:
			buckets[i].Income = buckets[i].Income.Add(tx.Amount)
		case TypeExpense:
			buckets[i].Expense = buckets[i].Expense.Add(tx.Amount)
		}
	}
	return buckets
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// DayStart returns midnight of t's day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddMonths shifts a month start by n calendar months.
func AddMonths(monthStart time.Time, n int) time.Time {
	return time.Date(monthStart.Year(), monthStart.Month()+time.Month(n), 1, 0, 0, 0, 0, monthStart.Location())
}
