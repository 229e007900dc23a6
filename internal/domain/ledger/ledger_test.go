package ledger

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/domain/validation"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.Local)
}

func expense(id, amount, category string, ts time.Time) Transaction {
	return Transaction{ID: id, Amount: dec(amount), Type: TypeExpense, Category: category, Timestamp: ts}
}

func income(id, amount string, ts time.Time) Transaction {
	return Transaction{ID: id, Amount: dec(amount), Type: TypeIncome, Category: "Salary", Timestamp: ts}
}

func TestParse_AmountForms(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		want   string
	}{
		{"float", 12.5, "12.5"},
		{"int", 40, "40"},
		{"json number", json.Number("99.99"), "99.99"},
		{"string", " 7.25 ", "7.25"},
		{"decimal", dec("3.10"), "3.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := Parse(Entry{ID: "a", Amount: tt.amount, Type: "expense", Category: "Food", Timestamp: "2024-03-05 10:00:00"})
			require.NoError(t, err)
			assert.True(t, tx.Amount.Equal(dec(tt.want)), "got %s", tx.Amount)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing amount", Entry{Type: "expense", Timestamp: "2024-03-05 10:00:00"}},
		{"text amount", Entry{Amount: "lots", Type: "expense", Timestamp: "2024-03-05 10:00:00"}},
		{"bool amount", Entry{Amount: true, Type: "expense", Timestamp: "2024-03-05 10:00:00"}},
		{"bad timestamp", Entry{Amount: 5.0, Type: "expense", Timestamp: "yesterday"}},
		{"empty timestamp", Entry{Amount: 5.0, Type: "expense"}},
		{"unknown type", Entry{Amount: 5.0, Type: "transfer", Timestamp: "2024-03-05 10:00:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.entry)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedEntry))
		})
	}
}

func TestParse_DefaultsExpenseCategory(t *testing.T) {
	tx, err := Parse(Entry{Amount: 5.0, Type: "expense", Timestamp: "2024-03-05T10:00:00"})
	require.NoError(t, err)
	assert.Equal(t, DefaultCategory, tx.Category)
}

func TestTransactionEntry_RoundTrip(t *testing.T) {
	original := expense("tx-1", "120.40", "Bills", at(2024, time.May, 2, 9))
	parsed, err := Parse(original.Entry())
	require.NoError(t, err)
	assert.Equal(t, original.ID, parsed.ID)
	assert.True(t, original.Amount.Equal(parsed.Amount))
	assert.True(t, original.Timestamp.Equal(parsed.Timestamp))
}

func TestAggregateEntries_SkipsMalformed(t *testing.T) {
	entries := []Entry{
		expense("1", "100", "Food", at(2024, time.March, 3, 12)).Entry(),
		{ID: "bad-amount", Amount: "n/a", Type: "expense", Category: "Food", Timestamp: "2024-03-04 12:00:00"},
		{ID: "bad-time", Amount: 50.0, Type: "expense", Category: "Food", Timestamp: "03/04/2024"},
		expense("2", "25.50", "Transport", at(2024, time.March, 10, 8)).Entry(),
		income("3", "1000", at(2024, time.March, 1, 9)).Entry(),
		expense("4", "75", "Food", at(2024, time.February, 28, 9)).Entry(),
	}

	totals, skipped := AggregateEntries(entries, 2024, time.March)

	require.Len(t, skipped, 2)
	assert.Equal(t, "bad-amount", skipped[0].ID)
	assert.Equal(t, "bad-time", skipped[1].ID)
	assert.True(t, totals.Expense.Equal(dec("125.50")), "expense = %s", totals.Expense)
	assert.True(t, totals.Income.Equal(dec("1000")))
	assert.True(t, totals.CategoryExpense("Food").Equal(dec("100")))
	assert.True(t, totals.CategoryExpense("Transport").Equal(dec("25.50")))
	assert.True(t, totals.CategoryExpense("Housing").IsZero())
}

func TestTotals(t *testing.T) {
	txs := []Transaction{
		income("i1", "500", at(2024, time.January, 1, 9)),
		income("i2", "1500", at(2024, time.February, 1, 9)),
		expense("e1", "200", "Food", at(2024, time.January, 5, 9)),
		expense("e2", "300", "Bills", at(2024, time.January, 6, 9)),
		expense("e3", "150", "Food", at(2024, time.January, 7, 9)),
	}

	s := Totals(txs)

	assert.True(t, s.Income.Equal(dec("2000")))
	assert.True(t, s.Expense.Equal(dec("650")))
	assert.True(t, s.Balance.Equal(dec("1350")))
	assert.Equal(t, 2, s.IncomeCount)
	assert.Equal(t, 3, s.ExpenseCount)
	require.NotNil(t, s.LargestIncome)
	assert.Equal(t, "i2", s.LargestIncome.ID)
	require.NotNil(t, s.LargestExpense)
	assert.Equal(t, "e2", s.LargestExpense.ID)

	top, amount := s.TopCategory()
	assert.Equal(t, "Food", top)
	assert.True(t, amount.Equal(dec("350")))
}

func TestTopCategory_Empty(t *testing.T) {
	top, amount := Totals(nil).TopCategory()
	assert.Equal(t, "None", top)
	assert.True(t, amount.IsZero())
}

func TestMonthlySummary(t *testing.T) {
	now := at(2024, time.March, 15, 12)
	txs := []Transaction{
		income("i1", "1000", at(2024, time.March, 1, 9)),
		expense("e1", "400", "Food", at(2024, time.March, 2, 9)),
		expense("e2", "100", "Food", at(2023, time.April, 30, 9)),
		expense("old", "999", "Food", at(2023, time.March, 31, 9)),
	}

	buckets := MonthlySummary(txs, now)

	require.Len(t, buckets, SummaryMonths)
	assert.Equal(t, "2023-04", buckets[0].Key)
	assert.Equal(t, "2024-03", buckets[len(buckets)-1].Key)
	assert.True(t, buckets[0].Expense.Equal(dec("100")))
	assert.True(t, buckets[0].Net.Equal(dec("-100")))
	last := buckets[len(buckets)-1]
	assert.True(t, last.Income.Equal(dec("1000")))
	assert.True(t, last.Net.Equal(dec("600")))

	flow := CashFlow(buckets)
	assert.Len(t, flow, SummaryMonths)
	assert.True(t, flow["2024-03"].Equal(dec("600")))
}

func TestMonthlySummary_YearBoundary(t *testing.T) {
	buckets := MonthlySummary(nil, at(2024, time.January, 31, 23))
	require.Len(t, buckets, SummaryMonths)
	assert.Equal(t, "2023-02", buckets[0].Key)
	assert.Equal(t, "2023-12", buckets[10].Key)
	assert.Equal(t, "2024-01", buckets[11].Key)
}

func TestDailySummary(t *testing.T) {
	now := at(2024, time.March, 15, 12)
	txs := []Transaction{
		expense("e1", "10", "Food", at(2024, time.March, 15, 8)),
		expense("e2", "5", "Food", at(2024, time.March, 15, 9)),
		income("i1", "50", at(2024, time.February, 15, 9)),
		income("too-old", "50", at(2024, time.February, 14, 9)),
	}

	buckets := DailySummary(txs, now)

	require.Len(t, buckets, SummaryDays)
	assert.Equal(t, "2024-02-15", buckets[0].Key)
	assert.Equal(t, "2024-03-15", buckets[SummaryDays-1].Key)
	assert.True(t, buckets[0].Income.Equal(dec("50")))
	assert.True(t, buckets[SummaryDays-1].Expense.Equal(dec("15")))
}

func TestNewTransaction(t *testing.T) {
	now := at(2024, time.March, 15, 14)

	tests := []struct {
		name    string
		in      Input
		wantErr string
	}{
		{"valid expense", Input{Date: "2024-03-15", Description: "Lunch", Amount: dec("12"), Type: "expense", Category: "Food"}, ""},
		{"missing description", Input{Date: "2024-03-15", Description: "   ", Amount: dec("12"), Type: "expense", Category: "Food"}, "all fields are required"},
		{"bad date", Input{Date: "15/03/2024", Description: "Lunch", Amount: dec("12"), Type: "expense", Category: "Food"}, "invalid date format"},
		{"future date", Input{Date: "2024-03-16", Description: "Lunch", Amount: dec("12"), Type: "expense", Category: "Food"}, "cannot be in the future"},
		{"zero amount", Input{Date: "2024-03-15", Description: "Lunch", Amount: decimal.Zero, Type: "expense", Category: "Food"}, "must be positive"},
		{"negative amount", Input{Date: "2024-03-15", Description: "Lunch", Amount: dec("-3"), Type: "expense", Category: "Food"}, "must be positive"},
		{"unknown type", Input{Date: "2024-03-15", Description: "Lunch", Amount: dec("12"), Type: "loan", Category: "Food"}, "unknown transaction type"},
		{"unknown category", Input{Date: "2024-03-15", Description: "Lunch", Amount: dec("12"), Type: "expense", Category: "Crypto"}, "unknown category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction("tx-1", tt.in, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, validation.ErrValidation))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tx-1", tx.ID)
			assert.Equal(t, TypeExpense, tx.Type)
			assert.Equal(t, 14, tx.Timestamp.Hour())
		})
	}
}

func TestNewTransaction_TruncatesDescription(t *testing.T) {
	now := at(2024, time.March, 15, 14)
	tx, err := NewTransaction("tx-1", Input{
		Date:        "2024-03-01",
		Description: "Monthly grocery run at the big supermarket",
		Amount:      dec("80"),
		Type:        "expense",
		Category:    "Food",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "Monthly grocery run at th", tx.Description)
	assert.Equal(t, 1, tx.Timestamp.Day())
}

func TestFilter(t *testing.T) {
	txs := []Transaction{
		expense("e1", "10", "Food", at(2024, time.March, 1, 8)),
		expense("e2", "20", "Bills", at(2024, time.March, 5, 8)),
		income("i1", "30", at(2024, time.March, 10, 8)),
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter", Filter{}, []string{"e1", "e2", "i1"}},
		{"by category", ParseFilter("Food", "", "", ""), []string{"e1"}},
		{"by type", ParseFilter("", "income", "", ""), []string{"i1"}},
		{"date range inclusive", ParseFilter("", "", "2024-03-05", "2024-03-10"), []string{"e2", "i1"}},
		{"bad dates ignored", ParseFilter("", "", "soon", "later"), []string{"e1", "e2", "i1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tx := range Apply(txs, tt.filter) {
				got = append(got, tx.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortNewestFirst(t *testing.T) {
	txs := []Transaction{
		expense("old", "1", "Food", at(2024, time.January, 1, 8)),
		expense("new", "1", "Food", at(2024, time.March, 1, 8)),
		expense("mid", "1", "Food", at(2024, time.February, 1, 8)),
	}
	SortNewestFirst(txs)
	assert.Equal(t, "new", txs[0].ID)
	assert.Equal(t, "mid", txs[1].ID)
	assert.Equal(t, "old", txs[2].ID)
}
