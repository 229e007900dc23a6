package budget

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/ledger"
)

// MonthLabelLayout renders report months, e.g. "January 2006".
const MonthLabelLayout = "January 2006"

// MonthReport is the budget outcome of one closed calendar month.
type MonthReport struct {
	Month           time.Time       `json:"month"`
	Label           string          `json:"label"`
	Key             string          `json:"key"`
	EffectiveBudget decimal.Decimal `json:"effectiveBudget"`
	Expenses        decimal.Decimal `json:"expenses"`
	Remaining       decimal.Decimal `json:"remaining"`
	UsagePercent    float64         `json:"usagePercent"`
}

// Reconstruct replays the monthly-limit history against the ledger and
// returns one report per month from the earliest known activity up to, but
// excluding, the month containing now. Reports are ordered most recent
// first. The inputs are not modified.
func Reconstruct(events []ChangeEvent, currentMonthly decimal.Decimal, txs []ledger.Transaction, now time.Time) []MonthReport {
	ordered := make([]ChangeEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Date.IsZero() {
			ordered = append(ordered, ev)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	initial := currentMonthly
	var earliest time.Time
	if len(ordered) > 0 {
		initial = ordered[0].PreviousAmount
		earliest = ordered[0].Date
	}
	for _, tx := range txs {
		if earliest.IsZero() || tx.Timestamp.Before(earliest) {
			earliest = tx.Timestamp
		}
	}
	if earliest.IsZero() {
		return nil
	}

	current := ledger.MonthStart(now)
	var reports []MonthReport
	for month := ledger.MonthStart(earliest); month.Before(current); month = ledger.AddMonths(month, 1) {
		effective := initial
		for _, ev := range ordered {
			if ev.Date.After(month) {
				break
			}
			effective = ev.NewAmount
		}

		totals := ledger.Aggregate(txs, month.Year(), month.Month())
		reports = append(reports, MonthReport{
			Month:           month,
			Label:           month.Format(MonthLabelLayout),
			Key:             month.Format(ledger.MonthKeyLayout),
			EffectiveBudget: effective,
			Expenses:        totals.Expense,
			Remaining:       effective.Sub(totals.Expense),
			UsagePercent:    UsagePercent(totals.Expense, effective),
		})
	}

	for i, j := 0, len(reports)-1; i < j; i, j = i+1, j-1 {
		reports[i], reports[j] = reports[j], reports[i]
	}
	return reports
}
