package tracker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/user"
	"fintrack/internal/domain/validation"
)

// Banner thresholds on the budget page.
const (
	DangerPercent  = 100.0
	WarningPercent = 90.0
)

// MonthlyBudgetResult reports an accepted monthly-limit edit.
type MonthlyBudgetResult struct {
	Monthly decimal.Decimal    `json:"monthly"`
	Change  budget.ChangeEvent `json:"change"`
	// NextLock is the lock now in force because of this edit.
	NextLock         budget.LockStatus `json:"nextLock"`
	NextLockDuration string            `json:"nextLockDuration"`
}

// SetMonthlyBudget changes the monthly limit unless the lock engine forbids it.
func (s *Service) SetMonthlyBudget(ctx context.Context, userID string, amount decimal.Decimal) (*MonthlyBudgetResult, error) {
	var result *MonthlyBudgetResult
	err := s.update(ctx, "SetMonthlyBudget", userID, func(rec *user.Record, now time.Time) error {
		status := s.engine.Evaluate(&rec.Budget, now)
		if status.Locked {
			budgetLockRejections.Add(ctx, 1, metric.WithAttributes(attribute.Int("level", status.Level)))
			return &budget.LockedError{Status: status}
		}
		if amount.IsNegative() {
			return validation.New("monthly", "monthly budget cannot be negative")
		}

		event := rec.Budget.ApplyMonthlyChange(amount, now, budget.ManualUpdateReason)
		next := s.engine.Evaluate(&rec.Budget, now)
		result = &MonthlyBudgetResult{
			Monthly:          amount,
			Change:           event,
			NextLock:         next,
			NextLockDuration: budget.LockDurationText(next.Level),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SetCategoryBudget sets a category limit. Category limits are not subject
// to the lock; zero clears the limit.
func (s *Service) SetCategoryBudget(ctx context.Context, userID, category string, amount decimal.Decimal) (map[string]decimal.Decimal, error) {
	if !ledger.IsValidCategory(category) {
		return nil, validation.Newf("category", "invalid category %q", category)
	}
	if amount.IsNegative() {
		return nil, validation.New("amount", "category budget cannot be negative")
	}

	var out map[string]decimal.Decimal
	err := s.update(ctx, "SetCategoryBudget", userID, func(rec *user.Record, _ time.Time) error {
		rec.Budget.SetCategoryLimit(category, amount)
		out = make(map[string]decimal.Decimal, len(rec.Budget.Categories))
		for c, v := range rec.Budget.Categories {
			out[c] = v
		}
		return nil
	})
	return out, err
}

// LockStatus reports whether the monthly limit can be edited now.
func (s *Service) LockStatus(ctx context.Context, userID string) (budget.LockStatus, error) {
	var status budget.LockStatus
	err := s.view(ctx, "LockStatus", userID, func(rec *user.Record, now time.Time) error {
		status = s.engine.Evaluate(&rec.Budget, now)
		return nil
	})
	return status, err
}

// Alert is the budget page banner.
type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// CategoryUsage is the current month's spend against one category limit.
type CategoryUsage struct {
	Category     string          `json:"category"`
	Limit        decimal.Decimal `json:"limit"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	UsagePercent float64         `json:"usagePercent"`
}

// BudgetOverview is the budget page model.
type BudgetOverview struct {
	CurrentMonth    string                     `json:"currentMonth"`
	Monthly         decimal.Decimal            `json:"monthly"`
	Categories      map[string]decimal.Decimal `json:"categories"`
	Income          decimal.Decimal            `json:"monthlyIncome"`
	Expenses        decimal.Decimal            `json:"monthlyExpenses"`
	CategoryUsage   []CategoryUsage            `json:"categoryUsage"`
	Remaining       decimal.Decimal            `json:"remaining"`
	UsagePercent    float64                    `json:"usagePercent"`
	TotalAllocated  decimal.Decimal            `json:"totalAllocated"`
	Alert           *Alert                     `json:"alert,omitempty"`
	LastUpdated     string                     `json:"lastUpdated,omitempty"`
	DaysSinceUpdate int                        `json:"daysSinceUpdate"`
	Lock            budget.LockStatus          `json:"lock"`
	LockRemaining   string                     `json:"lockRemaining"`
	CanUpdate       bool                       `json:"canUpdate"`
	History         []budget.MonthReport       `json:"history"`
}

// BudgetOverview assembles the budget page for the current month.
func (s *Service) BudgetOverview(ctx context.Context, userID string) (*BudgetOverview, error) {
	var out *BudgetOverview
	err := s.view(ctx, "BudgetOverview", userID, func(rec *user.Record, now time.Time) error {
		txs := s.parse(ctx, rec)
		b := &rec.Budget
		totals := ledger.Aggregate(txs, now.Year(), now.Month())
		lock := s.engine.Evaluate(b, now)

		o := &BudgetOverview{
			CurrentMonth:   now.Format(budget.MonthLabelLayout),
			Monthly:        b.Monthly,
			Categories:     b.Categories,
			Income:         totals.Income,
			Expenses:       totals.Expense,
			Remaining:      b.Monthly.Sub(totals.Expense),
			UsagePercent:   budget.UsagePercent(totals.Expense, b.Monthly),
			TotalAllocated: b.TotalAllocated(),
			Lock:           lock,
			LockRemaining:  lock.RemainingText(),
			CanUpdate:      !lock.Locked,
			History:        budget.Reconstruct(b.History, b.Monthly, txs, now),
		}
		o.CategoryUsage = categoryUsage(b.Categories, totals)
		o.Alert = budgetAlert(b.Monthly, o.Remaining, o.UsagePercent)

		if updated, ok := b.LastUpdatedAt(); ok {
			o.LastUpdated = updated.Format("January 02, 2006 at 03:04 PM")
			o.DaysSinceUpdate = int(now.Sub(updated).Hours() / 24)
		}
		out = o
		return nil
	})
	return out, err
}

func categoryUsage(limits map[string]decimal.Decimal, totals ledger.MonthTotals) []CategoryUsage {
	usage := make([]CategoryUsage, 0, len(ledger.Categories))
	for _, c := range ledger.Categories {
		limit := limits[c]
		spent := totals.CategoryExpense(c)
		usage = append(usage, CategoryUsage{
			Category:     c,
			Limit:        limit,
			Spent:        spent,
			Remaining:    limit.Sub(spent),
			UsagePercent: budget.UsagePercent(spent, limit),
		})
	}
	return usage
}

func budgetAlert(monthly, remaining decimal.Decimal, usage float64) *Alert {
	if !monthly.IsPositive() {
		return nil
	}
	switch {
	case usage >= DangerPercent:
		return &Alert{
			Level:   "danger",
			Message: fmt.Sprintf("You have exceeded your monthly budget by %s.", remaining.Abs().StringFixed(2)),
		}
	case usage >= WarningPercent:
		return &Alert{
			Level:   "warning",
			Message: fmt.Sprintf("You have used %.1f%% of your budget. Only %s remaining.", usage, remaining.StringFixed(2)),
		}
	}
	return nil
}

// CategoryBudgetSummary splits the category limits by current-month progress.
type CategoryBudgetSummary struct {
	Limits      map[string]decimal.Decimal `json:"limits"`
	Pending     decimal.Decimal            `json:"pending"`
	Filled      decimal.Decimal            `json:"filled"`
	Allocated   decimal.Decimal            `json:"allocated"`
	Unallocated decimal.Decimal            `json:"unallocated"`
}

// summarizeCategoryBudgets reports how much of each positive category limit
// is still unspent (pending) and the total of limits already reached
// (filled). Unallocated is the part of the monthly limit not assigned to any
// category, floored at zero.
func summarizeCategoryBudgets(b *budget.State, totals ledger.MonthTotals) CategoryBudgetSummary {
	sum := CategoryBudgetSummary{Limits: b.Categories}

	names := make([]string, 0, len(b.Categories))
	for c := range b.Categories {
		names = append(names, c)
	}
	sort.Strings(names)

	for _, c := range names {
		limit := b.Categories[c]
		sum.Allocated = sum.Allocated.Add(limit)
		if !limit.IsPositive() {
			continue
		}
		spent := totals.CategoryExpense(c)
		if spent.GreaterThanOrEqual(limit) {
			sum.Filled = sum.Filled.Add(limit)
		} else {
			sum.Pending = sum.Pending.Add(limit.Sub(spent))
		}
	}

	sum.Unallocated = b.Monthly.Sub(sum.Allocated)
	if sum.Unallocated.IsNegative() {
		sum.Unallocated = decimal.Zero
	}
	return sum
}
