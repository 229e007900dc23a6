package budget

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/domain/ledger"
)

// Scope identifies which limit a warning refers to.
type Scope string

const (
	ScopeMonthly  Scope = "monthly"
	ScopeCategory Scope = "category"
)

// RejectReason explains a rejected projection.
type RejectReason string

const (
	ReasonMonthlyExceeded  RejectReason = "monthly_exceeded"
	ReasonCategoryExceeded RejectReason = "category_exceeded"
)

// Warning band: projected usage in [WarnPercent, LimitPercent) warns.
const (
	WarnPercent  = 80.0
	LimitPercent = 100.0
)

// Warning flags a scope whose projected usage entered the warning band.
type Warning struct {
	Scope        Scope           `json:"scope"`
	Category     string          `json:"category,omitempty"`
	UsagePercent float64         `json:"usagePercent"`
	Remaining    decimal.Decimal `json:"remaining"`
}

// Decision is the outcome of projecting an expense against the limits.
type Decision struct {
	Accepted bool         `json:"accepted"`
	Reason   RejectReason `json:"reason,omitempty"`
	Category string       `json:"category,omitempty"`
	// Limit, Remaining and Overflow describe the violated scope when rejected.
	Limit     decimal.Decimal `json:"limit"`
	Remaining decimal.Decimal `json:"remaining"`
	Overflow  decimal.Decimal `json:"overflow"`
	Warnings  []Warning       `json:"warnings,omitempty"`
}

// Err returns nil for accepted decisions and an *ExceededError otherwise.
func (d Decision) Err() error {
	if d.Accepted {
		return nil
	}
	return &ExceededError{
		Reason:    d.Reason,
		Category:  d.Category,
		Limit:     d.Limit,
		Remaining: d.Remaining,
		Overflow:  d.Overflow,
	}
}

// Evaluate projects an expense of amount in category against the monthly and
// category limits, given the current month's totals. A zero limit means the
// scope is unconstrained. The monthly limit is checked before the category.
func Evaluate(amount decimal.Decimal, category string, monthlyLimit decimal.Decimal, categoryLimits map[string]decimal.Decimal, current ledger.MonthTotals) Decision {
	projectedMonthly := current.Expense.Add(amount)
	if monthlyLimit.IsPositive() && projectedMonthly.GreaterThan(monthlyLimit) {
		return Decision{
			Reason:    ReasonMonthlyExceeded,
			Limit:     monthlyLimit,
			Remaining: monthlyLimit.Sub(current.Expense),
			Overflow:  projectedMonthly.Sub(monthlyLimit),
		}
	}

	categoryLimit := categoryLimits[category]
	currentCategory := current.CategoryExpense(category)
	projectedCategory := currentCategory.Add(amount)
	if categoryLimit.IsPositive() && projectedCategory.GreaterThan(categoryLimit) {
		return Decision{
			Reason:    ReasonCategoryExceeded,
			Category:  category,
			Limit:     categoryLimit,
			Remaining: categoryLimit.Sub(currentCategory),
			Overflow:  projectedCategory.Sub(categoryLimit),
		}
	}

	d := Decision{Accepted: true}
	if monthlyLimit.IsPositive() {
		if usage := UsagePercent(projectedMonthly, monthlyLimit); inWarningBand(usage) {
			d.Warnings = append(d.Warnings, Warning{
				Scope:        ScopeMonthly,
				UsagePercent: usage,
				Remaining:    monthlyLimit.Sub(projectedMonthly),
			})
		}
	}
	if categoryLimit.IsPositive() {
		if usage := UsagePercent(projectedCategory, categoryLimit); inWarningBand(usage) {
			d.Warnings = append(d.Warnings, Warning{
				Scope:        ScopeCategory,
				Category:     category,
				UsagePercent: usage,
				Remaining:    categoryLimit.Sub(projectedCategory),
			})
		}
	}
	return d
}

var hundred = decimal.NewFromInt(100)

// UsagePercent returns spent/limit*100, or 0 when the limit is not positive.
func UsagePercent(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	return spent.Mul(hundred).Div(limit).InexactFloat64()
}

func inWarningBand(usage float64) bool {
	return usage >= WarnPercent && usage < LimitPercent
}
