package goal

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/validation"
)

// New builds an in-progress goal from validated params.
func New(id string, p Params, now time.Time) Goal {
	return Goal{
		ID:           id,
		Title:        p.Title,
		TargetAmount: p.TargetAmount,
		SavedAmount:  decimal.Zero,
		Category:     p.Category,
		Deadline:     p.Deadline,
		Status:       StatusInProgress,
		CreatedDate:  now.Format(DateLayout),
		Transactions: []Contribution{},
	}
}

// Remaining returns how much is still needed to reach the target.
func (g *Goal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.SavedAmount)
}

// ProgressPercent returns saved/target*100, capped at 100.
func (g *Goal) ProgressPercent() float64 {
	if !g.TargetAmount.IsPositive() {
		return 0
	}
	pct := g.SavedAmount.Mul(decimal.NewFromInt(100)).Div(g.TargetAmount).InexactFloat64()
	if pct > 100 {
		return 100
	}
	return pct
}

func (g *Goal) refreshStatus() {
	if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = StatusCompleted
	} else {
		g.Status = StatusInProgress
	}
}

// AddMoney moves amount from the available balance into g. The balance check
// precedes the target check.
func (g *Goal) AddMoney(contributionID string, amount, available decimal.Decimal, now time.Time) (Contribution, error) {
	if !amount.IsPositive() {
		return Contribution{}, validation.New("amount", "amount to add must be positive")
	}
	if amount.GreaterThan(available) {
		return Contribution{}, fmt.Errorf("%w: only %s available", ErrInsufficientBalance, available.StringFixed(2))
	}
	if remaining := g.Remaining(); amount.GreaterThan(remaining) {
		return Contribution{}, fmt.Errorf("%w: only %s needed to complete this goal", ErrExceedsTarget, remaining.StringFixed(2))
	}

	g.SavedAmount = g.SavedAmount.Add(amount)
	if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		g.Status = StatusCompleted
	}

	c := Contribution{
		ID:           contributionID,
		Amount:       amount,
		Date:         now.Format(TimestampLayout),
		Type:         ContributionType,
		BalanceAfter: g.SavedAmount,
	}
	g.Transactions = append(g.Transactions, c)
	return c, nil
}

// Update overwrites the editable fields and recomputes the status.
func (g *Goal) Update(p Params) {
	g.Title = p.Title
	g.TargetAmount = p.TargetAmount
	g.Category = p.Category
	g.Deadline = p.Deadline
	g.refreshStatus()
}

// Contributions returns the contribution log, newest first.
func (g *Goal) Contributions() []Contribution {
	out := make([]Contribution, len(g.Transactions))
	copy(out, g.Transactions)
	// The timestamp layout sorts lexically.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// Allocated sums the saved amounts of goals.
func Allocated(goals []Goal) decimal.Decimal {
	total := decimal.Zero
	for _, g := range goals {
		total = total.Add(g.SavedAmount)
	}
	return total
}

// Find returns the index of the goal with id, or -1.
func Find(goals []Goal, id string) int {
	for i, g := range goals {
		if g.ID == id {
			return i
		}
	}
	return -1
}
