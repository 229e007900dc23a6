package goal

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/validation"
)

// Status is the lifecycle state of a goal.
type Status string

const (
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// ContributionType tags entries in a goal's contribution log.
const ContributionType = "add_money_to_goal"

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
	DefaultCategory = "Other"
)

// Categories lists the accepted goal categories.
var Categories = []string{
	"Emergency", "Travel", "Education", "Technology", "Health",
	"Home", "Investment", "Entertainment", "Vehicle", "Other",
}

// Domain errors
var (
	ErrNotFound            = errors.New("goal not found")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrExceedsTarget       = errors.New("amount exceeds remaining goal target")
)

// Contribution is one deposit into a goal.
type Contribution struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date"`
	Type         string          `json:"type"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// Goal is a savings target funded from the available balance.
type Goal struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
	Category     string          `json:"category"`
	// Deadline is a YYYY-MM-DD date or empty.
	Deadline     string         `json:"deadline"`
	Status       Status         `json:"status"`
	CreatedDate  string         `json:"created_date"`
	Transactions []Contribution `json:"transactions"`
}

// Params carries the user-editable fields of a goal.
type Params struct {
	Title        string          `json:"title"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Category     string          `json:"category"`
	Deadline     string          `json:"deadline"`
}

// Validate normalizes p in place. A deadline that is not a YYYY-MM-DD date is
// dropped; a valid one must fall after today.
func (p *Params) Validate(now time.Time) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return validation.New("title", "title is required")
	}
	if !p.TargetAmount.IsPositive() {
		return validation.New("targetAmount", "target amount must be positive")
	}

	p.Category = strings.TrimSpace(p.Category)
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	if !IsValidCategory(p.Category) {
		return validation.Newf("category", "unknown goal category %q", p.Category)
	}

	p.Deadline = strings.TrimSpace(p.Deadline)
	if p.Deadline != "" {
		deadline, err := time.ParseInLocation(DateLayout, p.Deadline, now.Location())
		if err != nil {
			p.Deadline = ""
			return nil
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if !deadline.After(today) {
			return validation.New("deadline", "deadline must be in the future")
		}
	}
	return nil
}

// IsValidCategory reports whether c is a known goal category.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
