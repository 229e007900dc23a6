package budget

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ManualUpdateReason is recorded on edits made through the budget page.
const ManualUpdateReason = "Manual update"

// Domain errors
var (
	ErrBudgetLocked           = errors.New("budget changes are locked")
	ErrBudgetExceeded         = errors.New("monthly budget exceeded")
	ErrCategoryBudgetExceeded = errors.New("category budget exceeded")
)

// ChangeEvent records one edit of the monthly limit.
type ChangeEvent struct {
	Date           time.Time       `json:"date"`
	PreviousAmount decimal.Decimal `json:"previous_amount"`
	NewAmount      decimal.Decimal `json:"new_amount"`
	Reason         string          `json:"change_reason"`
}

var eventDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON accepts zone-less ISO timestamps written by older clients.
// An unreadable date decodes as the zero time; user.Normalize drops such
// events.
func (e *ChangeEvent) UnmarshalJSON(data []byte) error {
	var wire struct {
		Date           string          `json:"date"`
		PreviousAmount decimal.Decimal `json:"previous_amount"`
		NewAmount      decimal.Decimal `json:"new_amount"`
		Reason         string          `json:"change_reason"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decoding budget change event: %w", err)
	}

	*e = ChangeEvent{
		PreviousAmount: wire.PreviousAmount,
		NewAmount:      wire.NewAmount,
		Reason:         wire.Reason,
	}
	s := strings.TrimSpace(wire.Date)
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			e.Date = t
			break
		}
	}
	return nil
}

// State is the budget section of a user record.
type State struct {
	Monthly    decimal.Decimal            `json:"monthly"`
	Categories map[string]decimal.Decimal `json:"categories"`
	// LastUpdated is an RFC 3339 timestamp, empty when never set.
	LastUpdated string `json:"last_updated"`
	// History is append-only and feeds historical reporting. Only edits
	// made while a limit was already set are recorded here.
	History []ChangeEvent `json:"history"`
	// ChangeHistory feeds the lock engine and is pruned to the last 30 days.
	ChangeHistory []ChangeEvent `json:"change_history"`
}

// CategoryLimit returns the limit for category (zero when unset).
func (s *State) CategoryLimit(category string) decimal.Decimal {
	return s.Categories[category]
}

// TotalAllocated sums every category limit.
func (s *State) TotalAllocated() decimal.Decimal {
	total := decimal.Zero
	for _, limit := range s.Categories {
		total = total.Add(limit)
	}
	return total
}

// LastUpdatedAt parses LastUpdated.
func (s *State) LastUpdatedAt() (time.Time, bool) {
	if s.LastUpdated == "" {
		return time.Time{}, false
	}
	for _, layout := range eventDateLayouts {
		if t, err := time.ParseInLocation(layout, s.LastUpdated, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ApplyMonthlyChange sets a new monthly limit and records the change. The
// caller is responsible for consulting the lock engine first.
func (s *State) ApplyMonthlyChange(amount decimal.Decimal, now time.Time, reason string) ChangeEvent {
	event := ChangeEvent{
		Date:           now,
		PreviousAmount: s.Monthly,
		NewAmount:      amount,
		Reason:         reason,
	}
	s.ChangeHistory = append(s.ChangeHistory, event)
	if s.Monthly.IsPositive() {
		s.History = append(s.History, event)
	}
	s.Monthly = amount
	s.LastUpdated = now.Format(time.RFC3339)
	return event
}

// SetCategoryLimit sets or clears (amount zero) a category limit.
func (s *State) SetCategoryLimit(category string, amount decimal.Decimal) {
	if s.Categories == nil {
		s.Categories = make(map[string]decimal.Decimal)
	}
	s.Categories[category] = amount
}

// LockedError rejects a monthly-limit edit while the lock window is open.
type LockedError struct {
	Status LockStatus
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("budget locked (level %d, %s remaining): %s", e.Status.Level, e.Status.RemainingText(), e.Status.Reason)
}

func (e *LockedError) Is(target error) bool {
	return target == ErrBudgetLocked
}

// ExceededError rejects an expense that would overrun a limit.
type ExceededError struct {
	Reason    RejectReason    `json:"reason"`
	Category  string          `json:"category,omitempty"`
	Limit     decimal.Decimal `json:"limit"`
	Remaining decimal.Decimal `json:"remaining"`
	Overflow  decimal.Decimal `json:"overflow"`
}

func (e *ExceededError) Error() string {
	if e.Reason == ReasonCategoryExceeded {
		return fmt.Sprintf("category budget exceeded: %s remaining in %s budget of %s, expense would exceed it by %s",
			e.Remaining.StringFixed(2), e.Category, e.Limit.StringFixed(2), e.Overflow.StringFixed(2))
	}
	return fmt.Sprintf("budget exceeded: %s remaining in monthly budget of %s, expense would exceed it by %s",
		e.Remaining.StringFixed(2), e.Limit.StringFixed(2), e.Overflow.StringFixed(2))
}

func (e *ExceededError) Is(target error) bool {
	switch e.Reason {
	case ReasonCategoryExceeded:
		return target == ErrCategoryBudgetExceeded
	default:
		return target == ErrBudgetExceeded
	}
}
