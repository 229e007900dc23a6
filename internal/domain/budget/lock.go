package budget

import (
	"fmt"
	"time"
)

const (
	// PruneWindow bounds how long an edit counts toward the lock level.
	PruneWindow = 30 * 24 * time.Hour
	// RecentWindow is the short look-back used for levels 2 and 3.
	RecentWindow = 7 * 24 * time.Hour
)

// LockDuration returns the lock window applied at level.
func LockDuration(level int) time.Duration {
	switch level {
	case 4:
		return 30 * 24 * time.Hour
	case 3:
		return 7 * 24 * time.Hour
	case 2:
		return 48 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// LockDurationText renders LockDuration(level) for messages.
func LockDurationText(level int) string {
	switch level {
	case 4:
		return "30 days"
	case 3:
		return "7 days"
	case 2:
		return "48 hours"
	default:
		return "24 hours"
	}
}

// LockStatus is the lock engine's verdict. When unlocked, Level is the level
// that would govern the lock after the next edit.
type LockStatus struct {
	Locked        bool          `json:"locked"`
	Remaining     time.Duration `json:"-"`
	Reason        string        `json:"reason,omitempty"`
	Level         int           `json:"level"`
	Bypassed      bool          `json:"bypassed,omitempty"`
	RecentChanges int           `json:"changesLast7Days"`
	MonthChanges  int           `json:"changesLast30Days"`
	LastChange    *time.Time    `json:"lastChange,omitempty"`
}

// RemainingText formats Remaining as days when at least a day is left and as
// hours otherwise.
func (s LockStatus) RemainingText() string {
	if !s.Locked {
		return "0"
	}
	hours := s.Remaining.Hours()
	if hours >= 24 {
		return fmt.Sprintf("%.1f days", hours/24)
	}
	return fmt.Sprintf("%.1f hours", hours)
}

// LockEngine decides whether monthly-limit edits are currently allowed.
type LockEngine struct {
	// Override unconditionally unlocks edits. Meant for development.
	Override bool
}

// NewLockEngine returns an engine; override bypasses every lock.
func NewLockEngine(override bool) *LockEngine {
	return &LockEngine{Override: override}
}

// Evaluate prunes state.ChangeHistory of events at or before now-30d and
// returns the current lock status.
func (e *LockEngine) Evaluate(state *State, now time.Time) LockStatus {
	if e != nil && e.Override {
		return LockStatus{Level: 1, Bypassed: true}
	}

	state.ChangeHistory = Prune(state.ChangeHistory, now)
	history := state.ChangeHistory
	if len(history) == 0 {
		return LockStatus{Level: 1}
	}

	recentCutoff := now.Add(-RecentWindow)
	recent := 0
	last := history[0].Date
	for _, ev := range history {
		if ev.Date.After(recentCutoff) {
			recent++
		}
		if ev.Date.After(last) {
			last = ev.Date
		}
	}
	total := len(history)

	var level int
	var reason string
	switch {
	case total >= 3:
		level = 4
		reason = fmt.Sprintf("You've made %d budget changes in the last 30 days. To maintain financial discipline, budget changes are locked for 30 days.", total)
	case recent >= 2:
		level = 3
		reason = fmt.Sprintf("You've made %d budget changes in the last 7 days. Budget changes are locked for 7 days to encourage stability.", recent)
	case recent >= 1:
		level = 2
		reason = "This is your 2nd budget change in 7 days. Budget changes are locked for 48 hours."
	default:
		level = 1
		reason = "Budget changes are locked for 24 hours to prevent impulsive modifications."
	}

	status := LockStatus{
		Level:         level,
		RecentChanges: recent,
		MonthChanges:  total,
		LastChange:    &last,
	}

	elapsed := now.Sub(last)
	if window := LockDuration(level); elapsed < window {
		status.Locked = true
		status.Remaining = window - elapsed
		status.Reason = reason
	}
	return status
}

// Prune returns the events dated strictly after now-PruneWindow, in order.
func Prune(events []ChangeEvent, now time.Time) []ChangeEvent {
	cutoff := now.Add(-PruneWindow)
	kept := events[:0:0]
	for _, ev := range events {
		if ev.Date.After(cutoff) {
			kept = append(kept, ev)
		}
	}
	return kept
}
