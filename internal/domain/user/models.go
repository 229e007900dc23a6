package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/ledger"
)

const (
	DefaultName  = "Guest User"
	DefaultEmail = "guest@example.com"
)

// Settings are the profile toggles.
type Settings struct {
	ShowPresets       bool `json:"show_presets"`
	SmartSuggestions  bool `json:"smart_suggestions"`
	ShowConfirmations bool `json:"show_confirmations"`
}

// DefaultSettings returns the settings of a new user.
func DefaultSettings() Settings {
	return Settings{
		ShowPresets:       false,
		SmartSuggestions:  true,
		ShowConfirmations: true,
	}
}

// JournalEntry is a free-text note on the profile page.
type JournalEntry struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// Record is the per-user document. Transactions are kept in their stored
// form so that one malformed entry never prevents loading the rest.
type Record struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Transactions   []ledger.Entry `json:"transactions"`
	Budget         budget.State   `json:"budget"`
	Goals          []goal.Goal    `json:"goals"`
	Settings       *Settings      `json:"settings,omitempty"`
	JournalEntries []JournalEntry `json:"journal_entries"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// New returns a normalized record for id.
func New(id, name, email string, now time.Time) *Record {
	return Normalize(&Record{ID: id, Name: name, Email: email, CreatedAt: now, UpdatedAt: now})
}

// Decode parses a stored record, accepting documents whose budget is a bare
// number. The result is normalized.
func Decode(data []byte) (*Record, error) {
	type plain Record
	var wire struct {
		plain
		Budget json.RawMessage `json:"budget"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decoding user record: %w", err)
	}

	rec := Record(wire.plain)
	raw := bytes.TrimSpace(wire.Budget)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '{':
		if err := json.Unmarshal(raw, &rec.Budget); err != nil {
			return nil, fmt.Errorf("decoding user budget: %w", err)
		}
	default:
		var monthly decimal.Decimal
		if err := json.Unmarshal(raw, &monthly); err != nil {
			return nil, fmt.Errorf("decoding legacy user budget: %w", err)
		}
		rec.Budget = budget.State{Monthly: monthly}
	}
	return Normalize(&rec), nil
}

// Encode serializes rec.
func Encode(rec *Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding user record: %w", err)
	}
	return data, nil
}

// Normalize fills every missing field with its default and drops budget
// change events without a readable date. It mutates and returns rec.
func Normalize(rec *Record) *Record {
	if rec.Name == "" {
		rec.Name = DefaultName
	}
	if rec.Email == "" {
		rec.Email = DefaultEmail
	}
	if rec.Transactions == nil {
		rec.Transactions = []ledger.Entry{}
	}
	if rec.Goals == nil {
		rec.Goals = []goal.Goal{}
	}
	for i := range rec.Goals {
		if rec.Goals[i].Transactions == nil {
			rec.Goals[i].Transactions = []goal.Contribution{}
		}
		if rec.Goals[i].Status == "" {
			rec.Goals[i].Status = goal.StatusInProgress
		}
	}
	if rec.Settings == nil {
		s := DefaultSettings()
		rec.Settings = &s
	}
	if rec.JournalEntries == nil {
		rec.JournalEntries = []JournalEntry{}
	}

	b := &rec.Budget
	if b.Categories == nil {
		b.Categories = map[string]decimal.Decimal{}
	}
	b.History = datedEvents(b.History)
	b.ChangeHistory = datedEvents(b.ChangeHistory)
	return rec
}

func datedEvents(events []budget.ChangeEvent) []budget.ChangeEvent {
	out := make([]budget.ChangeEvent, 0, len(events))
	for _, ev := range events {
		if !ev.Date.IsZero() {
			out = append(out, ev)
		}
	}
	return out
}

// Clone returns a deep copy of rec.
func (r *Record) Clone() (*Record, error) {
	data, err := Encode(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
