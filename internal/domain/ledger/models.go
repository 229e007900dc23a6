package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/validation"
)

// Type distinguishes money coming in from money going out.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

const (
	// TimestampLayout is the stored layout of transaction timestamps.
	TimestampLayout = "2006-01-02 15:04:05"
	// DateLayout is the layout of user-supplied transaction dates.
	DateLayout = "2006-01-02"
	// MaxDescriptionLength caps stored descriptions (in characters).
	MaxDescriptionLength = 25
	// DefaultCategory is used for expenses stored without a category.
	DefaultCategory = "Other"
)

// Categories lists the spending/income categories a transaction may carry.
var Categories = []string{"Food", "Transport", "Salary", "Bills", "Entertainment", "Housing"}

// Domain errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrMalformedEntry      = errors.New("malformed transaction entry")
)

// Entry is the persisted form of a transaction inside a user record.
// Amount and Timestamp are kept loose so that legacy or hand-edited records
// still decode; Parse turns an Entry into a Transaction.
type Entry struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Amount      any    `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
}

// Transaction is a parsed, well-formed ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        Type            `json:"type"`
	Category    string          `json:"category"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Entry converts t to its persisted form.
func (t Transaction) Entry() Entry {
	return Entry{
		ID:          t.ID,
		Description: t.Description,
		Amount:      json.Number(t.Amount.String()),
		Type:        string(t.Type),
		Category:    t.Category,
		Timestamp:   t.Timestamp.Format(TimestampLayout),
	}
}

// IsExpense reports whether t is an expense.
func (t Transaction) IsExpense() bool { return t.Type == TypeExpense }

// Input carries a user-submitted transaction before validation.
type Input struct {
	Date        string          `json:"transactionDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
}

// NewTransaction validates in and builds a transaction with the given id.
// The timestamp combines the submitted date with now's time of day.
func NewTransaction(id string, in Input, now time.Time) (Transaction, error) {
	description := strings.TrimSpace(in.Description)
	if in.Date == "" || description == "" || in.Type == "" || in.Category == "" {
		return Transaction{}, validation.New("", "all fields are required")
	}

	date, err := time.ParseInLocation(DateLayout, in.Date, now.Location())
	if err != nil {
		return Transaction{}, validation.New("transactionDate", "invalid date format, use YYYY-MM-DD")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.After(today) {
		return Transaction{}, validation.New("transactionDate", "transaction date cannot be in the future")
	}

	if !in.Amount.IsPositive() {
		return Transaction{}, validation.New("amount", "amount must be positive")
	}

	txType := Type(in.Type)
	if txType != TypeIncome && txType != TypeExpense {
		return Transaction{}, validation.Newf("type", "unknown transaction type %q", in.Type)
	}

	if !IsValidCategory(in.Category) {
		return Transaction{}, validation.Newf("category", "unknown category %q", in.Category)
	}

	return Transaction{
		ID:          id,
		Description: truncate(description, MaxDescriptionLength),
		Amount:      in.Amount,
		Type:        txType,
		Category:    in.Category,
		Timestamp: time.Date(date.Year(), date.Month(), date.Day(),
			now.Hour(), now.Minute(), now.Second(), 0, now.Location()),
	}, nil
}

// IsValidCategory checks c against Categories.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ParseError records why a stored entry was skipped.
type ParseError struct {
	Index int
	ID    string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("entry %d (id=%q): %v", e.Index, e.ID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse converts a stored entry into a Transaction.
func Parse(e Entry) (Transaction, error) {
	amount, err := parseAmount(e.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: amount: %v", ErrMalformedEntry, err)
	}

	ts, err := ParseTimestamp(e.Timestamp)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: timestamp: %v", ErrMalformedEntry, err)
	}

	txType := Type(e.Type)
	if txType != TypeIncome && txType != TypeExpense {
		return Transaction{}, fmt.Errorf("%w: unknown type %q", ErrMalformedEntry, e.Type)
	}

	category := e.Category
	if category == "" && txType == TypeExpense {
		category = DefaultCategory
	}

	return Transaction{
		ID:          e.ID,
		Description: e.Description,
		Amount:      amount,
		Type:        txType,
		Category:    category,
		Timestamp:   ts,
	}, nil
}

// ParseAll parses every entry, returning the well-formed transactions in
// input order and one ParseError per skipped entry.
func ParseAll(entries []Entry) ([]Transaction, []*ParseError) {
	txs := make([]Transaction, 0, len(entries))
	var skipped []*ParseError
	for i, e := range entries {
		tx, err := Parse(e)
		if err != nil {
			skipped = append(skipped, &ParseError{Index: i, ID: e.ID, Err: err})
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped
}

var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	DateLayout,
}

// ParseTimestamp accepts the stored layout plus ISO-8601 variants.
// Zone-less values are read in local time.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch a := v.(type) {
	case nil:
		return decimal.Zero, errors.New("missing amount")
	case float64:
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return decimal.Zero, fmt.Errorf("non-finite amount %v", a)
		}
		return decimal.NewFromFloat(a), nil
	case int:
		return decimal.NewFromInt(int64(a)), nil
	case int64:
		return decimal.NewFromInt(a), nil
	case json.Number:
		return decimal.NewFromString(a.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(a))
	case decimal.Decimal:
		return a, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}
