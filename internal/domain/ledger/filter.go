package ledger

import (
	"sort"
	"time"
)

// Filter narrows a transaction list. Zero fields match everything; Start and
// End are inclusive calendar days.
type Filter struct {
	Category string     `json:"category,omitempty"`
	Type     Type       `json:"type,omitempty"`
	Start    *time.Time `json:"startDate,omitempty"`
	End      *time.Time `json:"endDate,omitempty"`
}

// ParseFilter builds a Filter from query-string values. Unparsable dates are
// ignored rather than rejected.
func ParseFilter(category, txType, start, end string) Filter {
	f := Filter{Category: category, Type: Type(txType)}
	if t, err := time.ParseInLocation(DateLayout, start, time.Local); err == nil {
		f.Start = &t
	}
	if t, err := time.ParseInLocation(DateLayout, end, time.Local); err == nil {
		f.End = &t
	}
	return f
}

// Match reports whether tx passes the filter.
func (f Filter) Match(tx Transaction) bool {
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	day := DayStart(tx.Timestamp)
	if f.Start != nil && day.Before(DayStart(*f.Start)) {
		return false
	}
	if f.End != nil && day.After(DayStart(*f.End)) {
		return false
	}
	return true
}

// Apply returns the transactions matching f, preserving order.
func Apply(txs []Transaction, f Filter) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// SortNewestFirst orders txs by timestamp, most recent first.
func SortNewestFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})
}

// FindEntry returns the index of the entry with id, or -1.
func FindEntry(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
