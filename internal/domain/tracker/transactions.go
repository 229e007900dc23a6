package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/user"
)

// AddResult reports an accepted transaction.
type AddResult struct {
	Transaction ledger.Transaction `json:"transaction"`
	Warnings    []budget.Warning   `json:"warnings,omitempty"`
	// MonthlyLimit and MonthlyRemaining are set for expenses when a monthly
	// limit is configured.
	MonthlyLimit     *decimal.Decimal `json:"monthlyLimit,omitempty"`
	MonthlyRemaining *decimal.Decimal `json:"monthlyRemaining,omitempty"`
}

// AddTransaction validates in, projects expenses against the budget limits of
// the current month and appends the transaction when accepted.
func (s *Service) AddTransaction(ctx context.Context, userID string, in ledger.Input) (*AddResult, error) {
	var result *AddResult
	err := s.update(ctx, "AddTransaction", userID, func(rec *user.Record, now time.Time) error {
		tx, err := ledger.NewTransaction(s.newID(), in, now)
		if err != nil {
			return err
		}

		result = &AddResult{Transaction: tx}
		if tx.IsExpense() {
			totals, skipped := ledger.AggregateEntries(rec.Transactions, now.Year(), now.Month())
			s.reportSkipped(ctx, rec.ID, skipped)

			decision := budget.Evaluate(tx.Amount, tx.Category, rec.Budget.Monthly, rec.Budget.Categories, totals)
			outcome := "accepted"
			if !decision.Accepted {
				outcome = string(decision.Reason)
			} else if len(decision.Warnings) > 0 {
				outcome = "warned"
			}
			budgetDecisions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

			if err := decision.Err(); err != nil {
				return err
			}
			result.Warnings = decision.Warnings
		}

		rec.Transactions = append(rec.Transactions, tx.Entry())

		if tx.IsExpense() && rec.Budget.Monthly.IsPositive() {
			totals, _ := ledger.AggregateEntries(rec.Transactions, now.Year(), now.Month())
			limit := rec.Budget.Monthly
			remaining := limit.Sub(totals.Expense)
			result.MonthlyLimit = &limit
			result.MonthlyRemaining = &remaining
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EditTransaction overwrites the transaction with id. Edits are not projected
// against the budget.
func (s *Service) EditTransaction(ctx context.Context, userID, id string, in ledger.Input) (ledger.Transaction, error) {
	var out ledger.Transaction
	err := s.update(ctx, "EditTransaction", userID, func(rec *user.Record, now time.Time) error {
		i := ledger.FindEntry(rec.Transactions, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, id)
		}
		tx, err := ledger.NewTransaction(id, in, now)
		if err != nil {
			return err
		}
		rec.Transactions[i] = tx.Entry()
		out = tx
		return nil
	})
	return out, err
}

// DeleteTransaction removes the transaction with id and returns its stored
// form.
func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) (ledger.Entry, error) {
	var deleted ledger.Entry
	err := s.update(ctx, "DeleteTransaction", userID, func(rec *user.Record, _ time.Time) error {
		i := ledger.FindEntry(rec.Transactions, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, id)
		}
		deleted = rec.Transactions[i]
		rec.Transactions = append(rec.Transactions[:i], rec.Transactions[i+1:]...)
		return nil
	})
	return deleted, err
}

// GetTransaction returns a single transaction.
func (s *Service) GetTransaction(ctx context.Context, userID, id string) (ledger.Transaction, error) {
	var out ledger.Transaction
	err := s.view(ctx, "GetTransaction", userID, func(rec *user.Record, _ time.Time) error {
		i := ledger.FindEntry(rec.Transactions, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ledger.ErrTransactionNotFound, id)
		}
		tx, err := ledger.Parse(rec.Transactions[i])
		if err != nil {
			return err
		}
		out = tx
		return nil
	})
	return out, err
}

// ListTransactions returns the transactions matching f, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, f ledger.Filter) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := s.view(ctx, "ListTransactions", userID, func(rec *user.Record, _ time.Time) error {
		out = ledger.Apply(s.parse(ctx, rec), f)
		ledger.SortNewestFirst(out)
		return nil
	})
	return out, err
}
