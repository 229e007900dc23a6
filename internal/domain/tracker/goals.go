package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain/goal"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/user"
)

// GoalsOverview is the goals page model.
type GoalsOverview struct {
	Goals      []goal.Goal     `json:"goals"`
	Balance    decimal.Decimal `json:"balance"`
	Allocated  decimal.Decimal `json:"allocated"`
	Available  decimal.Decimal `json:"availableBalance"`
	Categories []string        `json:"categories"`
}

// Deposit reports money moved into a goal.
type Deposit struct {
	Goal         goal.Goal         `json:"goal"`
	Contribution goal.Contribution `json:"contribution"`
	Completed    bool              `json:"completed"`
}

// availableBalance is the all-time balance minus everything already saved
// into goals.
func (s *Service) availableBalance(ctx context.Context, rec *user.Record) (balance, allocated, available decimal.Decimal) {
	balance = ledger.Totals(s.parse(ctx, rec)).Balance
	allocated = goal.Allocated(rec.Goals)
	return balance, allocated, balance.Sub(allocated)
}

// GoalsOverview lists the goals with the balance available for funding them.
func (s *Service) GoalsOverview(ctx context.Context, userID string) (*GoalsOverview, error) {
	var out *GoalsOverview
	err := s.view(ctx, "GoalsOverview", userID, func(rec *user.Record, _ time.Time) error {
		balance, allocated, available := s.availableBalance(ctx, rec)
		out = &GoalsOverview{
			Goals:      rec.Goals,
			Balance:    balance,
			Allocated:  allocated,
			Available:  available,
			Categories: goal.Categories,
		}
		return nil
	})
	return out, err
}

// CreateGoal validates p and appends a new in-progress goal.
func (s *Service) CreateGoal(ctx context.Context, userID string, p goal.Params) (goal.Goal, error) {
	var out goal.Goal
	err := s.update(ctx, "CreateGoal", userID, func(rec *user.Record, now time.Time) error {
		if err := p.Validate(now); err != nil {
			return err
		}
		out = goal.New(s.newID(), p, now)
		rec.Goals = append(rec.Goals, out)
		return nil
	})
	return out, err
}

// AddMoneyToGoal funds a goal from the available balance.
func (s *Service) AddMoneyToGoal(ctx context.Context, userID, goalID string, amount decimal.Decimal) (*Deposit, error) {
	var out *Deposit
	err := s.update(ctx, "AddMoneyToGoal", userID, func(rec *user.Record, now time.Time) error {
		i := goal.Find(rec.Goals, goalID)
		if i < 0 {
			return fmt.Errorf("%w: %s", goal.ErrNotFound, goalID)
		}
		_, _, available := s.availableBalance(ctx, rec)

		g := &rec.Goals[i]
		wasCompleted := g.Status == goal.StatusCompleted
		c, err := g.AddMoney(s.newID(), amount, available, now)
		if err != nil {
			return err
		}
		out = &Deposit{
			Goal:         *g,
			Contribution: c,
			Completed:    !wasCompleted && g.Status == goal.StatusCompleted,
		}
		return nil
	})
	return out, err
}

// EditGoal overwrites the editable fields of a goal.
func (s *Service) EditGoal(ctx context.Context, userID, goalID string, p goal.Params) (goal.Goal, error) {
	var out goal.Goal
	err := s.update(ctx, "EditGoal", userID, func(rec *user.Record, now time.Time) error {
		if err := p.Validate(now); err != nil {
			return err
		}
		i := goal.Find(rec.Goals, goalID)
		if i < 0 {
			return fmt.Errorf("%w: %s", goal.ErrNotFound, goalID)
		}
		rec.Goals[i].Update(p)
		out = rec.Goals[i]
		return nil
	})
	return out, err
}

// DeleteGoal removes a goal; its saved amount returns to the available
// balance.
func (s *Service) DeleteGoal(ctx context.Context, userID, goalID string) error {
	return s.update(ctx, "DeleteGoal", userID, func(rec *user.Record, _ time.Time) error {
		i := goal.Find(rec.Goals, goalID)
		if i < 0 {
			return fmt.Errorf("%w: %s", goal.ErrNotFound, goalID)
		}
		rec.Goals = append(rec.Goals[:i], rec.Goals[i+1:]...)
		return nil
	})
}

// GoalContributions returns a goal's contributions, newest first. An unknown
// goal yields an empty list.
func (s *Service) GoalContributions(ctx context.Context, userID, goalID string) ([]goal.Contribution, error) {
	out := []goal.Contribution{}
	err := s.view(ctx, "GoalContributions", userID, func(rec *user.Record, _ time.Time) error {
		if i := goal.Find(rec.Goals, goalID); i >= 0 {
			out = rec.Goals[i].Contributions()
		}
		return nil
	})
	return out, err
}
