package cli

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
	"fintrack/internal/infrastructure/memory"
)

var testNow = time.Date(2024, time.June, 15, 14, 0, 0, 0, time.Local)

func newTestApp(t *testing.T) (*App, *memory.UserRepository) {
	t.Helper()
	repo := memory.NewUserRepository()
	svc := tracker.NewService(repo, budget.NewLockEngine(false))
	svc.SetClock(func() time.Time { return testNow })
	return &App{Service: svc, Users: repo}, repo
}

func execute(t *testing.T, rt Runtime, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(rt)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func runtimeFor(app *App) Runtime {
	return Runtime{
		Open: func(ctx context.Context) (*App, error) { return app, nil },
	}
}

func TestLockStatus(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.Service.SetMonthlyBudget(ctx, "user-1", decimal.NewFromInt(1000))
	require.NoError(t, err)

	out, err := execute(t, runtimeFor(app), "lock-status", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked:")
	assert.Contains(t, out, "true")
	assert.Contains(t, out, "2.0 days")
	assert.Contains(t, out, "Changes (7 days):")
}

func TestLockStatus_RequiresUserID(t *testing.T) {
	opened := false
	rt := Runtime{Open: func(ctx context.Context) (*App, error) {
		opened = true
		return nil, errors.New("unreachable")
	}}

	_, err := execute(t, rt, "lock-status")
	assert.Error(t, err)
	assert.False(t, opened, "backend opened despite bad arguments")
}

func TestBudgetHistory(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	_, err := app.Service.AddTransaction(ctx, "user-1", ledger.Input{
		Date:        "2024-05-10",
		Description: "Groceries",
		Amount:      decimal.NewFromInt(200),
		Type:        "expense",
		Category:    "Food",
	})
	require.NoError(t, err)

	out, err := execute(t, runtimeFor(app), "budget-history", "user-1")
	require.NoError(t, err)
	assert.Contains(t, out, "MONTH")
	assert.Contains(t, out, "May 2024")
	assert.Contains(t, out, "200.00")
	assert.NotContains(t, out, "June 2024", "current month is not a closed month")
}

func TestBudgetHistory_Empty(t *testing.T) {
	app, _ := newTestApp(t)

	out, err := execute(t, runtimeFor(app), "budget-history", "nobody")
	require.NoError(t, err)
	assert.Contains(t, out, "No budget history yet.")
}

func TestNormalize_All(t *testing.T) {
	app, repo := newTestApp(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Put(ctx, &user.Record{ID: id}))
	}

	out, err := execute(t, runtimeFor(app), "normalize", "--all", "--workers=2")
	require.NoError(t, err)
	assert.Contains(t, out, "Processed 3 user(s)")

	rec, err := repo.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "Guest User", rec.Name)
}

func TestNormalize_ArgumentErrors(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name string
		args []string
	}{
		{"neither ids nor all", []string{"normalize"}},
		{"both ids and all", []string{"normalize", "a", "--all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, runtimeFor(app), tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestNormalize_AllWithoutLister(t *testing.T) {
	app, _ := newTestApp(t)
	app.Users = nil

	_, err := execute(t, runtimeFor(app), "normalize", "--all")
	assert.ErrorContains(t, err, "cannot list users")
}

func TestCheckFirebase(t *testing.T) {
	var cleaned atomic.Bool
	rt := Runtime{
		FirebaseChecks: func(ctx context.Context) ([]Check, func() error, error) {
			return []Check{
				{Name: "auth", Run: func(ctx context.Context) error { return nil }},
				{Name: "firestore", Run: func(ctx context.Context) error { return errors.New("permission denied") }},
			}, func() error { cleaned.Store(true); return nil }, nil
		},
	}

	out, err := execute(t, rt, "check-firebase")
	assert.ErrorContains(t, err, "1 of 2 checks failed")
	assert.Contains(t, out, "OK    auth")
	assert.Contains(t, out, "FAIL  firestore: permission denied")
	assert.True(t, cleaned.Load())
}

func TestRunBatch(t *testing.T) {
	var inFlight, peak atomic.Int32
	ids := []string{"u1", "u2", "u3", "u4", "u5", "u6"}

	results := runBatch(context.Background(), ids, 2, "test", func(ctx context.Context, id string) error {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		if id == "u3" {
			return errors.New("boom")
		}
		return nil
	})

	require.Len(t, results, len(ids))
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.EqualError(t, results["u3"], "boom")
	assert.NoError(t, results["u1"])
}

func TestRunBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	results := runBatch(ctx, []string{"a", "b", "c"}, 1, "test", func(ctx context.Context, id string) error {
		ran.Add(1)
		return ctx.Err()
	})

	require.Len(t, results, 3)
	for id, err := range results {
		assert.True(t, errors.Is(err, context.Canceled), "user %s: %v", id, err)
	}
	assert.LessOrEqual(t, ran.Load(), int32(3))
}
