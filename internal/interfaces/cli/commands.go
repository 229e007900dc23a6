package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newCheckFirebaseCommand(rt Runtime, ctxFn contextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "check-firebase",
		Short: "Verify Firebase credentials against Auth and Firestore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := ctxFn(cmd)
			defer cancel()

			checks, cleanup, err := rt.FirebaseChecks(ctx)
			if err != nil {
				return fmt.Errorf("initializing firebase: %w", err)
			}
			if cleanup != nil {
				defer cleanup()
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, c := range checks {
				if err := c.Run(ctx); err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %s: %v\n", c.Name, err)
					continue
				}
				fmt.Fprintf(out, "OK    %s\n", c.Name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(checks))
			}
			fmt.Fprintln(out, "Firebase setup verified.")
			return nil
		},
	}
}

func newLockStatusCommand(rt Runtime, ctxFn contextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lock-status <user-id>",
		Short: "Show whether a user's monthly budget can be changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, ctxFn, func(ctx context.Context, app *App) error {
				status, err := app.Service.LockStatus(ctx, args[0])
				if err != nil {
					return err
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "User:\t%s\n", args[0])
				fmt.Fprintf(w, "Locked:\t%t\n", status.Locked)
				if status.Locked {
					fmt.Fprintf(w, "Remaining:\t%s\n", status.RemainingText())
					fmt.Fprintf(w, "Reason:\t%s\n", status.Reason)
				}
				fmt.Fprintf(w, "Level:\t%d\n", status.Level)
				fmt.Fprintf(w, "Changes (7 days):\t%d\n", status.RecentChanges)
				fmt.Fprintf(w, "Changes (30 days):\t%d\n", status.MonthChanges)
				if status.LastChange != nil {
					fmt.Fprintf(w, "Last change:\t%s\n", status.LastChange.Format(time.RFC3339))
				}
				if status.Bypassed {
					fmt.Fprintln(w, "Override:\tenabled")
				}
				return w.Flush()
			})
		},
	}
}

func newBudgetHistoryCommand(rt Runtime, ctxFn contextFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "budget-history <user-id>",
		Short: "Print the reconstructed budget outcome of past months",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rt, ctxFn, func(ctx context.Context, app *App) error {
				overview, err := app.Service.BudgetOverview(ctx, args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(overview.History) == 0 {
					fmt.Fprintln(out, "No budget history yet.")
					return nil
				}

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(w, "MONTH\tBUDGET\tSPENT\tREMAINING\tUSED\t")
				for _, m := range overview.History {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\t\n",
						m.Label,
						m.EffectiveBudget.StringFixed(2),
						m.Expenses.StringFixed(2),
						m.Remaining.StringFixed(2),
						m.UsagePercent,
					)
				}
				return w.Flush()
			})
		},
	}
}

func newNormalizeCommand(rt Runtime, ctxFn contextFunc) *cobra.Command {
	var (
		all     bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "normalize [user-id...]",
		Short: "Rewrite stored user records in normalized form",
		Long: `Rewrites user records so legacy documents (bare-number budgets,
missing keys, undated history entries) are stored in the current shape.`,
		Example: `  admin normalize user-1
  admin normalize user-1 user-2
  admin normalize --all --workers=8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("specify user IDs or --all, not both")
			}
			return withApp(cmd, rt, ctxFn, func(ctx context.Context, app *App) error {
				ids := args
				if all {
					if app.Users == nil {
						return errors.New("this store cannot list users")
					}
					var err error
					ids, err = app.Users.ListIDs(ctx)
					if err != nil {
						return fmt.Errorf("listing users: %w", err)
					}
				}
				if len(ids) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No users to process")
					return nil
				}

				start := time.Now()
				results := runBatch(ctx, ids, workers, "normalize", func(ctx context.Context, id string) error {
					_, err := app.Service.Normalize(ctx, id)
					return err
				})
				return reportBatch(cmd, results, time.Since(start))
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Normalize every stored user")
	cmd.Flags().IntVar(&workers, "workers", DefaultWorkerCount, "Number of concurrent workers")
	return cmd
}

func reportBatch(cmd *cobra.Command, results map[string]error, elapsed time.Duration) error {
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := cmd.OutOrStdout()
	failed := 0
	for _, id := range ids {
		if err := results[id]; err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %v\n", id, err)
			continue
		}
		fmt.Fprintf(out, "OK    %s\n", id)
	}
	fmt.Fprintf(out, "Processed %d user(s) in %v, %d failed\n", len(ids), elapsed.Round(time.Millisecond), failed)
	if failed > 0 {
		return fmt.Errorf("%d user(s) failed", failed)
	}
	return nil
}
