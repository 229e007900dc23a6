// Package cli implements the fintrack admin commands.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
)

// DefaultWorkerCount is the default concurrency for batch commands.
const DefaultWorkerCount = 4

// App is the opened backend the commands operate on.
type App struct {
	Service *tracker.Service
	// Users is nil when the store cannot enumerate its records.
	Users user.Lister
	Close func() error
}

// Check is one named connectivity probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runtime supplies the commands with their dependencies. Both functions are
// called lazily so help and argument errors never touch the network.
type Runtime struct {
	Open func(ctx context.Context) (*App, error)
	// FirebaseChecks returns the probes for check-firebase and a cleanup func.
	FirebaseChecks func(ctx context.Context) ([]Check, func() error, error)
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(rt Runtime) *cobra.Command {
	var timeout time.Duration

	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "Management commands for the fintrack API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for the operation (e.g. 30s, 5m)")

	withTimeout := func(cmd *cobra.Command) (context.Context, context.CancelFunc) {
		return context.WithTimeout(cmd.Context(), timeout)
	}

	rootCmd.AddCommand(
		newCheckFirebaseCommand(rt, withTimeout),
		newLockStatusCommand(rt, withTimeout),
		newBudgetHistoryCommand(rt, withTimeout),
		newNormalizeCommand(rt, withTimeout),
	)

	return rootCmd
}

type contextFunc func(cmd *cobra.Command) (context.Context, context.CancelFunc)

// withApp opens the backend, runs fn and closes it again.
func withApp(cmd *cobra.Command, rt Runtime, ctxFn contextFunc, fn func(ctx context.Context, app *App) error) error {
	ctx, cancel := ctxFn(cmd)
	defer cancel()

	app, err := rt.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening backend: %w", err)
	}
	defer func() {
		if app.Close != nil {
			if err := app.Close(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error closing backend: %v\n", err)
			}
		}
	}()

	return fn(ctx, app)
}
