package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/tracker"
	"fintrack/internal/domain/user"
	"fintrack/internal/infrastructure/backend"
	"fintrack/internal/infrastructure/firebase"
	"fintrack/internal/infrastructure/firestore"
	"fintrack/internal/interfaces/cli"
	"fintrack/internal/shared/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	rt := cli.Runtime{
		Open:           openApp,
		FirebaseChecks: firebaseChecks,
	}

	if err := cli.NewRootCommand(rt).Execute(); err != nil {
		os.Exit(1)
	}
}

func openApp(ctx context.Context) (*cli.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	b, err := backend.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &cli.App{
		Service: tracker.NewService(b.Users, budget.NewLockEngine(cfg.Budget.LockOverride)),
		Close:   b.Close,
	}
	if lister, ok := b.Users.(user.Lister); ok {
		app.Users = lister
	}
	return app, nil
}

// firebaseChecks reads the Firebase settings directly so the check works
// whichever store and auth provider are configured.
func firebaseChecks(ctx context.Context) ([]cli.Check, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Firebase.Configured() {
		return nil, nil, fmt.Errorf("set FIREBASE_CREDENTIALS_FILE or FIREBASE_PROJECT_ID")
	}

	app, err := firebase.NewApp(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	provider, err := firebase.NewAuthProvider(ctx, app)
	if err != nil {
		return nil, nil, err
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize firestore client: %w", err)
	}

	checks := []cli.Check{
		{Name: "firebase auth", Run: provider.Ping},
		{Name: "firestore read/write", Run: func(ctx context.Context) error {
			return firestore.Ping(ctx, client, cfg.Store.FirestoreCollection)
		}},
	}
	return checks, client.Close, nil
}
