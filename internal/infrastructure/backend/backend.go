// Package backend opens the user store and auth provider selected by config.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log"

	fb "firebase.google.com/go/v4"

	"fintrack/internal/domain/user"
	"fintrack/internal/infrastructure/firebase"
	"fintrack/internal/infrastructure/firestore"
	"fintrack/internal/infrastructure/memory"
	"fintrack/internal/infrastructure/postgres"
	"fintrack/internal/shared/auth"
	"fintrack/internal/shared/config"
)

// Backend bundles the opened stores. Close releases every client.
type Backend struct {
	Users user.Repository
	Auth  auth.Provider

	// Firebase is set when either the store or the auth provider uses it.
	Firebase *firebase.AuthProvider

	closers []func() error
}

// Open wires the store and auth provider named in cfg.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}
	if err := b.open(ctx, cfg); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) open(ctx context.Context, cfg *config.Config) error {
	var app *fb.App
	if cfg.Store.Backend == config.StoreFirestore || cfg.Auth.Provider == config.AuthFirebase {
		var err error
		app, err = firebase.NewApp(ctx, cfg.Firebase.CredentialsFile, cfg.Firebase.ProjectID)
		if err != nil {
			return err
		}
	}

	var creds auth.CredentialStore

	switch cfg.Store.Backend {
	case config.StoreFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize firestore client: %w", err)
		}
		b.closers = append(b.closers, client.Close)
		b.Users = firestore.NewUserRepository(client, cfg.Store.FirestoreCollection)
		creds = firestore.NewCredentialRepository(client)
		log.Printf("User store: firestore (collection %s)", cfg.Store.FirestoreCollection)

	case config.StorePostgres:
		db, err := postgres.New(ctx, cfg.Database.ConnectionString(), postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return err
		}
		b.closers = append(b.closers, db.Close)

		users := postgres.NewUserRepository(db)
		if err := users.EnsureSchema(ctx); err != nil {
			return err
		}
		credRepo := postgres.NewCredentialRepository(db)
		if err := credRepo.EnsureSchema(ctx); err != nil {
			return err
		}
		b.Users, creds = users, credRepo
		log.Printf("User store: postgres (%s:%d/%s)", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	default:
		b.Users = memory.NewUserRepository()
		creds = auth.NewMemoryCredentialStore()
		log.Println("User store: in-memory (records are lost on restart)")
	}

	switch cfg.Auth.Provider {
	case config.AuthFirebase:
		provider, err := firebase.NewAuthProvider(ctx, app)
		if err != nil {
			return err
		}
		b.Auth, b.Firebase = provider, provider
		log.Println("Auth provider: firebase")
	default:
		b.Auth = auth.NewLocalProvider(auth.NewJWT(cfg.Auth.JWTSecret), creds)
		log.Println("Auth provider: local")
	}
	return nil
}

// Close releases clients in reverse order of opening.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
