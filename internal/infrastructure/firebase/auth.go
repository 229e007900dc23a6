package firebase

import (
	"context"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/iterator"

	"fintrack/internal/shared/auth"
)

// AuthProvider implements auth.Provider using Firebase Authentication.
type AuthProvider struct {
	client *fbauth.Client
}

// NewAuthProvider returns a provider backed by app's Auth client.
func NewAuthProvider(ctx context.Context, app *firebase.App) (*AuthProvider, error) {
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth client: %w", err)
	}
	return &AuthProvider{client: client}, nil
}

// Verify checks a Firebase ID token and returns its UID.
func (p *AuthProvider) Verify(ctx context.Context, token string) (string, error) {
	t, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	return t.UID, nil
}

// Create registers an email/password user and returns the new UID.
func (p *AuthProvider) Create(ctx context.Context, email, password string) (string, error) {
	params := (&fbauth.UserToCreate{}).
		Email(email).
		Password(password)

	u, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if fbauth.IsEmailAlreadyExists(err) {
			return "", auth.ErrEmailInUse
		}
		log.Printf("Firebase CreateUser failed for %s: %v", email, err)
		return "", fmt.Errorf("failed to create firebase user: %w", err)
	}
	return u.UID, nil
}

// Ping lists at most one user to confirm the Auth API is reachable.
func (p *AuthProvider) Ping(ctx context.Context) error {
	iter := p.client.Users(ctx, "")
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("firebase auth unreachable: %w", err)
	}
	return nil
}
