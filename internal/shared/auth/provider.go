package auth

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Verifier resolves an access token to a user ID.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Provider verifies tokens and creates login identities.
type Provider interface {
	Verifier
	Create(ctx context.Context, email, password string) (string, error)
}

// PasswordSignIn is implemented by providers that issue tokens for an email
// and password themselves.
type PasswordSignIn interface {
	SignIn(ctx context.Context, email, password string) (token, userID string, err error)
}
