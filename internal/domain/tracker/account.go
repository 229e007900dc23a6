package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"fintrack/internal/domain/user"
	"fintrack/internal/domain/validation"
)

// ErrNoIdentityProvider is returned by Register when no provider is set.
var ErrNoIdentityProvider = errors.New("no identity provider configured")

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 6

// Register creates a login identity and seeds the user's record.
func (s *Service) Register(ctx context.Context, email, password, name string) (*user.Record, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation.New("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, validation.Newf("password", "password must be at least %d characters", MinPasswordLength)
	}
	if s.identity == nil {
		return nil, ErrNoIdentityProvider
	}

	userID, err := s.identity.Create(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("creating identity: %w", err)
	}

	rec := user.New(userID, strings.TrimSpace(name), email, s.now())
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving user record: %w", err)
	}
	log.Printf("Registered user %s", userID)
	return rec, nil
}

// EnsureRecord returns the user's record, creating a default one on first
// access.
func (s *Service) EnsureRecord(ctx context.Context, userID, email string) (*user.Record, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.repo.Get(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("loading user record: %w", err)
	}

	rec = user.New(userID, "", email, s.now())
	if err := s.repo.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("saving user record: %w", err)
	}
	return rec, nil
}

// Record returns the user's normalized record.
func (s *Service) Record(ctx context.Context, userID string) (*user.Record, error) {
	return s.load(ctx, userID)
}
