package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrCredentialNotFound is returned by a CredentialStore for unknown emails.
var ErrCredentialNotFound = errors.New("credential not found")

// Credential is a locally managed login.
type Credential struct {
	UserID       string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CredentialStore persists local credentials keyed by email.
type CredentialStore interface {
	GetCredential(ctx context.Context, email string) (*Credential, error)
	// CreateCredential returns ErrEmailInUse when the email is taken.
	CreateCredential(ctx context.Context, c *Credential) error
}

// LocalProvider authenticates against bcrypt hashes and issues its own JWTs.
// It stands in for Firebase in development and self-hosted setups.
type LocalProvider struct {
	jwt   *JWT
	store CredentialStore
}

func NewLocalProvider(jwt *JWT, store CredentialStore) *LocalProvider {
	return &LocalProvider{jwt: jwt, store: store}
}

func (p *LocalProvider) Verify(ctx context.Context, token string) (string, error) {
	claims, err := p.jwt.Validate(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.UserID, nil
}

func (p *LocalProvider) Create(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if _, err := p.store.GetCredential(ctx, email); err == nil {
		return "", ErrEmailInUse
	} else if !errors.Is(err, ErrCredentialNotFound) {
		return "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	c := &Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := p.store.CreateCredential(ctx, c); err != nil {
		return "", err
	}
	return c.UserID, nil
}

// SignIn checks the password and issues an access token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, string, error) {
	c, err := p.store.GetCredential(ctx, normalizeEmail(email))
	if errors.Is(err, ErrCredentialNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	if err := VerifyPassword(c.PasswordHash, password); err != nil {
		return "", "", ErrInvalidCredentials
	}

	token, err := p.jwt.Generate(c.UserID, c.Email)
	if err != nil {
		return "", "", err
	}
	return token, c.UserID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryCredentialStore keeps credentials in process memory.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]Credential)}
}

func (s *MemoryCredentialStore) GetCredential(ctx context.Context, email string) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[email]
	if !ok {
		return nil, ErrCredentialNotFound
	}
	return &c, nil
}

func (s *MemoryCredentialStore) CreateCredential(ctx context.Context, c *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[c.Email]; ok {
		return ErrEmailInUse
	}
	s.creds[c.Email] = *c
	return nil
}
