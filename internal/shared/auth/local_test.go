package auth

import (
	"context"
	"errors"
	"testing"
)

func TestLocalProvider_CreateSignInVerify(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(NewJWT("test-secret"), NewMemoryCredentialStore())

	userID, err := p.Create(ctx, " Saver@Example.com ", "hunter22")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if userID == "" {
		t.Fatal("Create() returned empty user ID")
	}

	if _, err := p.Create(ctx, "saver@example.com", "another1"); !errors.Is(err, ErrEmailInUse) {
		t.Errorf("Create() duplicate got %v, want ErrEmailInUse", err)
	}

	token, gotID, err := p.SignIn(ctx, "SAVER@example.com", "hunter22")
	if err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}
	if gotID != userID {
		t.Errorf("SignIn() user = %s, want %s", gotID, userID)
	}

	verified, err := p.Verify(ctx, token)
	if err != nil {
		t.Fatalf("Verify() failed: %v", err)
	}
	if verified != userID {
		t.Errorf("Verify() user = %s, want %s", verified, userID)
	}
}

func TestLocalProvider_SignInFailures(t *testing.T) {
	ctx := context.Background()
	p := NewLocalProvider(NewJWT("test-secret"), NewMemoryCredentialStore())
	if _, err := p.Create(ctx, "a@example.com", "correct-horse"); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "a@example.com", "battery-staple"},
		{"unknown email", "b@example.com", "correct-horse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := p.SignIn(ctx, tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("SignIn() got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLocalProvider_VerifyRejectsGarbage(t *testing.T) {
	p := NewLocalProvider(NewJWT("test-secret"), NewMemoryCredentialStore())

	_, err := p.Verify(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() got %v, want ErrInvalidToken", err)
	}
}
