package firestore

import (
	"context"
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fintrack/internal/shared/auth"
)

// CredentialCollection holds local-auth credentials keyed by email.
const CredentialCollection = "credentials"

type credentialDoc struct {
	UserID       string    `firestore:"user_id"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"password_hash"`
	CreatedAt    time.Time `firestore:"created_at"`
}

// CredentialRepository implements auth.CredentialStore on Firestore.
type CredentialRepository struct {
	client *gfs.Client
}

func NewCredentialRepository(client *gfs.Client) *CredentialRepository {
	return &CredentialRepository{client: client}
}

func (r *CredentialRepository) GetCredential(ctx context.Context, email string) (*auth.Credential, error) {
	snap, err := r.client.Collection(CredentialCollection).Doc(email).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, auth.ErrCredentialNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	var doc credentialDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}
	return &auth.Credential{
		UserID:       doc.UserID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

// CreateCredential fails with auth.ErrEmailInUse when a document for the
// email already exists.
func (r *CredentialRepository) CreateCredential(ctx context.Context, c *auth.Credential) error {
	_, err := r.client.Collection(CredentialCollection).Doc(c.Email).Create(ctx, credentialDoc{
		UserID:       c.UserID,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		CreatedAt:    c.CreatedAt,
	})
	if status.Code(err) == codes.AlreadyExists {
		return auth.ErrEmailInUse
	}
	if err != nil {
		return fmt.Errorf("creating credential: %w", err)
	}
	return nil
}
