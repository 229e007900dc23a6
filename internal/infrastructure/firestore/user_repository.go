package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gfs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"fintrack/internal/domain/user"
)

// DefaultCollection holds one document per user, keyed by user ID.
const DefaultCollection = "users"

// UserRepository stores user records as Firestore documents.
type UserRepository struct {
	client     *gfs.Client
	collection string
}

func NewUserRepository(client *gfs.Client, collection string) *UserRepository {
	if collection == "" {
		collection = DefaultCollection
	}
	return &UserRepository{client: client, collection: collection}
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*user.Record, error) {
	snap, err := r.client.Collection(r.collection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, &user.StoreError{Op: "get", UserID: userID, Err: err}
	}

	rec, err := fromDocument(snap.Data())
	if err != nil {
		return nil, &user.StoreError{Op: "decode", UserID: userID, Err: err}
	}
	rec.ID = userID
	return rec, nil
}

func (r *UserRepository) Put(ctx context.Context, rec *user.Record) error {
	doc, err := toDocument(rec)
	if err != nil {
		return &user.StoreError{Op: "encode", UserID: rec.ID, Err: err}
	}
	if _, err := r.client.Collection(r.collection).Doc(rec.ID).Set(ctx, doc); err != nil {
		return &user.StoreError{Op: "put", UserID: rec.ID, Err: err}
	}
	return nil
}

// ListIDs returns the IDs of every user document.
func (r *UserRepository) ListIDs(ctx context.Context) ([]string, error) {
	refs := r.client.Collection(r.collection).DocumentRefs(ctx)
	var ids []string
	for {
		ref, err := refs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s documents: %w", r.collection, err)
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

// toDocument converts rec to the generic map Firestore stores.
func toDocument(rec *user.Record) (map[string]any, error) {
	data, err := user.Encode(rec)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("converting record to document: %w", err)
	}
	return doc, nil
}

// fromDocument decodes a Firestore document, including documents written by
// older clients.
func fromDocument(doc map[string]any) (*user.Record, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("converting document to record: %w", err)
	}
	return user.Decode(data)
}

// Ping writes, reads back and deletes a probe document in collection.
func Ping(ctx context.Context, client *gfs.Client, collection string) error {
	ref := client.Collection(collection).Doc("connection_test")
	if _, err := ref.Set(ctx, map[string]any{
		"message":   "connection test",
		"timestamp": gfs.ServerTimestamp,
		"checkedAt": time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("firestore write failed: %w", err)
	}

	snap, err := ref.Get(ctx)
	if err != nil {
		return fmt.Errorf("firestore read failed: %w", err)
	}
	if !snap.Exists() {
		return fmt.Errorf("firestore probe document missing after write")
	}

	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("firestore cleanup failed: %w", err)
	}
	return nil
}
