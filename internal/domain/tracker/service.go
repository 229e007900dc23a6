package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"fintrack/internal/domain/budget"
	"fintrack/internal/domain/ledger"
	"fintrack/internal/domain/user"
	"fintrack/internal/domain/validation"
)

var (
	trackerTracer      = otel.Tracer("fintrack/tracker")
	trackerMeter       = otel.Meter("fintrack/tracker")
	budgetDecisions, _ = trackerMeter.Int64Counter("budget.projection.total",
		metric.WithDescription("Expense projections by outcome"),
	)
	budgetLockRejections, _ = trackerMeter.Int64Counter("budget.lock.rejected.total",
		metric.WithDescription("Monthly budget edits rejected by the lock"),
	)
	skippedEntries, _ = trackerMeter.Int64Counter("ledger.entries.skipped",
		metric.WithDescription("Malformed transaction entries skipped during aggregation"),
	)
)

// IdentityProvider creates login identities for new users.
type IdentityProvider interface {
	Create(ctx context.Context, email, password string) (string, error)
}

// Service runs every user-facing operation as one read-modify-write cycle
// against the user's record.
type Service struct {
	repo     user.Repository
	locks    *user.Locker
	engine   *budget.LockEngine
	identity IdentityProvider
	now      func() time.Time
	newID    func() string
}

// NewService creates a new tracker service
func NewService(repo user.Repository, engine *budget.LockEngine) *Service {
	if engine == nil {
		engine = budget.NewLockEngine(false)
	}
	return &Service{
		repo:   repo,
		locks:  user.NewLocker(),
		engine: engine,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SetIdentityProvider sets the provider used by Register.
func (s *Service) SetIdentityProvider(p IdentityProvider) {
	s.identity = p
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// load returns the stored record, or a fresh default record when the user has
// none yet.
func (s *Service) load(ctx context.Context, userID string) (*user.Record, error) {
	rec, err := s.repo.Get(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return user.New(userID, "", "", s.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading user record: %w", err)
	}
	return rec, nil
}

// update loads the record under the user's lock, applies fn and persists the
// result. Nothing is written when fn fails.
func (s *Service) update(ctx context.Context, op, userID string, fn func(rec *user.Record, now time.Time) error) error {
	if userID == "" {
		return validation.New("userID", "user id is required")
	}
	ctx, span := trackerTracer.Start(ctx, "tracker."+op,
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	unlock := s.locks.Lock(userID)
	defer unlock()

	rec, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}

	now := s.now()
	if err := fn(rec, now); err != nil {
		span.SetAttributes(attribute.String("tracker.rejected", err.Error()))
		return err
	}

	rec.UpdatedAt = now
	if err := s.repo.Put(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return fmt.Errorf("saving user record: %w", err)
	}
	return nil
}

// view loads the record for a read-only operation.
func (s *Service) view(ctx context.Context, op, userID string, fn func(rec *user.Record, now time.Time) error) error {
	if userID == "" {
		return validation.New("userID", "user id is required")
	}
	ctx, span := trackerTracer.Start(ctx, "tracker."+op,
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	rec, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}
	return fn(rec, s.now())
}

// parse returns the well-formed transactions of rec, logging the rest.
func (s *Service) parse(ctx context.Context, rec *user.Record) []ledger.Transaction {
	txs, skipped := ledger.ParseAll(rec.Transactions)
	s.reportSkipped(ctx, rec.ID, skipped)
	return txs
}

func (s *Service) reportSkipped(ctx context.Context, userID string, skipped []*ledger.ParseError) {
	if len(skipped) == 0 {
		return
	}
	for _, pe := range skipped {
		log.Printf("Skipping malformed transaction for user %s: %v", userID, pe)
	}
	skippedEntries.Add(ctx, int64(len(skipped)))
}

// Normalize rewrites the stored record in normalized form.
func (s *Service) Normalize(ctx context.Context, userID string) (*user.Record, error) {
	var out *user.Record
	err := s.update(ctx, "Normalize", userID, func(rec *user.Record, _ time.Time) error {
		out = user.Normalize(rec)
		return nil
	})
	return out, err
}
