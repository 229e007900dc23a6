package cli

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	jobTracer      = otel.Tracer("fintrack/admin")
	jobMeter       = otel.Meter("fintrack/admin")
	jobDuration, _ = jobMeter.Float64Histogram("admin.job.duration", metric.WithDescription("Per-user job duration in seconds"), metric.WithUnit("s"))
	jobTotal, _    = jobMeter.Int64Counter("admin.job.total", metric.WithDescription("Per-user jobs executed by status"))
)

// runBatch runs fn for every user with at most workers in flight. Users not
// started before ctx is done get ctx.Err().
func runBatch(ctx context.Context, userIDs []string, workers int, name string, fn func(ctx context.Context, userID string) error) map[string]error {
	if workers < 1 {
		workers = 1
	}

	results := make(map[string]error, len(userIDs))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

	for _, id := range userIDs {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				results[uid] = ctx.Err()
				mu.Unlock()
				return
			}

			err := runJob(ctx, name, uid, fn)

			mu.Lock()
			results[uid] = err
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return results
}

func runJob(ctx context.Context, name, userID string, fn func(ctx context.Context, userID string) error) error {
	ctx, span := jobTracer.Start(ctx, "admin."+name,
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx, userID)
	jobDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("job", name)))

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	jobTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("job", name), attribute.String("status", status)))
	return err
}
