package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zulandar/storeadmin/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrFetchFailed is recorded when a batch aborts because a resource could
// not be fetched at all.
var ErrFetchFailed = errors.New("Failed to fetch analytics data")

// State is a read-only view of the aggregator for rendering.
type State struct {
	Snapshot    models.AnalyticsSnapshot `json:"snapshot"`
	Loading     bool                     `json:"loading"`
	Err         error                    `json:"-"`
	Error       string                   `json:"error,omitempty"`
	LastRefresh time.Time                `json:"last_refresh"`
}

// Aggregator produces a best-effort AnalyticsSnapshot from the six
// resources. Resources reporting success are merged; a resource reporting
// failure keeps its previous value. A transport failure on any resource
// aborts the whole batch without committing anything.
type Aggregator struct {
	source Source
	logger *slog.Logger
	tracer trace.Tracer
	now    func() time.Time

	refreshes        metric.Int64Counter
	fragmentFailures metric.Int64Counter

	flight singleflight.Group

	mu          sync.Mutex
	snap        models.AnalyticsSnapshot
	loading     bool
	err         error
	lastRefresh time.Time
	subs        map[int]chan struct{}
	nextSub     int
}

// AggregatorOpts holds parameters for creating an Aggregator.
type AggregatorOpts struct {
	Source Source
	Logger *slog.Logger     // defaults to slog.Default()
	Tracer trace.Tracer     // defaults to the global tracer provider
	Meter  metric.Meter     // defaults to the global meter provider
	Clock  func() time.Time // defaults to time.Now
}

// NewAggregator creates an Aggregator with an empty snapshot.
func NewAggregator(opts AggregatorOpts) (*Aggregator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("analytics: source is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("storeadmin/analytics")
	}
	meter := opts.Meter
	if meter == nil {
		meter = otel.Meter("storeadmin/analytics")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	refreshes, err := meter.Int64Counter("storeadmin.analytics.refreshes",
		metric.WithDescription("Analytics batches run"))
	if err != nil {
		return nil, fmt.Errorf("analytics: refreshes counter: %w", err)
	}
	fragmentFailures, err := meter.Int64Counter("storeadmin.analytics.fragment_failures",
		metric.WithDescription("Resources that reported failure within a settled batch"))
	if err != nil {
		return nil, fmt.Errorf("analytics: fragment failures counter: %w", err)
	}

	return &Aggregator{
		source:           opts.Source,
		logger:           logger,
		tracer:           tracer,
		now:              clock,
		refreshes:        refreshes,
		fragmentFailures: fragmentFailures,
		subs:             make(map[int]chan struct{}),
	}, nil
}

// Refresh fetches all six resources concurrently and merges the successful
// ones into the snapshot. Calls made while a batch is outstanding join that
// batch and return its result. The returned error is nil unless the batch
// aborted on a transport failure, in which case it wraps ErrFetchFailed.
func (a *Aggregator) Refresh(ctx context.Context) error {
	_, err, _ := a.flight.Do("refresh", func() (any, error) {
		return nil, a.runBatch(ctx)
	})
	return err
}

// runBatch performs one batch: fetch everything, then commit or abort.
func (a *Aggregator) runBatch(ctx context.Context) error {
	a.mu.Lock()
	a.loading = true
	a.err = nil
	a.mu.Unlock()
	a.notify()

	ctx, span := a.tracer.Start(ctx, "analytics.refresh")
	defer span.End()
	a.refreshes.Add(ctx, 1)
	started := time.Now()

	envelopes := make([]Envelope, len(Resources))
	g, gctx := errgroup.WithContext(ctx)
	for i, r := range Resources {
		i, r := i, r
		g.Go(func() error {
			env, err := a.fetch(gctx, r)
			if err != nil {
				return fmt.Errorf("%s: %w", r, err)
			}
			envelopes[i] = env
			return nil
		})
	}
	fetchErr := g.Wait()

	if fetchErr != nil {
		err := fmt.Errorf("%w: %w", ErrFetchFailed, fetchErr)
		a.mu.Lock()
		a.loading = false
		a.err = err
		a.mu.Unlock()
		a.notify()

		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, "batch aborted")
		a.logger.Error("analytics: refresh aborted", "error", fetchErr, "elapsed", time.Since(started))
		return err
	}

	now := a.now()
	var failures []fragmentFailure
	a.mu.Lock()
	next := a.snap
	for i, r := range Resources {
		if err := applyEnvelope(&next, r, envelopes[i], now); err != nil {
			failures = append(failures, fragmentFailure{resource: r, err: err})
		}
	}
	a.snap = next
	a.lastRefresh = now
	a.loading = false
	a.mu.Unlock()
	a.notify()

	for _, f := range failures {
		a.fragmentFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("resource", string(f.resource))))
		a.logger.Warn("analytics: resource unavailable, keeping previous value",
			"resource", f.resource, "error", f.err)
	}
	span.SetAttributes(attribute.Int("analytics.failed_resources", len(failures)))
	a.logger.Info("analytics: refresh settled",
		"updated", len(Resources)-len(failures), "failed", len(failures), "elapsed", time.Since(started))
	return nil
}

type fragmentFailure struct {
	resource Resource
	err      error
}

// fetch wraps a single resource fetch in a span.
func (a *Aggregator) fetch(ctx context.Context, r Resource) (Envelope, error) {
	ctx, span := a.tracer.Start(ctx, "analytics.fetch",
		trace.WithAttributes(attribute.String("resource", string(r))))
	defer span.End()

	env, err := a.source.Fetch(ctx, r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return Envelope{}, err
	}
	span.SetAttributes(attribute.Bool("success", env.Success))
	return env, nil
}

// applyEnvelope writes the fragment for r into snap when env reports
// success and its data decodes. Otherwise snap is left untouched.
func applyEnvelope(snap *models.AnalyticsSnapshot, r Resource, env Envelope, now time.Time) error {
	switch r {
	case ResourceOverview:
		return decodeFragment(env, &snap.Overview, now)
	case ResourceSalesTrend:
		return decodeFragment(env, &snap.SalesTrend, now)
	case ResourceOrderStatus:
		return decodeFragment(env, &snap.OrderStatus, now)
	case ResourceTopProducts:
		return decodeFragment(env, &snap.TopProducts, now)
	case ResourceCategories:
		return decodeFragment(env, &snap.Categories, now)
	case ResourceInventory:
		return decodeFragment(env, &snap.Inventory, now)
	default:
		return fmt.Errorf("analytics: unknown resource %q", r)
	}
}

func decodeFragment[T any](env Envelope, dst *models.Fragment[T], now time.Time) error {
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("reported failure: %s", env.Error)
		}
		return errors.New("reported failure")
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return errors.New("success without data")
	}
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return fmt.Errorf("malformed data: %w", err)
	}
	*dst = models.Fragment[T]{Present: true, Value: v, UpdatedAt: now}
	return nil
}

// State returns a copy of the current snapshot and status.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	st := State{
		Snapshot:    a.snap,
		Loading:     a.loading,
		Err:         a.err,
		LastRefresh: a.lastRefresh,
	}
	if a.err != nil {
		st.Error = ErrFetchFailed.Error()
	}
	return st
}

// Subscribe returns a channel that receives a value after each state
// change. Notifications coalesce. The returned func unsubscribes.
func (a *Aggregator) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.mu.Unlock()

	return ch, func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

func (a *Aggregator) notify() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ch := range a.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
