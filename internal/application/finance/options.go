package finance

import (
	"context"
	"time"

	ledgerapp "github.com/restoreops/backend/internal/application/ledger"
	"github.com/restoreops/backend/internal/domain/shared"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultCaptureIdempotencyTTL is how long a processed capture callback key is remembered
const DefaultCaptureIdempotencyTTL = 72 * time.Hour

// Option configures the finance services
type Option func(*options)

type options struct {
	now        func() time.Time
	logger     *zap.Logger
	metrics    *telemetry.FinanceMetrics
	publisher  shared.EventPublisher
	hooks      LifecycleHooks
	renderer   DocumentRenderer
	store      DocumentStore
	captureTTL time.Duration
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics enables finance counters
func WithMetrics(m *telemetry.FinanceMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithEventPublisher sets the publisher used for domain events. Lifecycle
// services without explicit hooks publish entity events through it.
func WithEventPublisher(publisher shared.EventPublisher) Option {
	return func(o *options) { o.publisher = publisher }
}

// WithHooks replaces the lifecycle hooks
func WithHooks(hooks LifecycleHooks) Option {
	return func(o *options) { o.hooks = hooks }
}

// WithDocuments enables document generation
func WithDocuments(renderer DocumentRenderer, store DocumentStore) Option {
	return func(o *options) {
		o.renderer = renderer
		o.store = store
	}
}

// WithCaptureIdempotencyTTL sets how long capture callbacks are deduplicated
func WithCaptureIdempotencyTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.captureTTL = ttl
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:        time.Now,
		logger:     zap.NewNop(),
		captureTTL: DefaultCaptureIdempotencyTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.hooks == nil {
		o.hooks = NewEventHooks(o.publisher, o.logger)
	}
	return o
}

func (o options) ledgerOptions() []ledgerapp.Option {
	return []ledgerapp.Option{
		ledgerapp.WithClock(o.now),
		ledgerapp.WithLogger(o.logger),
		ledgerapp.WithMetrics(o.metrics),
	}
}

func (o options) poster(repos TransactionalRepositories) *ledgerapp.Poster {
	return ledgerapp.NewPoster(repos.LedgerTransactionRepo(), o.ledgerOptions()...)
}

func (o options) publish(ctx context.Context, events ...shared.DomainEvent) {
	if o.publisher == nil || len(events) == 0 {
		return
	}
	if err := o.publisher.Publish(ctx, events...); err != nil {
		o.logger.Warn("failed to publish events", zap.Error(err))
	}
}
