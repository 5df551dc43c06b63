package ledger

import (
	"time"

	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Option configures a Poster or Service
type Option func(*options)

type options struct {
	now     func() time.Time
	logger  *zap.Logger
	metrics *telemetry.FinanceMetrics
}

// WithClock overrides the time source used to stamp transactions
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

// WithMetrics enables ledger counters
func WithMetrics(m *telemetry.FinanceMetrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
