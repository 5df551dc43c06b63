package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// DefaultSweepInterval is how often the in-memory store drops expired keys
const DefaultSweepInterval = 5 * time.Minute

// IdempotencyStore is a closable appfinance.IdempotencyStore
type IdempotencyStore interface {
	appfinance.IdempotencyStore
	io.Closer
}

// FactoryOption configures NewIdempotencyStore
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger used to report the chosen store
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(o *factoryOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// the in-memory store. Defaults to true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(o *factoryOptions) { o.allowInMemoryFallback = allow }
}

// NewIdempotencyStore returns a Redis store when Redis is enabled and
// reachable, otherwise an in-memory one.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (IdempotencyStore, error) {
	o := factoryOptions{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(&o)
	}

	if !cfg.Enabled {
		o.logger.Info("redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(DefaultSweepInterval), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	if err == nil {
		o.logger.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !o.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}
	o.logger.Warn("redis unavailable, falling back to in-memory idempotency store; "+
		"capture callbacks are deduplicated per instance only",
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(DefaultSweepInterval), nil
}
