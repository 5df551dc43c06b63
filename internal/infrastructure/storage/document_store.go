// Package storage keeps rendered financial documents in object storage or
// on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"strings"

	appfinance "github.com/restoreops/backend/internal/application/finance"
	infraconfig "github.com/restoreops/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Storage backends
const (
	BackendS3         = "s3"
	BackendFilesystem = "filesystem"
)

// ErrDocumentNotFound is returned by a non-forced delete of a missing document
var ErrDocumentNotFound = errors.New("document not found")

// Option configures a document store
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used by the store
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewDocumentStore builds the store selected by cfg.Backend. An empty
// backend means the filesystem.
func NewDocumentStore(cfg *infraconfig.StorageConfig, opts ...Option) (appfinance.DocumentStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	switch strings.ToLower(cfg.Backend) {
	case BackendS3:
		return NewS3DocumentStore(cfg, opts...)
	case BackendFilesystem, "":
		return NewFileSystemDocumentStore(cfg.Directory, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
