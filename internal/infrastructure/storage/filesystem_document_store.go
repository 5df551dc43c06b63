package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	appfinance "github.com/restoreops/backend/internal/application/finance"
	"github.com/restoreops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// FileSystemDocumentStore copies documents into a directory as <id><ext>
type FileSystemDocumentStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewFileSystemDocumentStore creates the directory if needed
func NewFileSystemDocumentStore(baseDir string, opts ...Option) (*FileSystemDocumentStore, error) {
	if baseDir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	o := applyOptions(opts)
	return &FileSystemDocumentStore{baseDir: baseDir, logger: o.logger}, nil
}

// CreateFromFile copies the file at path into the store
func (s *FileSystemDocumentStore) CreateFromFile(ctx context.Context, path string) (uuid.UUID, error) {
	src, err := os.Open(path)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer src.Close()

	id := shared.NewID()
	target := filepath.Join(s.baseDir, id.String()+filepath.Ext(path))

	// Write to a temp file first so a half-copied document is never visible
	tmp, err := os.CreateTemp(s.baseDir, ".upload-*")
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create document file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return uuid.Nil, fmt.Errorf("failed to copy document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return uuid.Nil, fmt.Errorf("failed to close document file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return uuid.Nil, fmt.Errorf("failed to store document: %w", err)
	}

	s.logger.Debug("document stored", zap.String("document_id", id.String()), zap.String("path", target))
	return id, nil
}

// Delete removes every file stored under documentID. Without force a
// missing document is an error.
func (s *FileSystemDocumentStore) Delete(ctx context.Context, documentID uuid.UUID, force bool) error {
	matches, err := s.find(documentID)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		if force {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	s.logger.Debug("document deleted", zap.String("document_id", documentID.String()))
	return nil
}

// Path returns where documentID is stored, or "" when it is not
func (s *FileSystemDocumentStore) Path(documentID uuid.UUID) (string, error) {
	matches, err := s.find(documentID)
	if err != nil || len(matches) == 0 {
		return "", err
	}
	return matches[0], nil
}

func (s *FileSystemDocumentStore) find(documentID uuid.UUID) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, documentID.String()+"*"))
	if err != nil {
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}
	return matches, nil
}

var _ appfinance.DocumentStore = (*FileSystemDocumentStore)(nil)
