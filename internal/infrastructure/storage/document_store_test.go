package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/restoreops/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 is a path-style S3 endpoint holding objects in memory
type fakeS3 struct {
	mu            sync.Mutex
	bucket        string
	bucketCreated bool
	objects       map[string][]byte
	contentTypes  map[string]string
}

func newFakeS3(t *testing.T, bucket string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{
		bucket:       bucket,
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == f.bucket {
		switch r.Method {
		case http.MethodHead:
			if !f.bucketCreated {
				w.WriteHeader(http.StatusNotFound)
				return
			}
		case http.MethodPut:
			f.bucketCreated = true
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	key := strings.TrimPrefix(path, f.bucket+"/")
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.contentTypes[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) object(key string) ([]byte, string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, f.contentTypes[key], ok
}

func writeDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewS3DocumentStore_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr string
	}{
		{"nil config", nil, "configuration is required"},
		{"missing bucket", &config.StorageConfig{AccessKey: "k", SecretKey: "s"}, "bucket is required"},
		{"missing access key", &config.StorageConfig{Bucket: "b", SecretKey: "s"}, "access key is required"},
		{"missing secret key", &config.StorageConfig{Bucket: "b", AccessKey: "k"}, "secret key is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewS3DocumentStore(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid config", func(t *testing.T) {
		store, err := NewS3DocumentStore(&config.StorageConfig{
			Bucket:    "documents",
			AccessKey: "k",
			SecretKey: "s",
			Endpoint:  "localhost:9000",
		})
		require.NoError(t, err)
		assert.Equal(t, "documents", store.bucket)
	})
}

func newTestS3Store(t *testing.T) (*S3DocumentStore, *fakeS3) {
	t.Helper()
	fake, srv := newFakeS3(t, "documents")
	store, err := NewS3DocumentStore(&config.StorageConfig{
		Bucket:    "documents",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		Endpoint:  srv.URL,
		KeyPrefix: "rendered/",
	}, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	return store, fake
}

func TestS3DocumentStore_EnsureBucket(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureBucket(ctx))
	fake.mu.Lock()
	assert.True(t, fake.bucketCreated)
	fake.mu.Unlock()
	require.NoError(t, store.EnsureBucket(ctx))
}

func TestS3DocumentStore_CreateAndDelete(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := context.Background()
	path := writeDocument(t, "invoice.pdf", "%PDF-1.4 invoice")

	id, err := store.CreateFromFile(ctx, path)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	data, contentType, ok := fake.object("rendered/" + id.String())
	require.True(t, ok)
	assert.Equal(t, "%PDF-1.4 invoice", string(data))
	assert.Equal(t, "application/pdf", contentType)

	require.NoError(t, store.Delete(ctx, id, false))
	_, _, ok = fake.object("rendered/" + id.String())
	assert.False(t, ok)
}

func TestS3DocumentStore_Delete_Missing(t *testing.T) {
	store, _ := newTestS3Store(t)
	ctx := context.Background()
	id := uuid.New()

	err := store.Delete(ctx, id, false)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	assert.NoError(t, store.Delete(ctx, id, true))
}

func TestS3DocumentStore_CreateFromFile_MissingFile(t *testing.T) {
	store, _ := newTestS3Store(t)
	_, err := store.CreateFromFile(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document")
}

func TestFileSystemDocumentStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileSystemDocumentStore(filepath.Join(t.TempDir(), "docs"))
	require.NoError(t, err)

	path := writeDocument(t, "credit-note.pdf", "%PDF-1.4 credit")
	id, err := store.CreateFromFile(ctx, path)
	require.NoError(t, err)

	stored, err := store.Path(id)
	require.NoError(t, err)
	assert.Equal(t, id.String()+".pdf", filepath.Base(stored))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 credit", string(data))

	// the source file is left alone
	_, err = os.Stat(path)
	assert.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id, false))
	stored, err = store.Path(id)
	require.NoError(t, err)
	assert.Empty(t, stored)

	assert.ErrorIs(t, store.Delete(ctx, id, false), ErrDocumentNotFound)
	assert.NoError(t, store.Delete(ctx, id, true))
}

func TestNewDocumentStore(t *testing.T) {
	t.Run("filesystem", func(t *testing.T) {
		store, err := NewDocumentStore(&config.StorageConfig{Backend: "filesystem", Directory: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &FileSystemDocumentStore{}, store)
	})

	t.Run("s3", func(t *testing.T) {
		store, err := NewDocumentStore(&config.StorageConfig{
			Backend: "S3", Bucket: "b", AccessKey: "k", SecretKey: "s",
		})
		require.NoError(t, err)
		assert.IsType(t, &S3DocumentStore{}, store)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewDocumentStore(&config.StorageConfig{Backend: "ftp"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage backend")
	})

	t.Run("filesystem without directory", func(t *testing.T) {
		_, err := NewDocumentStore(&config.StorageConfig{Backend: "filesystem"})
		require.Error(t, err)
	})
}
