package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"ruleout-server/internal/config"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// ObjectStore is a flat key/value blob store that hands out public URLs.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Health(ctx context.Context) error
	Backend() string
}

// OpObserver is told about every storage call.
type OpObserver func(backend, op string, err error, elapsed time.Duration)

// New builds the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ObjectStore, error) {
	if cfg.IsLocalStorage() {
		return NewLocalStorage(cfg.StorageLocalPath, cfg.StoragePublicBaseURL, log)
	}
	return NewS3Storage(ctx, S3Config{
		Bucket:        cfg.S3Bucket,
		Region:        cfg.S3Region,
		Endpoint:      cfg.S3Endpoint,
		AccessKeyID:   cfg.S3AccessKeyID,
		SecretKey:     cfg.S3SecretAccessKey,
		UsePathStyle:  cfg.S3UsePathStyle,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}, log)
}

// Instrument wraps store so every call is reported to observe.
func Instrument(store ObjectStore, observe OpObserver) ObjectStore {
	if observe == nil {
		return store
	}
	return &instrumented{ObjectStore: store, observe: observe}
}

type instrumented struct {
	ObjectStore
	observe OpObserver
}

func (i *instrumented) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	start := time.Now()
	url, err := i.ObjectStore.Put(ctx, key, contentType, body, size)
	i.observe(i.Backend(), "put", err, time.Since(start))
	return url, err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := i.ObjectStore.Delete(ctx, key)
	i.observe(i.Backend(), "delete", err, time.Since(start))
	return err
}

func (i *instrumented) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	start := time.Now()
	rc, contentType, err := i.ObjectStore.Open(ctx, key)
	i.observe(i.Backend(), "open", err, time.Since(start))
	return rc, contentType, err
}

// CleanKey validates an object key and returns its canonical form.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.Contains(key, `\`) {
		return "", fmt.Errorf("%w: %q contains a backslash", ErrInvalidKey, key)
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q is not canonical", ErrInvalidKey, key)
	}
	return cleaned, nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// newULID returns a lowercase, time-ordered unique token.
func newULID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String())
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
