package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// LocalStorage keeps objects on the local filesystem. Files are served back
// through the /files route under baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
	log      zerolog.Logger
}

// NewLocalStorage creates the base directory and returns the backend.
func NewLocalStorage(basePath, baseURL string, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("STORAGE_LOCAL_PATH is required for the local backend")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	storage := &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSpace(baseURL),
		log:      logger,
	}
	logger.Info().
		Str("path", basePath).
		Str("base_url", storage.baseURL).
		Msg("local storage initialized")
	return storage, nil
}

// Backend implements ObjectStore.
func (l *LocalStorage) Backend() string { return "local" }

// Put writes body to a temporary file and renames it into place, so readers
// never observe a partial object.
func (l *LocalStorage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	fullPath, key, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := filepath.Join(filepath.Dir(fullPath), ".tmp-"+newULID())
	file, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && ctx.Err() != nil {
		copyErr = ctx.Err()
	}
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write file: %w", copyErr)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	l.log.Debug().
		Str("key", key).
		Int64("bytes", written).
		Str("content_type", contentType).
		Msg("file stored")
	return l.url(key), nil
}

// Delete implements ObjectStore. A missing object yields ErrNotFound.
func (l *LocalStorage) Delete(_ context.Context, key string) error {
	fullPath, _, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Open implements ObjectStore.
func (l *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	fullPath, _, err := l.resolve(key)
	if err != nil {
		return nil, "", err
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(fullPath))
	if contentType == "" {
		if sniffed, err := mimetype.DetectFile(fullPath); err == nil {
			contentType = sniffed.String()
		}
	}
	return file, contentType, nil
}

// Health checks that the storage directory is writable.
func (l *LocalStorage) Health(_ context.Context) error {
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}

func (l *LocalStorage) resolve(key string) (string, string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(l.basePath, filepath.FromSlash(key)), key, nil
}

func (l *LocalStorage) url(key string) string {
	if l.baseURL == "" {
		return "file://" + filepath.Join(l.basePath, filepath.FromSlash(key))
	}
	return joinURL(l.baseURL, key)
}
