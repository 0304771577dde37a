// Package storage abstracts where uploaded file payloads live. Jobs
// carry storage keys, not bytes; this package resolves a key back to
// readable content, either from a local directory or an S3-compatible
// bucket.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccsmith33/GroupProject2-sub001/pkg/config"
)

// Store reads and writes upload payloads by key.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error

	// Localize resolves a key to a path on the local filesystem that
	// extractors can open. The returned cleanup releases any temporary
	// copy; it is never nil.
	Localize(ctx context.Context, key string) (string, func(), error)
}

// NewStore builds the configured backend.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case config.StorageBackendLocal:
		return NewLocalStore(cfg.Path)
	case config.StorageBackendS3:
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}

// LocalStore keeps payloads under a base directory. Keys are relative
// paths; traversal outside the base directory is rejected.
type LocalStore struct {
	base string
}

func NewLocalStore(base string) (*LocalStore, error) {
	if base == "" {
		return nil, fmt.Errorf("local storage path must not be empty")
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{base: base}, nil
}

func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage key must not be empty")
	}
	path := filepath.Join(s.base, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("storage key escapes base directory: %s", key)
	}
	return path, nil
}

func (s *LocalStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *LocalStore) Download(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Localize is free for local storage: the payload is already a file.
func (s *LocalStore) Localize(_ context.Context, key string) (string, func(), error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", func() {}, err
	}
	if _, err := os.Stat(path); err != nil {
		return "", func() {}, fmt.Errorf("file not found in storage: %w", err)
	}
	return path, func() {}, nil
}
