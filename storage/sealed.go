package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/kbukum/flowkit/encryption"
)

// Sealed wraps a Storage so that payloads are encrypted at rest with
// ChaCha20-Poly1305. Metadata operations pass through; URLs still point
// at the sealed bytes, so consumers must download through the wrapper.
type Sealed struct {
	inner Storage
	svc   *encryption.ChaCha20Service
}

// NewSealed wraps inner with at-rest encryption.
func NewSealed(inner Storage, svc *encryption.ChaCha20Service) *Sealed {
	return &Sealed{inner: inner, svc: svc}
}

// Upload seals the payload and stores the ciphertext.
func (s *Sealed) Upload(ctx context.Context, path string, reader io.Reader) error {
	plain, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: read payload: %w", err)
	}
	sealed, err := s.svc.Seal(plain)
	if err != nil {
		return fmt.Errorf("storage: seal payload: %w", err)
	}
	return s.inner.Upload(ctx, path, bytes.NewReader(sealed))
}

// Download retrieves the ciphertext and returns the opened payload.
// Tampered artifacts fail authentication here.
func (s *Sealed) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	rc, err := s.inner.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close() //nolint:errcheck // fully drained below

	sealed, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("storage: read sealed payload: %w", err)
	}
	plain, err := s.svc.Open(sealed)
	if err != nil {
		return nil, fmt.Errorf("storage: open sealed payload: %w", err)
	}
	return io.NopCloser(bytes.NewReader(plain)), nil
}

// Delete removes the object at the given path.
func (s *Sealed) Delete(ctx context.Context, path string) error {
	return s.inner.Delete(ctx, path)
}

// Exists checks whether an object exists at the given path.
func (s *Sealed) Exists(ctx context.Context, path string) (bool, error) {
	return s.inner.Exists(ctx, path)
}

// URL returns the inner backend's URL for the sealed object.
func (s *Sealed) URL(ctx context.Context, path string) (string, error) {
	return s.inner.URL(ctx, path)
}

// List returns metadata for all objects whose path starts with prefix.
// Sizes reflect the sealed payloads.
func (s *Sealed) List(ctx context.Context, prefix string) ([]FileInfo, error) {
	return s.inner.List(ctx, prefix)
}

// compile-time check
var _ Storage = (*Sealed)(nil)
