package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kbukum/flowkit/storage"
)

// FetchArtifact downloads a pipeline artifact from a storage backend to
// a local path, from where LoadArtifact (and the fsnotify watcher) can
// pick it up. The write is atomic: the artifact lands under a temp name
// and is renamed into place, so a concurrent watcher never reads a
// partial file.
func FetchArtifact(ctx context.Context, store storage.Storage, key, destPath string) error {
	rc, err := store.Download(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch artifact %s: %w", key, err)
	}
	defer rc.Close() //nolint:errcheck // fully drained below

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return fmt.Errorf("fetch artifact: create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".artifact-*")
	if err != nil {
		return fmt.Errorf("fetch artifact: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close() //nolint:errcheck // already failing
		return fmt.Errorf("fetch artifact: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("fetch artifact: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), destPath); err != nil {
		return fmt.Errorf("fetch artifact: rename into place: %w", err)
	}
	return nil
}
