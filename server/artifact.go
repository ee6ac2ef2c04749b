package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/kbukum/flowkit/graph"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/pipeline"
)

// ServedPipeline is the untyped fitted pipeline a scoring server hosts;
// request payloads arrive as decoded JSON values.
type ServedPipeline = pipeline.FittedPipeline[any, any]

// Artifact holds the currently served pipeline behind an atomic
// pointer. Reload decodes a new artifact and swaps it in; a failed
// reload keeps the previous pipeline.
type Artifact struct {
	path     string
	registry *graph.Registry
	current  atomic.Pointer[ServedPipeline]
	log      *logger.Logger
}

// LoadArtifact decodes the fitted-pipeline artifact at path.
func LoadArtifact(path string, registry *graph.Registry, log *logger.Logger) (*Artifact, error) {
	a := &Artifact{
		path:     path,
		registry: registry,
		log:      log.WithComponent("artifact"),
	}
	if err := a.Reload(); err != nil {
		return nil, err
	}
	return a, nil
}

// Pipeline returns the currently served pipeline.
func (a *Artifact) Pipeline() *ServedPipeline {
	return a.current.Load()
}

// CheckHealth reports the artifact as up when a pipeline is loaded.
func (a *Artifact) CheckHealth(_ context.Context) observability.Health {
	fp := a.current.Load()
	if fp == nil {
		return observability.Down("artifact", "no pipeline loaded")
	}
	return observability.Up("artifact", map[string]string{
		"path":  a.path,
		"nodes": fmt.Sprintf("%d", len(fp.Graph().Graph().Nodes)),
	})
}

// Path returns the artifact file path.
func (a *Artifact) Path() string {
	return a.path
}

// Reload re-reads and decodes the artifact, swapping it in atomically
// on success.
func (a *Artifact) Reload() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", a.path, err)
	}
	fp, err := pipeline.Decode[any, any](data, a.registry)
	if err != nil {
		return fmt.Errorf("decode artifact %s: %w", a.path, err)
	}
	a.current.Store(fp)
	a.log.Info("pipeline artifact loaded", map[string]interface{}{
		"path":  a.path,
		"nodes": len(fp.Graph().Graph().Nodes),
	})
	return nil
}

// Watch reloads the artifact whenever the file changes, until ctx is
// canceled. The watch is on the containing directory, not the file:
// atomic updates replace the file by rename (the way FetchArtifact
// writes), which swaps the inode and would orphan a watch on the file
// itself. Failed reloads are logged and the previous pipeline stays in
// service.
func (a *Artifact) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch artifact: %w", err)
	}
	dir := filepath.Dir(a.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close() //nolint:errcheck // already failing
		return fmt.Errorf("watch artifact directory %s: %w", dir, err)
	}
	base := filepath.Base(a.path)

	go func() {
		defer watcher.Close() //nolint:errcheck // shutdown path

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				// Create covers rename-over, which surfaces as a
				// creation of the target name in the watched directory.
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := a.Reload(); err != nil {
					a.log.Error("artifact reload failed, keeping previous pipeline", map[string]interface{}{
						logger.FieldError: err.Error(),
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				a.log.Error("artifact watcher error", map[string]interface{}{
					logger.FieldError: err.Error(),
				})
			}
		}
	}()

	return nil
}
