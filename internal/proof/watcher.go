package proof

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ShayCichocki/ninegate/internal/events"
	"github.com/ShayCichocki/ninegate/internal/logging"
	"github.com/ShayCichocki/ninegate/internal/state"
)

// Watcher marks proof artifacts unverified when their evidence files
// change on disk. A verified verdict is only as good as the file it
// judged, so any write or removal after validation invalidates it.
type Watcher struct {
	store     state.ArtifactStore
	publisher events.Publisher
	logger    *logging.DebugLogger

	fw *fsnotify.Watcher

	mu sync.Mutex
	// byPath maps an absolute evidence file path to the artifact IDs
	// backed by it.
	byPath map[string][]string
}

// NewWatcher builds a Watcher. Call Run to start processing events and
// Close to release the underlying OS watches.
func NewWatcher(store state.ArtifactStore, publisher events.Publisher, logger *logging.DebugLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Watcher{
		store:     store,
		publisher: publisher,
		logger:    logger,
		fw:        fw,
		byPath:    make(map[string][]string),
	}, nil
}

// Track watches the evidence file behind an artifact. The path must be
// absolute; the containing directory is watched so removals and renames
// are observed too.
func (w *Watcher) Track(artifactID, absPath string) error {
	if !filepath.IsAbs(absPath) {
		return fmt.Errorf("watch path must be absolute: %s", absPath)
	}

	w.mu.Lock()
	w.byPath[absPath] = append(w.byPath[absPath], artifactID)
	w.mu.Unlock()

	// Watching the directory rather than the file survives editors that
	// replace files via rename.
	if err := w.fw.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch %s: %w", absPath, err)
	}
	return nil
}

// Run processes file events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename|fsnotify.Create) != 0 {
				w.invalidate(ctx, event.Name)
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Log("watcher: %v", err)
		}
	}
}

// invalidate clears the verified flag on every artifact backed by path.
func (w *Watcher) invalidate(ctx context.Context, path string) {
	w.mu.Lock()
	ids := w.byPath[path]
	w.mu.Unlock()

	for _, id := range ids {
		artifact, err := w.store.GetArtifact(id)
		if err != nil || artifact == nil {
			continue
		}
		if !artifact.Verified {
			continue
		}
		artifact.Verified = false
		if err := w.store.UpdateArtifact(artifact); err != nil {
			w.logger.Log("watcher: mark stale %s: %v", id, err)
			continue
		}
		w.logger.Log("watcher: artifact %s stale (file changed: %s)", id, path)
		_ = w.publisher.Publish(ctx, events.TopicProofStale, events.ProofStale{
			ArtifactID: id,
			FilePath:   artifact.FilePath,
		})
	}
}

// Close stops the underlying file watcher.
func (w *Watcher) Close() error {
	return w.fw.Close()
}
