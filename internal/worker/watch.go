package worker

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
)

// Watcher follows a directory tree and fingerprints files as they appear or
// change. Directories created while watching are added to the watch set.
type Watcher struct {
	pool      *Pool
	fsmgr     dedupe.FilesystemManager
	logger    dedupe.Logger
	heartbeat time.Duration
}

// NewWatcher creates a watcher on top of an existing pool. heartbeat is the
// interval between liveness log lines; zero disables them.
func NewWatcher(pool *Pool, fsmgr dedupe.FilesystemManager, logger dedupe.Logger, heartbeat time.Duration) *Watcher {
	return &Watcher{
		pool:      pool,
		fsmgr:     fsmgr,
		logger:    logger,
		heartbeat: heartbeat,
	}
}

// Watch blocks until ctx is cancelled, scanning files on Create and Write
// events under root. In-flight scans are drained before returning.
func (w *Watcher) Watch(ctx context.Context, root *dedupe.Path) error {
	if !root.IsDir() {
		return fmt.Errorf("watch root is not a directory: %s", root.String())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, root.String()); err != nil {
		return err
	}

	var ticker *time.Ticker
	var heartbeats <-chan time.Time
	if w.heartbeat > 0 {
		ticker = time.NewTicker(w.heartbeat)
		defer ticker.Stop()
		heartbeats = ticker.C
	}

	sem := w.pool.NewSlots()
	var wg sync.WaitGroup

	var mu sync.Mutex
	summary := Summary{}

	w.logger.Info("watching", "root", root.String())

	for {
		select {
		case <-ctx.Done():
			// Stop taking events, let running scans finish.
			wg.Wait()
			w.logger.Info("watch finished",
				"scanned", summary.Scanned, "failed", summary.Failed)
			return ctx.Err()

		case <-heartbeats:
			mu.Lock()
			w.logger.Info("watch heartbeat",
				"scanned", summary.Scanned, "failed", summary.Failed)
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				wg.Wait()
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case event, ok := <-watcher.Events:
			if !ok {
				wg.Wait()
				return nil
			}
			w.handleEvent(ctx, watcher, event, sem, &wg, &mu, &summary)
		}
	}
}

// handleEvent reacts to one filesystem event. Only Create and Write matter:
// removals and renames leave the stored fingerprint as a historical record.
func (w *Watcher) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, sem chan struct{}, wg *sync.WaitGroup, mu *sync.Mutex, summary *Summary) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}

	path, err := w.fsmgr.Resolve(event.Name)
	if err != nil {
		// The file may be gone already; transient paths are normal under
		// editors that write via rename.
		w.logger.Debug("event path not resolvable", "path", event.Name, "error", err)
		return
	}

	if path.IsDir() {
		if event.Op.Has(fsnotify.Create) {
			if err := addTree(watcher, path.String()); err != nil {
				w.logger.Error("watching new directory", "path", path.String(), "error", err)
			}
		}
		return
	}

	w.pool.Dispatch(ctx, path, sem, wg, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			summary.Failed++
		} else {
			summary.Scanned++
		}
	})
}

// addTree registers root and every directory below it with the watcher.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
