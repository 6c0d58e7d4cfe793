package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/fs"
)

// watch tests run against the real filesystem: fsnotify needs actual inotify
// events, so mocks don't apply here.

func newWatchHarness(t *testing.T) (*Watcher, *countingScanner, *dedupe.Path, string) {
	t.Helper()
	scanner := newCountingScanner()
	pool := NewPool(scanner, dedupe.NewNopLogger(), 2)
	fsmgr := fs.NewOSFilesystemManager(nil)
	watcher := NewWatcher(pool, fsmgr, dedupe.NewNopLogger(), 0)

	dir := t.TempDir()
	root, err := fsmgr.Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return watcher, scanner, root, dir
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatchScansCreatedFile(t *testing.T) {
	watcher, scanner, root, dir := newWatchHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx, root) }()

	// Give the watcher a moment to register before generating events.
	time.Sleep(50 * time.Millisecond)

	target := filepath.Join(dir, "new.jpg")
	if err := os.WriteFile(target, []byte("jpeg"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return scanner.count(target) >= 1 }) {
		t.Error("created file was never scanned")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not drain after cancel")
	}
}

func TestWatchFollowsNewDirectories(t *testing.T) {
	watcher, scanner, root, dir := newWatchHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx, root) }()

	time.Sleep(50 * time.Millisecond)

	sub := filepath.Join(dir, "incoming")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	// The new directory must be picked up before the file lands in it.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(sub, "late.pdf")
	if err := os.WriteFile(target, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return scanner.count(target) >= 1 }) {
		t.Error("file in newly created directory was never scanned")
	}

	cancel()
	<-done
}

func TestWatchRejectsFileRoot(t *testing.T) {
	watcher, _, _, dir := newWatchHarness(t)

	file := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	fsmgr := fs.NewOSFilesystemManager(nil)
	path, err := fsmgr.Resolve(file)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if err := watcher.Watch(context.Background(), path); err == nil {
		t.Error("expected error watching a plain file")
	}
}
