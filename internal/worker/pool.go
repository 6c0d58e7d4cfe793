package worker

import (
	"context"
	"sync"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
)

// FileScanner is the part of the scan service the pool drives.
type FileScanner interface {
	ScanFile(ctx context.Context, path *dedupe.Path) (*model.FileRecord, error)
}

// Summary counts the outcome of one tree scan or one watch session.
type Summary struct {
	Scanned int
	Failed  int
	Skipped int
}

// Pool fans file fingerprinting out over a bounded number of goroutines.
// Concurrent work on the same path is serialized: a path already in flight
// is re-queued once its current scan finishes, so the newest content always
// wins without two scans racing on one row.
type Pool struct {
	scanner     FileScanner
	logger      dedupe.Logger
	concurrency int

	mu       sync.Mutex
	inflight map[string]bool // path -> rescan wanted
}

// NewPool creates a pool. concurrency values below 1 are treated as 1.
func NewPool(scanner FileScanner, logger dedupe.Logger, concurrency int) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		scanner:     scanner,
		logger:      logger,
		concurrency: concurrency,
		inflight:    make(map[string]bool),
	}
}

// ScanAll fingerprints every path with at most the configured number of
// scans running at once. It drains fully even when individual files fail,
// and stops dispatching new work once ctx is cancelled.
func (p *Pool) ScanAll(ctx context.Context, paths []*dedupe.Path) *Summary {
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	summary := &Summary{}

	for _, path := range paths {
		if ctx.Err() != nil {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(path *dedupe.Path) {
			defer wg.Done()
			defer func() { <-sem }()

			err := p.scanOne(ctx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
			} else {
				summary.Scanned++
			}
		}(path)
	}

	wg.Wait()
	return summary
}

// Dispatch runs one scan asynchronously, acquiring a slot from sem and
// marking wg. Used by the watcher, which has no finite path list to drain.
func (p *Pool) Dispatch(ctx context.Context, path *dedupe.Path, sem chan struct{}, wg *sync.WaitGroup, onDone func(error)) {
	sem <- struct{}{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { <-sem }()
		onDone(p.scanOne(ctx, path))
	}()
}

// NewSlots returns a semaphore channel sized to the pool's concurrency, for
// callers driving Dispatch directly.
func (p *Pool) NewSlots() chan struct{} {
	return make(chan struct{}, p.concurrency)
}

// scanOne serializes scans per path. If the path is already being scanned,
// the call marks it for a single follow-up scan and returns.
func (p *Pool) scanOne(ctx context.Context, path *dedupe.Path) error {
	key := path.String()

	p.mu.Lock()
	if _, busy := p.inflight[key]; busy {
		p.inflight[key] = true // rescan once the current pass finishes
		p.mu.Unlock()
		return nil
	}
	p.inflight[key] = false
	p.mu.Unlock()

	for {
		_, err := p.scanner.ScanFile(ctx, path)
		if err != nil {
			p.logger.Error("scan failed", "path", key, "error", err)
		}

		p.mu.Lock()
		rescan := p.inflight[key]
		if !rescan {
			delete(p.inflight, key)
			p.mu.Unlock()
			return err
		}
		p.inflight[key] = false
		p.mu.Unlock()
	}
}
