package app

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/config"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/database"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/fs"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/imagehash"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/pdfcanon"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/pdftext"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/render"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/similarity"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/worker"
)

// App is the application layer between the CLI and ScanService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and manages the store lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   dedupe.Store
	fsmgr   dedupe.FilesystemManager
	service *dedupe.ScanService
	pool    *worker.Pool
	op      *ScanOperation
	logger  dedupe.Logger
	logFile *os.File
}

// migrator is the optional schema-management surface of a store.
type migrator interface {
	CheckMigrations() error
	MigrateUp() error
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "scan", "watch").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string, parameters string) (*App, error) {
	fsmgr := fs.NewOSFilesystemManager(cfg.Scan.Ignore)

	store, err := database.NewStoreFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	// A fresh database is migrated in place; anything else out of step is an
	// error the operator has to look at.
	if m, ok := store.(migrator); ok {
		if err := m.CheckMigrations(); err != nil {
			if err := m.MigrateUp(); err != nil {
				store.Close()
				return nil, fmt.Errorf("migrating database: %w", err)
			}
		}
	}

	sample, err := render.ParseSampleSpec(cfg.PDF.SampleSpec)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("invalid sample spec: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	canon := pdfcanon.New(cfg.PDF.Tool, time.Duration(cfg.PDF.TimeoutMS)*time.Millisecond)
	opts := dedupe.ScanOptions{
		PDFMaxBytes: cfg.PDF.MaxBytes,
		PDFMaxPages: cfg.PDF.MaxPages,
		Sample:      sample,
		DPI:         cfg.PDF.DPI,
		ShingleSize: cfg.PDF.ShingleSize,
	}

	svc := dedupe.NewScanService(store, fsmgr, canon, pdfTextExtractor{},
		imageHasher{}, render.NewRenderer(), logger,
		dedupe.RealClock{}, dedupe.UUIDGenerator{}, opts)

	return &App{
		cfg:     cfg,
		store:   store,
		fsmgr:   fsmgr,
		service: svc,
		pool:    worker.NewPool(svc, logger, cfg.Scan.Concurrency),
		op:      NewScanOperation(operation, parameters),
		logger:  logger,
		logFile: logFile,
	}, nil
}

// persistOperation saves the scan run to the database, giving it an
// auto-increment ID. This should only be called for DB-mutating commands.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil // already persisted
	}
	run, err := a.store.CreateScanRun(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting scan run: %w", err)
	}
	a.op.ID = run.ID
	return nil
}

// MarkFailed records that this invocation ended in error.
func (a *App) MarkFailed() {
	a.op.Status = "error"
}

// ScanPath fingerprints one file or every file under a directory.
// When recursive is true, files in subdirectories are included.
func (a *App) ScanPath(ctx context.Context, rawPath string, recursive bool) (*worker.Summary, error) {
	if err := a.persistOperation(); err != nil {
		return nil, err
	}

	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if !p.IsDir() {
		if _, err := a.service.ScanFile(ctx, p); err != nil {
			return &worker.Summary{Failed: 1}, err
		}
		return &worker.Summary{Scanned: 1}, nil
	}

	paths, err := a.fsmgr.FindFiles(p, recursive)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	return a.pool.ScanAll(ctx, paths), nil
}

// WatchPath blocks, fingerprinting files under rawPath as they appear or
// change, until ctx is cancelled.
func (a *App) WatchPath(ctx context.Context, rawPath string) error {
	if err := a.persistOperation(); err != nil {
		return err
	}

	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	// Bring the store current before following events.
	paths, err := a.fsmgr.FindFiles(p, true)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	summary := a.pool.ScanAll(ctx, paths)
	a.logger.Info("initial scan complete",
		"scanned", summary.Scanned, "failed", summary.Failed)

	heartbeat := time.Duration(a.cfg.Scan.HeartbeatSeconds) * time.Second
	w := worker.NewWatcher(a.pool, a.fsmgr, a.logger, heartbeat)
	return w.Watch(ctx, p)
}

// CheckFiles compares two files directly, without touching the store.
func (a *App) CheckFiles(ctx context.Context, rawA, rawB string) (*dedupe.Comparison, error) {
	pa, err := a.fsmgr.Resolve(rawA)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	pb, err := a.fsmgr.Resolve(rawB)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return a.service.CompareFiles(ctx, pa, pb)
}

// FindDuplicates runs duplicate discovery over all stored image records.
// thresholdPercent <= 0 uses the configured default.
func (a *App) FindDuplicates(thresholdPercent float64) ([]similarity.Match, error) {
	if thresholdPercent <= 0 {
		thresholdPercent = a.cfg.Similarity.ThresholdPercent
	}
	return a.service.FindStoredDuplicates(thresholdPercent)
}

// GetStatus returns the stored record for a path plus its page rows, or a
// nil record when the path has never been scanned.
func (a *App) GetStatus(rawPath string) (*model.FileRecord, []*model.PdfPageRecord, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving path: %w", err)
	}

	record, err := a.store.FindFileByPath(p.String())
	if err != nil {
		return nil, nil, err
	}
	if record == nil {
		return nil, nil, nil
	}

	pages, err := a.store.FindPagesByFile(record.ID)
	if err != nil {
		return nil, nil, err
	}
	return record, pages, nil
}

// ListFiles returns every stored record, ordered by path.
func (a *App) ListFiles() ([]*model.FileRecord, error) {
	return a.store.ListFiles()
}

// History returns the most recent scan runs.
func (a *App) History(limit int) ([]*model.ScanRun, error) {
	return a.store.ListScanRuns(limit)
}

// Close finalizes the operation record and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.store.FinishScanRun(a.op.ID, a.op.Status); err != nil {
			firstErr = fmt.Errorf("finishing scan run: %w", err)
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// pdfTextExtractor adapts the pdftext package to the service's extractor
// interface.
type pdfTextExtractor struct{}

func (pdfTextExtractor) Extract(path string) (*dedupe.TextExtraction, error) {
	e, err := pdftext.Extract(path)
	if err != nil {
		return nil, err
	}
	return &dedupe.TextExtraction{Pages: e.Pages, Text: e.Text, HasText: e.HasText}, nil
}

// imageHasher adapts the imagehash package functions to the service's
// hasher interface.
type imageHasher struct{}

func (imageHasher) HashFile(path string) (*imagehash.Result, error) {
	return imagehash.HashFile(path)
}

func (imageHasher) HashImage(img image.Image, format string) (*imagehash.Result, error) {
	return imagehash.HashImage(img, format)
}
