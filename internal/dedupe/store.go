package dedupe

import "github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"

// Store is the persistence adapter for fingerprint records.
type Store interface {
	// UpsertFile atomically inserts or updates the record keyed by its Path
	// and replaces the full page set for that file in the same transaction.
	// On update every derived field and ScannedAt are refreshed and the
	// original record ID is returned; a second row is never created.
	UpsertFile(record *model.FileRecord, pages []model.PdfPageRecord) (string, error)

	// FindFileByPath returns the record for an exact path, or nil when the
	// path has never been scanned.
	FindFileByPath(path string) (*model.FileRecord, error)

	// FindPagesByFile returns the page rows for a file, ordered by page index.
	FindPagesByFile(fileID string) ([]*model.PdfPageRecord, error)

	// ListFiles returns all records, ordered by path.
	ListFiles() ([]*model.FileRecord, error)

	// Scan run journal.

	// CreateScanRun records the start of one mutating CLI invocation.
	CreateScanRun(operation, parameters string) (*model.ScanRun, error)

	// FinishScanRun stamps the end time and final status of a run.
	FinishScanRun(id int64, status string) error

	// ListScanRuns returns the most recent runs, newest first.
	ListScanRuns(limit int) ([]*model.ScanRun, error)

	// Close closes the underlying connection.
	Close() error
}

// FilesystemManager abstracts filesystem access for path resolution and
// discovery.
type FilesystemManager interface {
	// Resolve validates a raw path and returns a Path object.
	Resolve(rawPath string) (*Path, error)

	// Stat returns fresh file info for a path.
	Stat(path *Path) (int64, error)

	// FindFiles discovers regular files under the given directory path.
	FindFiles(path *Path, recursive bool) ([]*Path, error)

	// DetectType classifies a file as image, pdf, or other by extension
	// with a content-sniff fallback, and reports the sniffed MIME type.
	DetectType(path *Path) (model.FileType, string, error)
}
