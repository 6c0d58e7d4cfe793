package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/database/migrations"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// fileColumns is the canonical column list for files rows, in scan order.
const fileColumns = `id, path, size_bytes, sha256_raw, sha256_canonical, file_type,
	width, height, exif_datetime, phash, dhash, avg_hash, color_hash,
	pdf_pages, pdf_has_text, pdf_simhash, status, scanned_at`

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite store.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, path: ""}
}

// OpenConnection opens and configures a SQLite database connection with
// appropriate PRAGMAs. Exported for tools and tests that need a properly
// configured connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// UpsertFile inserts or updates the record keyed by its path, then replaces
// the file's page rows, all in a single transaction. The surviving row ID is
// returned; on update the original UUID is kept and a second row is never
// created.
func (s *SQLiteStore) UpsertFile(record *model.FileRecord, pages []model.PdfPageRecord) (string, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	var id string
	err = tx.QueryRow(`
		INSERT INTO files (`+fileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			size_bytes = excluded.size_bytes,
			sha256_raw = excluded.sha256_raw,
			sha256_canonical = excluded.sha256_canonical,
			file_type = excluded.file_type,
			width = excluded.width,
			height = excluded.height,
			exif_datetime = excluded.exif_datetime,
			phash = excluded.phash,
			dhash = excluded.dhash,
			avg_hash = excluded.avg_hash,
			color_hash = excluded.color_hash,
			pdf_pages = excluded.pdf_pages,
			pdf_has_text = excluded.pdf_has_text,
			pdf_simhash = excluded.pdf_simhash,
			status = excluded.status,
			scanned_at = excluded.scanned_at
		RETURNING id`,
		record.ID, record.Path, record.SizeBytes, record.SHA256Raw,
		record.SHA256Canonical, string(record.FileType),
		record.Width, record.Height, record.ExifDatetime,
		record.PHash, record.DHash, record.AvgHash, record.ColorHash,
		record.PDFPages, record.PDFHasText, simHashToSQL(record.PDFSimHash),
		record.Status, record.ScannedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upserting file: %w", err)
	}

	// Replace the page set wholesale. Stale rows from a previous scan with a
	// different sample must not survive.
	if _, err := tx.Exec("DELETE FROM pdf_pages WHERE image_id = ?", id); err != nil {
		return "", fmt.Errorf("clearing page rows: %w", err)
	}

	for i := range pages {
		page := &pages[i]
		if page.ID == "" {
			page.ID = uuid.New().String()
		}
		_, err := tx.Exec(`
			INSERT INTO pdf_pages (id, image_id, page_index, phash, simhash, width, height)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			page.ID, id, page.PageIndex, page.PHash,
			simHashToSQL(page.SimHash), page.Width, page.Height,
		)
		if err != nil {
			return "", fmt.Errorf("inserting page row %d: %w", page.PageIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	return id, nil
}

// FindFileByPath returns the record for an exact path, or nil when the path
// has never been scanned.
func (s *SQLiteStore) FindFileByPath(path string) (*model.FileRecord, error) {
	row := s.db.QueryRow("SELECT "+fileColumns+" FROM files WHERE path = ?", path)
	record, err := scanFileRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding file by path: %w", err)
	}
	return record, nil
}

// FindPagesByFile returns the page rows for a file, ordered by page index.
func (s *SQLiteStore) FindPagesByFile(fileID string) ([]*model.PdfPageRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, image_id, page_index, phash, simhash, width, height
		FROM pdf_pages WHERE image_id = ? ORDER BY page_index`, fileID)
	if err != nil {
		return nil, fmt.Errorf("finding page rows: %w", err)
	}
	defer rows.Close()

	var pages []*model.PdfPageRecord
	for rows.Next() {
		var page model.PdfPageRecord
		var simhash sql.NullInt64
		err := rows.Scan(&page.ID, &page.ImageID, &page.PageIndex,
			&page.PHash, &simhash, &page.Width, &page.Height)
		if err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		page.SimHash = simHashFromSQL(simhash)
		pages = append(pages, &page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading page rows: %w", err)
	}
	return pages, nil
}

// ListFiles returns all records, ordered by path.
func (s *SQLiteStore) ListFiles() ([]*model.FileRecord, error) {
	rows, err := s.db.Query("SELECT " + fileColumns + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	var records []*model.FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading file rows: %w", err)
	}
	return records, nil
}

// Scan run journal

func (s *SQLiteStore) CreateScanRun(operation string, parameters string) (*model.ScanRun, error) {
	run := &model.ScanRun{
		StartedAt:  time.Now(),
		Operation:  operation,
		Parameters: parameters,
		Status:     "running",
	}
	result, err := s.db.Exec(`
		INSERT INTO scan_runs (started_at, operation, parameters, status)
		VALUES (?, ?, ?, ?)`,
		run.StartedAt, run.Operation, run.Parameters, run.Status)
	if err != nil {
		return nil, fmt.Errorf("creating scan run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading scan run id: %w", err)
	}
	run.ID = id
	return run, nil
}

func (s *SQLiteStore) FinishScanRun(id int64, status string) error {
	_, err := s.db.Exec(`
		UPDATE scan_runs SET finished_at = ?, status = ? WHERE id = ?`,
		time.Now(), status, id)
	if err != nil {
		return fmt.Errorf("finishing scan run: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListScanRuns(limit int) ([]*model.ScanRun, error) {
	rows, err := s.db.Query(`
		SELECT id, started_at, finished_at, operation, parameters, status
		FROM scan_runs ORDER BY id DESC LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.ScanRun
	for rows.Next() {
		var run model.ScanRun
		var finished sql.NullTime
		err := rows.Scan(&run.ID, &run.StartedAt, &finished,
			&run.Operation, &run.Parameters, &run.Status)
		if err != nil {
			return nil, fmt.Errorf("scanning scan run row: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading scan run rows: %w", err)
	}
	return runs, nil
}

// Path returns the database file path (or ":memory:" for in-memory stores).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// MigrateUp brings the database schema to the latest version.
func (s *SQLiteStore) MigrateUp() error {
	return migrations.MigrateUp(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFileRecord(row scanner) (*model.FileRecord, error) {
	var record model.FileRecord
	var fileType string
	var canonical, phash, dhash, avgHash, colorHash sql.NullString
	var width, height, pdfPages sql.NullInt64
	var exifDatetime sql.NullTime
	var pdfHasText sql.NullBool
	var pdfSimHash sql.NullInt64

	err := row.Scan(&record.ID, &record.Path, &record.SizeBytes,
		&record.SHA256Raw, &canonical, &fileType,
		&width, &height, &exifDatetime,
		&phash, &dhash, &avgHash, &colorHash,
		&pdfPages, &pdfHasText, &pdfSimHash,
		&record.Status, &record.ScannedAt)
	if err != nil {
		return nil, err
	}

	record.FileType = model.FileType(fileType)
	record.SHA256Canonical = nullString(canonical)
	record.Width = nullInt64(width)
	record.Height = nullInt64(height)
	record.PHash = nullString(phash)
	record.DHash = nullString(dhash)
	record.AvgHash = nullString(avgHash)
	record.ColorHash = nullString(colorHash)
	record.PDFPages = nullInt64(pdfPages)
	record.PDFSimHash = simHashFromSQL(pdfSimHash)
	if exifDatetime.Valid {
		t := exifDatetime.Time
		record.ExifDatetime = &t
	}
	if pdfHasText.Valid {
		b := pdfHasText.Bool
		record.PDFHasText = &b
	}

	return &record, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// simHashToSQL stores a 64-bit hash in SQLite's signed INTEGER column.
// The high bit round-trips through the int64 cast.
func simHashToSQL(v *uint64) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func simHashFromSQL(v sql.NullInt64) *uint64 {
	if !v.Valid {
		return nil
	}
	h := uint64(v.Int64)
	return &h
}

// Compile-time check that SQLiteStore implements dedupe.Store interface
var _ dedupe.Store = (*SQLiteStore)(nil)
