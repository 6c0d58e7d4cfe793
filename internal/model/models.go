package model

import "time"

// FileType discriminates how a scanned file was fingerprinted.
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
	FileTypeOther FileType = "other"
)

// StatusOK is the default health flag for a freshly scanned record.
const StatusOK = "OK"

// FileRecord is one persisted fingerprint per scanned path.
// Path is the natural key: re-scanning the same path updates the row in place.
// Optional fields are pointers; nil means the corresponding derivation was
// skipped or failed (oversized file, extraction error, missing tool).
type FileRecord struct {
	ID              string // UUID, assigned on first insert and stable afterwards
	Path            string // Normalized absolute path, unique
	SizeBytes       int64
	SHA256Raw       string  // hex digest of the exact bytes
	SHA256Canonical *string // hex digest of the normalized form (PDFs only)
	FileType        FileType

	// Image-only fields.
	Width        *int64
	Height       *int64
	ExifDatetime *time.Time
	PHash        *string // 16-char hex of the 64-bit perceptual hash
	DHash        *string
	AvgHash      *string
	ColorHash    *string

	// PDF-only fields.
	PDFPages   *int64
	PDFHasText *bool
	PDFSimHash *uint64

	Status    string
	ScannedAt time.Time
}

// PdfPageRecord is the perceptual hash of one sampled, rasterized PDF page.
// Page rows belong to a FileRecord and are replaced wholesale on re-scan.
type PdfPageRecord struct {
	ID        string // UUID
	ImageID   string // Owning FileRecord ID
	PageIndex int64  // Zero-based index within the document, not the sample
	PHash     string
	SimHash   *uint64 // Reserved for per-page text simhash; currently always nil
	Width     int64
	Height    int64
}

// ScanRun journals one CLI invocation that mutated the store.
type ScanRun struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt *time.Time
	Operation  string
	Parameters string
	Status     string
}
