package dedupe

import (
	"context"
	"image"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/imagehash"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/render"
)

// Fingerprint is the transient union of every hash computed for one file in
// one orchestration pass. It feeds both the persistence adapter and direct
// two-file comparisons that never touch the store.
type Fingerprint struct {
	Path            string
	FileType        model.FileType
	SizeBytes       int64
	SHA256Raw       string
	SHA256Canonical *string // nil when canonicalization was skipped or failed

	Image *imagehash.Result // nil unless FileType is image
	PDF   *PDFFingerprint   // nil unless FileType is pdf
}

// PDFFingerprint carries the PDF-specific derivations. Nil fields mean the
// derivation was skipped (size cap) or failed (extraction error, no text,
// renderer absent).
type PDFFingerprint struct {
	Pages   *int64
	HasText *bool
	SimHash *uint64
	Sampled []PageHash
}

// PageHash is the perceptual hash of one rendered page.
type PageHash struct {
	Index  int
	PHash  uint64
	Width  int
	Height int
}

// Canonicalizer produces the canonical digest of a PDF.
type Canonicalizer interface {
	CanonicalSHA256(ctx context.Context, path string) (string, error)
}

// TextExtraction is the raw text product of one PDF.
type TextExtraction struct {
	Pages   int
	Text    string
	HasText bool
}

// TextExtractor pulls plain text and a page count from a PDF.
type TextExtractor interface {
	Extract(path string) (*TextExtraction, error)
}

// ImageHasher computes the four perceptual hashes, either from a file on
// disk or from an already-decoded raster (rendered PDF pages). One hasher
// serves both paths.
type ImageHasher interface {
	HashFile(path string) (*imagehash.Result, error)
	HashImage(img image.Image, format string) (*imagehash.Result, error)
}

// PageRenderer re-exports the rasterization capability for the service layer.
type PageRenderer = render.PageRenderer
