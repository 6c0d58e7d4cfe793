package dedupe

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/hash"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/imagehash"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/pdftext"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/render"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/similarity"
)

// ScanOptions are the per-file pipeline caps and tunables.
type ScanOptions struct {
	PDFMaxBytes int64 // above this, only the raw digest is computed
	PDFMaxPages int   // cap on the recorded page count
	Sample      render.SampleSpec
	DPI         int
	ShingleSize int
}

// ScanService is the fingerprint orchestrator: it composes the crypto
// hasher, canonicalizer, text extractor, page renderer, and perceptual
// hasher into one Fingerprint per file, and writes through the Store.
type ScanService struct {
	store     Store
	fsmgr     FilesystemManager
	canon     Canonicalizer
	extractor TextExtractor
	hasher    ImageHasher
	renderer  PageRenderer
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	opts      ScanOptions
}

// NewScanService creates a ScanService with the provided dependencies.
func NewScanService(store Store, fsmgr FilesystemManager, canon Canonicalizer, extractor TextExtractor, hasher ImageHasher, renderer PageRenderer, logger Logger, clock Clock, idgen IDGenerator, opts ScanOptions) *ScanService {
	return &ScanService{
		store:     store,
		fsmgr:     fsmgr,
		canon:     canon,
		extractor: extractor,
		hasher:    hasher,
		renderer:  renderer,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		opts:      opts,
	}
}

// FingerprintFile computes the full fingerprint of one file without
// persisting anything. Degraded derivations (missing tool, no text,
// renderer absent, undecodable image) produce nil fields, not errors; only
// an unreadable file fails.
func (s *ScanService) FingerprintFile(ctx context.Context, path *Path) (*Fingerprint, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot fingerprint a directory: %s", path.String())
	}

	size, err := s.fsmgr.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path.String(), err)
	}

	fileType, mimeType, err := s.fsmgr.DetectType(path)
	if err != nil {
		return nil, fmt.Errorf("detecting type of %s: %w", path.String(), err)
	}

	rawDigest, err := hash.SHA256File(path.String())
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path.String(), err)
	}

	fp := &Fingerprint{
		Path:      path.String(),
		FileType:  fileType,
		SizeBytes: size,
		SHA256Raw: rawDigest,
	}

	switch fileType {
	case model.FileTypeImage:
		s.fingerprintImage(fp, path, mimeType, size)
	case model.FileTypePDF:
		s.fingerprintPDF(ctx, fp, path, size)
	}

	return fp, nil
}

// fingerprintImage fills the perceptual hash set for an image file. The
// validation gate runs before any decoding; rejected or undecodable inputs
// leave the image fields nil.
func (s *ScanService) fingerprintImage(fp *Fingerprint, path *Path, mimeType string, size int64) {
	if v := imagehash.ValidateImageFile(mimeType, size); !v.Valid {
		s.logger.Warn("image rejected before hashing", "path", path.String(), "reason", v.Reason)
		return
	}

	result, err := s.hasher.HashFile(path.String())
	if err != nil {
		if errors.Is(err, imagehash.ErrImageLoad) {
			s.logger.Warn("image undecodable", "path", path.String(), "error", err)
			return
		}
		s.logger.Error("image hashing failed", "path", path.String(), "error", err)
		return
	}
	fp.Image = result
}

// fingerprintPDF fills the canonical digest, text fingerprint, and sampled
// page hashes, applying the size and page caps.
func (s *ScanService) fingerprintPDF(ctx context.Context, fp *Fingerprint, path *Path, size int64) {
	if size > s.opts.PDFMaxBytes {
		s.logger.Info("pdf exceeds size cap, raw digest only",
			"path", path.String(), "size", size, "cap", s.opts.PDFMaxBytes)
		return
	}

	fp.PDF = &PDFFingerprint{}

	if canonical, err := s.canon.CanonicalSHA256(ctx, path.String()); err != nil {
		s.logger.Warn("no canonical form", "path", path.String(), "error", err)
	} else {
		fp.SHA256Canonical = &canonical
	}

	extraction, err := s.extractor.Extract(path.String())
	if err != nil {
		s.logger.Warn("text extraction failed", "path", path.String(), "error", err)
	} else {
		pages := int64(extraction.Pages)
		if s.opts.PDFMaxPages > 0 && pages > int64(s.opts.PDFMaxPages) {
			pages = int64(s.opts.PDFMaxPages)
		}
		fp.PDF.Pages = &pages
		hasText := extraction.HasText
		fp.PDF.HasText = &hasText
		if hasText {
			if simhash, ok := pdftext.SimHashText(extraction.Text, s.opts.ShingleSize); ok {
				fp.PDF.SimHash = &simhash
			}
		}
	}

	s.renderSampledPages(ctx, fp, path)
}

// renderSampledPages rasterizes and hashes the sampled pages. An absent
// renderer or a render failure degrades to zero page hashes.
func (s *ScanService) renderSampledPages(ctx context.Context, fp *Fingerprint, path *Path) {
	if !s.renderer.Available() {
		s.logger.Debug("page renderer absent, skipping page hashes", "path", path.String())
		return
	}

	pages, err := s.renderer.RenderSample(ctx, path.String(), s.opts.Sample, s.opts.DPI)
	if err != nil {
		s.logger.Warn("page rendering failed", "path", path.String(), "error", err)
		return
	}

	for _, page := range pages {
		result, err := s.hasher.HashImage(page.Image, "raster")
		if err != nil {
			s.logger.Warn("page hash failed", "path", path.String(), "page", page.Index, "error", err)
			continue
		}
		fp.PDF.Sampled = append(fp.PDF.Sampled, PageHash{
			Index:  page.Index,
			PHash:  result.PHash,
			Width:  page.Width,
			Height: page.Height,
		})
	}
}

// ScanFile fingerprints one file and persists the result idempotently.
// Returns the stored record with its surviving ID.
func (s *ScanService) ScanFile(ctx context.Context, path *Path) (*model.FileRecord, error) {
	fp, err := s.FingerprintFile(ctx, path)
	if err != nil {
		return nil, err
	}

	record, pages := s.buildRecord(fp)
	id, err := s.store.UpsertFile(record, pages)
	if err != nil {
		return nil, fmt.Errorf("persisting fingerprint for %s: %w", fp.Path, err)
	}
	record.ID = id

	s.logger.Info("file scanned",
		"path", fp.Path, "type", fp.FileType, "sha256", fp.SHA256Raw, "pages", len(pages))
	return record, nil
}

// buildRecord converts a Fingerprint into its persisted form.
func (s *ScanService) buildRecord(fp *Fingerprint) (*model.FileRecord, []model.PdfPageRecord) {
	record := &model.FileRecord{
		ID:              s.idgen.New(),
		Path:            fp.Path,
		SizeBytes:       fp.SizeBytes,
		SHA256Raw:       fp.SHA256Raw,
		SHA256Canonical: fp.SHA256Canonical,
		FileType:        fp.FileType,
		Status:          model.StatusOK,
		ScannedAt:       s.clock.Now(),
	}

	if fp.Image != nil {
		width := int64(fp.Image.Metadata.Width)
		height := int64(fp.Image.Metadata.Height)
		phash := imagehash.FormatHash(fp.Image.PHash)
		dhash := imagehash.FormatHash(fp.Image.DHash)
		avgHash := imagehash.FormatHash(fp.Image.AvgHash)
		colorHash := imagehash.FormatHash(fp.Image.ColorHash)
		record.Width = &width
		record.Height = &height
		record.PHash = &phash
		record.DHash = &dhash
		record.AvgHash = &avgHash
		record.ColorHash = &colorHash
		record.ExifDatetime = imagehash.ExifDatetime(fp.Path)
	}

	var pages []model.PdfPageRecord
	if fp.PDF != nil {
		record.PDFPages = fp.PDF.Pages
		record.PDFHasText = fp.PDF.HasText
		record.PDFSimHash = fp.PDF.SimHash
		for _, page := range fp.PDF.Sampled {
			pages = append(pages, model.PdfPageRecord{
				ID:        s.idgen.New(),
				PageIndex: int64(page.Index),
				PHash:     imagehash.FormatHash(page.PHash),
				Width:     int64(page.Width),
				Height:    int64(page.Height),
			})
		}
	}

	return record, pages
}

// Comparison is the result of a direct two-file check.
type Comparison struct {
	Identical          bool  // exact byte equality
	CanonicalIdentical *bool // nil when either side has no canonical form
	// Similarities holds the per-hash-type percentages when both files are
	// hashable images; nil otherwise.
	Similarities map[similarity.HashKind]float64
	// SimHashSimilarity is set when both files are PDFs with text.
	SimHashSimilarity *float64
}

// CompareFiles fingerprints two files and compares them directly, without a
// database round-trip.
func (s *ScanService) CompareFiles(ctx context.Context, a, b *Path) (*Comparison, error) {
	fpA, err := s.FingerprintFile(ctx, a)
	if err != nil {
		return nil, err
	}
	fpB, err := s.FingerprintFile(ctx, b)
	if err != nil {
		return nil, err
	}

	cmp := &Comparison{Identical: fpA.SHA256Raw == fpB.SHA256Raw}

	if fpA.SHA256Canonical != nil && fpB.SHA256Canonical != nil {
		equal := *fpA.SHA256Canonical == *fpB.SHA256Canonical
		cmp.CanonicalIdentical = &equal
	}

	if fpA.Image != nil && fpB.Image != nil {
		cmp.Similarities = map[similarity.HashKind]float64{
			similarity.KindPHash:     similarity.Percent64(fpA.Image.PHash, fpB.Image.PHash),
			similarity.KindDHash:     similarity.Percent64(fpA.Image.DHash, fpB.Image.DHash),
			similarity.KindAvgHash:   similarity.Percent64(fpA.Image.AvgHash, fpB.Image.AvgHash),
			similarity.KindColorHash: similarity.Percent64(fpA.Image.ColorHash, fpB.Image.ColorHash),
		}
	}

	if fpA.PDF != nil && fpB.PDF != nil && fpA.PDF.SimHash != nil && fpB.PDF.SimHash != nil {
		sim := similarity.Percent64(*fpA.PDF.SimHash, *fpB.PDF.SimHash)
		cmp.SimHashSimilarity = &sim
	}

	return cmp, nil
}

// StoredHashedImages loads every persisted image record that carries a full
// hash set into the similarity engine's comparison form.
func (s *ScanService) StoredHashedImages() ([]similarity.HashedImage, error) {
	records, err := s.store.ListFiles()
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}

	var images []similarity.HashedImage
	for _, r := range records {
		if r.FileType != model.FileTypeImage {
			continue
		}
		if r.PHash == nil || r.DHash == nil || r.AvgHash == nil || r.ColorHash == nil {
			continue // degraded record, nothing to compare
		}
		img := similarity.HashedImage{
			ID:        r.Path,
			PHash:     parseHash(*r.PHash),
			DHash:     parseHash(*r.DHash),
			AvgHash:   parseHash(*r.AvgHash),
			ColorHash: parseHash(*r.ColorHash),
			Metadata: similarity.ImageMetadata{
				FileSizeBytes: r.SizeBytes,
				Timestamp:     r.ScannedAt,
			},
		}
		if r.Width != nil {
			img.Metadata.Width = int(*r.Width)
		}
		if r.Height != nil {
			img.Metadata.Height = int(*r.Height)
		}
		images = append(images, img)
	}
	return images, nil
}

// FindStoredDuplicates runs duplicate discovery over all persisted image
// records at the given threshold.
func (s *ScanService) FindStoredDuplicates(thresholdPercent float64) ([]similarity.Match, error) {
	images, err := s.StoredHashedImages()
	if err != nil {
		return nil, err
	}
	return similarity.FindDuplicates(images, thresholdPercent), nil
}

// parseHash reads the persisted 16-hex-char form back into its bit pattern.
// The store only ever holds values written by FormatHash, so a parse failure
// means a corrupted row; it degrades to zero rather than aborting discovery.
func parseHash(s string) uint64 {
	h, _ := strconv.ParseUint(s, 16, 64)
	return h
}
