// Package imagehash computes the four perceptual fingerprints of a decoded
// image: a frequency-domain phash, a gradient dhash, a mean-luminance avgHash,
// and a color-histogram colorHash. One hasher serves both standalone images
// and rasterized PDF pages.
package imagehash

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/corona10/goimagehash"

	// Registered decoders. JPEG/PNG/GIF come from the stdlib; BMP, TIFF and
	// WebP from golang.org/x/image.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageLoad reports an undecodable image: corrupt data or an unsupported
// codec. Callers receive no partial hash set alongside it.
var ErrImageLoad = errors.New("image load failed")

// Metadata describes the hashed source.
type Metadata struct {
	Width         int
	Height        int
	FileSizeBytes int64
	Format        string
	ComputedAt    time.Time
}

// Result is the full hash set for one image.
type Result struct {
	PHash     uint64
	DHash     uint64
	AvgHash   uint64
	ColorHash uint64
	Metadata  Metadata
}

// FormatHash renders a 64-bit hash in its persisted form: 16 lowercase hex
// characters.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// HashImage computes all four hashes from an already decoded image.
// format is recorded in the metadata as-is; file size is unknown here and
// left zero (rendered PDF pages have no file of their own).
func HashImage(img image.Image, format string) (*Result, error) {
	p, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("phash: %w", err)
	}
	d, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil, fmt.Errorf("dhash: %w", err)
	}
	a, err := goimagehash.AverageHash(img)
	if err != nil {
		return nil, fmt.Errorf("avgHash: %w", err)
	}

	bounds := img.Bounds()
	return &Result{
		PHash:     p.GetHash(),
		DHash:     d.GetHash(),
		AvgHash:   a.GetHash(),
		ColorHash: ColorHash(img),
		Metadata: Metadata{
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
			Format:     format,
			ComputedAt: time.Now().UTC(),
		},
	}, nil
}

// HashFile decodes the image at path and computes all four hashes.
// Undecodable inputs fail with ErrImageLoad; no partial result is returned.
func HashFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrImageLoad, path, err)
	}

	result, err := HashImage(img, format)
	if err != nil {
		return nil, err
	}
	result.Metadata.FileSizeBytes = info.Size()
	return result, nil
}
