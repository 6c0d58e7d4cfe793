package testutil

import (
	"context"
	"fmt"
	"image"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/imagehash"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/render"
)

// StubCanonicalizer returns a fixed digest, or Err when set.
type StubCanonicalizer struct {
	Digest string
	Err    error
	Calls  int
}

func (c *StubCanonicalizer) CanonicalSHA256(ctx context.Context, path string) (string, error) {
	c.Calls++
	if c.Err != nil {
		return "", c.Err
	}
	return c.Digest, nil
}

// StubTextExtractor returns a canned extraction per path.
type StubTextExtractor struct {
	Extractions map[string]*dedupe.TextExtraction
	Err         error
}

func (e *StubTextExtractor) Extract(path string) (*dedupe.TextExtraction, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	extraction, ok := e.Extractions[path]
	if !ok {
		return nil, fmt.Errorf("no extraction stubbed for %s", path)
	}
	return extraction, nil
}

// StubImageHasher returns canned results keyed by path, and a fixed result
// for decoded rasters.
type StubImageHasher struct {
	ByPath      map[string]*imagehash.Result
	ImageResult *imagehash.Result
	FileErr     error
}

func (h *StubImageHasher) HashFile(path string) (*imagehash.Result, error) {
	if h.FileErr != nil {
		return nil, h.FileErr
	}
	result, ok := h.ByPath[path]
	if !ok {
		return nil, fmt.Errorf("no hash stubbed for %s", path)
	}
	return result, nil
}

func (h *StubImageHasher) HashImage(img image.Image, format string) (*imagehash.Result, error) {
	if h.ImageResult == nil {
		return nil, fmt.Errorf("no raster hash stubbed")
	}
	return h.ImageResult, nil
}

// StubRenderer serves canned pages, or reports itself unavailable.
type StubRenderer struct {
	Pages       []render.Page
	Err         error
	Unavailable bool
}

func (r *StubRenderer) Available() bool {
	return !r.Unavailable
}

func (r *StubRenderer) RenderSample(ctx context.Context, path string, spec render.SampleSpec, dpi int) ([]render.Page, error) {
	if r.Unavailable {
		return nil, render.ErrUnavailable
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Pages, nil
}

// Compile-time checks
var (
	_ dedupe.Canonicalizer = (*StubCanonicalizer)(nil)
	_ dedupe.TextExtractor = (*StubTextExtractor)(nil)
	_ dedupe.ImageHasher   = (*StubImageHasher)(nil)
	_ dedupe.PageRenderer  = (*StubRenderer)(nil)
)
