// Package render rasterizes a sampled subset of PDF pages for perceptual
// hashing. Rendering is a pluggable capability: the MuPDF-backed
// implementation is compiled in with the fitz build tag, and minimal builds
// get a stub that degrades the scan gracefully (zero page records, no
// failure).
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// DefaultDPI is the default raster resolution. Pages scale by dpi/72 from
// PDF point units to pixels.
const DefaultDPI = 110

// ErrUnavailable reports that no rendering backend is compiled into this
// build.
var ErrUnavailable = errors.New("page renderer unavailable in this build")

// Page is one rasterized page, independent of the others.
type Page struct {
	Index  int // zero-based page number within the document
	Image  image.Image
	Width  int
	Height int
}

// PageRenderer is the rasterization capability.
type PageRenderer interface {
	// Available reports whether a real backend is present.
	Available() bool
	// RenderSample rasterizes the pages selected by spec at the given DPI.
	// A failure on a single page skips that page only; remaining sampled
	// pages are still attempted.
	RenderSample(ctx context.Context, path string, spec SampleSpec, dpi int) ([]Page, error)
}

// SampleSpec selects which pages to render: begin at Start (1-based),
// advance by Step, stop after Limit pages or at the end of the document,
// whichever comes first.
type SampleSpec struct {
	Start int
	Step  int
	Limit int
}

// DefaultSampleSpec renders the first 50 pages.
var DefaultSampleSpec = SampleSpec{Start: 1, Step: 1, Limit: 50}

// ParseSampleSpec parses a "start:step:limit" specification.
func ParseSampleSpec(s string) (SampleSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return SampleSpec{}, fmt.Errorf("sample spec %q: want start:step:limit", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return SampleSpec{}, fmt.Errorf("sample spec %q: %w", s, err)
		}
		if v < 1 {
			return SampleSpec{}, fmt.Errorf("sample spec %q: fields must be >= 1", s)
		}
		vals[i] = v
	}
	return SampleSpec{Start: vals[0], Step: vals[1], Limit: vals[2]}, nil
}

// String renders the spec back to its start:step:limit form.
func (s SampleSpec) String() string {
	return fmt.Sprintf("%d:%d:%d", s.Start, s.Step, s.Limit)
}

// Pages returns the zero-based indices selected from a document with
// totalPages pages.
func (s SampleSpec) Pages(totalPages int) []int {
	start, step, limit := s.Start, s.Step, s.Limit
	if start < 1 {
		start = 1
	}
	if step < 1 {
		step = 1
	}
	if limit < 1 {
		limit = 1
	}

	var pages []int
	for p := start; p <= totalPages && len(pages) < limit; p += step {
		pages = append(pages, p-1)
	}
	return pages
}
