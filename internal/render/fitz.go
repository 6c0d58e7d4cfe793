//go:build fitz

package render

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// Ensure the backend satisfies the capability.
var _ PageRenderer = (*FitzRenderer)(nil)

// FitzRenderer rasterizes pages through MuPDF.
type FitzRenderer struct{}

// NewRenderer returns the MuPDF-backed renderer.
func NewRenderer() PageRenderer {
	return &FitzRenderer{}
}

// Available reports that a real backend is present.
func (*FitzRenderer) Available() bool { return true }

// RenderSample rasterizes the sampled pages at the given DPI. Pages that
// fail to render are skipped; the rest of the sample is still attempted.
func (*FitzRenderer) RenderSample(ctx context.Context, path string, spec SampleSpec, dpi int) ([]Page, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf for rendering: %w", err)
	}
	defer doc.Close()

	var pages []Page
	for _, idx := range spec.Pages(doc.NumPage()) {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		img, err := doc.ImageDPI(idx, float64(dpi))
		if err != nil {
			continue
		}
		bounds := img.Bounds()
		pages = append(pages, Page{
			Index:  idx,
			Image:  img,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
	}
	return pages, nil
}
