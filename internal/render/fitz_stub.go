//go:build !fitz

package render

import "context"

var _ PageRenderer = (*NopRenderer)(nil)

// NopRenderer is the absent-capability stub for builds without the fitz tag.
type NopRenderer struct{}

// NewRenderer returns the stub renderer.
func NewRenderer() PageRenderer {
	return &NopRenderer{}
}

// Available reports that no backend is present.
func (*NopRenderer) Available() bool { return false }

// RenderSample always fails with ErrUnavailable.
func (*NopRenderer) RenderSample(context.Context, string, SampleSpec, int) ([]Page, error) {
	return nil, ErrUnavailable
}
