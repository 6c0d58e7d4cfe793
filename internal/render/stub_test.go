//go:build !fitz

package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/render"
)

func TestNopRenderer(t *testing.T) {
	t.Parallel()
	r := render.NewRenderer()
	if r.Available() {
		t.Error("stub renderer reports itself available")
	}
	_, err := r.RenderSample(context.Background(), "any.pdf", render.DefaultSampleSpec, render.DefaultDPI)
	if !errors.Is(err, render.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}
