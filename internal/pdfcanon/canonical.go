// Package pdfcanon produces a canonical byte stream for a PDF: stable across
// incidental re-encodings (stream compression, linearization, metadata
// edits) but sensitive to content changes. The primary path shells out to a
// normalization tool; a pure in-process fallback strips volatile metadata
// when the tool is missing, times out, or fails.
package pdfcanon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/hash"
)

// DefaultTool is the normalization binary resolved from PATH.
const DefaultTool = "qpdf"

// DefaultTimeout bounds one tool invocation.
const DefaultTimeout = 15 * time.Second

// ErrToolUnavailable covers every way the external tool can fail: missing
// from PATH, killed by timeout, or non-zero exit. The fallback chain treats
// all three identically.
var ErrToolUnavailable = errors.New("canonicalizer tool unavailable")

// ErrNoCanonicalForm reports that neither the tool nor the fallback could
// produce a normalized stream. Callers record a null canonical digest; this
// is not fatal for the scan.
var ErrNoCanonicalForm = errors.New("no canonical form available")

var (
	// /Info 12 0 R is the trailer's document information reference.
	infoRefPattern = regexp.MustCompile(`/Info\s+\d+\s+\d+\s+R`)
	// /CreationDate (D:20240101120000Z) and /ModDate alike.
	datePattern = regexp.MustCompile(`/(CreationDate|ModDate)\s*\(([^)]*)\)`)
)

// Canonicalizer normalizes PDFs for canonical fingerprinting.
type Canonicalizer struct {
	tool    string
	timeout time.Duration
	runner  CommandRunner
}

// New creates a Canonicalizer using the real process runner.
// Empty tool and zero timeout select the defaults.
func New(tool string, timeout time.Duration) *Canonicalizer {
	return NewWithRunner(tool, timeout, execRunner{})
}

// NewWithRunner creates a Canonicalizer with an injected command runner.
func NewWithRunner(tool string, timeout time.Duration, runner CommandRunner) *Canonicalizer {
	if tool == "" {
		tool = DefaultTool
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Canonicalizer{tool: tool, timeout: timeout, runner: runner}
}

// Canonicalize writes the normalized form of the PDF at path to a temp file
// and returns a guard owning it. The caller must Close the guard on every
// exit path. Returns ErrNoCanonicalForm when no normalized stream could be
// produced at all.
func (c *Canonicalizer) Canonicalize(ctx context.Context, path string) (*TempFile, error) {
	tmp, toolErr := c.runTool(ctx, path)
	if toolErr == nil {
		return tmp, nil
	}

	tmp, fbErr := c.fallback(path)
	if fbErr != nil {
		return nil, fmt.Errorf("%w: tool: %v; fallback: %v", ErrNoCanonicalForm, toolErr, fbErr)
	}
	return tmp, nil
}

// CanonicalSHA256 canonicalizes and hashes in one step, cleaning up the temp
// file on every branch.
func (c *Canonicalizer) CanonicalSHA256(ctx context.Context, path string) (string, error) {
	tmp, err := c.Canonicalize(ctx, path)
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	return hash.SHA256File(tmp.Path())
}

// runTool invokes the external normalizer with linearized, fully decoded,
// uncompressed output. Any failure maps to ErrToolUnavailable.
func (c *Canonicalizer) runTool(ctx context.Context, path string) (*TempFile, error) {
	if err := lookPath(c.tool); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	out, err := os.CreateTemp("", "dupescan-canon-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	out.Close()
	tmp := newTempFile(out.Name())

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"--linearize",
		"--object-streams=disable",
		"--stream-data=uncompress",
		"--decode-level=all",
		path,
		tmp.Path(),
	}
	if output, err := c.runner.Run(ctx, c.tool, args...); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: %s: %v (output: %.200s)", ErrToolUnavailable, c.tool, err, output)
	}

	// Some runner failures leave an empty output file behind.
	info, err := os.Stat(tmp.Path())
	if err != nil || info.Size() == 0 {
		tmp.Close()
		return nil, fmt.Errorf("%w: %s produced no output", ErrToolUnavailable, c.tool)
	}

	return tmp, nil
}

// fallback strips the /Info dictionary reference and blanks the creation and
// modification dates with a text-level substitution on the raw bytes. This
// catches the common case of metadata-only edits even without the tool.
func (c *Canonicalizer) fallback(path string) (*TempFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}

	data = infoRefPattern.ReplaceAll(data, []byte{})
	data = datePattern.ReplaceAllFunc(data, func(m []byte) []byte {
		// Keep the byte length stable so offsets in the xref table are not
		// disturbed more than once per file: blank the value in place.
		sub := datePattern.FindSubmatchIndex(m)
		blanked := make([]byte, len(m))
		copy(blanked, m)
		for i := sub[4]; i < sub[5]; i++ {
			blanked[i] = '0'
		}
		return blanked
	})

	out, err := os.CreateTemp("", "dupescan-canon-fallback-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmp := newTempFile(out.Name())

	if _, err := out.Write(data); err != nil {
		out.Close()
		tmp.Close()
		return nil, fmt.Errorf("writing normalized bytes: %w", err)
	}
	if err := out.Close(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	return tmp, nil
}
