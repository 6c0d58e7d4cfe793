package pdftext

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extraction is the raw text product of one PDF.
type Extraction struct {
	Pages   int
	Text    string
	HasText bool
}

// Extract pulls plain text and the page count from the PDF at path.
// Extraction failures, including parser panics on malformed cross-reference
// tables, are returned as errors for the caller to record as null fields;
// they never abort a scan.
func Extract(path string) (result *Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("pdf parser panic on %s: %v", path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	pages := reader.NumPage()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extracting text from %s: %w", path, err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return nil, fmt.Errorf("reading extracted text from %s: %w", path, err)
	}

	text := sb.String()
	return &Extraction{
		Pages:   pages,
		Text:    text,
		HasText: strings.TrimSpace(text) != "",
	}, nil
}
