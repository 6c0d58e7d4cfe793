package pdfcanon

import (
	"os"
	"sync"
)

// TempFile owns a temporary file path and guarantees its deletion exactly
// once, no matter which exit branch closes it. Callers must defer Close
// immediately after acquiring one so temp files never outlive hashing, even
// when hashing itself fails.
type TempFile struct {
	path string
	once sync.Once
	err  error
}

func newTempFile(path string) *TempFile {
	return &TempFile{path: path}
}

// Path returns the owned file path.
func (t *TempFile) Path() string { return t.path }

// Close removes the owned file. Safe to call multiple times; only the first
// call deletes.
func (t *TempFile) Close() error {
	t.once.Do(func() {
		t.err = os.Remove(t.path)
	})
	return t.err
}
