package fs

import (
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
)

// imageMIMEByExt routes well-known image extensions without touching the
// file contents.
var imageMIMEByExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// OSFilesystemManager is the real filesystem implementation of
// FilesystemManager. It performs actual filesystem operations using the os
// package and applies the configured ignore patterns during discovery.
type OSFilesystemManager struct {
	ignore *IgnoreMatcher
}

// NewOSFilesystemManager creates a filesystem manager that operates on the
// real filesystem. ignorePatterns come from config; the defaults are always
// appended.
func NewOSFilesystemManager(ignorePatterns []string) *OSFilesystemManager {
	all := append([]string{}, ignorePatterns...)
	all = append(all, defaultIgnorePatterns...)
	return &OSFilesystemManager{ignore: NewIgnoreMatcher(all)}
}

// Resolve validates a raw path and returns a Path object.
func (m *OSFilesystemManager) Resolve(rawPath string) (*dedupe.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	// Check for special file types we don't support
	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	}
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return dedupe.NewPath(absPath, info.IsDir(), info), nil
}

// Stat returns the file's current size.
func (m *OSFilesystemManager) Stat(path *dedupe.Path) (int64, error) {
	info, err := os.Stat(path.String())
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path.String(), err)
	}
	return info.Size(), nil
}

// FindFiles discovers regular files under the given directory path,
// skipping ignored entries.
func (m *OSFilesystemManager) FindFiles(path *dedupe.Path, recursive bool) ([]*dedupe.Path, error) {
	if !path.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path.String())
	}

	root := path.String()

	// A .dupescanignore at the root extends the configured patterns for
	// this discovery only.
	matcher := m.ignore
	if extra, err := ParseIgnoreFile(filepath.Join(root, ".dupescanignore")); err != nil {
		return nil, err
	} else if len(extra) > 0 {
		matcher = m.ignore.Extend(extra)
	}

	var paths []*dedupe.Path

	if recursive {
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return fmt.Errorf("relativizing %s: %w", p, err)
			}
			if matcher.Match(rel) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", p, err)
			}
			paths = append(paths, dedupe.NewPath(p, false, info))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking directory: %w", err)
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("reading directory: %w", err)
		}
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			if matcher.Match(entry.Name()) {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			fullPath := filepath.Join(root, entry.Name())
			paths = append(paths, dedupe.NewPath(fullPath, false, info))
		}
	}

	return paths, nil
}

// DetectType classifies a file by extension, falling back to content
// sniffing of the first 512 bytes for unknown extensions. The returned MIME
// type feeds the image validation gate.
func (m *OSFilesystemManager) DetectType(path *dedupe.Path) (model.FileType, string, error) {
	ext := strings.ToLower(filepath.Ext(path.String()))
	if mime, ok := imageMIMEByExt[ext]; ok {
		return model.FileTypeImage, mime, nil
	}
	if ext == ".pdf" {
		return model.FileTypePDF, "application/pdf", nil
	}

	mime, err := sniffContentType(path.String())
	if err != nil {
		return model.FileTypeOther, "", err
	}
	switch {
	case strings.HasPrefix(mime, "image/"):
		return model.FileTypeImage, mime, nil
	case mime == "application/pdf":
		return model.FileTypePDF, mime, nil
	default:
		return model.FileTypeOther, mime, nil
	}
}

// sniffContentType reads up to 512 bytes and classifies them.
func sniffContentType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	// DetectContentType appends parameters like "; charset=utf-8".
	mime := http.DetectContentType(buf[:n])
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime, nil
}

// Compile-time check that OSFilesystemManager implements the
// dedupe.FilesystemManager interface
var _ dedupe.FilesystemManager = (*OSFilesystemManager)(nil)
