package testutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/dedupe"
	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/model"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
	IsDirectory bool
}

// MockFilesystemManager is an in-memory filesystem for testing.
// Type detection is by extension only; use SetType to force a result.
type MockFilesystemManager struct {
	files map[string]*MockFile
	types map[string]detection
}

type detection struct {
	fileType model.FileType
	mimeType string
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
		types: make(map[string]detection),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.files[path] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// AddDirectory adds a directory to the mock filesystem.
func (m *MockFilesystemManager) AddDirectory(path string) {
	m.files[path] = &MockFile{
		Permissions: 0755,
		ModTime:     time.Now(),
		IsDirectory: true,
	}
}

// SetType forces DetectType's answer for a path.
func (m *MockFilesystemManager) SetType(path string, fileType model.FileType, mimeType string) {
	m.types[path] = detection{fileType: fileType, mimeType: mimeType}
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*dedupe.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, err
	}

	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}

	info := &mockFileInfo{
		name:    filepath.Base(absPath),
		size:    int64(len(file.Content)),
		mode:    file.Permissions,
		modTime: file.ModTime,
		isDir:   file.IsDirectory,
	}

	return dedupe.NewPath(absPath, file.IsDirectory, info), nil
}

func (m *MockFilesystemManager) Stat(path *dedupe.Path) (int64, error) {
	file, ok := m.files[path.String()]
	if !ok {
		return 0, fmt.Errorf("file not found: %s", path.String())
	}
	return int64(len(file.Content)), nil
}

func (m *MockFilesystemManager) FindFiles(path *dedupe.Path, recursive bool) ([]*dedupe.Path, error) {
	root := path.String()
	if file, ok := m.files[root]; !ok || !file.IsDirectory {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	var names []string
	prefix := root + string(filepath.Separator)
	for name, file := range m.files {
		if file.IsDirectory || !strings.HasPrefix(name, prefix) {
			continue
		}
		if !recursive && strings.ContainsRune(name[len(prefix):], filepath.Separator) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	paths := make([]*dedupe.Path, 0, len(names))
	for _, name := range names {
		p, err := m.Resolve(name)
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func (m *MockFilesystemManager) DetectType(path *dedupe.Path) (model.FileType, string, error) {
	if d, ok := m.types[path.String()]; ok {
		return d.fileType, d.mimeType, nil
	}

	switch strings.ToLower(filepath.Ext(path.String())) {
	case ".jpg", ".jpeg":
		return model.FileTypeImage, "image/jpeg", nil
	case ".png":
		return model.FileTypeImage, "image/png", nil
	case ".pdf":
		return model.FileTypePDF, "application/pdf", nil
	default:
		return model.FileTypeOther, "application/octet-stream", nil
	}
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return m.isDir }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ dedupe.FilesystemManager = (*MockFilesystemManager)(nil)
