package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryannnsevidal/duplicate-photo-sub000/internal/config"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig("/tmp/dupescan-home")

	if cfg.LogDir != filepath.Join("/tmp/dupescan-home", "log") {
		t.Errorf("LogDir = %s", cfg.LogDir)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %s, want sqlite", cfg.Database.Type)
	}
	if cfg.Scan.Concurrency != config.DefaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Scan.Concurrency, config.DefaultConcurrency)
	}
	if cfg.PDF.Tool != "qpdf" {
		t.Errorf("PDF.Tool = %s, want qpdf", cfg.PDF.Tool)
	}
	if cfg.PDF.TimeoutMS != 15000 {
		t.Errorf("PDF.TimeoutMS = %d, want 15000", cfg.PDF.TimeoutMS)
	}
	if cfg.PDF.SampleSpec != "1:1:50" {
		t.Errorf("PDF.SampleSpec = %s, want 1:1:50", cfg.PDF.SampleSpec)
	}
	if cfg.Similarity.ThresholdPercent != 90 {
		t.Errorf("ThresholdPercent = %v, want 90", cfg.Similarity.ThresholdPercent)
	}
}

func TestManagerRoundTrip(t *testing.T) {
	t.Parallel()
	m := &config.Manager{}
	original := config.NewConfig("/home/user/.local/share/dupescan")
	original.Scan.Root = "/home/user/photos"
	original.Scan.Concurrency = 4
	original.Scan.Ignore = []string{"*.tmp", ".cache"}
	original.PDF.DPI = 150

	var buf bytes.Buffer
	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	decoded, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if decoded.Scan.Root != original.Scan.Root {
		t.Errorf("Root = %s, want %s", decoded.Scan.Root, original.Scan.Root)
	}
	if decoded.Scan.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", decoded.Scan.Concurrency)
	}
	if len(decoded.Scan.Ignore) != 2 || decoded.Scan.Ignore[0] != "*.tmp" {
		t.Errorf("Ignore = %v, want [*.tmp .cache]", decoded.Scan.Ignore)
	}
	if decoded.PDF.DPI != 150 {
		t.Errorf("DPI = %d, want 150", decoded.PDF.DPI)
	}
}

func TestReadAppliesDefaults(t *testing.T) {
	t.Parallel()
	m := &config.Manager{}
	partial := strings.NewReader(`
base_dir = "/data/dupescan"

[scan]
root = "/data/files"
`)
	cfg, err := m.Read(partial)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if cfg.Scan.Root != "/data/files" {
		t.Errorf("Root = %s", cfg.Scan.Root)
	}
	if cfg.Scan.Concurrency != config.DefaultConcurrency {
		t.Errorf("Concurrency default not applied: %d", cfg.Scan.Concurrency)
	}
	if cfg.PDF.MaxBytes != config.DefaultPDFMaxBytes {
		t.Errorf("MaxBytes default not applied: %d", cfg.PDF.MaxBytes)
	}
	if cfg.PDF.ShingleSize != config.DefaultShingleSize {
		t.Errorf("ShingleSize default not applied: %d", cfg.PDF.ShingleSize)
	}
}

func TestReadInvalidTOML(t *testing.T) {
	t.Parallel()
	m := &config.Manager{}
	if _, err := m.Read(strings.NewReader("not [valid toml")); err == nil {
		t.Error("expected decode error")
	}
}

func TestInit(t *testing.T) {
	t.Run("creates file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "conf", "dupescan.toml")
		if err := config.Init(path, config.NewConfig("/base")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		cfg, err := config.ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if cfg.BaseDir != "/base" {
			t.Errorf("BaseDir = %s, want /base", cfg.BaseDir)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "dupescan.toml")
		if err := os.WriteFile(path, []byte("base_dir = \"/existing\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := config.Init(path, config.NewConfig("/base")); err == nil {
			t.Error("Init() overwrote an existing config")
		}
	})
}

func TestReadFromFileMissing(t *testing.T) {
	t.Parallel()
	if _, err := config.ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
