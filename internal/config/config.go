package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the single explicit configuration for dupescan, constructed once
// at process start and passed into each component. No component reads
// ambient environment state beyond the bootstrap path overrides.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Scan       ScanConfig       `toml:"scan"`
	Database   DatabaseConfig   `toml:"database"`
	PDF        PDFConfig        `toml:"pdf"`
	Similarity SimilarityConfig `toml:"similarity"`
}

// ScanConfig drives the scan worker.
type ScanConfig struct {
	Root             string   `toml:"root"`              // default scan target when none is given on the command line
	Concurrency      int      `toml:"concurrency"`       // simultaneous per-file pipelines
	HeartbeatSeconds int      `toml:"heartbeat_seconds"` // watch-mode heartbeat interval
	Ignore           []string `toml:"ignore,omitempty"`  // glob patterns excluded from discovery
}

// DatabaseConfig represents configuration for the fingerprint database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// PDFConfig drives canonicalization, text extraction, and page sampling.
type PDFConfig struct {
	Tool        string `toml:"tool"`         // normalization binary resolved from PATH
	TimeoutMS   int    `toml:"timeout_ms"`   // bound on one tool invocation
	MaxBytes    int64  `toml:"max_bytes"`    // above this, only sha256_raw is computed
	MaxPages    int    `toml:"max_pages"`    // cap on the recorded page count
	SampleSpec  string `toml:"sample_spec"`  // start:step:limit page sample
	DPI         int    `toml:"dpi"`          // raster resolution
	ShingleSize int    `toml:"shingle_size"` // k for simhash shingles
}

// SimilarityConfig holds the default duplicate threshold.
type SimilarityConfig struct {
	ThresholdPercent float64 `toml:"threshold_percent"`
}

// Defaults for every tunable. A zero value in the decoded file falls back to
// these via ApplyDefaults.
const (
	DefaultConcurrency      = 8
	DefaultHeartbeatSeconds = 60
	DefaultPDFTool          = "qpdf"
	DefaultPDFTimeoutMS     = 15000
	DefaultPDFMaxBytes      = 64 << 20
	DefaultPDFMaxPages      = 500
	DefaultSampleSpec       = "1:1:50"
	DefaultDPI              = 110
	DefaultShingleSize      = 5
	DefaultThresholdPercent = 90.0
)

// NewConfig creates a Config with the provided base directory and all
// defaults applied.
func NewConfig(baseDir string) *Config {
	cfg := &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero-valued tunable.
func (c *Config) ApplyDefaults() {
	if c.Scan.Concurrency <= 0 {
		c.Scan.Concurrency = DefaultConcurrency
	}
	if c.Scan.HeartbeatSeconds <= 0 {
		c.Scan.HeartbeatSeconds = DefaultHeartbeatSeconds
	}
	if c.PDF.Tool == "" {
		c.PDF.Tool = DefaultPDFTool
	}
	if c.PDF.TimeoutMS <= 0 {
		c.PDF.TimeoutMS = DefaultPDFTimeoutMS
	}
	if c.PDF.MaxBytes <= 0 {
		c.PDF.MaxBytes = DefaultPDFMaxBytes
	}
	if c.PDF.MaxPages <= 0 {
		c.PDF.MaxPages = DefaultPDFMaxPages
	}
	if c.PDF.SampleSpec == "" {
		c.PDF.SampleSpec = DefaultSampleSpec
	}
	if c.PDF.DPI <= 0 {
		c.PDF.DPI = DefaultDPI
	}
	if c.PDF.ShingleSize <= 0 {
		c.PDF.ShingleSize = DefaultShingleSize
	}
	if c.Similarity.ThresholdPercent <= 0 {
		c.Similarity.ThresholdPercent = DefaultThresholdPercent
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and applies defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
