package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - DUPESCAN_CONFIG_PATH: config file location (default: ~/.config/dupescan.toml)
//   - DUPESCAN_HOME: base directory for dupescan data (default: ~/.local/share/dupescan)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking DUPESCAN_CONFIG_PATH
// first, then falling back to the default ~/.config/dupescan.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("DUPESCAN_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "dupescan.toml"), nil
}

// getBaseDir returns the base directory for dupescan data, checking
// DUPESCAN_HOME first, then falling back to the XDG default
// ~/.local/share/dupescan.
func getBaseDir() (string, error) {
	if path := os.Getenv("DUPESCAN_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "dupescan"), nil
}
