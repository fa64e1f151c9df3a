package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const dataDirEnv = "AIPM_DATA_DIR"

// DataDir resolves the directory holding config and local state. The
// AIPM_DATA_DIR environment variable overrides the default ~/.aipm.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(dataDirEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(home) == "" {
		return "", errors.New("home directory not available")
	}
	return filepath.Join(home, ".aipm"), nil
}

func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

func SettingsPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func ArchivePath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}
