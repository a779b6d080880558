package configs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths are the per-user directories kahu reads and writes.
type Paths struct {
	ConfigDir string
	DataDir   string
}

// DefaultPaths resolves the XDG config and data directories for kahu.
func DefaultPaths() (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("error getting config directory: %w", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("error getting home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return Paths{
		ConfigDir: filepath.Join(configDir, "kahu"),
		DataDir:   filepath.Join(dataDir, "kahu"),
	}, nil
}

func (p Paths) ConfigFile() string {
	return filepath.Join(p.ConfigDir, "config.toml")
}

func (p Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "kahu.db")
}

func (p Paths) CacheDir() string {
	return filepath.Join(p.DataDir, "cache")
}

func (p Paths) AuditFile() string {
	return filepath.Join(p.DataDir, "audit.jsonl")
}
