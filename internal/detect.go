package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DataPaths holds the locations of work-scope's files
type DataPaths struct {
	Dir        string // base data directory
	ConfigFile string // config.yaml
	SessionsDB string // default SQLite session store
}

// legacyDirName is the dot directory used when no platform directory applies
const legacyDirName = ".work-scope"

// DetectDataPaths picks the data directory for the current platform.
// WORK_SCOPE_HOME wins, then an existing ~/.work-scope, then the platform
// location.
func DetectDataPaths() (DataPaths, error) {
	if dir := strings.TrimSpace(os.Getenv("WORK_SCOPE_HOME")); dir != "" {
		return newDataPaths(dir), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	legacy := filepath.Join(home, legacyDirName)
	if info, err := os.Stat(legacy); err == nil && info.IsDir() {
		return newDataPaths(legacy), nil
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "work-scope")
	case "linux":
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			base = filepath.Join(home, ".config")
		}
		dir = filepath.Join(base, "work-scope")
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		dir = filepath.Join(base, "work-scope")
	default:
		dir = legacy
	}
	return newDataPaths(dir), nil
}

func newDataPaths(dir string) DataPaths {
	return DataPaths{
		Dir:        dir,
		ConfigFile: filepath.Join(dir, "config.yaml"),
		SessionsDB: filepath.Join(dir, "sessions.db"),
	}
}

// Exists reports whether the data directory has been created
func (p DataPaths) Exists() bool {
	info, err := os.Stat(p.Dir)
	return err == nil && info.IsDir()
}

// FindSessionStores lists the session stores (.db and .json files) under
// the data directory, skipping preserved corrupt copies
func (p DataPaths) FindSessionStores() ([]string, error) {
	if !p.Exists() {
		return []string{}, nil
	}

	var stores []string
	err := filepath.WalkDir(p.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Skip directories we can't access
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".db", ".json":
			stores = append(stores, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan data directory: %w", err)
	}
	return stores, nil
}
