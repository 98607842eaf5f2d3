// Package config resolves settings from .env, an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/work-scope/internal"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL = "http://localhost:8000"
	DefaultModel  = "gemini-2.5-flash"
	DefaultHost   = "0.0.0.0"
	DefaultPort   = "8000"
)

// Config holds the resolved settings
type Config struct {
	APIURL           string `yaml:"api_url"`
	Storage          string `yaml:"storage"`
	DeveloperProfile string `yaml:"developer_profile"`
	Model            string `yaml:"model"`
	GeminiAPIKey     string `yaml:"-"`
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	Glamour          bool   `yaml:"glamour"`
}

// DefaultDir returns the platform data directory
func DefaultDir() (string, error) {
	paths, err := internal.DetectDataPaths()
	if err != nil {
		return "", err
	}
	return paths.Dir, nil
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	dir, err := DefaultDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load resolves settings. A missing file at path is not an error; an
// empty path uses DefaultPath. Environment variables override the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	cfg.APIURL = firstNonEmpty(os.Getenv("WORK_SCOPE_API_URL"), cfg.APIURL, DefaultAPIURL)
	cfg.Storage = firstNonEmpty(os.Getenv("WORK_SCOPE_STORAGE"), cfg.Storage)
	cfg.DeveloperProfile = firstNonEmpty(os.Getenv("WORK_SCOPE_PROFILE"), cfg.DeveloperProfile)
	cfg.Model = firstNonEmpty(os.Getenv("WORK_SCOPE_MODEL"), cfg.Model, DefaultModel)
	cfg.GeminiAPIKey = firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY"))
	cfg.Host = firstNonEmpty(os.Getenv("HOST"), cfg.Host, DefaultHost)
	cfg.Port = strings.TrimPrefix(firstNonEmpty(os.Getenv("PORT"), cfg.Port, DefaultPort), ":")

	if cfg.Storage == "" {
		paths, err := internal.DetectDataPaths()
		if err != nil {
			return nil, err
		}
		cfg.Storage = paths.SessionsDB
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Addr returns the listen address of the backend server
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Save writes the file-backed settings to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
