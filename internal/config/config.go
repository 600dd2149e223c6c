package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// TMDB contains configuration for The Movie Database API and for how its
// payloads are folded into cached records.
type TMDB struct {
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	Language          string   `toml:"language"`
	ExceptionLanguage string   `toml:"exception_language"`
	Languages         []string `toml:"languages"`
	Countries         []string `toml:"countries"`
	ImageType         string   `toml:"image_type"`
	ImageAspectRatio  float64  `toml:"image_aspect_ratio"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Burst             int      `toml:"burst"`
	RetryAttempts     int      `toml:"retry_attempts"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
}

// Store selects and configures the record store backend.
type Store struct {
	Backend     string `toml:"backend"` // sqlite or memory
	Path        string `toml:"path"`
	IndexPrefix string `toml:"index_prefix"`
}

// Matching contains the score thresholds and limits used during resolution.
type Matching struct {
	YearDiff               int     `toml:"year_diff"`
	MinScore               float64 `toml:"min_score"`
	MinScoreNoSearch       float64 `toml:"min_score_no_search"`
	MinScoreExact          float64 `toml:"min_score_exact"`
	ScoreIncrementPerActor float64 `toml:"score_increment_per_actor"`
	CastLimit              int     `toml:"cast_limit"`
	CrewLimit              int     `toml:"crew_limit"`
	TitleSearchLimit       int     `toml:"title_search_limit"`
	PersonSearchLimit      int     `toml:"person_search_limit"`
}

// Refresh controls when cached records are fetched again.
type Refresh struct {
	RefreshAfterDays int    `toml:"refresh_after_days"`
	RefreshIfOlder   string `toml:"refresh_if_older"`

	refreshIfOlder time.Time
}

// Batch contains settings for concurrent batch and populate runs.
type Batch struct {
	Concurrency int `toml:"concurrency"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Config encapsulates all configuration values for reelcache.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - TMDB: catalog access, languages, countries, and image selection
//   - Store: record store backend and index naming
//   - Matching: score thresholds and fetch limits
//   - Refresh: cache staleness policy
//   - Batch: worker concurrency for batch and populate
//   - Logging: log format, level, and file rotation
type Config struct {
	Paths    Paths    `toml:"paths"`
	TMDB     TMDB     `toml:"tmdb"`
	Store    Store    `toml:"store"`
	Matching Matching `toml:"matching"`
	Refresh  Refresh  `toml:"refresh"`
	Batch    Batch    `toml:"batch"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelcache.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RefreshCutoff returns the parsed refresh.refresh_if_older instant, or the
// zero time when unset.
func (c *Config) RefreshCutoff() time.Time {
	return c.Refresh.refreshIfOlder
}

// LockPath returns the file used to serialize bulk cache population.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "populate.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
