package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	if err := c.normalizeStore(); err != nil {
		return err
	}
	if err := c.normalizeRefresh(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	c.TMDB.ExceptionLanguage = strings.TrimSpace(c.TMDB.ExceptionLanguage)
	c.TMDB.Languages = trimList(c.TMDB.Languages, strings.ToLower)
	c.TMDB.Countries = trimList(c.TMDB.Countries, strings.ToUpper)
	c.TMDB.ImageType = strings.TrimSpace(c.TMDB.ImageType)
	if c.TMDB.ImageType == "" {
		c.TMDB.ImageType = defaultTMDBImageType
	}
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
	c.Store.IndexPrefix = strings.ToLower(strings.TrimSpace(c.Store.IndexPrefix))
	if c.Store.IndexPrefix == "" {
		c.Store.IndexPrefix = defaultIndexPrefix
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = filepath.Join(c.Paths.DataDir, defaultStoreFile)
		return nil
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRefresh() error {
	c.Refresh.RefreshIfOlder = strings.TrimSpace(c.Refresh.RefreshIfOlder)
	c.Refresh.refreshIfOlder = time.Time{}
	if c.Refresh.RefreshIfOlder == "" {
		return nil
	}
	parsed, err := ParseCutoff(c.Refresh.RefreshIfOlder)
	if err != nil {
		return fmt.Errorf("refresh.refresh_if_older: %w", err)
	}
	c.Refresh.refreshIfOlder = parsed
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// ParseCutoff accepts an RFC3339 timestamp or a YYYY-MM-DD date (UTC midnight).
func ParseCutoff(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected RFC3339 timestamp or YYYY-MM-DD date, got %q", value)
	}
	return t.UTC(), nil
}

func trimList(values []string, transform func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, transform(value))
	}
	return out
}
