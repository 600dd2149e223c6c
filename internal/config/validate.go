package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRefresh(); err != nil {
		return err
	}
	if c.Batch.Concurrency <= 0 {
		return errors.New("batch.concurrency must be positive")
	}
	return c.validateLogging()
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'reelcache config init')", defaultPath)
	}
	if err := validateLanguage("tmdb.language", c.TMDB.Language); err != nil {
		return err
	}
	if c.TMDB.ExceptionLanguage != "" {
		if err := validateLanguage("tmdb.exception_language", c.TMDB.ExceptionLanguage); err != nil {
			return err
		}
	}
	for _, code := range c.TMDB.Languages {
		if err := validateLanguage("tmdb.languages", code); err != nil {
			return err
		}
	}
	for _, code := range c.TMDB.Countries {
		if _, err := language.ParseRegion(code); err != nil || len(code) != 2 {
			return fmt.Errorf("tmdb.countries: %q is not an ISO 3166-1 country code", code)
		}
	}
	if c.TMDB.ImageAspectRatio <= 0 {
		return errors.New("tmdb.image_aspect_ratio must be positive")
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		return errors.New("tmdb.requests_per_second must be positive")
	}
	return ensurePositiveMap(map[string]int{
		"tmdb.burst":           c.TMDB.Burst,
		"tmdb.retry_attempts":  c.TMDB.RetryAttempts,
		"tmdb.timeout_seconds": c.TMDB.TimeoutSeconds,
	})
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			return errors.New("store.path must be set for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend must be sqlite or memory, got %q", c.Store.Backend)
	}
	for _, r := range c.Store.IndexPrefix {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return fmt.Errorf("store.index_prefix %q may only contain lowercase letters, digits, '_' and '-'", c.Store.IndexPrefix)
		}
	}
	return nil
}

func (c *Config) validateMatching() error {
	m := c.Matching
	if m.YearDiff < 0 {
		return errors.New("matching.year_diff must be >= 0")
	}
	if m.MinScore < 0 || m.MinScoreNoSearch < 0 || m.MinScoreExact < 0 {
		return errors.New("matching score thresholds must be >= 0")
	}
	if m.ScoreIncrementPerActor < 0 {
		return errors.New("matching.score_increment_per_actor must be >= 0")
	}
	return ensurePositiveMap(map[string]int{
		"matching.cast_limit":          m.CastLimit,
		"matching.crew_limit":          m.CrewLimit,
		"matching.title_search_limit":  m.TitleSearchLimit,
		"matching.person_search_limit": m.PersonSearchLimit,
	})
}

func (c *Config) validateRefresh() error {
	if c.Refresh.RefreshAfterDays < 0 {
		return errors.New("refresh.refresh_after_days must be >= 0 (0 disables the age check)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging.max_backups and logging.max_age_days must be >= 0")
	}
	return ensurePositiveMap(map[string]int{"logging.max_size_mb": c.Logging.MaxSizeMB})
}

func validateLanguage(field, code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%s must not be empty", field)
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("%s: %q is not a valid language tag", field, code)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
