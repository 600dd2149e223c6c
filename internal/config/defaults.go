package config

const (
	defaultConfigPath             = "~/.config/reelcache/config.toml"
	defaultDataDir                = "~/.local/share/reelcache"
	defaultLogDir                 = "~/.local/share/reelcache/logs"
	defaultStoreFile              = "cache.db"
	defaultStoreBackend           = "sqlite"
	defaultIndexPrefix            = "reelcache"
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBLanguage           = "en"
	defaultTMDBImageType          = "w780"
	defaultTMDBImageAspectRatio   = 1.78
	defaultTMDBRequestsPerSecond  = 4
	defaultTMDBBurst              = 4
	defaultTMDBRetryAttempts      = 3
	defaultTMDBTimeoutSeconds     = 10
	defaultYearDiff               = 2
	defaultMinScore               = 4
	defaultMinScoreNoSearch       = 10
	defaultMinScoreExact          = 7
	defaultScoreIncrementPerActor = 1.5
	defaultCastLimit              = 10
	defaultCrewLimit              = 5
	defaultTitleSearchLimit       = 5
	defaultPersonSearchLimit      = 3
	defaultRefreshAfterDays       = 30
	defaultBatchConcurrency       = 4
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogMaxSizeMB           = 20
	defaultLogMaxBackups          = 5
	defaultLogMaxAgeDays          = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			Languages:         []string{"en"},
			Countries:         []string{"US", "GB"},
			ImageType:         defaultTMDBImageType,
			ImageAspectRatio:  defaultTMDBImageAspectRatio,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
			Burst:             defaultTMDBBurst,
			RetryAttempts:     defaultTMDBRetryAttempts,
			TimeoutSeconds:    defaultTMDBTimeoutSeconds,
		},
		Store: Store{
			Backend:     defaultStoreBackend,
			IndexPrefix: defaultIndexPrefix,
		},
		Matching: Matching{
			YearDiff:               defaultYearDiff,
			MinScore:               defaultMinScore,
			MinScoreNoSearch:       defaultMinScoreNoSearch,
			MinScoreExact:          defaultMinScoreExact,
			ScoreIncrementPerActor: defaultScoreIncrementPerActor,
			CastLimit:              defaultCastLimit,
			CrewLimit:              defaultCrewLimit,
			TitleSearchLimit:       defaultTitleSearchLimit,
			PersonSearchLimit:      defaultPersonSearchLimit,
		},
		Refresh: Refresh{
			RefreshAfterDays: defaultRefreshAfterDays,
		},
		Batch: Batch{
			Concurrency: defaultBatchConcurrency,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
