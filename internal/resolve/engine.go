package resolve

import (
	"context"
	"log/slog"
	"time"

	"reelcache/internal/config"
	"reelcache/internal/logging"
	"reelcache/internal/staleness"
	"reelcache/internal/store"
	"reelcache/internal/tmdb"
)

// Catalog is the subset of the TMDB API the engine uses. *tmdb.Client
// satisfies it.
type Catalog interface {
	Details(ctx context.Context, kind string, id int64, language string) (*tmdb.Details, error)
	Credits(ctx context.Context, kind string, id int64) (*tmdb.Credits, error)
	Translations(ctx context.Context, kind string, id int64) (*tmdb.Translations, error)
	AlternativeTitles(ctx context.Context, kind string, id int64) (*tmdb.AlternativeTitles, error)
	ReleaseDates(ctx context.Context, id int64) (*tmdb.ReleaseDates, error)
	Images(ctx context.Context, kind string, id int64, language string) (*tmdb.Images, error)
	SearchPerson(ctx context.Context, query string) (*tmdb.PersonPage, error)
	PersonCredits(ctx context.Context, kind string, personID int64) (*tmdb.PersonCredits, error)
	SearchTitles(ctx context.Context, kind, query string, year int) (*tmdb.Page, error)
	Season(ctx context.Context, showID int64, season int) (*tmdb.Season, error)
	Discover(ctx context.Context, kind string, page int) (*tmdb.Page, error)
	Genres(ctx context.Context, kind string) ([]tmdb.Genre, error)
	Countries(ctx context.Context) ([]tmdb.Country, error)
	Languages(ctx context.Context) ([]tmdb.Language, error)
	Configuration(ctx context.Context) (*tmdb.Configuration, error)
}

var _ Catalog = (*tmdb.Client)(nil)

// Settings holds the matching thresholds and catalog preferences.
type Settings struct {
	Language          string
	ExceptionLanguage string
	Languages         []string
	Countries         []string
	ImageType         string
	ImageAspectRatio  float64

	YearDiff               int
	MinScore               float64
	MinScoreNoSearch       float64
	MinScoreExact          float64
	ScoreIncrementPerActor float64
	CastLimit              int
	CrewLimit              int
	TitleSearchLimit       int
	PersonSearchLimit      int
}

// SettingsFromConfig copies the relevant configuration sections.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Language:               cfg.TMDB.Language,
		ExceptionLanguage:      cfg.TMDB.ExceptionLanguage,
		Languages:              append([]string(nil), cfg.TMDB.Languages...),
		Countries:              append([]string(nil), cfg.TMDB.Countries...),
		ImageType:              cfg.TMDB.ImageType,
		ImageAspectRatio:       cfg.TMDB.ImageAspectRatio,
		YearDiff:               cfg.Matching.YearDiff,
		MinScore:               cfg.Matching.MinScore,
		MinScoreNoSearch:       cfg.Matching.MinScoreNoSearch,
		MinScoreExact:          cfg.Matching.MinScoreExact,
		ScoreIncrementPerActor: cfg.Matching.ScoreIncrementPerActor,
		CastLimit:              cfg.Matching.CastLimit,
		CrewLimit:              cfg.Matching.CrewLimit,
		TitleSearchLimit:       cfg.Matching.TitleSearchLimit,
		PersonSearchLimit:      cfg.Matching.PersonSearchLimit,
	}
}

// PolicyFromConfig builds the refresh policy from the refresh section.
func PolicyFromConfig(cfg *config.Config) staleness.Policy {
	return staleness.New(cfg.Refresh.RefreshAfterDays, cfg.RefreshCutoff())
}

// Engine resolves requests against the record store, falling back to the
// catalog. It holds no per-request state and is safe for concurrent use.
type Engine struct {
	store    *store.Store
	catalog  Catalog
	settings Settings
	policy   staleness.Policy
	logger   *slog.Logger
	now      func() time.Time
	tables   *tables
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "resolve")
	}
}

// WithClock overrides the clock used to decide whether an episode has aired.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New builds an Engine.
func New(st *store.Store, catalog Catalog, settings Settings, policy staleness.Policy, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		catalog:  catalog,
		settings: settings,
		policy:   policy,
		logger:   logging.NewComponentLogger(nil, "resolve"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.tables = newTables(e)
	return e
}

// Store returns the record store.
func (e *Engine) Store() *store.Store { return e.store }

func (e *Engine) requestLogger(ctx context.Context, kind Kind) *slog.Logger {
	return logging.WithContext(ctx, e.logger).With(logging.String(logging.FieldKind, kind.Name))
}
