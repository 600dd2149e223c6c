package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"reelcache/internal/index"
	"reelcache/internal/logging"
)

// Kinds lists the content kinds with their own title and search indexes.
var Kinds = []string{"movie", "tv"}

const maxSeasonRows = 1000

var (
	titleMapping   = index.Mapping{Text: []string{"title", "alias", "credits.director", "credits.actor", "credits.other", "country"}}
	searchMapping  = index.Mapping{}
	episodeMapping = index.Mapping{Text: []string{"title"}}
)

// Store persists title records, search attempts, and episode records in a
// scored index backend. Backend failures keep index.ErrUnavailable in their
// chain.
type Store struct {
	backend index.Backend
	prefix  string
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for @timestamp.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logging.NewComponentLogger(logger, "store")
	}
}

// New wraps backend using prefix for index names.
func New(backend index.Backend, prefix string, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		prefix:  prefix,
		now:     time.Now,
		logger:  logging.NewComponentLogger(nil, "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the underlying index backend.
func (s *Store) Backend() index.Backend { return s.backend }

// TitleIndex is the name of the title index for kind.
func (s *Store) TitleIndex(kind string) string { return fmt.Sprintf("%s_%s_title", s.prefix, kind) }

// SearchIndex is the name of the search-attempt index for kind.
func (s *Store) SearchIndex(kind string) string { return fmt.Sprintf("%s_%s_search", s.prefix, kind) }

// EpisodeIndex is the name of the episode index.
func (s *Store) EpisodeIndex() string { return s.prefix + "_tv_episode" }

// Indexes lists every index the store manages.
func (s *Store) Indexes() []string {
	names := make([]string, 0, 2*len(Kinds)+1)
	for _, kind := range Kinds {
		names = append(names, s.TitleIndex(kind), s.SearchIndex(kind))
	}
	return append(names, s.EpisodeIndex())
}

// Ensure creates all indexes.
func (s *Store) Ensure(ctx context.Context) error {
	for _, kind := range Kinds {
		if err := s.backend.EnsureIndex(ctx, s.TitleIndex(kind), titleMapping); err != nil {
			return fmt.Errorf("ensure %s: %w", s.TitleIndex(kind), err)
		}
		if err := s.backend.EnsureIndex(ctx, s.SearchIndex(kind), searchMapping); err != nil {
			return fmt.Errorf("ensure %s: %w", s.SearchIndex(kind), err)
		}
	}
	if err := s.backend.EnsureIndex(ctx, s.EpisodeIndex(), episodeMapping); err != nil {
		return fmt.Errorf("ensure %s: %w", s.EpisodeIndex(), err)
	}
	return nil
}

// Counts returns the number of documents in every index.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, name := range s.Indexes() {
		n, err := s.backend.Count(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		counts[name] = n
	}
	return counts, nil
}

// TitleID is the record id of a title: its decimal TMDB id.
func TitleID(tmdbID int64) string { return strconv.FormatInt(tmdbID, 10) }

// EpisodeID is the record id of an episode or season stub.
func EpisodeID(showID int64, season, episode int) string {
	return fmt.Sprintf("%d:%d:%d", showID, season, episode)
}

// FindTitles runs q against the title index of kind.
func (s *Store) FindTitles(ctx context.Context, kind string, q index.Query) ([]TitleHit, error) {
	res, err := s.backend.Search(ctx, s.TitleIndex(kind), q)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	hits := make([]TitleHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var rec TitleRecord
		if err := json.Unmarshal(hit.Source, &rec); err != nil {
			logging.WarnWithContext(s.logger, "skipping undecodable title record", "store_decode_failed",
				logging.String("id", hit.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record ignored for this lookup"),
			)
			continue
		}
		hits = append(hits, TitleHit{ID: hit.ID, Score: hit.Score, Record: rec})
	}
	return hits, nil
}

// GetTitle returns the cached title for tmdbID, or nil when absent.
func (s *Store) GetTitle(ctx context.Context, kind string, tmdbID int64) (*TitleRecord, error) {
	hit, err := s.backend.Get(ctx, s.TitleIndex(kind), TitleID(tmdbID))
	if errors.Is(err, index.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get title %d: %w", tmdbID, err)
	}
	var rec TitleRecord
	if err := json.Unmarshal(hit.Source, &rec); err != nil {
		return nil, fmt.Errorf("decode title %d: %w", tmdbID, err)
	}
	return &rec, nil
}

// PutTitle stamps and writes rec under its TMDB id.
func (s *Store) PutTitle(ctx context.Context, kind string, rec *TitleRecord) error {
	if rec.IDs.TMDB <= 0 {
		return errors.New("put title: tmdb id required")
	}
	rec.Timestamp = s.now().UTC()
	if err := s.put(ctx, s.TitleIndex(kind), TitleID(rec.IDs.TMDB), rec); err != nil {
		return fmt.Errorf("put title %d: %w", rec.IDs.TMDB, err)
	}
	return nil
}

// DeleteTitle removes the cached title for tmdbID.
func (s *Store) DeleteTitle(ctx context.Context, kind string, tmdbID int64) error {
	if err := s.backend.Delete(ctx, s.TitleIndex(kind), TitleID(tmdbID)); err != nil {
		return fmt.Errorf("delete title %d: %w", tmdbID, err)
	}
	return nil
}

// FindAttempt returns the stored attempt for a title or person search and
// year (NoYear when absent), or nil.
func (s *Store) FindAttempt(ctx context.Context, kind, field, value string, year int) (*AttemptHit, error) {
	q := index.Query{
		Bool: index.Bool{Must: []index.Clause{
			index.NewTerm(value, field),
			index.NewTerm(year, "year"),
		}},
		Size: 1,
	}
	res, err := s.backend.Search(ctx, s.SearchIndex(kind), q)
	if err != nil {
		return nil, fmt.Errorf("search attempts: %w", err)
	}
	if len(res.Hits) == 0 {
		return nil, nil
	}
	var rec SearchAttempt
	if err := json.Unmarshal(res.Hits[0].Source, &rec); err != nil {
		return nil, fmt.Errorf("decode attempt %s: %w", res.Hits[0].ID, err)
	}
	return &AttemptHit{ID: res.Hits[0].ID, Record: rec}, nil
}

// PutAttempt stamps and writes rec. An empty id creates a new attempt; the
// id used is returned.
func (s *Store) PutAttempt(ctx context.Context, kind, id string, rec SearchAttempt) (string, error) {
	rec.Timestamp = s.now().UTC()
	body, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encode attempt: %w", err)
	}
	used, err := s.backend.Upsert(ctx, s.SearchIndex(kind), id, body)
	if err != nil {
		return "", fmt.Errorf("put attempt: %w", err)
	}
	return used, nil
}

// FindEpisodes runs q against the episode index.
func (s *Store) FindEpisodes(ctx context.Context, q index.Query) ([]EpisodeHit, error) {
	res, err := s.backend.Search(ctx, s.EpisodeIndex(), q)
	if err != nil {
		return nil, fmt.Errorf("search episodes: %w", err)
	}
	hits := make([]EpisodeHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var rec EpisodeRecord
		if err := json.Unmarshal(hit.Source, &rec); err != nil {
			return nil, fmt.Errorf("decode episode %s: %w", hit.ID, err)
		}
		hits = append(hits, EpisodeHit{ID: hit.ID, Score: hit.Score, Record: rec})
	}
	return hits, nil
}

// SeasonRows reports how many rows (stub included) exist for a season and
// the newest @timestamp among them.
func (s *Store) SeasonRows(ctx context.Context, showID int64, season int) (int, time.Time, error) {
	q := index.Query{
		Bool: index.Bool{Filter: []index.Clause{
			index.NewTerm(showID, "tvshow_id"),
			index.NewTerm(season, "season"),
		}},
		Size: maxSeasonRows,
	}
	hits, err := s.FindEpisodes(ctx, q)
	if err != nil {
		return 0, time.Time{}, err
	}
	var newest time.Time
	for _, hit := range hits {
		if hit.Record.Timestamp.After(newest) {
			newest = hit.Record.Timestamp
		}
	}
	return len(hits), newest, nil
}

// PutEpisode stamps and writes rec under its show/season/episode id.
func (s *Store) PutEpisode(ctx context.Context, rec *EpisodeRecord) error {
	rec.Timestamp = s.now().UTC()
	id := EpisodeID(rec.TVShowID, rec.Season, rec.Episode)
	if err := s.put(ctx, s.EpisodeIndex(), id, rec); err != nil {
		return fmt.Errorf("put episode %s: %w", id, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, name, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err = s.backend.Upsert(ctx, name, id, body)
	return err
}
