package resolve

import (
	"context"
	"log/slog"

	"reelcache/internal/index"
	"reelcache/internal/logging"
	"reelcache/internal/store"
	"reelcache/internal/textutil"
	"reelcache/internal/tmdb"
)

// search carries the state of one ResolveTitle call.
type search struct {
	engine *Engine
	req    Request
	logger *slog.Logger

	searchedPeople map[string]struct{}
	searchedTitles map[string]struct{}
}

// ResolveTitle finds the best cached record for req, searching the catalog
// and caching new titles when the store has no confident match. It returns
// nil, nil when nothing matches.
func (e *Engine) ResolveTitle(ctx context.Context, req Request) (*Resolved, error) {
	req, err := req.normalize()
	if err != nil {
		return nil, err
	}
	s := &search{
		engine:         e,
		req:            req,
		logger:         e.requestLogger(ctx, req.Kind),
		searchedPeople: map[string]struct{}{},
		searchedTitles: map[string]struct{}{},
	}

	hit, err := s.run(ctx)
	if err != nil {
		return nil, err
	}
	if hit == nil {
		s.logger.Debug("no match",
			logging.Args(logging.DecisionAttrs("title_match", "none", "no candidate reached threshold")...)...)
		return nil, nil
	}
	s.logger.Debug("title match",
		logging.String(logging.FieldTitle, hit.Record.Title),
		logging.String("id", hit.ID),
		logging.Float64("score", hit.Score),
	)
	return s.finish(ctx, hit)
}

func (s *search) run(ctx context.Context) (*store.TitleHit, error) {
	settings := s.engine.settings
	var (
		hit *store.TitleHit
		err error
	)
	if !s.req.Force {
		if hit, err = s.query(ctx, 0, settings.MinScoreNoSearch); err != nil || hit != nil {
			return hit, err
		}
	}

	for _, person := range s.req.people() {
		if err := s.searchPerson(ctx, person); err != nil {
			return nil, err
		}
		if hit, err = s.query(ctx, 0, settings.MinScoreNoSearch); err != nil {
			return nil, err
		}
		if hit != nil {
			break
		}
	}

	if hit == nil || s.req.Force {
		for _, title := range s.req.Titles {
			if err := s.searchTitle(ctx, title); err != nil {
				return nil, err
			}
		}
		if hit, err = s.query(ctx, 0, settings.MinScoreNoSearch); err != nil || hit != nil {
			return hit, err
		}
	}

	if hit, err = s.exact(ctx); err != nil || hit != nil {
		return hit, err
	}

	if s.req.Year > 0 {
		for diff := 0; diff <= settings.YearDiff; diff++ {
			threshold := settings.MinScoreNoSearch
			if diff == settings.YearDiff {
				threshold = s.finalThreshold()
			}
			if hit, err = s.query(ctx, diff, threshold); err != nil || hit != nil {
				return hit, err
			}
		}
		return nil, nil
	}
	return s.query(ctx, 0, s.finalThreshold())
}

func (s *search) finalThreshold() float64 {
	base := s.engine.settings.MinScore
	if s.req.MinScore > 0 {
		base = s.req.MinScore
	}
	return base + float64(len(s.req.Actor))*s.engine.settings.ScoreIncrementPerActor
}

// query runs the scored lookup and returns the top hit when it reaches
// minScore.
func (s *search) query(ctx context.Context, yearDiff int, minScore float64) (*store.TitleHit, error) {
	q := s.engine.titleQuery(ctx, s.req, yearDiff)
	if len(q.Should) == 0 {
		return nil, nil
	}
	return s.best(ctx, q, minScore, "scored")
}

func (s *search) exact(ctx context.Context) (*store.TitleHit, error) {
	for _, q := range exactQueries(s.req.Titles) {
		hit, err := s.best(ctx, q, s.engine.settings.MinScoreExact, "exact")
		if err != nil || hit != nil {
			return hit, err
		}
	}
	return nil, nil
}

func (s *search) best(ctx context.Context, q index.Query, minScore float64, stage string) (*store.TitleHit, error) {
	hits, err := s.engine.store.FindTitles(ctx, s.req.Kind.Name, q)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	top := hits[0]
	if top.Score < minScore {
		s.logger.Debug("best candidate below threshold",
			logging.String("stage", stage),
			logging.String(logging.FieldTitle, top.Record.Title),
			logging.Float64("score", top.Score),
			logging.Float64("min_score", minScore),
		)
		return nil, nil
	}
	return &top, nil
}

// finish refreshes a stale or forced hit and wraps it for the caller.
func (s *search) finish(ctx context.Context, hit *store.TitleHit) (*Resolved, error) {
	e := s.engine
	rec := hit.Record
	tmdbID := rec.IDs.TMDB

	if tmdbID > 0 && (s.req.Force || e.policy.IsStale(rec.Timestamp)) {
		refreshed, err := e.CacheTitle(ctx, s.req.Kind, tmdbID, rec.Language, true)
		switch {
		case err == nil:
			rec = *refreshed
		case isNotFound(err):
			return nil, &OrphanError{ID: hit.ID, TMDBID: tmdbID, Kind: s.req.Kind.Name}
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case tmdb.IsCatalogError(err):
			logging.WarnWithContext(s.logger, "refresh failed, using cached record", "title_refresh_failed",
				logging.String(logging.FieldTitle, rec.Title),
				logging.Int64(logging.FieldTMDBID, tmdbID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "catalog unreachable; record refreshes on a later lookup"),
				logging.String(logging.FieldImpact, "returned record may be outdated"),
			)
		default:
			return nil, err
		}
		if current, err := e.store.GetTitle(ctx, s.req.Kind.Name, tmdbID); err != nil {
			return nil, err
		} else if current != nil {
			rec = *current
		}
	}

	return &Resolved{
		ID:     hit.ID,
		Kind:   s.req.Kind,
		Score:  hit.Score,
		Record: rec,
		tables: e.tables,
	}, nil
}

func memoKey(value string) string { return textutil.Fold(value) }

// catalogSkip reports whether err is a catalog failure that should only skip
// the current item.
func catalogSkip(ctx context.Context, err error) bool {
	return ctx.Err() == nil && tmdb.IsCatalogError(err)
}
