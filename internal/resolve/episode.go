package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelcache/internal/logging"
	"reelcache/internal/store"
	"reelcache/internal/tmdb"
)

// ResolveEpisode finds an episode of a resolved show, fetching the season
// from the catalog when the store has nothing current for it. The returned
// score is the show score plus the episode score. It returns nil, nil when
// no episode matches.
func (e *Engine) ResolveEpisode(ctx context.Context, show *Resolved, req EpisodeRequest) (*ResolvedEpisode, error) {
	if show == nil || show.Kind.Name != TV.Name {
		return nil, fmt.Errorf("%w: episode lookup requires a resolved tv show", ErrInvalidRequest)
	}
	showID := show.Record.IDs.TMDB
	logger := e.requestLogger(ctx, TV).With(
		logging.String(logging.FieldTitle, show.Record.Title),
		logging.Int64(logging.FieldTMDBID, showID),
	)

	var (
		hit *store.EpisodeHit
		err error
	)
	if !req.Force {
		if hit, err = e.queryEpisode(ctx, showID, req); err != nil {
			return nil, err
		}
	}

	if hit == nil && req.Season != nil {
		season := *req.Season
		fetch, err := e.seasonNeedsFetch(ctx, showID, season, req.Force)
		if err != nil {
			return nil, err
		}
		if fetch {
			written, fetched, err := e.fetchSeason(ctx, logger, showID, season)
			if err != nil {
				return nil, err
			}
			if fetched && written == 0 {
				stub := &store.EpisodeRecord{TVShowID: showID, Season: season, Episode: store.StubEpisode}
				if err := e.store.PutEpisode(ctx, stub); err != nil {
					return nil, err
				}
				attrs := append(logging.DecisionAttrs("season_stub", "written", "no aired episodes"), logging.Int("season", season))
				logger.Debug("season has no aired episodes", logging.Args(attrs...)...)
			}
		} else {
			attrs := append(logging.DecisionAttrs("season_fetch", "skipped", "fresh season rows"), logging.Int("season", season))
			logger.Debug("season already cached", logging.Args(attrs...)...)
		}
	}

	if hit == nil {
		if hit, err = e.queryEpisode(ctx, showID, req); err != nil || hit == nil {
			return nil, err
		}
	}

	if cachedBeforeAiring(hit.Record) {
		logger.Info("episode cached before airing, refreshing season",
			logging.Int("season", hit.Record.Season),
			logging.Int("episode", hit.Record.Episode),
		)
		if _, _, err := e.fetchSeason(ctx, logger, showID, hit.Record.Season); err != nil {
			return nil, err
		}
		season := hit.Record.Season
		refreshReq := req
		refreshReq.Season = &season
		refreshed, err := e.queryEpisode(ctx, showID, refreshReq)
		if err != nil {
			return nil, err
		}
		if refreshed != nil {
			hit = refreshed
		}
	}

	return &ResolvedEpisode{
		ID:     hit.ID,
		Score:  show.Score + hit.Score,
		Record: hit.Record,
	}, nil
}

// ResolveShow resolves a TV show and, when episode criteria are given, one
// of its episodes. The episode is attached to the result and its score added.
func (e *Engine) ResolveShow(ctx context.Context, req Request, epReq EpisodeRequest) (*Resolved, error) {
	req.Kind = TV
	show, err := e.ResolveTitle(ctx, req)
	if err != nil || show == nil {
		return show, err
	}
	if !epReq.HasEpisode() {
		return show, nil
	}
	episode, err := e.ResolveEpisode(ctx, show, epReq)
	if err != nil {
		return nil, err
	}
	if episode != nil {
		show.Episode = episode
		show.Score = episode.Score
	}
	return show, nil
}

func (e *Engine) queryEpisode(ctx context.Context, showID int64, req EpisodeRequest) (*store.EpisodeHit, error) {
	hits, err := e.store.FindEpisodes(ctx, episodeQuery(showID, req))
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	return &hits[0], nil
}

func (e *Engine) seasonNeedsFetch(ctx context.Context, showID int64, season int, force bool) (bool, error) {
	if force {
		return true, nil
	}
	rows, newest, err := e.store.SeasonRows(ctx, showID, season)
	if err != nil {
		return false, err
	}
	return rows == 0 || e.policy.IsStale(newest), nil
}

// fetchSeason writes one row per aired episode of a season and returns how
// many were written. A catalog failure is logged, writes nothing and reports
// fetched as false.
func (e *Engine) fetchSeason(ctx context.Context, logger *slog.Logger, showID int64, season int) (written int, fetched bool, err error) {
	logger.Info("getting season details", logging.Int("season", season))
	payload, err := e.catalog.Season(ctx, showID, season)
	if err := e.secondary(ctx, logger, "season", err); err != nil {
		return 0, false, err
	}
	if payload == nil {
		return 0, false, nil
	}
	today := e.now().UTC().Format(time.DateOnly)
	for _, ep := range payload.Episodes {
		if ep.AirDate == "" || ep.AirDate > today {
			continue
		}
		if err := e.store.PutEpisode(ctx, episodeRecord(showID, season, ep)); err != nil {
			return written, true, err
		}
		written++
	}
	return written, true, nil
}

func episodeRecord(showID int64, season int, ep tmdb.Episode) *store.EpisodeRecord {
	rec := &store.EpisodeRecord{
		TVShowID:    showID,
		Season:      season,
		Episode:     ep.EpisodeNumber,
		Title:       ep.Name,
		AirDate:     ep.AirDate,
		AirYear:     tmdb.Year(ep.AirDate),
		Description: ep.Overview,
		Image:       strings.TrimPrefix(ep.StillPath, "/"),
		IDs:         &store.IDs{TMDB: ep.ID},
	}
	if ep.VoteAverage != 0 {
		rec.Rating = &store.Rating{Votes: ep.VoteCount, Average: ep.VoteAverage}
	}
	return rec
}

// cachedBeforeAiring reports whether the row was written before its air
// date, so its details are likely incomplete. fetchSeason skips unaired
// episodes, so rows it writes only qualify when the store clock lags the
// engine clock; the check exists for rows from other writers, such as older
// releases that cached announced episodes.
func cachedBeforeAiring(rec store.EpisodeRecord) bool {
	if rec.AirDate == "" || rec.Timestamp.IsZero() {
		return false
	}
	return rec.AirDate > rec.Timestamp.UTC().Format(time.DateOnly)
}
