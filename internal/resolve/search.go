package resolve

import (
	"context"
	"log/slog"

	"reelcache/internal/logging"
	"reelcache/internal/store"
	"reelcache/internal/tmdb"
)

func (s *search) attemptYear() int {
	if s.req.Year > 0 {
		return s.req.Year
	}
	return store.NoYear
}

// shouldSearch checks the attempt log. It returns whether the remote search
// must run and the id of the attempt to refresh, if any.
func (s *search) shouldSearch(ctx context.Context, field, value string) (bool, string, error) {
	attempt, err := s.engine.store.FindAttempt(ctx, s.req.Kind.Name, field, value, s.attemptYear())
	if err != nil {
		return false, "", err
	}
	if attempt == nil {
		return true, "", nil
	}
	if s.engine.policy.IsStale(attempt.Record.Timestamp) {
		return true, attempt.ID, nil
	}
	return s.req.Force, attempt.ID, nil
}

func (s *search) inWindow(date string) bool {
	if s.req.Year <= 0 {
		return true
	}
	year := tmdb.Year(date)
	if year == 0 {
		return false
	}
	diff := year - s.req.Year
	if diff < 0 {
		diff = -diff
	}
	return diff <= s.engine.settings.YearDiff
}

// searchPerson caches the titles of people matching name that fall inside
// the year window, then records the attempt.
func (s *search) searchPerson(ctx context.Context, name string) error {
	key := memoKey(name)
	if _, done := s.searchedPeople[key]; done {
		return nil
	}
	s.searchedPeople[key] = struct{}{}

	run, attemptID, err := s.shouldSearch(ctx, "person", name)
	if err != nil {
		return err
	}
	logger := s.logger.With(logging.String("person", name), logging.Int("year", s.req.Year))
	if !run {
		logger.Debug("person already searched",
			logging.Args(logging.DecisionAttrs("person_search", "skipped", "fresh search attempt")...)...)
		return nil
	}

	logger.Info("searching catalog for person")
	page, err := s.engine.catalog.SearchPerson(ctx, name)
	if err != nil {
		return s.searchFailed(ctx, logger, "person", err)
	}
	people := page.Results
	if limit := s.engine.settings.PersonSearchLimit; limit > 0 && len(people) > limit {
		people = people[:limit]
	}

	kind := s.req.Kind
	seen := map[int64]struct{}{}
	for _, person := range people {
		credits, err := s.engine.catalog.PersonCredits(ctx, kind.Name, person.ID)
		if err := s.engine.secondary(ctx, logger, "person_credits", err); err != nil {
			return err
		}
		if credits == nil {
			continue
		}
		logger.Info("caching person credits",
			logging.Int64("person_id", person.ID),
			logging.Int("credits", len(credits.Crew)+len(credits.Cast)),
		)
		for _, credit := range append(credits.Crew, credits.Cast...) {
			if _, dup := seen[credit.ID]; dup || credit.ID <= 0 {
				continue
			}
			if !s.inWindow(credit.Text(kind.DateField)) {
				continue
			}
			seen[credit.ID] = struct{}{}
			if err := s.cacheCandidate(ctx, credit.Details); err != nil {
				return err
			}
		}
	}

	_, err = s.engine.store.PutAttempt(ctx, kind.Name, attemptID, store.SearchAttempt{Person: name, Year: s.attemptYear()})
	return err
}

// searchTitle caches the top catalog results for title inside the year
// window, then records the attempt.
func (s *search) searchTitle(ctx context.Context, title string) error {
	key := memoKey(title)
	if _, done := s.searchedTitles[key]; done {
		return nil
	}
	s.searchedTitles[key] = struct{}{}

	run, attemptID, err := s.shouldSearch(ctx, "title", title)
	if err != nil {
		return err
	}
	logger := s.logger.With(logging.String(logging.FieldTitle, title), logging.Int("year", s.req.Year))
	if !run {
		logger.Debug("title already searched",
			logging.Args(logging.DecisionAttrs("title_search", "skipped", "fresh search attempt")...)...)
		return nil
	}

	kind := s.req.Kind
	logger.Info("searching catalog for title")
	page, err := s.engine.catalog.SearchTitles(ctx, kind.Name, title, s.req.Year)
	if err != nil {
		return s.searchFailed(ctx, logger, "title", err)
	}
	cached := 0
	for _, result := range page.Results {
		if limit := s.engine.settings.TitleSearchLimit; limit > 0 && cached >= limit {
			break
		}
		if !s.inWindow(result.Text(kind.DateField)) {
			continue
		}
		cached++
		if err := s.cacheCandidate(ctx, result); err != nil {
			return err
		}
	}

	_, err = s.engine.store.PutAttempt(ctx, kind.Name, attemptID, store.SearchAttempt{Title: title, Year: s.attemptYear()})
	return err
}

// searchFailed logs a failed remote search. The attempt is not recorded so
// the next lookup retries it.
func (s *search) searchFailed(ctx context.Context, logger *slog.Logger, what string, err error) error {
	if !catalogSkip(ctx, err) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	logging.WarnWithContext(logger, "catalog search failed", "catalog_search_failed",
		logging.String("search", what),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check tmdb connectivity; the search is retried on the next lookup"),
		logging.String(logging.FieldImpact, "no new titles cached from this search"),
	)
	return nil
}

func (s *search) cacheCandidate(ctx context.Context, d tmdb.Details) error {
	_, err := s.engine.CacheTitle(ctx, s.req.Kind, d.ID, d.OriginalLanguage, s.req.Force)
	if err == nil {
		return nil
	}
	if !catalogSkip(ctx, err) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	logging.WarnWithContext(s.logger, "skipping title", "title_cache_failed",
		logging.Int64(logging.FieldTMDBID, d.ID),
		logging.Error(err),
		logging.String(logging.FieldImpact, "title not cached"),
	)
	return nil
}
