package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"reelcache/internal/alias"
	"reelcache/internal/logging"
	"reelcache/internal/store"
	"reelcache/internal/textutil"
	"reelcache/internal/tmdb"
)

// CacheTitle fetches a title from the catalog and merges it into the cached
// record. A fresh cached record is returned untouched unless force is set.
// originalLanguage selects the exception language for the detail fetch;
// when empty the cached record's language is used.
func (e *Engine) CacheTitle(ctx context.Context, kind Kind, tmdbID int64, originalLanguage string, force bool) (*store.TitleRecord, error) {
	kind = kind.orDefault()
	logger := e.requestLogger(ctx, kind).With(logging.Int64(logging.FieldTMDBID, tmdbID))

	existing, err := e.store.GetTitle(ctx, kind.Name, tmdbID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !force && !e.policy.IsStale(existing.Timestamp) {
		logger.Debug("cached title is current",
			logging.Args(logging.DecisionAttrs("title_refresh", "skipped", "record fresh")...)...)
		return existing, nil
	}
	if originalLanguage == "" && existing != nil {
		originalLanguage = existing.Language
	}
	language := e.detailLanguage(originalLanguage)

	details, err := e.catalog.Details(ctx, kind.Name, tmdbID, language)
	if err != nil {
		return nil, fmt.Errorf("fetch %s %d: %w", kind.Name, tmdbID, err)
	}

	rec := existing
	action := "updating details"
	if rec == nil {
		rec = &store.TitleRecord{}
		action = "getting details"
	}
	logger.Info(action,
		logging.String(logging.FieldTitle, details.Text(kind.TitleField)),
		logging.Int("year", tmdb.Year(details.Text(kind.DateField))),
	)

	if err := e.merge(ctx, logger, kind, rec, details, language); err != nil {
		return nil, err
	}
	if err := e.store.PutTitle(ctx, kind.Name, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// detailLanguage returns the language override for details and images: the
// exception language for titles originally in it, else the default.
func (e *Engine) detailLanguage(originalLanguage string) string {
	if e.settings.ExceptionLanguage != "" && strings.EqualFold(originalLanguage, e.settings.ExceptionLanguage) {
		return e.settings.ExceptionLanguage
	}
	return ""
}

func (e *Engine) imageLanguage(detailLanguage string) string {
	if detailLanguage != "" {
		return detailLanguage
	}
	return e.settings.Language
}

// merge folds the catalog payloads into rec. Secondary fetch failures are
// logged and skipped.
func (e *Engine) merge(ctx context.Context, logger *slog.Logger, kind Kind, rec *store.TitleRecord, d *tmdb.Details, language string) error {
	title := d.Text(kind.TitleField)
	date := d.Text(kind.DateField)

	if rec.Title == "" {
		rec.Title = title
	}
	if rec.Language == "" {
		rec.Language = d.OriginalLanguage
	}
	if rec.Year == 0 {
		rec.Year = tmdb.Year(date)
	}
	rec.IDs.TMDB = d.ID
	rec.Rating = &store.Rating{Votes: d.VoteCount, Average: d.VoteAverage}
	rec.Popularity = d.Popularity

	for _, c := range d.ProductionCountries {
		rec.Country = appendUnique(rec.Country, c.Code)
	}
	for _, code := range d.OriginCountry {
		rec.Country = appendUnique(rec.Country, code)
	}
	for _, g := range d.Genres {
		rec.Genre = appendUnique(rec.Genre, g.ID)
	}
	for _, id := range d.GenreIDs {
		rec.Genre = appendUnique(rec.Genre, id)
	}

	if original := d.Text(kind.OriginalTitleField); original != title {
		rec.Alias = alias.Append(rec.Alias, rec.Title, 0, original)
	}
	if overview := textutil.FirstParagraph(d.Overview); len(overview) > len(rec.Description) {
		rec.Description = overview
	}
	if len(d.Tagline) > len(rec.Tagline) {
		rec.Tagline = d.Tagline
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"credits", func() error { return e.mergeCredits(ctx, kind, rec) }},
		{"translations", func() error { return e.mergeTranslations(ctx, kind, rec) }},
		{"alternative_titles", func() error { return e.mergeAltTitles(ctx, kind, rec) }},
		{"release_dates", func() error { return e.mergeReleaseYears(ctx, kind, rec) }},
		{"images", func() error { return e.mergeImage(ctx, kind, rec, language) }},
	}
	for _, step := range steps {
		if err := e.secondary(ctx, logger, step.name, step.run()); err != nil {
			return err
		}
	}
	return nil
}

// secondary swallows catalog failures of optional sub-steps. Store and
// context errors are returned.
func (e *Engine) secondary(ctx context.Context, logger *slog.Logger, step string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if !tmdb.IsCatalogError(err) {
		return err
	}
	logging.WarnWithContext(logger, "catalog sub-request failed", "catalog_fetch_failed",
		logging.String("step", step),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "retry later or run with --force"),
		logging.String(logging.FieldImpact, step+" not merged into record"),
	)
	return nil
}

func (e *Engine) mergeCredits(ctx context.Context, kind Kind, rec *store.TitleRecord) error {
	credits, err := e.catalog.Credits(ctx, kind.Name, rec.IDs.TMDB)
	if err != nil {
		return err
	}
	cast := slices.Clone(credits.Cast)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	for _, member := range cast {
		rec.Credits.Actor = alias.Append(rec.Credits.Actor, "", e.settings.CastLimit, member.Name)
	}
	for _, member := range credits.Crew {
		if member.Job == "Director" {
			rec.Credits.Director = alias.Append(rec.Credits.Director, "", 0, member.Name)
			continue
		}
		rec.Credits.Other = alias.Append(rec.Credits.Other, "", e.settings.CrewLimit, member.Name)
	}
	return nil
}

func (e *Engine) mergeTranslations(ctx context.Context, kind Kind, rec *store.TitleRecord) error {
	translations, err := e.catalog.Translations(ctx, kind.Name, rec.IDs.TMDB)
	if err != nil {
		return err
	}
	for _, tr := range translations.Translations {
		if !containsFold(e.settings.Languages, tr.Language) {
			continue
		}
		rec.Alias = alias.Append(rec.Alias, rec.Title, 0, tr.Data.Text(kind.TitleField))
	}
	return nil
}

func (e *Engine) mergeAltTitles(ctx context.Context, kind Kind, rec *store.TitleRecord) error {
	alt, err := e.catalog.AlternativeTitles(ctx, kind.Name, rec.IDs.TMDB)
	if err != nil {
		return err
	}
	for _, entry := range alt.List(kind.AltTitlesField) {
		if !containsFold(e.settings.Countries, entry.Country) {
			continue
		}
		rec.Alias = alias.Append(rec.Alias, rec.Title, 0, entry.Title)
	}
	return nil
}

// mergeReleaseYears records movie release years in configured countries
// that differ from the primary year.
func (e *Engine) mergeReleaseYears(ctx context.Context, kind Kind, rec *store.TitleRecord) error {
	if kind.Name != Movie.Name {
		return nil
	}
	releases, err := e.catalog.ReleaseDates(ctx, rec.IDs.TMDB)
	if err != nil {
		return err
	}
	for _, country := range releases.Results {
		if !containsFold(e.settings.Countries, country.Country) {
			continue
		}
		for _, release := range country.ReleaseDates {
			year := tmdb.Year(release.ReleaseDate)
			if year == 0 || year == rec.Year {
				continue
			}
			rec.YearOther = appendUnique(rec.YearOther, year)
		}
	}
	return nil
}

func (e *Engine) mergeImage(ctx context.Context, kind Kind, rec *store.TitleRecord, language string) error {
	if rec.Image != "" {
		return nil
	}
	images, err := e.catalog.Images(ctx, kind.Name, rec.IDs.TMDB, e.imageLanguage(language))
	if err != nil {
		return err
	}
	if len(images.Posters) == 0 && len(images.Backdrops) == 0 {
		images, err = e.catalog.Images(ctx, kind.Name, rec.IDs.TMDB, "")
		if err != nil {
			return err
		}
	}
	rec.Image = closestImage(images, e.settings.ImageAspectRatio)
	return nil
}

func appendUnique[T comparable](list []T, value T) []T {
	var zero T
	if value == zero || slices.Contains(list, value) {
		return list
	}
	return append(list, value)
}

func containsFold(list []string, value string) bool {
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

func isNotFound(err error) bool {
	return errors.Is(err, tmdb.ErrNotFound)
}
