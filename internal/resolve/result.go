package resolve

import (
	"context"
	"strings"

	"reelcache/internal/store"
)

// Resolved is a matched title. Record holds codes as stored; the display
// helpers translate them with the catalog lookup tables.
type Resolved struct {
	ID      string
	Kind    Kind
	Score   float64
	Record  store.TitleRecord
	Episode *ResolvedEpisode

	tables *tables
}

// ResolvedEpisode is a matched episode. Score includes the show score.
type ResolvedEpisode struct {
	ID     string
	Score  float64
	Record store.EpisodeRecord
}

// Year is the episode air year when an episode is attached, else the title
// year.
func (r *Resolved) Year() int {
	if r.Episode != nil && r.Episode.Record.AirYear > 0 {
		return r.Episode.Record.AirYear
	}
	return r.Record.Year
}

// Description prefers the episode description.
func (r *Resolved) Description() string {
	if r.Episode != nil && r.Episode.Record.Description != "" {
		return r.Episode.Record.Description
	}
	return r.Record.Description
}

// ImageURL is the absolute image URL, preferring the episode still.
func (r *Resolved) ImageURL(ctx context.Context) string {
	image := r.Record.Image
	if r.Episode != nil && r.Episode.Record.Image != "" {
		image = r.Episode.Record.Image
	}
	if image == "" {
		return ""
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") || r.tables == nil {
		return image
	}
	return r.tables.imageBaseURL(ctx) + image
}

// GenreNames maps genre ids to names, dropping unknown ids.
func (r *Resolved) GenreNames(ctx context.Context) []string {
	if r.tables == nil {
		return nil
	}
	names := r.tables.genreNames(ctx, r.Kind)
	out := make([]string, 0, len(r.Record.Genre))
	for _, id := range r.Record.Genre {
		if name, ok := names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// CountryNames maps country codes to English names; unknown codes become
// "Unknown".
func (r *Resolved) CountryNames(ctx context.Context) []string {
	out := make([]string, 0, len(r.Record.Country))
	for _, code := range r.Record.Country {
		name := "Unknown"
		if r.tables != nil {
			if n, ok := r.tables.countryName(ctx, code); ok {
				name = n
			}
		}
		out = append(out, name)
	}
	return out
}

// LanguageName maps the original language code to its English name.
func (r *Resolved) LanguageName(ctx context.Context) string {
	if r.tables != nil {
		if name, ok := r.tables.languageName(ctx, r.Record.Language); ok {
			return name
		}
	}
	return "Unknown"
}

// Cached returns the stored record for tmdbID wrapped for display, or nil
// when it is not cached. It never contacts the catalog for the record
// itself.
func (e *Engine) Cached(ctx context.Context, kind Kind, tmdbID int64) (*Resolved, error) {
	kind = kind.orDefault()
	rec, err := e.store.GetTitle(ctx, kind.Name, tmdbID)
	if err != nil || rec == nil {
		return nil, err
	}
	return &Resolved{
		ID:     store.TitleID(tmdbID),
		Kind:   kind,
		Record: *rec,
		tables: e.tables,
	}, nil
}
