package resolve

import (
	"context"

	"reelcache/internal/index"
)

// titleQuery builds the scored lookup for req, widening the year window by
// yearDiff on each side.
func (e *Engine) titleQuery(ctx context.Context, req Request, yearDiff int) index.Query {
	var should []index.Clause
	for _, title := range req.Titles {
		should = append(should, index.NewMatch(title, "title", "alias"))
	}
	for _, name := range req.Director {
		should = append(should, index.NewMatch(name, "credits.director"))
	}
	for _, name := range req.Actor {
		should = append(should, index.NewMatch(name, "credits.actor"))
	}
	for _, name := range req.Other {
		should = append(should, index.NewMatch(name, "credits.other"))
	}
	for _, country := range req.Country {
		if code, ok := e.tables.countryCode(ctx, country); ok {
			should = append(should, index.NewMatch(code, "country"))
		}
	}

	q := index.Query{Bool: index.Bool{Should: should}, Size: 1}
	if req.Year > 0 {
		lo, hi := float64(req.Year-yearDiff), float64(req.Year+yearDiff)
		q.Must = append(q.Must, index.Bool{Should: []index.Clause{
			index.Between("year", lo, hi),
			index.NewTerm(req.Year, "year_other"),
		}})
	}
	return q
}

// exactQueries returns one query per title; each adds an exact title/alias
// term to the previous one.
func exactQueries(titles []string) []index.Query {
	out := make([]index.Query, 0, len(titles))
	var should []index.Clause
	for _, title := range titles {
		should = append(should, index.NewTerm(title, "title", "alias"))
		out = append(out, index.Query{
			Bool: index.Bool{Should: append([]index.Clause(nil), should...)},
			Size: 1,
		})
	}
	return out
}

// episodeQuery matches aired episodes of a show. The season stub is
// filtered out.
func episodeQuery(showID int64, req EpisodeRequest) index.Query {
	q := index.Query{
		Bool: index.Bool{
			Must:   []index.Clause{index.NewTerm(showID, "tvshow_id")},
			Filter: []index.Clause{index.AtLeast("episode", 0)},
		},
		Size: 1,
	}
	if req.Season != nil {
		q.Must = append(q.Must, index.NewTerm(*req.Season, "season"))
	}
	if req.Episode != nil {
		q.Must = append(q.Must, index.NewTerm(*req.Episode, "episode"))
	}
	for _, subtitle := range req.Subtitles {
		q.Should = append(q.Should, index.NewMatch(subtitle, "title"))
	}
	for _, year := range req.EpisodeYears {
		q.Should = append(q.Should, index.Between("air_year", float64(year), float64(year)))
	}
	return q
}
