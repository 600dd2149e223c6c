package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"reelcache/internal/resolve"
	"reelcache/internal/store"
)

type episodeView struct {
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
	Title   string `json:"title,omitempty"`
	AirDate string `json:"air_date,omitempty"`
}

// resolvedView is the display form of a match: codes are replaced by names
// and the image path by a full URL.
type resolvedView struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Title       string        `json:"title"`
	Year        int           `json:"year,omitempty"`
	Score       float64       `json:"score"`
	Alias       []string      `json:"alias,omitempty"`
	Language    string        `json:"language,omitempty"`
	Genres      []string      `json:"genres,omitempty"`
	Countries   []string      `json:"countries,omitempty"`
	Rating      *store.Rating `json:"rating,omitempty"`
	Popularity  float64       `json:"popularity"`
	Directors   []string      `json:"directors,omitempty"`
	Actors      []string      `json:"actors,omitempty"`
	Description string        `json:"description,omitempty"`
	Tagline     string        `json:"tagline,omitempty"`
	Image       string        `json:"image,omitempty"`
	TMDBID      int64         `json:"tmdb_id"`
	Episode     *episodeView  `json:"episode,omitempty"`
	CachedAt    time.Time     `json:"cached_at"`
}

func newResolvedView(ctx context.Context, res *resolve.Resolved) *resolvedView {
	if res == nil {
		return nil
	}
	rec := res.Record
	view := &resolvedView{
		ID:          res.ID,
		Kind:        res.Kind.Name,
		Title:       rec.Title,
		Year:        res.Year(),
		Score:       res.Score,
		Alias:       rec.Alias,
		Language:    res.LanguageName(ctx),
		Genres:      res.GenreNames(ctx),
		Countries:   res.CountryNames(ctx),
		Rating:      rec.Rating,
		Popularity:  rec.Popularity,
		Directors:   rec.Credits.Director,
		Actors:      rec.Credits.Actor,
		Description: res.Description(),
		Tagline:     rec.Tagline,
		Image:       res.ImageURL(ctx),
		TMDBID:      rec.IDs.TMDB,
		CachedAt:    rec.Timestamp,
	}
	if ep := res.Episode; ep != nil {
		view.Episode = &episodeView{
			Season:  ep.Record.Season,
			Episode: ep.Record.Episode,
			Title:   ep.Record.Title,
			AirDate: ep.Record.AirDate,
		}
	}
	return view
}

func (v *resolvedView) pairs() [][2]string {
	pairs := [][2]string{
		{"Title", v.Title},
		{"Year", yearString(v.Year)},
		{"Kind", v.Kind},
		{"TMDB ID", strconv.FormatInt(v.TMDBID, 10)},
		{"Score", fmt.Sprintf("%.2f", v.Score)},
	}
	if v.Episode != nil {
		pairs = append(pairs,
			[2]string{"Episode", fmt.Sprintf("S%02dE%02d %s", v.Episode.Season, v.Episode.Episode, v.Episode.Title)},
			[2]string{"Air Date", v.Episode.AirDate},
		)
	}
	pairs = append(pairs,
		[2]string{"Aliases", strings.Join(v.Alias, ", ")},
		[2]string{"Language", v.Language},
		[2]string{"Genres", strings.Join(v.Genres, ", ")},
		[2]string{"Countries", strings.Join(v.Countries, ", ")},
		[2]string{"Directors", strings.Join(v.Directors, ", ")},
		[2]string{"Actors", strings.Join(v.Actors, ", ")},
		[2]string{"Rating", ratingString(v.Rating)},
		[2]string{"Description", v.Description},
		[2]string{"Tagline", v.Tagline},
		[2]string{"Image", v.Image},
		[2]string{"Cached", cachedAge(v.CachedAt)},
	)
	return pairs
}

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func ratingString(r *store.Rating) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%.1f (%s votes)", r.Average, humanize.Comma(r.Votes))
}

func cachedAge(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s (%s)", humanize.Time(ts), ts.UTC().Format(time.RFC3339))
}

// writeJSON prints v indented on the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJSONLine prints v compactly on one line, for JSONL streams.
func writeJSONLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}
