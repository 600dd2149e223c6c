package resolve

import (
	"fmt"
	"strings"
)

// Request is one title lookup. Year zero means unknown.
type Request struct {
	Kind     Kind
	Titles   []string
	Year     int
	Director []string
	Actor    []string
	Other    []string
	Country  []string
	Force    bool
	// MinScore overrides the configured final threshold when positive.
	MinScore float64
}

// EpisodeRequest narrows a resolved show to one episode.
type EpisodeRequest struct {
	Season       *int
	Episode      *int
	Subtitles    []string
	EpisodeYears []int
	Force        bool
}

// HasEpisode reports whether any episode criteria are present.
func (r EpisodeRequest) HasEpisode() bool {
	return r.Season != nil || r.Episode != nil || len(r.Subtitles) > 0 || len(r.EpisodeYears) > 0
}

func (r Request) people() []string {
	out := make([]string, 0, len(r.Director)+len(r.Actor)+len(r.Other))
	out = append(out, r.Director...)
	out = append(out, r.Actor...)
	return append(out, r.Other...)
}

func (r Request) normalize() (Request, error) {
	r.Kind = r.Kind.orDefault()
	r.Titles = cleanList(r.Titles)
	r.Director = cleanList(r.Director)
	r.Actor = cleanList(r.Actor)
	r.Other = cleanList(r.Other)
	r.Country = cleanList(r.Country)
	if len(r.Titles) == 0 && len(r.people()) == 0 {
		return r, fmt.Errorf("%w: at least one title or person is required", ErrInvalidRequest)
	}
	if r.Year < 0 {
		return r, fmt.Errorf("%w: year %d", ErrInvalidRequest, r.Year)
	}
	return r, nil
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
