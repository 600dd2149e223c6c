package resolve

import (
	"fmt"
	"strings"
)

// Kind maps a content kind to the catalog field names that differ between
// movies and TV shows.
type Kind struct {
	Name               string
	TitleField         string
	OriginalTitleField string
	AltTitlesField     string
	DateField          string
}

var (
	Movie = Kind{
		Name:               "movie",
		TitleField:         "title",
		OriginalTitleField: "original_title",
		AltTitlesField:     "titles",
		DateField:          "release_date",
	}
	TV = Kind{
		Name:               "tv",
		TitleField:         "name",
		OriginalTitleField: "original_name",
		AltTitlesField:     "results",
		DateField:          "first_air_date",
	}
)

// KindByName returns Movie or TV.
func KindByName(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "movie", "movies":
		return Movie, nil
	case "tv", "show", "tvshow":
		return TV, nil
	}
	return Kind{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidRequest, name)
}

func (k Kind) orDefault() Kind {
	if k.Name == "" {
		return Movie
	}
	return k
}
