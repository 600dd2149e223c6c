package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

func languageParams(language string) url.Values {
	params := url.Values{}
	if language != "" {
		params.Set("language", language)
	}
	return params
}

// Details fetches {kind}/{id}. An empty language uses the client default.
func (c *Client) Details(ctx context.Context, kind string, id int64, language string) (*Details, error) {
	var out Details
	if err := c.Fetch(ctx, fmt.Sprintf("%s/%d", kind, id), languageParams(language), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Credits fetches {kind}/{id}/credits.
func (c *Client) Credits(ctx context.Context, kind string, id int64) (*Credits, error) {
	var out Credits
	if err := c.Fetch(ctx, fmt.Sprintf("%s/%d/credits", kind, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Translations fetches {kind}/{id}/translations.
func (c *Client) Translations(ctx context.Context, kind string, id int64) (*Translations, error) {
	var out Translations
	if err := c.Fetch(ctx, fmt.Sprintf("%s/%d/translations", kind, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AlternativeTitles fetches {kind}/{id}/alternative_titles.
func (c *Client) AlternativeTitles(ctx context.Context, kind string, id int64) (*AlternativeTitles, error) {
	var out AlternativeTitles
	if err := c.Fetch(ctx, fmt.Sprintf("%s/%d/alternative_titles", kind, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReleaseDates fetches movie/{id}/release_dates.
func (c *Client) ReleaseDates(ctx context.Context, id int64) (*ReleaseDates, error) {
	var out ReleaseDates
	if err := c.Fetch(ctx, fmt.Sprintf("movie/%d/release_dates", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Images fetches {kind}/{id}/images. An empty language requests the images of
// every language.
func (c *Client) Images(ctx context.Context, kind string, id int64, language string) (*Images, error) {
	params := url.Values{"language": {language}}
	var out Images
	if err := c.Fetch(ctx, fmt.Sprintf("%s/%d/images", kind, id), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchPerson runs search/person for the first page of results.
func (c *Client) SearchPerson(ctx context.Context, query string) (*PersonPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")
	var out PersonPage
	if err := c.Fetch(ctx, "search/person", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PersonCredits fetches person/{id}/{kind}_credits.
func (c *Client) PersonCredits(ctx context.Context, kind string, personID int64) (*PersonCredits, error) {
	var out PersonCredits
	if err := c.Fetch(ctx, fmt.Sprintf("person/%d/%s_credits", personID, kind), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchTitles runs search/{kind}. A positive year is passed as the year filter.
func (c *Client) SearchTitles(ctx context.Context, kind, query string, year int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", "1")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var out Page
	if err := c.Fetch(ctx, "search/"+kind, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Season fetches tv/{id}/season/{n} including its episodes.
func (c *Client) Season(ctx context.Context, showID int64, season int) (*Season, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	if season < 0 {
		return nil, errors.New("season number must not be negative")
	}
	var out Season
	if err := c.Fetch(ctx, fmt.Sprintf("tv/%d/season/%d", showID, season), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Discover fetches one page of discover/{kind} sorted by popularity.
func (c *Client) Discover(ctx context.Context, kind string, page int) (*Page, error) {
	params := url.Values{}
	params.Set("sort_by", "popularity.desc")
	params.Set("page", strconv.Itoa(max(page, 1)))
	var out Page
	if err := c.Fetch(ctx, "discover/"+kind, params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Genres fetches genre/{kind}/list.
func (c *Client) Genres(ctx context.Context, kind string) ([]Genre, error) {
	var out GenreList
	if err := c.Fetch(ctx, fmt.Sprintf("genre/%s/list", kind), nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

// Countries fetches configuration/countries.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	var out []Country
	if err := c.Fetch(ctx, "configuration/countries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Languages fetches configuration/languages.
func (c *Client) Languages(ctx context.Context) ([]Language, error) {
	var out []Language
	if err := c.Fetch(ctx, "configuration/languages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Configuration fetches the API configuration (image base URLs).
func (c *Client) Configuration(ctx context.Context) (*Configuration, error) {
	var out Configuration
	if err := c.Fetch(ctx, "configuration", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
