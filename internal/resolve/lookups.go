package resolve

import (
	"context"
	"strings"
	"sync"

	"reelcache/internal/logging"
	"reelcache/internal/textutil"
)

const fallbackImageBase = "https://image.tmdb.org/t/p/"

// tables holds catalog reference data. Each table is fetched once per Engine;
// a failed load is logged and leaves the table empty.
type tables struct {
	engine *Engine

	genreOnce map[string]*sync.Once
	genres    map[string]map[int]string

	countryOnce  sync.Once
	countryNames map[string]string
	countryCodes map[string]string

	languageOnce  sync.Once
	languageNames map[string]string

	imageOnce sync.Once
	imageBase string
}

func newTables(e *Engine) *tables {
	return &tables{
		engine: e,
		genreOnce: map[string]*sync.Once{
			Movie.Name: {},
			TV.Name:    {},
		},
		genres: map[string]map[int]string{
			Movie.Name: {},
			TV.Name:    {},
		},
		countryNames:  map[string]string{},
		countryCodes:  map[string]string{},
		languageNames: map[string]string{},
	}
}

func (t *tables) warn(table string, err error) {
	logging.WarnWithContext(t.engine.logger, "catalog lookup table unavailable", "lookup_load_failed",
		logging.String("table", table),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check tmdb api key and connectivity"),
		logging.String(logging.FieldImpact, "display names and country matching degraded"),
	)
}

func (t *tables) genreNames(ctx context.Context, kind Kind) map[int]string {
	once, ok := t.genreOnce[kind.Name]
	if !ok {
		return nil
	}
	once.Do(func() {
		list, err := t.engine.catalog.Genres(ctx, kind.Name)
		if err != nil {
			t.warn("genre/"+kind.Name, err)
			return
		}
		names := t.genres[kind.Name]
		for _, g := range list {
			names[g.ID] = g.Name
		}
	})
	return t.genres[kind.Name]
}

func (t *tables) loadCountries(ctx context.Context) {
	t.countryOnce.Do(func() {
		list, err := t.engine.catalog.Countries(ctx)
		if err != nil {
			t.warn("countries", err)
			return
		}
		for _, c := range list {
			name := c.EnglishName
			if name == "" {
				name = c.Name
			}
			t.countryNames[c.Code] = name
			t.countryCodes[textutil.Fold(name)] = c.Code
		}
	})
}

// countryName maps an ISO 3166-1 code to its English name.
func (t *tables) countryName(ctx context.Context, code string) (string, bool) {
	t.loadCountries(ctx)
	name, ok := t.countryNames[strings.ToUpper(code)]
	return name, ok
}

// countryCode accepts a country name or code and returns the ISO code.
func (t *tables) countryCode(ctx context.Context, value string) (string, bool) {
	t.loadCountries(ctx)
	if code := strings.ToUpper(strings.TrimSpace(value)); len(code) == 2 {
		if _, ok := t.countryNames[code]; ok {
			return code, true
		}
	}
	code, ok := t.countryCodes[textutil.Fold(value)]
	return code, ok
}

func (t *tables) languageName(ctx context.Context, code string) (string, bool) {
	t.languageOnce.Do(func() {
		list, err := t.engine.catalog.Languages(ctx)
		if err != nil {
			t.warn("languages", err)
			return
		}
		for _, l := range list {
			t.languageNames[l.Code] = l.EnglishName
		}
	})
	name, ok := t.languageNames[code]
	return name, ok
}

// imageBaseURL is the configured image base plus image type, with a
// trailing slash.
func (t *tables) imageBaseURL(ctx context.Context) string {
	t.imageOnce.Do(func() {
		base := fallbackImageBase
		cfg, err := t.engine.catalog.Configuration(ctx)
		switch {
		case err != nil:
			t.warn("configuration", err)
		case cfg.Images.SecureBaseURL != "":
			base = cfg.Images.SecureBaseURL
		case cfg.Images.BaseURL != "":
			base = cfg.Images.BaseURL
		}
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		if size := strings.Trim(t.engine.settings.ImageType, "/"); size != "" {
			base += size + "/"
		}
		t.imageBase = base
	})
	return t.imageBase
}
