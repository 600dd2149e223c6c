package resolve_test

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"
	"time"

	"reelcache/internal/config"
	"reelcache/internal/index"
	"reelcache/internal/resolve"
	"reelcache/internal/store"
	"reelcache/internal/testsupport"
	"reelcache/internal/tmdb"
)

type harness struct {
	engine  *resolve.Engine
	catalog *testsupport.CatalogServer
	backend index.Backend
	store   *store.Store
	cfg     *config.Config
}

func newHarness(t *testing.T, opts ...resolve.Option) *harness {
	t.Helper()
	return newHarnessOn(t, testsupport.MustOpenMemory(t), opts...)
}

func newHarnessOn(t *testing.T, backend index.Backend, opts ...resolve.Option) *harness {
	t.Helper()

	catalog := testsupport.NewCatalogServer(t)
	st := testsupport.MustOpenStore(t, backend)
	testsupport.SeedBackground(t, st)
	cfg := testsupport.NewConfig(t,
		testsupport.WithCatalogURL(catalog.URL),
		testsupport.WithMatching(func(m *config.Matching) {
			// Scores from a handful of documents are far below the
			// defaults tuned for a large cache.
			m.MinScoreNoSearch = 1.5
			m.MinScore = 1.5
			m.MinScoreExact = 0.2
			m.ScoreIncrementPerActor = 0
		}),
	)
	engine := resolve.New(st, catalog.CatalogClient(t), resolve.SettingsFromConfig(cfg), resolve.PolicyFromConfig(cfg), opts...)
	return &harness{engine: engine, catalog: catalog, backend: backend, store: st, cfg: cfg}
}

// storeAt returns a store over the same backend whose writes are stamped at ts.
func (h *harness) storeAt(t *testing.T, ts time.Time) *store.Store {
	t.Helper()
	return testsupport.MustOpenStore(t, h.backend, store.WithClock(func() time.Time { return ts }))
}

func putTitle(t *testing.T, st *store.Store, kind string, rec store.TitleRecord) {
	t.Helper()
	if err := st.PutTitle(context.Background(), kind, &rec); err != nil {
		t.Fatalf("PutTitle: %v", err)
	}
}

func matrixRecord() store.TitleRecord {
	return store.TitleRecord{
		Title:    "The Matrix",
		Language: "en",
		Year:     1999,
		Credits:  store.Credits{Director: []string{"Lana Wachowski"}},
		IDs:      store.IDs{TMDB: 603},
	}
}

func heatRecord() store.TitleRecord {
	return store.TitleRecord{
		Title:    "Heat",
		Language: "en",
		Year:     1995,
		IDs:      store.IDs{TMDB: 949},
	}
}

func TestResolveTitleRejectsEmptyRequest(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.ResolveTitle(context.Background(), resolve.Request{Titles: []string{"  "}})
	if !errors.Is(err, resolve.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if got := len(h.catalog.Requests()); got != 0 {
		t.Fatalf("expected no catalog calls, got %d", got)
	}
}

func TestResolveTitleCachedHitMakesNoCatalogCalls(t *testing.T) {
	h := newHarness(t)
	putTitle(t, h.store, "movie", matrixRecord())
	putTitle(t, h.store, "movie", heatRecord())

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{
		Kind:   resolve.Movie,
		Titles: []string{"The Matrix"},
		Year:   1999,
	})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.IDs.TMDB != 603 {
		t.Fatalf("expected The Matrix, got %+v", res)
	}
	if res.ID != "603" {
		t.Fatalf("expected record id 603, got %q", res.ID)
	}
	if reqs := h.catalog.Requests(); len(reqs) != 0 {
		t.Fatalf("expected zero catalog calls, got %v", reqs)
	}
}

func TestResolveTitleForceRunsSearch(t *testing.T) {
	h := newHarness(t)
	putTitle(t, h.store, "movie", matrixRecord())
	putTitle(t, h.store, "movie", heatRecord())

	h.catalog.Handle("search/movie?query=The Matrix", tmdb.Page{Results: []tmdb.Details{
		{ID: 603, Title: "The Matrix", ReleaseDate: "1999-03-30", OriginalLanguage: "en"},
	}})
	h.catalog.AddTitle("movie", tmdb.Details{
		ID:               603,
		Title:            "The Matrix",
		OriginalTitle:    "The Matrix",
		ReleaseDate:      "1999-03-30",
		OriginalLanguage: "en",
		Popularity:       80,
	}, tmdb.Credits{})

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{
		Titles: []string{"The Matrix"},
		Year:   1999,
		Force:  true,
	})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.IDs.TMDB != 603 {
		t.Fatalf("expected The Matrix, got %+v", res)
	}
	if got := h.catalog.Count("search/movie"); got != 1 {
		t.Fatalf("expected one title search, got %d", got)
	}
	if got := h.catalog.Count("movie/603"); got == 0 {
		t.Fatalf("expected details refetch on force")
	}
	if res.Record.Popularity != 80 {
		t.Fatalf("expected refreshed popularity, got %v", res.Record.Popularity)
	}
}

func TestSearchAttemptKeyIncludesYear(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.catalog.Handle("search/movie?query=Obscure Film", tmdb.Page{})

	lookup := func(year int) {
		t.Helper()
		res, err := h.engine.ResolveTitle(ctx, resolve.Request{Titles: []string{"Obscure Film"}, Year: year})
		if err != nil {
			t.Fatalf("ResolveTitle(year=%d): %v", year, err)
		}
		if res != nil {
			t.Fatalf("expected no match, got %+v", res)
		}
	}

	lookup(0)
	if got := h.catalog.Count("search/movie"); got != 1 {
		t.Fatalf("expected 1 search, got %d", got)
	}
	lookup(2010)
	if got := h.catalog.Count("search/movie"); got != 2 {
		t.Fatalf("year 2010 must not reuse the yearless attempt; searches=%d", got)
	}
	lookup(2010)
	lookup(0)
	if got := h.catalog.Count("search/movie"); got != 2 {
		t.Fatalf("expected recorded attempts to suppress searches, got %d", got)
	}

	for _, year := range []int{store.NoYear, 2010} {
		hit, err := h.store.FindAttempt(ctx, "movie", "title", "Obscure Film", year)
		if err != nil {
			t.Fatalf("FindAttempt: %v", err)
		}
		if hit == nil {
			t.Fatalf("expected attempt for year %d", year)
		}
	}
}

func TestFailedSearchIsNotRecorded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.catalog.Fail("search/movie", http.StatusServiceUnavailable)

	res, err := h.engine.ResolveTitle(ctx, resolve.Request{Titles: []string{"Lost"}, Year: 2004})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no match, got %+v", res)
	}
	hit, err := h.store.FindAttempt(ctx, "movie", "title", "Lost", 2004)
	if err != nil {
		t.Fatalf("FindAttempt: %v", err)
	}
	if hit != nil {
		t.Fatalf("failed search must not be recorded, got %+v", hit)
	}
}

func TestPersonSearchPrecedesTitleSearch(t *testing.T) {
	h := newHarness(t)
	h.catalog.Handle("search/person?query=Michael Mann", tmdb.PersonPage{Results: []tmdb.Person{{ID: 638, Name: "Michael Mann"}}})
	h.catalog.Handle("person/638/movie_credits", tmdb.PersonCredits{Crew: []tmdb.PersonCredit{
		{Details: tmdb.Details{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", OriginalLanguage: "en"}, Job: "Director"},
		{Details: tmdb.Details{ID: 1538, Title: "Collateral", ReleaseDate: "2004-08-05", OriginalLanguage: "en"}, Job: "Director"},
		{Details: tmdb.Details{ID: 77, Title: "Untitled Project", OriginalLanguage: "en"}, Job: "Director"},
	}})
	h.catalog.AddTitle("movie", tmdb.Details{
		ID:               949,
		Title:            "Heat",
		OriginalTitle:    "Heat",
		ReleaseDate:      "1995-12-15",
		OriginalLanguage: "en",
	}, tmdb.Credits{
		Cast: []tmdb.CastMember{{ID: 1158, Name: "Al Pacino", Order: 0}},
		Crew: []tmdb.CrewMember{{ID: 638, Name: "Michael Mann", Job: "Director"}},
	})

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{
		Titles:   []string{"Heat"},
		Year:     1995,
		Director: []string{"Michael Mann"},
	})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.IDs.TMDB != 949 {
		t.Fatalf("expected Heat, got %+v", res)
	}

	reqs := h.catalog.Requests()
	person := slices.Index(reqs, "search/person?query=Michael Mann")
	if person < 0 {
		t.Fatalf("expected a person search, got %v", reqs)
	}
	for i, r := range reqs {
		if r == "search/movie?query=Heat" && i < person {
			t.Fatalf("title search ran before person search: %v", reqs)
		}
	}
	if got := h.catalog.Count("search/movie"); got != 0 {
		t.Fatalf("expected the person search to be enough, got %d title searches", got)
	}
	if h.catalog.Count("movie/1538") != 0 {
		t.Fatalf("credit outside the year window was fetched")
	}
	if h.catalog.Count("movie/77") != 0 {
		t.Fatalf("undated credit was fetched despite a requested year")
	}
	if !slices.Equal(res.Record.Credits.Director, []string{"Michael Mann"}) {
		t.Fatalf("unexpected directors %v", res.Record.Credits.Director)
	}
}

func TestResolveTitleExactFallback(t *testing.T) {
	h := newHarness(t)
	putTitle(t, h.store, "movie", store.TitleRecord{Title: "Up", Year: 2009, IDs: store.IDs{TMDB: 14160}})
	putTitle(t, h.store, "movie", store.TitleRecord{Title: "Up in the Air", Year: 2009, IDs: store.IDs{TMDB: 22947}})
	h.catalog.Handle("search/movie", tmdb.Page{})

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{Titles: []string{"up"}})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.IDs.TMDB != 14160 {
		t.Fatalf("expected exact match on Up, got %+v", res)
	}
}

func TestResolveTitleOrphan(t *testing.T) {
	h := newHarness(t)
	putTitle(t, h.storeAt(t, time.Now().AddDate(0, 0, -90)), "movie", matrixRecord())
	putTitle(t, h.store, "movie", heatRecord())

	_, err := h.engine.ResolveTitle(context.Background(), resolve.Request{Titles: []string{"The Matrix"}, Year: 1999})
	var orphan *resolve.OrphanError
	if !errors.As(err, &orphan) {
		t.Fatalf("expected OrphanError, got %v", err)
	}
	if orphan.TMDBID != 603 || orphan.ID != "603" {
		t.Fatalf("unexpected orphan %+v", orphan)
	}
	if !errors.Is(err, resolve.ErrNotFoundUpstream) {
		t.Fatalf("expected ErrNotFoundUpstream in chain")
	}
}

func TestResolveTitleRefreshFailureReturnsCached(t *testing.T) {
	h := newHarness(t)
	putTitle(t, h.storeAt(t, time.Now().AddDate(0, 0, -90)), "movie", matrixRecord())
	putTitle(t, h.store, "movie", heatRecord())
	h.catalog.Fail("movie/603", http.StatusInternalServerError)

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{Titles: []string{"The Matrix"}, Year: 1999})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.Title != "The Matrix" {
		t.Fatalf("expected cached record, got %+v", res)
	}
}

func TestResolveTitleYearRelaxation(t *testing.T) {
	h := newHarness(t)
	putTitle(t, h.store, "movie", matrixRecord())
	h.catalog.Handle("search/movie", tmdb.Page{})

	// "Matrix" alone never matches exactly, so only the widening year
	// window can find the 1999 record.
	req := resolve.Request{Titles: []string{"Matrix"}, Director: []string{"Lana Wachowski"}, Year: 2001}
	res, err := h.engine.ResolveTitle(context.Background(), req)
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.IDs.TMDB != 603 {
		t.Fatalf("expected year window to reach 1999, got %+v", res)
	}

	req.Year = 2005
	res, err = h.engine.ResolveTitle(context.Background(), req)
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res != nil {
		t.Fatalf("expected no match outside the year window, got %+v", res)
	}
}

func TestResolvedDisplayHelpers(t *testing.T) {
	h := newHarness(t)
	rec := matrixRecord()
	rec.Genre = []int{28, 999}
	rec.Country = []string{"US", "ZZ"}
	rec.Image = "poster.jpg"
	putTitle(t, h.store, "movie", rec)
	putTitle(t, h.store, "movie", heatRecord())
	h.catalog.Handle("genre/movie/list", tmdb.GenreList{Genres: []tmdb.Genre{{ID: 28, Name: "Action"}}})
	h.catalog.Handle("configuration/countries", []tmdb.Country{{Code: "US", EnglishName: "United States of America"}})
	h.catalog.Handle("configuration/languages", []tmdb.Language{{Code: "en", EnglishName: "English"}})
	h.catalog.Handle("configuration", map[string]any{"images": map[string]any{"secure_base_url": "https://img.example/t/p/"}})

	ctx := context.Background()
	res, err := h.engine.ResolveTitle(ctx, resolve.Request{Titles: []string{"The Matrix"}, Year: 1999})
	if err != nil || res == nil {
		t.Fatalf("ResolveTitle: %v %+v", err, res)
	}
	if got := res.GenreNames(ctx); !slices.Equal(got, []string{"Action"}) {
		t.Fatalf("GenreNames = %v", got)
	}
	if got := res.CountryNames(ctx); !slices.Equal(got, []string{"United States of America", "Unknown"}) {
		t.Fatalf("CountryNames = %v", got)
	}
	if got := res.LanguageName(ctx); got != "English" {
		t.Fatalf("LanguageName = %q", got)
	}
	if got := res.ImageURL(ctx); got != "https://img.example/t/p/w780/poster.jpg" {
		t.Fatalf("ImageURL = %q", got)
	}
	res.GenreNames(ctx)
	if got := h.catalog.Count("genre/movie/list"); got != 1 {
		t.Fatalf("expected genre table loaded once, got %d", got)
	}
}

func TestCountryClauseUsesCatalogCodes(t *testing.T) {
	h := newHarness(t)
	us := store.TitleRecord{Title: "The Office", Year: 2005, Country: []string{"US"}, IDs: store.IDs{TMDB: 2316}}
	gb := store.TitleRecord{Title: "The Office", Year: 2005, Country: []string{"GB"}, IDs: store.IDs{TMDB: 2996}}
	putTitle(t, h.store, "tv", us)
	putTitle(t, h.store, "tv", gb)
	h.catalog.Handle("configuration/countries", []tmdb.Country{
		{Code: "US", EnglishName: "United States of America"},
		{Code: "GB", EnglishName: "United Kingdom"},
	})

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{
		Kind:    resolve.TV,
		Titles:  []string{"The Office"},
		Year:    2005,
		Country: []string{"united kingdom"},
	})
	if err != nil {
		t.Fatalf("ResolveTitle: %v", err)
	}
	if res == nil || res.Record.IDs.TMDB != 2996 {
		t.Fatalf("expected the GB show, got %+v", res)
	}
}

func TestResolveTitleStoreUnavailableIsFatal(t *testing.T) {
	h := newHarnessOn(t, testsupport.MustOpenSQLite(t))
	putTitle(t, h.store, "movie", matrixRecord())
	h.catalog.Handle("search/movie", tmdb.Page{})
	if err := h.backend.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	res, err := h.engine.ResolveTitle(context.Background(), resolve.Request{Titles: []string{"The Matrix"}, Year: 1999})
	if !errors.Is(err, resolve.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v (%+v)", err, res)
	}
	if reqs := h.catalog.Requests(); len(reqs) != 0 {
		t.Fatalf("a failed store must stop before the catalog, got %v", reqs)
	}
}

func TestResolveEpisodeStoreUnavailableIsFatal(t *testing.T) {
	h := newHarnessOn(t, testsupport.MustOpenSQLite(t))
	h.catalog.Handle("tv/1396/season/1", tmdb.Season{SeasonNumber: 1})
	if err := h.backend.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, err := h.engine.ResolveEpisode(context.Background(), breakingBad(), resolve.EpisodeRequest{Season: intPtr(1), Episode: intPtr(1)})
	if !errors.Is(err, resolve.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if got := h.catalog.Count("tv/1396/season/1"); got != 0 {
		t.Fatalf("expected no season fetch, got %d", got)
	}
}
