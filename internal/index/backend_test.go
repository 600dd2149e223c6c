package index_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"reelcache/internal/index"
	"reelcache/internal/testsupport"
)

const titles = "test_movie_title"

type backendFactory struct {
	name string
	open func(t *testing.T) index.Backend
}

func backends() []backendFactory {
	return []backendFactory{
		{"memory", func(t *testing.T) index.Backend { return testsupport.MustOpenMemory(t) }},
		{"sqlite", func(t *testing.T) index.Backend { return testsupport.MustOpenSQLite(t) }},
	}
}

func seed(t *testing.T, b index.Backend) {
	t.Helper()
	ctx := context.Background()
	if err := b.EnsureIndex(ctx, titles, index.Mapping{Text: []string{"title", "alias", "credits.director"}}); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	docs := map[string]map[string]any{
		"603": {
			"title": "The Matrix", "alias": []string{"Matrix"}, "year": 1999,
			"credits": map[string]any{"director": []string{"Lana Wachowski", "Lilly Wachowski"}},
		},
		"604": {
			"title": "The Matrix Reloaded", "alias": []string{}, "year": 2003,
			"credits": map[string]any{"director": []string{"Lana Wachowski", "Lilly Wachowski"}},
		},
		"949": {
			"title": "Heat", "alias": []string{"Heat (1995)"}, "year": 1995, "year_other": []int{1996},
			"credits": map[string]any{"director": []string{"Michael Mann"}},
		},
		"11": {
			"title": "Star Wars", "alias": []string{"Krieg der Sterne"}, "year": 1977,
			"credits": map[string]any{"director": []string{"George Lucas"}},
		},
	}
	for id, doc := range docs {
		body, err := json.Marshal(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := b.Upsert(ctx, titles, id, body); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}
}

func TestBackendCRUD(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			seed(t, b)

			count, err := b.Count(ctx, titles)
			if err != nil || count != 4 {
				t.Fatalf("Count = %d, %v", count, err)
			}
			hit, err := b.Get(ctx, titles, "949")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			var doc map[string]any
			if err := json.Unmarshal(hit.Source, &doc); err != nil || doc["title"] != "Heat" {
				t.Fatalf("unexpected source %s (%v)", hit.Source, err)
			}
			if _, err := b.Get(ctx, titles, "missing"); !errors.Is(err, index.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			id, err := b.Upsert(ctx, titles, "", []byte(`{"title":"Alien","year":1979}`))
			if err != nil || id == "" {
				t.Fatalf("Upsert without id = %q, %v", id, err)
			}
			if err := b.Delete(ctx, titles, id); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if count, _ := b.Count(ctx, titles); count != 4 {
				t.Fatalf("expected 4 documents after delete, got %d", count)
			}
		})
	}
}

func TestBackendReadAfterWrite(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			seed(t, b)
			if _, err := b.Upsert(ctx, titles, "949", []byte(`{"title":"Heat","year":1986}`)); err != nil {
				t.Fatalf("Upsert: %v", err)
			}
			q := index.Query{Size: 1}
			q.Must = append(q.Must, index.NewMatch("heat", "title", "alias"), index.Between("year", 1986, 1986))
			res, err := b.Search(ctx, titles, q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 1 || res.Hits[0].ID != "949" {
				t.Fatalf("expected rewritten document, got %+v", res)
			}
		})
	}
}

func TestBackendBoolSemantics(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			seed(t, b)

			// Should-only: at least one clause must match.
			q := index.Query{}
			q.Should = append(q.Should, index.NewMatch("matrix", "title", "alias"))
			res, err := b.Search(ctx, titles, q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 2 {
				t.Fatalf("expected 2 matrix titles, got %d", res.Total)
			}
			if res.Hits[0].ID != "603" {
				t.Fatalf("expected shorter title to rank first, got %s", res.Hits[0].ID)
			}

			// With a must clause, should clauses become optional.
			q = index.Query{}
			q.Must = append(q.Must, index.Between("year", 1994, 1996))
			q.Should = append(q.Should, index.NewMatch("matrix", "title"))
			res, err = b.Search(ctx, titles, q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 1 || res.Hits[0].ID != "949" {
				t.Fatalf("expected Heat only, got %+v", res)
			}
			if math.Abs(res.Hits[0].Score-1) > 1e-9 {
				t.Fatalf("range clause should score 1, got %v", res.Hits[0].Score)
			}

			// Filters restrict without scoring.
			q = index.Query{}
			q.Filter = append(q.Filter, index.NewTerm("GEORGE LUCAS", "credits.director"))
			res, err = b.Search(ctx, titles, q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 1 || res.Hits[0].ID != "11" || res.Hits[0].Score != 0 {
				t.Fatalf("unexpected filter result %+v", res)
			}

			// Nested bool: year window or alternate year.
			yearWindow := index.Bool{Should: []index.Clause{
				index.Between("year", 1996, 1996),
				index.NewTerm(1996, "year_other"),
			}}
			q = index.Query{Size: 1}
			q.Must = append(q.Must, yearWindow)
			q.Should = append(q.Should, index.NewMatch("heat", "title", "alias"))
			res, err = b.Search(ctx, titles, q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 1 || res.Hits[0].ID != "949" {
				t.Fatalf("expected alternate year match, got %+v", res)
			}
		})
	}
}

func TestBackendScoresAgree(t *testing.T) {
	queries := []index.Query{
		func() index.Query {
			q := index.Query{Size: 10}
			q.Should = append(q.Should,
				index.NewMatch("The Matrix", "title", "alias"),
				index.NewMatch("Lana Wachowski", "credits.director"),
			)
			return q
		}(),
		func() index.Query {
			q := index.Query{Size: 10}
			q.Should = append(q.Should, index.NewTerm("krieg der sterne", "title", "alias"))
			return q
		}(),
		func() index.Query {
			q := index.Query{Size: 10}
			q.Should = append(q.Should, index.NewTerm("die strasse", "title", "alias"))
			return q
		}(),
		func() index.Query {
			q := index.Query{Size: 10}
			q.Should = append(q.Should, index.NewTerm("école", "alias"))
			return q
		}(),
	}
	results := make([][]*index.Result, len(queries))
	for _, f := range backends() {
		b := f.open(t)
		seed(t, b)
		if _, err := b.Upsert(context.Background(), titles, "1", []byte(`{"title":"Die Straße","alias":["ÉCOLE"]}`)); err != nil {
			t.Fatalf("%s Upsert: %v", f.name, err)
		}
		for i, q := range queries {
			res, err := b.Search(context.Background(), titles, q)
			if err != nil {
				t.Fatalf("%s Search: %v", f.name, err)
			}
			results[i] = append(results[i], res)
		}
	}
	for i, pair := range results {
		mem, lite := pair[0], pair[1]
		if i >= 2 && (mem.Total != 1 || mem.Hits[0].ID != "1") {
			t.Fatalf("query %d: expected the folded title to match, got %+v", i, mem)
		}
		if mem.Total != lite.Total {
			t.Fatalf("query %d: totals differ: %d vs %d", i, mem.Total, lite.Total)
		}
		for j := range mem.Hits {
			if mem.Hits[j].ID != lite.Hits[j].ID {
				t.Fatalf("query %d: order differs at %d: %s vs %s", i, j, mem.Hits[j].ID, lite.Hits[j].ID)
			}
			if math.Abs(mem.Hits[j].Score-lite.Hits[j].Score) > 1e-9 {
				t.Fatalf("query %d: scores differ for %s: %v vs %v", i, mem.Hits[j].ID, mem.Hits[j].Score, lite.Hits[j].Score)
			}
		}
	}
}

func TestBackendErrors(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			seed(t, b)
			q := index.Query{}
			q.Should = append(q.Should, index.NewMatch("x", "description"))
			if _, err := b.Search(ctx, titles, q); !errors.Is(err, index.ErrUnmappedField) {
				t.Fatalf("expected ErrUnmappedField, got %v", err)
			}
			if _, err := b.Search(ctx, "missing_index", index.Query{}); !errors.Is(err, index.ErrUnknownIndex) {
				t.Fatalf("expected ErrUnknownIndex, got %v", err)
			}
		})
	}
}

func TestSQLiteMappingConflict(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	b, err := index.OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer b.Close()
	if err := b.EnsureIndex(ctx, "idx", index.Mapping{Text: []string{"title"}}); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	if err := b.EnsureIndex(ctx, "idx", index.Mapping{Text: []string{"title"}}); err != nil {
		t.Fatalf("EnsureIndex is not idempotent: %v", err)
	}
	if err := b.EnsureIndex(ctx, "idx", index.Mapping{Text: []string{"name"}}); !errors.Is(err, index.ErrMappingConflict) {
		t.Fatalf("expected ErrMappingConflict, got %v", err)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")
	b, err := index.OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	seed(t, b)
	_ = b.Close()

	reopened, err := index.OpenSQLite(ctx, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	q := index.Query{Size: 1}
	q.Should = append(q.Should, index.NewMatch("star wars", "title", "alias"))
	res, err := reopened.Search(ctx, titles, q)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits) != 1 || res.Hits[0].ID != "11" {
		t.Fatalf("expected Star Wars after reopen, got %+v", res)
	}
}

func TestBackendTermFoldsUnmappedFields(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			if err := b.EnsureIndex(ctx, "attempts", index.Mapping{}); err != nil {
				t.Fatalf("EnsureIndex: %v", err)
			}
			if _, err := b.Upsert(ctx, "attempts", "a", []byte(`{"title":"Die Straße","year":-1,"seen":true}`)); err != nil {
				t.Fatalf("Upsert: %v", err)
			}

			q := index.Query{}
			q.Must = append(q.Must, index.NewTerm("DIE STRASSE", "title"), index.NewTerm(-1, "year"), index.NewTerm(true, "seen"))
			res, err := b.Search(ctx, "attempts", q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 1 || res.Hits[0].ID != "a" || res.Hits[0].Score != 3 {
				t.Fatalf("expected one constant-scored hit, got %+v", res)
			}

			q = index.Query{}
			q.Must = append(q.Must, index.NewTerm("die stra", "title"))
			if res, err := b.Search(ctx, "attempts", q); err != nil || res.Total != 0 {
				t.Fatalf("a prefix must not match a term: %+v, %v", res, err)
			}
		})
	}
}

func TestBackendRanksRareWordsHigher(t *testing.T) {
	for _, f := range backends() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			b := f.open(t)
			seed(t, b)

			// "wachowski" is in half the directors, "mann" in one.
			q := index.Query{}
			q.Should = append(q.Should,
				index.NewMatch("wachowski", "credits.director"),
				index.NewMatch("mann", "credits.director"),
			)
			res, err := b.Search(ctx, titles, q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Total != 3 || res.Hits[0].ID != "949" {
				t.Fatalf("expected the rare director first, got %+v", res)
			}

			boosted := index.Query{}
			boosted.Should = append(boosted.Should,
				index.Match{Fields: []string{"credits.director"}, Text: "wachowski", Boost: 1e7},
				index.NewMatch("mann", "credits.director"),
			)
			res, err = b.Search(ctx, titles, boosted)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if res.Hits[0].ID == "949" {
				t.Fatalf("boost should lift the common director, got %+v", res.Hits)
			}
		})
	}
}
