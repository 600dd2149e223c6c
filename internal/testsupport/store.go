package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"reelcache/internal/index"
	"reelcache/internal/logging"
	"reelcache/internal/store"
)

// MustOpenSQLite opens a SQLite backend in a temp directory and registers
// cleanup.
func MustOpenSQLite(t testing.TB) *index.SQLite {
	t.Helper()

	backend, err := index.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("index.OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	return backend
}

// MustOpenMemory opens an in-memory backend and registers cleanup.
func MustOpenMemory(t testing.TB) *index.SQLite {
	t.Helper()

	backend, err := index.OpenMemory(context.Background(), logging.NewNop())
	if err != nil {
		t.Fatalf("index.OpenMemory: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	return backend
}

// MustOpenStore wraps backend in a record store with every index created.
func MustOpenStore(t testing.TB, backend index.Backend, opts ...store.Option) *store.Store {
	t.Helper()

	st := store.New(backend, "test", opts...)
	if err := st.Ensure(context.Background()); err != nil {
		t.Fatalf("store.Ensure: %v", err)
	}
	return st
}

// backgroundTitles share no word with any fixture title, person, or country
// code used by the tests.
var backgroundTitles = []struct {
	title, director, country string
}{
	{"Quiet Harbor", "Ada Brook", "FR"},
	{"Paper Lanterns", "Milo Grant", "DE"},
	{"Northern Lights", "Iris Vale", "IT"},
	{"Silent River", "Otto Reyes", "ES"},
	{"Copper Canyon", "Nora Quill", "JP"},
	{"Glass Garden", "Felix Marsh", "KR"},
	{"Winter Orchard", "Ruth Penn", "SE"},
	{"Hidden Valley", "Hugo Sand", "NO"},
}

// SeedBackground writes undated, unrelated titles of every kind. bm25()
// floors the idf of a word found in half the rows, so a two-record index
// scores every match near zero; the background keeps fixture scores in the
// range a real cache produces.
func SeedBackground(t testing.TB, st *store.Store) {
	t.Helper()

	for _, kind := range store.Kinds {
		for i, bg := range backgroundTitles {
			rec := &store.TitleRecord{
				Title:   bg.title,
				Country: []string{bg.country},
				Credits: store.Credits{Director: []string{bg.director}},
				IDs:     store.IDs{TMDB: int64(900001 + i)},
			}
			if err := st.PutTitle(context.Background(), kind, rec); err != nil {
				t.Fatalf("seed background %q: %v", bg.title, err)
			}
		}
	}
}
