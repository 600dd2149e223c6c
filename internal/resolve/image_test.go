package resolve

import (
	"testing"

	"reelcache/internal/tmdb"
)

func TestClosestImage(t *testing.T) {
	images := &tmdb.Images{
		Posters:   []tmdb.Image{{AspectRatio: 0.667, FilePath: "/poster.jpg"}},
		Backdrops: []tmdb.Image{{AspectRatio: 1.6, FilePath: "/wide.jpg"}, {AspectRatio: 1.777, FilePath: "/hd.jpg"}},
	}
	if got := closestImage(images, 1.78); got != "hd.jpg" {
		t.Fatalf("closestImage(1.78) = %q", got)
	}
	if got := closestImage(images, 0.7); got != "poster.jpg" {
		t.Fatalf("closestImage(0.7) = %q", got)
	}
	if got := closestImage(&tmdb.Images{}, 1.78); got != "" {
		t.Fatalf("expected empty path, got %q", got)
	}
	if got := closestImage(nil, 1.78); got != "" {
		t.Fatalf("expected empty path for nil, got %q", got)
	}
}

func TestKindByName(t *testing.T) {
	cases := map[string]string{"": "movie", "Movie": "movie", "tv": "tv", "show": "tv"}
	for in, want := range cases {
		kind, err := KindByName(in)
		if err != nil || kind.Name != want {
			t.Fatalf("KindByName(%q) = %v, %v", in, kind, err)
		}
	}
	if _, err := KindByName("podcast"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
