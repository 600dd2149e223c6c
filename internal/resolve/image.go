package resolve

import (
	"math"
	"strings"

	"reelcache/internal/tmdb"
)

// closestImage picks the poster or backdrop whose aspect ratio is nearest to
// target and returns its path without the leading slash. Ties keep the
// first candidate, posters before backdrops.
func closestImage(images *tmdb.Images, target float64) string {
	if images == nil {
		return ""
	}
	best := ""
	bestDiff := math.Inf(1)
	candidates := append(append([]tmdb.Image(nil), images.Posters...), images.Backdrops...)
	for _, img := range candidates {
		if img.FilePath == "" {
			continue
		}
		if diff := math.Abs(img.AspectRatio - target); diff < bestDiff {
			best, bestDiff = img.FilePath, diff
		}
	}
	return strings.TrimPrefix(best, "/")
}
