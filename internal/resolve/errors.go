package resolve

import (
	"errors"
	"fmt"

	"reelcache/internal/index"
)

var (
	// ErrStoreUnavailable marks record store failures. They are fatal for the
	// current resolution.
	ErrStoreUnavailable = index.ErrUnavailable
	// ErrNotFoundUpstream reports a cached record whose catalog entry is gone.
	ErrNotFoundUpstream = errors.New("title no longer exists in the catalog")
	// ErrInvalidRequest rejects requests without titles or people.
	ErrInvalidRequest = errors.New("invalid request")
)

// OrphanError is returned when refreshing a hit whose TMDB id now 404s. The
// caller decides whether to delete the record.
type OrphanError struct {
	ID     string
	TMDBID int64
	Kind   string
}

func (e *OrphanError) Error() string {
	return fmt.Sprintf("%s record %s (tmdb %d): %v", e.Kind, e.ID, e.TMDBID, ErrNotFoundUpstream)
}

func (e *OrphanError) Unwrap() error { return ErrNotFoundUpstream }
