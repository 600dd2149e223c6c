package tmdb

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a catalog 404 via errors.Is.
var ErrNotFound = errors.New("tmdb: not found")

// Error describes a failed catalog request. Status is zero for transport
// failures, in which case Err holds the cause.
type Error struct {
	Status  int
	Message string
	Path    string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0:
		return fmt.Sprintf("tmdb %s: %s", e.Path, e.Message)
	case e.Message == "":
		return fmt.Sprintf("tmdb %s: status %d", e.Path, e.Status)
	default:
		return fmt.Sprintf("tmdb %s: status %d: %s", e.Path, e.Status, e.Message)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a 404 as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Temporary reports whether retrying the request may succeed.
func (e *Error) Temporary() bool {
	if e.Status == 0 {
		return e.Err != nil && !errors.Is(e.Err, errDecode)
	}
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

var errDecode = errors.New("decode response")

// IsCatalogError reports whether err originated from a catalog request.
func IsCatalogError(err error) bool {
	var target *Error
	return errors.As(err, &target)
}
