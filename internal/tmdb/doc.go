// Package tmdb is the catalog client used to resolve and refresh cached
// records.
//
// Every endpoint goes through Fetch, which authenticates with an api_key
// query parameter, applies a shared token-bucket rate limit, and retries
// transport failures, 429 and 5xx responses with exponential backoff.
// Failures surface as *Error so callers can tell catalog problems from store
// problems; a 404 also matches ErrNotFound. Payload types cover both movies and
// TV shows, and Details.Text selects kind-specific fields by JSON name.
package tmdb
