// Package resolve matches free-text title requests against the record store
// and the TMDB catalog.
//
// ResolveTitle first asks the store for a confident match. When there is
// none it searches the catalog by person (director, actor, other credits),
// then by title, caching every candidate it sees, and re-queries the store
// after each step. Exact title matching and a widening year window are the
// last resorts. Matched records that are stale are refreshed before they are
// returned. ResolveEpisode does the same for TV episodes, fetching whole
// seasons at a time and writing a stub row for seasons with no aired
// episodes.
package resolve
