// Package store keeps the typed records of the cache: title records, search
// attempts, and TV episodes. Each lives in its own index of an index.Backend,
// named <prefix>_<kind>_title, <prefix>_<kind>_search and <prefix>_tv_episode.
//
// Title ids are the decimal TMDB id and episode ids are show:season:episode,
// so concurrent writers of the same entity converge on one document. Every
// write stamps @timestamp, which drives the refresh policy.
package store
