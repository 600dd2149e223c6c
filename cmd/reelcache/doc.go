// Package main hosts the reelcache CLI entrypoint and command graph.
//
// The Cobra command tree resolves single titles and JSONL batches against the
// record store, bulk-populates the cache from TMDB discover listings, and
// inspects cached records. Configuration loading, logger setup, and store
// and catalog wiring live in commandContext so subcommands only translate
// flags into resolve requests and render results.
package main
