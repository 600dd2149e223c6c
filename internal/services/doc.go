// Package services holds the cross-cutting error markers and context keys
// shared by the resolver, the store, and the CLI.
//
// Wrap tags errors with a classification marker so the CLI can choose an exit
// status, and the context helpers carry request ids and content kinds that the
// logging package turns into structured fields.
package services
