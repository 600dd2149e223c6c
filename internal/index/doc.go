// Package index provides the scored document store the record cache is
// built on.
//
// Queries are expressed with a small typed builder (Query, Bool, Match, Term,
// Range) whose semantics follow Elasticsearch's bool query: Must clauses
// must match and contribute to the score, Filter clauses must match without
// scoring, and Should clauses add to the score and become mandatory only when
// the query has neither Must nor Filter clauses.
//
// The builder is compiled to a single SQLite statement. Ranking is SQLite
// FTS5's bm25(); the package only combines the per-clause ranks the way the
// bool query does. OpenSQLite persists to a file and OpenMemory keeps a
// private in-memory database for tests and dry runs; both run the same
// statements, so a query scores identically on either. Every write is
// visible to the next read.
package index
