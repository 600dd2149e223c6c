package index

import (
	"context"
	"database/sql"
	"log/slog"
)

// memoryPath is reported by Path for in-memory backends.
const memoryPath = ":memory:"

// OpenMemory returns a backend over a private in-memory SQLite database. It
// ranks exactly like a file-backed one; nothing survives Close.
func OpenMemory(ctx context.Context, logger *slog.Logger) (*SQLite, error) {
	// Each connection to :memory: is a separate database, so the pool is
	// pinned to one connection that is never recycled.
	return open(ctx, memoryPath, memoryPath, logger, func(db *sql.DB) {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	})
}
