package index

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"reelcache/internal/logging"
	"reelcache/internal/textutil"
)

// ErrMappingConflict is returned when EnsureIndex is called for an existing
// index with a different mapping.
var ErrMappingConflict = errors.New("index exists with a different mapping")

// foldFunc is the SQL name of textutil.Fold, registered on every connection.
const foldFunc = "reelcache_fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldValue)
}

func foldValue(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return textutil.Fold(v), nil
	case []byte:
		return textutil.Fold(string(v)), nil
	default:
		return textutil.Fold(valueString(v)), nil
	}
}

// SQLite is a Backend over a SQLite database. Documents are stored as JSON.
// Every text field of an index gets two FTS5 tables: one holding the
// analyzed text, ranked with bm25() for Match clauses, and one holding a
// single keyword token per folded value for exact Term clauses.
type SQLite struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu       sync.RWMutex
	mappings map[string]Mapping
}

var _ Backend = (*SQLite)(nil)

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	return open(ctx, dsn, path, logger, nil)
}

func open(ctx context.Context, dsn, path string, logger *slog.Logger, setup func(*sql.DB)) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrUnavailable, err)
	}
	if setup != nil {
		setup(db)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: open sqlite db: %w", ErrUnavailable, err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &SQLite{
		db:       db,
		path:     path,
		logger:   logging.NewComponentLogger(logger, "index"),
		mappings: make(map[string]Mapping),
	}, nil
}

// Path returns the database file location.
func (s *SQLite) Path() string { return s.path }

// Close closes the underlying database connection. Calls after the first
// are no-ops; every other method then fails with ErrUnavailable.
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func sanitizeIdent(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

func textTable(index, field string) string {
	return "ft_" + sanitizeIdent(index) + "__" + sanitizeIdent(field)
}

func keywordTable(index, field string) string {
	return "kw_" + sanitizeIdent(index) + "__" + sanitizeIdent(field)
}

func jsonPath(field string) string {
	parts := strings.Split(field, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, ``) + `"`
	}
	return "$." + strings.Join(parts, ".")
}

var keywordSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("reelcache:keyword"))

// keywordToken maps a folded value to one alphanumeric FTS5 token, so the
// tokenizer can neither split nor alter it.
func keywordToken(folded string) string {
	return strings.ReplaceAll(uuid.NewSHA1(keywordSpace, []byte(folded)).String(), "-", "")
}

func (s *SQLite) EnsureIndex(ctx context.Context, name string, mapping Mapping) error {
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	created := false
	err = retryOnBusy(ctx, func() error {
		created = false
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var existing string
		err = tx.QueryRowContext(ctx, "SELECT mapping FROM indexes WHERE name = ?", name).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO indexes (name, mapping, created_at) VALUES (?, ?, ?)",
				name, string(encoded), time.Now().UTC().Format(time.RFC3339Nano),
			); err != nil {
				return err
			}
			created = true
		case err != nil:
			return err
		case existing != string(encoded):
			return fmt.Errorf("%w: %s", ErrMappingConflict, name)
		}

		for _, field := range mapping.Text {
			for _, table := range []string{textTable(name, field), keywordTable(name, field)} {
				stmt := "CREATE VIRTUAL TABLE IF NOT EXISTS " + table + " USING fts5(tokens, tokenize = 'unicode61')"
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	})
	if err != nil {
		if errors.Is(err, ErrMappingConflict) {
			return err
		}
		return unavailable("ensure index "+name, err)
	}

	s.mu.Lock()
	s.mappings[name] = mapping
	s.mu.Unlock()
	if created {
		s.logger.Info("index created",
			logging.String("index", name),
			logging.Int("text_fields", len(mapping.Text)),
		)
	}
	return nil
}

func (s *SQLite) mapping(ctx context.Context, name string) (Mapping, error) {
	s.mu.RLock()
	m, ok := s.mappings[name]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}
	var encoded string
	err := s.db.QueryRowContext(ctx, "SELECT mapping FROM indexes WHERE name = ?", name).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return Mapping{}, fmt.Errorf("%w: %s", ErrUnknownIndex, name)
	}
	if err != nil {
		return Mapping{}, unavailable("load mapping "+name, err)
	}
	if err := json.Unmarshal([]byte(encoded), &m); err != nil {
		return Mapping{}, fmt.Errorf("decode mapping %s: %w", name, err)
	}
	s.mu.Lock()
	s.mappings[name] = m
	s.mu.Unlock()
	return m, nil
}

func (s *SQLite) Search(ctx context.Context, name string, q Query) (*Result, error) {
	mapping, err := s.mapping(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := mapping.check(q); err != nil {
		return nil, err
	}

	c := &compiler{index: name, mapping: mapping}
	stmt := c.statement(q)

	result := &Result{}
	err = retryOnBusy(ctx, func() error {
		result = &Result{}
		rows, err := s.db.QueryContext(ctx, stmt, c.args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id, body string
				score    float64
				total    int
			)
			if err := rows.Scan(&id, &body, &score, &total); err != nil {
				return err
			}
			result.Total = total
			result.Hits = append(result.Hits, Hit{ID: id, Score: score, Source: json.RawMessage(body)})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unavailable("search "+name, err)
	}
	return result, nil
}

func (s *SQLite) Get(ctx context.Context, name, id string) (*Hit, error) {
	if _, err := s.mapping(ctx, name); err != nil {
		return nil, err
	}
	var body string
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			"SELECT body FROM documents WHERE idx = ? AND id = ?", name, id,
		).Scan(&body)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get "+name, err)
	}
	return &Hit{ID: id, Source: json.RawMessage(body)}, nil
}

func (s *SQLite) Upsert(ctx context.Context, name, id string, body []byte) (string, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return "", fmt.Errorf("decode document: %w", err)
	}
	mapping, err := s.mapping(ctx, name)
	if err != nil {
		return "", err
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	err = retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var docID int64
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO documents (idx, id, body, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT (idx, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
			RETURNING doc_id`,
			name, id, string(body), now,
		).Scan(&docID); err != nil {
			return err
		}

		for _, field := range mapping.Text {
			rows := map[string]string{
				textTable(name, field):    analyzedText(doc, field),
				keywordTable(name, field): keywordText(doc, field),
			}
			for table, tokens := range rows {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE rowid = ?", docID); err != nil {
					return err
				}
				if tokens == "" {
					continue
				}
				if _, err := tx.ExecContext(ctx, "INSERT INTO "+table+" (rowid, tokens) VALUES (?, ?)", docID, tokens); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", unavailable("upsert "+name, err)
	}
	return id, nil
}

func analyzedText(doc Document, field string) string {
	texts := doc.Texts(field)
	parts := make([]string, 0, len(texts))
	for _, text := range texts {
		if joined := textutil.AnalyzeJoined(text); joined != "" {
			parts = append(parts, joined)
		}
	}
	return strings.Join(parts, " ")
}

func keywordText(doc Document, field string) string {
	texts := doc.Texts(field)
	parts := make([]string, 0, len(texts))
	for _, text := range texts {
		if folded := textutil.Fold(text); folded != "" {
			parts = append(parts, keywordToken(folded))
		}
	}
	return strings.Join(parts, " ")
}

func (s *SQLite) Delete(ctx context.Context, name, id string) error {
	mapping, err := s.mapping(ctx, name)
	if err != nil {
		return err
	}
	err = retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		var docID int64
		err = tx.QueryRowContext(ctx, "SELECT doc_id FROM documents WHERE idx = ? AND id = ?", name, id).Scan(&docID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		for _, field := range mapping.Text {
			for _, table := range []string{textTable(name, field), keywordTable(name, field)} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE rowid = ?", docID); err != nil {
					return err
				}
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE doc_id = ?", docID); err != nil {
			return err
		}
		return tx.Commit()
	})
	return unavailable("delete "+name, err)
}

func (s *SQLite) Count(ctx context.Context, name string) (int, error) {
	if _, err := s.mapping(ctx, name); err != nil {
		return 0, err
	}
	var count int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM documents WHERE idx = ?", name).Scan(&count)
	})
	if err != nil {
		return 0, unavailable("count "+name, err)
	}
	return count, nil
}
