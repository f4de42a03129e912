// Package audit persists a record of every completed search.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned by Open for unknown drivers.
var ErrUnsupportedDriver = errors.New("unsupported audit driver")

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Record is one audited search.
type Record struct {
	ID          uuid.UUID `json:"id"`
	Query       string    `json:"query"`
	Limit       int       `json:"limit"`
	ClientKey   string    `json:"clientKey"`
	Include     []string  `json:"include"`
	Exclude     []string  `json:"exclude"`
	Titles      []string  `json:"titles"`
	LLMFallback bool      `json:"llmFallback"`
	Items       []string  `json:"items"`
	TookMs      int64     `json:"tookMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Store reads and writes search records.
type Store struct {
	db     DB
	closer func() error
	driver string
}

// Open connects to the audit database.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if driver == DriverSQLite {
		// One writer avoids "database is locked" under concurrent searches.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit db: %w", err)
	}

	s := NewStore(db, driver)
	s.closer = db.Close
	return s, nil
}

// NewStore wraps an existing connection.
func NewStore(db DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Close releases the connection if Open created it.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Ping checks the connection with a trivial query.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping audit db: %w", err)
	}
	return nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	created := "TIMESTAMP"
	if s.driver == DriverPostgres {
		created = "TIMESTAMPTZ"
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS search_audit (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			result_limit INTEGER NOT NULL,
			client_key TEXT NOT NULL,
			include_tokens TEXT NOT NULL,
			exclude_tokens TEXT NOT NULL,
			titles TEXT NOT NULL,
			llm_fallback BOOLEAN NOT NULL,
			items TEXT NOT NULL,
			took_ms INTEGER NOT NULL,
			created_at ` + created + ` NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_search_audit_created_at ON search_audit (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate audit schema: %w", err)
		}
	}
	return nil
}

// Record inserts rec, filling in the id and timestamp when unset.
func (s *Store) Record(ctx context.Context, rec Record) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	include, err := encodeList(rec.Include)
	if err != nil {
		return err
	}
	exclude, err := encodeList(rec.Exclude)
	if err != nil {
		return err
	}
	titles, err := encodeList(rec.Titles)
	if err != nil {
		return err
	}
	items, err := encodeList(rec.Items)
	if err != nil {
		return err
	}

	query := s.rebind(`
		INSERT INTO search_audit
			(id, query, result_limit, client_key, include_tokens, exclude_tokens, titles, llm_fallback, items, took_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err = s.db.ExecContext(ctx, query,
		rec.ID.String(), rec.Query, rec.Limit, rec.ClientKey,
		include, exclude, titles, rec.LLMFallback, items, rec.TookMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

// Recent returns the n most recent records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if n <= 0 {
		n = 20
	}

	query := s.rebind(`
		SELECT id, query, result_limit, client_key, include_tokens, exclude_tokens, titles, llm_fallback, items, took_ms, created_at
		FROM search_audit
		ORDER BY created_at DESC, id
		LIMIT ?
	`)
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec                              Record
			id, include, exclude, titles, it string
		)
		if err := rows.Scan(&id, &rec.Query, &rec.Limit, &rec.ClientKey,
			&include, &exclude, &titles, &rec.LLMFallback, &it, &rec.TookMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse audit id: %w", err)
		}
		for _, f := range []struct {
			raw string
			dst *[]string
		}{{include, &rec.Include}, {exclude, &rec.Exclude}, {titles, &rec.Titles}, {it, &rec.Items}} {
			if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
				return nil, fmt.Errorf("decode audit record: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode audit list: %w", err)
	}
	return string(data), nil
}
