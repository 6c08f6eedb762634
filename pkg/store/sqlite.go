package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	errs "github.com/matzehuels/jefview/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS palettes (
	id           TEXT PRIMARY KEY,
	pattern_hash TEXT NOT NULL UNIQUE,
	name         TEXT NOT NULL,
	palette      TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS palettes_updated ON palettes(updated_at);
`

// SQLiteStore keeps records in a sqlite database file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (and if needed creates) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "create store dir")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "open sqlite")
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrCodeIO, err, "ping sqlite %s", path)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.ErrCodeIO, err, "create schema")
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Get(ctx context.Context, patternHash string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, pattern_hash, name, palette, created_at, updated_at
FROM palettes WHERE pattern_hash = ?`, patternHash)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.PatternHash == "" {
		return errs.New(errs.ErrCodeInvalidInput, "record needs a pattern hash")
	}
	palette, err := json.Marshal(rec.Palette)
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "encode palette")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "begin tx")
	}
	defer tx.Rollback()

	var id, created string
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM palettes WHERE pattern_hash = ?`, rec.PatternHash).Scan(&id, &created)
	var createdAt time.Time
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return errs.Wrap(errs.ErrCodeIO, err, "look up palette")
	default:
		rec.ID = id
		createdAt, _ = time.Parse(tsLayout, created)
	}
	stamp(rec, createdAt)

	_, err = tx.ExecContext(ctx, `
INSERT INTO palettes(id, pattern_hash, name, palette, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(pattern_hash) DO UPDATE SET
	name=excluded.name,
	palette=excluded.palette,
	updated_at=excluded.updated_at
`, rec.ID, rec.PatternHash, rec.Name, string(palette), ts(rec.CreatedAt), ts(rec.UpdatedAt))
	if err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "upsert palette")
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "commit")
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, patternHash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM palettes WHERE pattern_hash = ?`, patternHash); err != nil {
		return errs.Wrap(errs.ErrCodeIO, err, "delete palette")
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, pattern_hash, name, palette, created_at, updated_at
FROM palettes ORDER BY updated_at DESC`)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "list palettes")
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrCodeIO, err, "list palettes")
	}
	return out, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec              Record
		palette          string
		created, updated string
	)
	if err := sc.Scan(&rec.ID, &rec.PatternHash, &rec.Name, &palette, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errs.Wrap(errs.ErrCodeIO, err, "read palette row")
	}
	if err := json.Unmarshal([]byte(palette), &rec.Palette); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode palette for %s", rec.PatternHash)
	}
	rec.CreatedAt, _ = time.Parse(tsLayout, created)
	rec.UpdatedAt, _ = time.Parse(tsLayout, updated)
	return &rec, nil
}

// tsLayout sorts lexically in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string {
	return t.UTC().Format(tsLayout)
}
