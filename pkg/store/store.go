// Package store persists per-pattern palette selections.
//
// A [Record] is keyed by the content hash of the pattern file, so the
// selection follows the design rather than its path. Recolouring a file
// changes its hash and therefore starts from a fresh palette.
//
// Two backends implement [Store]:
//   - [SQLiteStore]: a single-file database for the CLI and the preview server
//   - [MemoryStore]: in-process storage for tests and throwaway sessions
//
// # Usage
//
//	st, err := store.OpenSQLite(ctx, store.DefaultPath())
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	rec, err := st.Get(ctx, hash)
//	if rec == nil {
//	    // nothing saved yet
//	}
package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/jefview/pkg/render"
)

// Record is the saved palette of one pattern.
type Record struct {
	ID          string         `json:"id"`
	PatternHash string         `json:"pattern_hash"`
	Name        string         `json:"name"`
	Palette     render.Palette `json:"palette"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Store is the interface for palette storage backends.
type Store interface {
	// Get retrieves the record for a pattern hash.
	// Returns nil, nil if nothing was saved.
	Get(ctx context.Context, patternHash string) (*Record, error)

	// Put inserts or replaces the record for rec.PatternHash. It fills in
	// ID and timestamps.
	Put(ctx context.Context, rec *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, patternHash string) error

	// List returns every record, most recently updated first.
	List(ctx context.Context) ([]Record, error)

	// Close releases backend resources.
	Close() error
}

// DefaultPath returns ~/.config/jefview/palettes.db, honouring
// XDG_CONFIG_HOME.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "jefview", "palettes.db")
}

// stamp fills ID and timestamps before a write. created is the existing
// creation time, zero for a new record.
func stamp(rec *Record, created time.Time) {
	now := time.Now().UTC()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if created.IsZero() {
		created = now
	}
	rec.CreatedAt = created
	rec.UpdatedAt = now
}
