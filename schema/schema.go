// Package schema loads and holds a snapshot of the managed database's
// table and column metadata.
//
// The snapshot is read-only for its consumers: the statement builder uses it
// to list selectable columns and to decide how literals are quoted, and the
// API exposes it to the console for rendering pickers. It is refreshed only
// on demand via the invalidate endpoint.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// ReservedTablePrefix marks tables owned by this service. They are excluded
// from snapshots so the console cannot build statements against them.
const ReservedTablePrefix = "_qb_"

// Column describes one column of a table.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"dataType"` // declared type, e.g. INTEGER, varchar(50)
}

// Numeric reports whether the column's declared type is numeric. Literal
// values for numeric columns are rendered unquoted; everything else is
// rendered as a single-quoted string.
func (c Column) Numeric() bool {
	t := strings.ToLower(c.DataType)
	return strings.Contains(t, "int") ||
		strings.Contains(t, "decimal") ||
		strings.Contains(t, "float") ||
		strings.Contains(t, "double")
}

// Table describes one table and its columns.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Snapshot is a point-in-time description of the managed database's tables.
type Snapshot struct {
	Tables []Table `json:"tables"`
}

// Lookup returns the table with the given name, if present.
func (s *Snapshot) Lookup(name string) (Table, bool) {
	if s == nil {
		return Table{}, false
	}
	for _, tbl := range s.Tables {
		if tbl.Name == name {
			return tbl, true
		}
	}
	return Table{}, false
}

// Load introspects the database and returns a fresh snapshot. Tables are
// discovered from sqlite_master and columns from PRAGMA table_info, skipping
// sqlite internals and this service's reserved tables.
func Load(ctx context.Context, db *sql.DB) (*Snapshot, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name NOT LIKE ?
		ORDER BY name ASC;
	`, ReservedTablePrefix+"%")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for _, name := range names {
		cols, err := tableColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		snap.Tables = append(snap.Tables, Table{Name: name, Columns: cols})
	}

	return snap, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info([%s]);", table))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid     int
			name    string
			dtype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &dtype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, DataType: dtype})
	}

	return cols, rows.Err()
}

// Holder guards the current snapshot for concurrent readers. The API swaps
// in a new snapshot on invalidation; everyone else only reads.
type Holder struct {
	mu   sync.RWMutex
	snap *Snapshot
}

// NewHolder returns a Holder seeded with snap (which may be nil).
func NewHolder(snap *Snapshot) *Holder {
	return &Holder{snap: snap}
}

// Get returns the current snapshot.
func (h *Holder) Get() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// Set replaces the current snapshot.
func (h *Holder) Set(snap *Snapshot) {
	h.mu.Lock()
	h.snap = snap
	h.mu.Unlock()
}
