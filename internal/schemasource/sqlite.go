package schemasource

import (
	"context"
	"database/sql"
	"fmt"

	// registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/leapstack-labs/collineage/pkg/lineage"
)

// SQLite is a Source backed by a SQLite file (or in-memory) database.
// SQLite has no information_schema; table and column names come from
// sqlite_master and PRAGMA table_info instead, and every table lives under
// the unqualified "main" schema.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens path, or an in-memory database if path is "".
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("schemasource: open sqlite: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Relations implements Source. The schema argument is accepted for
// interface symmetry but ignored: SQLite has exactly one schema per file.
func (s *SQLite) Relations(ctx context.Context, _ string) ([]lineage.Relation, error) {
	names, err := s.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	var out []lineage.Relation
	for _, name := range names {
		cols, err := s.columns(ctx, name)
		if err != nil {
			return nil, err
		}
		path, err := lineage.NewPath(name)
		if err != nil {
			continue
		}
		out = append(out, lineage.Relation{Path: path, FieldNames: cols})
	}
	return out, nil
}

func (s *SQLite) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("schemasource: list sqlite tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("schemasource: scan sqlite table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLite) columns(ctx context.Context, table string) ([]string, error) {
	// table comes from sqlite_master, not user input, so interpolation here
	// is safe; PRAGMA statements cannot take bound parameters.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("schemasource: read table_info(%s): %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("schemasource: scan table_info row: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// Close implements Source.
func (s *SQLite) Close() error { return s.db.Close() }
