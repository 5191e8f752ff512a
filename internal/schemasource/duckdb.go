package schemasource

import (
	"context"
	"database/sql"
	"fmt"

	// registers the "duckdb" database/sql driver.
	_ "github.com/marcboeker/go-duckdb"

	"github.com/leapstack-labs/collineage/pkg/lineage"
)

const duckdbColumnsQuery = `
SELECT table_schema, table_name, column_name
FROM information_schema.columns
WHERE table_schema = ?
ORDER BY table_name, ordinal_position
`

// DuckDB is a Source backed by a DuckDB file (or in-memory) database.
type DuckDB struct {
	db *sql.DB
}

// OpenDuckDB opens path, or an in-memory database if path is "".
func OpenDuckDB(path string) (*DuckDB, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("schemasource: open duckdb: %w", err)
	}
	return &DuckDB{db: db}, nil
}

// Relations implements Source.
func (d *DuckDB) Relations(ctx context.Context, schema string) ([]lineage.Relation, error) {
	if schema == "" {
		schema = "main"
	}
	return queryInformationSchema(ctx, d.db, duckdbColumnsQuery, schema)
}

// Close implements Source.
func (d *DuckDB) Close() error { return d.db.Close() }
