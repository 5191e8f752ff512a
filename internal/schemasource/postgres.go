package schemasource

import (
	"context"
	"database/sql"
	"fmt"

	// registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/collineage/pkg/lineage"
)

// postgresColumnsQuery mirrors the information_schema.columns query the
// teacher's BaseSQLAdapter.GetTableMetadataCommon issues per-table, widened
// here to every table of one schema at once and ordered for grouping.
const postgresColumnsQuery = `
SELECT table_schema, table_name, column_name
FROM information_schema.columns
WHERE table_schema = $1
ORDER BY table_name, ordinal_position
`

// Postgres is a Source backed by a live PostgreSQL connection.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to PostgreSQL using the given DSN
// (e.g. "host=localhost port=5432 user=postgres dbname=app sslmode=disable").
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("schemasource: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schemasource: ping postgres: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Relations implements Source.
func (p *Postgres) Relations(ctx context.Context, schema string) ([]lineage.Relation, error) {
	if schema == "" {
		schema = "public"
	}
	return queryInformationSchema(ctx, p.db, postgresColumnsQuery, schema)
}

// Close implements Source.
func (p *Postgres) Close() error { return p.db.Close() }
