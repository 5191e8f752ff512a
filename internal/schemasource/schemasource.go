// Package schemasource discovers the column lists of base tables so that
// the lineage engine (pkg/lineage) can be given concrete Relations. The
// engine itself never touches a database; this package is the I/O-performing
// boundary the engine's design note reserves for the host.
package schemasource

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/collineage/pkg/lineage"
)

// Source discovers the columns of one or more tables in a schema.
type Source interface {
	// Relations returns a lineage.Relation for every table visible under
	// schema (the host database's default schema if schema is "").
	Relations(ctx context.Context, schema string) ([]lineage.Relation, error)

	// Close releases the underlying connection.
	Close() error
}

// columnRow is one information_schema.columns record, ordered by table then
// ordinal position.
type columnRow struct {
	Schema string
	Table  string
	Column string
}

// relationsFromRows groups ordered columnRows into Relations, preserving
// both table order (first appearance) and column order within a table.
func relationsFromRows(rows []columnRow) []lineage.Relation {
	index := make(map[string]int)
	var out []lineage.Relation
	for _, r := range rows {
		key := r.Schema + "." + r.Table
		if i, ok := index[key]; ok {
			out[i].FieldNames = append(out[i].FieldNames, r.Column)
			continue
		}
		index[key] = len(out)
		path, err := lineage.NewPath(r.Schema, r.Table)
		if err != nil {
			continue
		}
		out = append(out, lineage.Relation{Path: path, FieldNames: []string{r.Column}})
	}
	return withUnqualifiedAliases(out)
}

// withUnqualifiedAliases appends, for every schema-qualified Relation, a
// second Relation under its bare table name. §4.D resolves a statement's
// FROM paths verbatim against the supplied Relations, so a SQL file that
// writes an unqualified `FROM t` can only match a Relation whose Path is
// exactly {Identifier: "t"} — never the schema-qualified Path this query
// naturally produces.
func withUnqualifiedAliases(rels []lineage.Relation) []lineage.Relation {
	out := make([]lineage.Relation, 0, len(rels)*2)
	for _, rel := range rels {
		out = append(out, rel)
		if rel.Path.Schema == "" && rel.Path.Database == "" {
			continue
		}
		alias, err := lineage.NewPath(rel.Path.Identifier)
		if err != nil {
			continue
		}
		out = append(out, lineage.Relation{Path: alias, FieldNames: rel.FieldNames})
	}
	return out
}

// queryInformationSchema runs the standard information_schema.columns query
// shared by every SQL-standard-ish backend (Postgres, DuckDB): one row per
// column, ordered so that relationsFromRows can group them by a single pass.
func queryInformationSchema(ctx context.Context, db *sql.DB, query string, args ...any) ([]lineage.Relation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("schemasource: query information_schema.columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []columnRow
	for rows.Next() {
		var r columnRow
		if err := rows.Scan(&r.Schema, &r.Table, &r.Column); err != nil {
			return nil, fmt.Errorf("schemasource: scan column row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schemasource: iterate column rows: %w", err)
	}
	return relationsFromRows(out), nil
}
