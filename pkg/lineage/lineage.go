// Package lineage computes column-level data lineage for PostgreSQL
// SELECT statements: given a SQL query and the column lists of its input
// tables, it determines which input columns each output column ultimately
// depends on, and reconstructs a human-readable formula for each.
//
// The package is a pure, synchronous function of its two inputs — it does
// no I/O, logging, or configuration loading, and shares no state across
// calls. Discovering table schemas, running the query, and rendering the
// result are concerns of the caller (see internal/schemasource and
// cmd/collineage).
package lineage

// ResolveColumnsLineage is the engine's public facade (§4.H): it parses
// sql, resolves every statement against relations, and returns the
// lineage of every column in the outermost SELECT.
func ResolveColumnsLineage(sql string, relations []Relation) (ColumnsLineage, error) {
	parsed, err := parseSQL(sql)
	if err != nil {
		return nil, err
	}

	root, ctes, err := buildAll(parsed)
	if err != nil {
		return nil, err
	}

	if err := resolveSources(root, ctes, relations); err != nil {
		return nil, err
	}

	order, err := topoSort(root, ctes)
	if err != nil {
		return nil, err
	}

	if err := resolveAllFields(order); err != nil {
		return nil, err
	}

	return walkLineage(root)
}
