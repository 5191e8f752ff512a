package lineage

import pg_query "github.com/pganalyze/pg_query_go/v5"

// buildAll turns a parsed SQL document into a Root statement and its
// ordered list of CTEs — §4.C, steps 1-3.
func buildAll(parsed *ParsedSQL) (*Statement, []*Statement, error) {
	rawStmts := parsed.Tree.GetStmts()
	if len(rawStmts) == 0 {
		return nil, nil, &RootNotFoundError{}
	}

	selects := collectSelectStmts(rawStmts[0].GetStmt(), true)
	if len(selects) == 0 {
		return nil, nil, &RootNotFoundError{}
	}
	rootSelect := selects[0]

	cteExprs := rootSelect.GetWithClause().GetCtes()
	ctesEndIdx := 0
	if len(cteExprs) > 0 {
		firstLoc := int(cteExprs[0].GetCommonTableExpr().GetLocation())
		ctesEndIdx = locateCTEsEnd(parsed, firstLoc, len(cteExprs))
	}

	ctes := make([]*Statement, 0, len(cteExprs))
	for i, node := range cteExprs {
		cte := node.GetCommonTableExpr()
		regionEnd := ctesEndIdx
		if i+1 < len(cteExprs) {
			regionEnd = int(cteExprs[i+1].GetCommonTableExpr().GetLocation())
		}
		cteSelect := cte.GetCtequery().GetSelectStmt()
		stmt, err := buildStatement(parsed, cteSelect, regionEnd)
		if err != nil {
			return nil, nil, err
		}
		stmt.Name = cte.GetCtename()
		ctes = append(ctes, stmt)
	}

	root, err := buildStatement(parsed, rootSelect, len(parsed.Text))
	if err != nil {
		return nil, nil, err
	}
	return root, ctes, nil
}

// locateCTEsEnd walks tokens from the first CTE's location, tracking
// parenthesis balance across `(`/`)`. Each time the balance returns to
// zero marks the close of one CTE's parenthesized body; the Nth such
// return (N = the number of CTEs in the WITH clause) is ctes_end_idx,
// per §4.C step 1, generalized from one CTE to N.
func locateCTEsEnd(parsed *ParsedSQL, firstLoc, cteCount int) int {
	balance := 0
	zeros := 0
	for _, t := range parsed.Tokens {
		if t.Start < firstLoc {
			continue
		}
		switch {
		case parsed.isLParen(t):
			balance++
		case parsed.isRParen(t):
			balance--
			if balance == 0 {
				zeros++
				if zeros == cteCount {
					return t.Start
				}
			}
		}
	}
	return len(parsed.Text)
}

// buildStatement builds the Fields and Sources of one statement region
// (either the Root or one CTE body), per §4.C step 3.
func buildStatement(parsed *ParsedSQL, sel *pg_query.SelectStmt, regionEnd int) (*Statement, error) {
	targets := make([]*pg_query.ResTarget, 0, len(sel.GetTargetList()))
	for _, n := range sel.GetTargetList() {
		targets = append(targets, collectResTargets(n, true)...)
	}

	fromClause := sel.GetFromClause()
	var rangeVars []*pg_query.RangeVar
	for _, n := range fromClause {
		rangeVars = append(rangeVars, collectRangeVars(n, true)...)
	}
	sources := make([]Source, 0, len(rangeVars))
	for _, rv := range rangeVars {
		path, err := NewPath(nonEmptyParts(rv.GetCatalogname(), rv.GetSchemaname(), rv.GetRelname())...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Path: path, Alias: rv.GetAlias().GetAliasname()})
	}

	fields := make([]Field, 0, len(targets))
	if len(targets) > 0 {
		lastLoc := int(targets[len(targets)-1].GetLocation())
		fieldsEnd := regionEnd
		if len(fromClause) > 0 {
			fieldsEnd = fromBoundary(parsed, lastLoc, regionEnd)
		}
		for i, target := range targets {
			start := int(target.GetLocation())
			end := fieldsEnd
			if i+1 < len(targets) {
				end = int(targets[i+1].GetLocation())
			}
			field, err := buildField(parsed, target, start, end)
			if err != nil {
				return nil, err
			}
			if !field.IsAStar() {
				if _, err := field.Name(); err != nil {
					return nil, err
				}
			}
			fields = append(fields, field)
		}
	}

	return &Statement{Fields: fields, Sources: sources}, nil
}

// fromBoundary finds the byte offset one before the first FROM token at or
// after lastTargetLoc — the end of the last projection target when a FROM
// clause is present, per §4.C step 3.
func fromBoundary(parsed *ParsedSQL, lastTargetLoc, regionEnd int) int {
	for _, t := range parsed.Tokens {
		if t.Start < lastTargetLoc {
			continue
		}
		if parsed.isFrom(t) {
			return t.Start - 1
		}
	}
	return regionEnd
}

// nonEmptyParts drops leading empty components so that NewPath
// receives a left-truncated argument list rather than embedded "" gaps —
// a bare `relname` with no catalog/schema yields exactly one part.
func nonEmptyParts(catalog, schema, identifier string) []string {
	all := []string{catalog, schema, identifier}
	start := 0
	for start < len(all) && all[start] == "" {
		start++
	}
	return all[start:]
}
