package lineage

// resolveSources binds every Source in root and ctes to a concrete
// referent — a sibling CTE or a member of relations — per §4.D.
func resolveSources(root *Statement, ctes []*Statement, relations []Relation) error {
	cteByName := make(map[string]*Statement, len(ctes))
	for _, cte := range ctes {
		cteByName[cte.Name] = cte
	}

	relByPath := make(map[Path]*Relation, len(relations))
	for i := range relations {
		relByPath[relations[i].Path] = &relations[i]
	}

	statements := make([]*Statement, 0, len(ctes)+1)
	statements = append(statements, ctes...)
	statements = append(statements, root)

	for _, stmt := range statements {
		for i := range stmt.Sources {
			src := &stmt.Sources[i]
			if cte, ok := cteByName[src.Path.Identifier]; ok {
				src.Reference = &SourceReference{CTE: cte}
				continue
			}
			if rel, ok := relByPath[src.Path]; ok {
				src.Reference = &SourceReference{Relation: rel}
				continue
			}
			return &SourceReferenceNotFoundError{Path: src.Path}
		}
	}
	return nil
}
