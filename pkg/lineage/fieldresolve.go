package lineage

// resolveAllFields walks statements in topological order, resolving and
// expanding the fields of each in turn — §4.F. Every statement's upstream
// CTEs have already been processed by the time it is reached, so inlining
// a reference to a CTE field always finds an already-inlined formula.
func resolveAllFields(order []*Statement) error {
	for _, stmt := range order {
		if err := resolveFields(stmt); err != nil {
			return err
		}
	}
	return nil
}

// resolveFields binds FieldRefs, expands `*` fields, and inlines formulas
// for one statement — §4.F steps 1-4.
func resolveFields(stmt *Statement) error {
	sourceMap := make(map[Path]*Source, len(stmt.Sources))
	for i := range stmt.Sources {
		sourceMap[stmt.Sources[i].SearchPath()] = &stmt.Sources[i]
	}

	var nonStar, stars []Field
	for _, f := range stmt.Fields {
		if f.IsAStar() {
			stars = append(stars, f)
		} else {
			nonStar = append(nonStar, f)
		}
	}

	for i := range nonStar {
		for j := range nonStar[i].DependsOn {
			if err := resolveFieldRef(&nonStar[i].DependsOn[j], stmt.Sources, sourceMap); err != nil {
				return err
			}
		}
	}

	expanded, err := expandStars(stars, stmt.Sources, sourceMap)
	if err != nil {
		return err
	}

	fields := make([]Field, 0, len(nonStar)+len(expanded))
	fields = append(fields, nonStar...)
	fields = append(fields, expanded...)

	if err := checkUniqueNames(fields); err != nil {
		return err
	}

	for i := range fields {
		substitutions := make([]string, len(fields[i].DependsOn))
		for j := range fields[i].DependsOn {
			ref := fields[i].DependsOn[j]
			upstream, err := upstreamFormula(ref)
			if err != nil {
				return err
			}
			substitutions[j] = upstream
		}
		fields[i].Formula = inlineFormula(fields[i].Formula, substitutions)
	}

	stmt.Fields = fields
	return nil
}

// upstreamFormula is the bare column name when the FieldRef is backed by a
// base Relation, or the upstream CTE field's already-inlined formula
// otherwise — §4.F step 4.
func upstreamFormula(ref FieldRef) (string, error) {
	switch {
	case ref.Source.Reference.Relation != nil:
		return ref.Name, nil
	case ref.Source.Reference.CTE != nil:
		cte := ref.Source.Reference.CTE
		field, ok := cte.GetField(ref.Name)
		if !ok {
			return "", &FieldNotFoundError{Name: ref.Name, CTEName: cte.Name}
		}
		return field.Formula, nil
	default:
		return "", &SourceNotFoundError{Name: ref.String()}
	}
}

// resolveFieldRef binds ref.Source: by exact search-path lookup if ref has
// a qualifier, else by scanning sources in declaration order for the first
// one exposing the column — §4.F step 2.
func resolveFieldRef(ref *FieldRef, sources []Source, sourceMap map[Path]*Source) error {
	if !ref.Path.IsEmpty() {
		src, ok := sourceMap[ref.Path]
		if !ok {
			return &SourceNotFoundError{Name: ref.String()}
		}
		ref.Source = src
		return nil
	}
	for i := range sources {
		if sources[i].Reference != nil && sources[i].Reference.HasField(ref.Name) {
			ref.Source = &sources[i]
			return nil
		}
	}
	return &SourceNotFoundError{Name: ref.Name}
}

// expandStars replaces each `*` field with one generated field per visible
// column — §4.F step 3. Unqualified stars see every source's columns, in
// source order then column order; a qualified `t.*` sees only t's columns.
func expandStars(stars []Field, sources []Source, sourceMap map[Path]*Source) ([]Field, error) {
	var out []Field
	for _, star := range stars {
		ref := star.DependsOn[0]
		if ref.Path.IsEmpty() {
			for i := range sources {
				out = append(out, starFields(&sources[i])...)
			}
			continue
		}
		src, ok := sourceMap[ref.Path]
		if !ok {
			return nil, &SourceNotFoundError{Name: ref.String()}
		}
		out = append(out, starFields(src)...)
	}
	return out, nil
}

func starFields(src *Source) []Field {
	cols := sourceColumns(src)
	out := make([]Field, 0, len(cols))
	for _, col := range cols {
		out = append(out, Field{
			DependsOn: []FieldRef{{Path: src.SearchPath(), Name: col, Source: src}},
			Formula:   "{0}",
		})
	}
	return out
}

func sourceColumns(src *Source) []string {
	if src.Reference == nil {
		return nil
	}
	if src.Reference.Relation != nil {
		return src.Reference.Relation.FieldNames
	}
	if cte := src.Reference.CTE; cte != nil {
		names := make([]string, 0, len(cte.Fields))
		for i := range cte.Fields {
			if n, err := cte.Fields[i].Name(); err == nil {
				names = append(names, n)
			}
		}
		return names
	}
	return nil
}

// checkUniqueNames enforces invariant 1: within one statement, field names
// must be unique after `*` expansion (§9 open question: rejected rather
// than silently renamed).
func checkUniqueNames(fields []Field) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		name, err := fields[i].Name()
		if err != nil {
			return err
		}
		if seen[name] {
			return &DuplicateFieldNameError{Name: name}
		}
		seen[name] = true
	}
	return nil
}
