package lineage

// walkLineage produces the final `output column -> {input relation ->
// [input columns]}` mapping for every field of root — §4.G.
func walkLineage(root *Statement) (ColumnsLineage, error) {
	result := make(ColumnsLineage, 0, len(root.Fields))
	for _, f := range root.Fields {
		name, err := f.Name()
		if err != nil {
			return nil, err
		}
		fl, err := walkField(f)
		if err != nil {
			return nil, err
		}
		fl.Field = name
		fl.Formula = f.Formula
		result = append(result, fl)
	}
	return result, nil
}

// walkField collapses one field's transitive dependencies down to base
// columns via a stack-based DFS, accumulating an ordered (no dedup) column
// list per relation in the order each relation is first touched.
func walkField(f Field) (FieldLineage, error) {
	acc := make(map[Path]*RelationLineage)
	var order []Path

	stack := []Field{f}
	for len(stack) > 0 {
		g := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, ref := range g.DependsOn {
			if ref.Source == nil || ref.Source.Reference == nil {
				return FieldLineage{}, &SourceNotFoundError{Name: ref.String()}
			}
			switch {
			case ref.Source.Reference.Relation != nil:
				rel := ref.Source.Reference.Relation
				rl, ok := acc[rel.Path]
				if !ok {
					rl = &RelationLineage{Relation: *rel}
					acc[rel.Path] = rl
					order = append(order, rel.Path)
				}
				rl.Columns = append(rl.Columns, ref.Name)
			case ref.Source.Reference.CTE != nil:
				cte := ref.Source.Reference.CTE
				next, ok := cte.GetField(ref.Name)
				if !ok {
					return FieldLineage{}, &FieldNotFoundError{Name: ref.Name, CTEName: cte.Name}
				}
				stack = append(stack, *next)
			}
		}
	}

	sources := make([]RelationLineage, 0, len(order))
	for _, p := range order {
		sources = append(sources, *acc[p])
	}
	return FieldLineage{Sources: sources}, nil
}
