package lineage

// topoSort orders root and the CTEs it transitively depends on so that
// every CTE appears before any statement that references it — §4.E. The
// Root (sentinel name "") is always last. CTEs unreferenced by anything
// reachable from root are omitted; this is harmless because field
// resolution never needs them.
func topoSort(root *Statement, ctes []*Statement) ([]*Statement, error) {
	byName := make(map[string]*Statement, len(ctes)+1)
	byName[""] = root
	for _, c := range ctes {
		byName[c.Name] = c
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(byName))
	var order []*Statement

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return &CyclicCTEError{Name: name}
		}
		state[name] = visiting
		stmt, ok := byName[name]
		if !ok {
			state[name] = done
			return nil
		}
		for _, src := range stmt.Sources {
			if src.Reference != nil && src.Reference.CTE != nil {
				if err := visit(src.Reference.CTE.Name); err != nil {
					return err
				}
			}
		}
		order = append(order, stmt)
		state[name] = done
		return nil
	}

	if err := visit(""); err != nil {
		return nil, err
	}
	return order, nil
}
