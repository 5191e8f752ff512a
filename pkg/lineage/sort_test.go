package lineage

import "testing"

func TestTopoSort_OrdersCTEsBeforeDependents(t *testing.T) {
	base := &Statement{Name: "base"}
	mid := &Statement{
		Name:    "mid",
		Sources: []Source{{Reference: &SourceReference{CTE: base}}},
	}
	root := &Statement{
		Sources: []Source{{Reference: &SourceReference{CTE: mid}}},
	}

	order, err := topoSort(root, []*Statement{base, mid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("topoSort() returned %d statements, want 3", len(order))
	}
	if order[0].Name != "base" || order[1].Name != "mid" || !order[2].IsRoot() {
		t.Fatalf("topoSort() order = %q, %q, %q", order[0].Name, order[1].Name, order[2].Name)
	}
}

func TestTopoSort_OmitsUnreferencedCTE(t *testing.T) {
	used := &Statement{Name: "used"}
	unused := &Statement{Name: "unused"}
	root := &Statement{
		Sources: []Source{{Reference: &SourceReference{CTE: used}}},
	}

	order, err := topoSort(root, []*Statement{used, unused})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("topoSort() returned %d statements, want 2 (unused CTE omitted)", len(order))
	}
}

func TestTopoSort_DetectsCycle(t *testing.T) {
	a := &Statement{Name: "a"}
	b := &Statement{Name: "b"}
	a.Sources = []Source{{Reference: &SourceReference{CTE: b}}}
	b.Sources = []Source{{Reference: &SourceReference{CTE: a}}}
	root := &Statement{Sources: []Source{{Reference: &SourceReference{CTE: a}}}}

	_, err := topoSort(root, []*Statement{a, b})
	if err == nil {
		t.Fatal("expected a cyclic-CTE error")
	}
	if _, ok := err.(*CyclicCTEError); !ok {
		t.Fatalf("expected *CyclicCTEError, got %T", err)
	}
}
