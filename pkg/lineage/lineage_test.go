package lineage

import "testing"

func field(t *testing.T, cl ColumnsLineage, name string) FieldLineage {
	t.Helper()
	fl, ok := cl.Field(name)
	if !ok {
		t.Fatalf("no lineage entry for %q, got %+v", name, cl)
	}
	return fl
}

func cols(t *testing.T, fl FieldLineage, rel Relation) []string {
	t.Helper()
	c, ok := fl.For(rel)
	if !ok {
		t.Fatalf("no relation entry for %+v in %+v", rel, fl)
	}
	return c
}

// S1. SELECT x AS y FROM t, t = {x,z}.
func TestResolveColumnsLineage_S1_AliasedColumn(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"x", "z"}}
	cl, err := ResolveColumnsLineage("SELECT x AS y FROM t", []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cl) != 1 {
		t.Fatalf("ColumnsLineage has %d entries, want 1", len(cl))
	}
	fl := field(t, cl, "y")
	got := cols(t, fl, tRel)
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("y sources from t = %v, want [x]", got)
	}
	if fl.Formula != "x" {
		t.Fatalf("y formula = %q, want %q", fl.Formula, "x")
	}
}

// Regression: the aliased projection immediately preceding FROM sits right
// at the field region's upper boundary — a strict "<" in Tokens.RealSlice
// used to clip the alias token itself, leaving a stray trailing AS in the
// extracted formula. Exercised through the real parse/build path (unlike
// formula_test.go, which feeds tokens by hand).
func TestResolveColumnsLineage_AliasImmediatelyBeforeFrom(t *testing.T) {
	oRel := Relation{Path: Path{Identifier: "orders"}, FieldNames: []string{"id", "total"}}
	cl, err := ResolveColumnsLineage("SELECT id AS order_id FROM orders", []Relation{oRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fl := field(t, cl, "order_id")
	if fl.Formula != "id" {
		t.Fatalf("order_id formula = %q, want %q (no stray AS)", fl.Formula, "id")
	}
}

// S2. SELECT a + b AS s FROM t, t = {a,b}.
func TestResolveColumnsLineage_S2_Expression(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a", "b"}}
	cl, err := ResolveColumnsLineage("SELECT a + b AS s FROM t", []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fl := field(t, cl, "s")
	got := cols(t, fl, tRel)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("s sources from t = %v, want [a b]", got)
	}
	if fl.Formula != "a + b" {
		t.Fatalf("s formula = %q, want %q", fl.Formula, "a + b")
	}
}

// S3. WITH c AS (SELECT x AS y FROM t) SELECT y AS z FROM c, t = {x}.
func TestResolveColumnsLineage_S3_ThroughCTE(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"x"}}
	sql := "WITH c AS (SELECT x AS y FROM t) SELECT y AS z FROM c"
	cl, err := ResolveColumnsLineage(sql, []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fl := field(t, cl, "z")
	got := cols(t, fl, tRel)
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("z sources from t = %v, want [x]", got)
	}
	if fl.Formula != "x" {
		t.Fatalf("z formula = %q, want %q (inlined through the CTE's own inlined formula)", fl.Formula, "x")
	}
}

// S4. SELECT * FROM t, t = {a,b}.
func TestResolveColumnsLineage_S4_StarExpansion(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a", "b"}}
	cl, err := ResolveColumnsLineage("SELECT * FROM t", []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cl) != 2 || cl[0].Field != "a" || cl[1].Field != "b" {
		t.Fatalf("ColumnsLineage = %+v, want fields a, b in that order", cl)
	}
	if got := cols(t, cl[0], tRel); len(got) != 1 || got[0] != "a" {
		t.Fatalf("a sources from t = %v, want [a]", got)
	}
	if got := cols(t, cl[1], tRel); len(got) != 1 || got[0] != "b" {
		t.Fatalf("b sources from t = %v, want [b]", got)
	}
}

// S5. SELECT t.*, u.k FROM t, u, t={a,b}, u={k}.
func TestResolveColumnsLineage_S5_QualifiedStarAndColumn(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a", "b"}}
	uRel := Relation{Path: Path{Identifier: "u"}, FieldNames: []string{"k"}}
	cl, err := ResolveColumnsLineage("SELECT t.*, u.k FROM t, u", []Relation{tRel, uRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cl) != 3 {
		t.Fatalf("ColumnsLineage has %d entries, want 3", len(cl))
	}
	fa := field(t, cl, "a")
	if got := cols(t, fa, tRel); len(got) != 1 || got[0] != "a" {
		t.Fatalf("a sources from t = %v, want [a]", got)
	}
	fb := field(t, cl, "b")
	if got := cols(t, fb, tRel); len(got) != 1 || got[0] != "b" {
		t.Fatalf("b sources from t = %v, want [b]", got)
	}
	fk := field(t, cl, "k")
	if got := cols(t, fk, uRel); len(got) != 1 || got[0] != "k" {
		t.Fatalf("k sources from u = %v, want [k]", got)
	}
}

// S6. Cyclic CTE: WITH a AS (SELECT x FROM b), b AS (SELECT x FROM a) SELECT x FROM a.
func TestResolveColumnsLineage_S6_CyclicCTE(t *testing.T) {
	sql := "WITH a AS (SELECT x FROM b), b AS (SELECT x FROM a) SELECT x FROM a"
	_, err := ResolveColumnsLineage(sql, nil)
	if err == nil {
		t.Fatal("expected a cyclic-CTE error")
	}
	if _, ok := err.(*CyclicCTEError); !ok {
		t.Fatalf("expected *CyclicCTEError, got %T", err)
	}
}

// Boundary: empty SQL has no SELECT statement at all.
func TestResolveColumnsLineage_EmptySQL_RootNotFound(t *testing.T) {
	_, err := ResolveColumnsLineage("", nil)
	if err == nil {
		t.Fatal("expected a root-not-found error")
	}
	if _, ok := err.(*RootNotFoundError); !ok {
		t.Fatalf("expected *RootNotFoundError, got %T", err)
	}
}

// Boundary: a path with more than three qualifying components is rejected.
func TestResolveColumnsLineage_TooManyPathComponents(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"x"}}
	_, err := ResolveColumnsLineage("SELECT db.sc.t.col.x FROM t", []Relation{tRel})
	if err == nil {
		t.Fatal("expected a too-many-path-components error")
	}
	if _, ok := err.(*TooManyPathComponentsError); !ok {
		t.Fatalf("expected *TooManyPathComponentsError, got %T", err)
	}
}

// Boundary: an unaliased expression depending on more than one column is
// ambiguous, since the engine has no name to give the output column.
func TestResolveColumnsLineage_AmbiguousFieldName(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a", "b"}}
	_, err := ResolveColumnsLineage("SELECT a + b FROM t", []Relation{tRel})
	if err == nil {
		t.Fatal("expected an ambiguous-field-name error")
	}
	if _, ok := err.(*AmbiguousFieldNameError); !ok {
		t.Fatalf("expected *AmbiguousFieldNameError, got %T", err)
	}
}

// Boundary: a single ColumnRef plus a constant still has exactly one
// dependency, so the unaliased name is permitted.
func TestResolveColumnsLineage_UnaliasedSingleColumnPlusConstant(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"x"}}
	cl, err := ResolveColumnsLineage("SELECT x + 1 FROM t", []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fl := field(t, cl, "x")
	got := cols(t, fl, tRel)
	if len(got) != 1 || got[0] != "x" {
		t.Fatalf("x sources from t = %v, want [x]", got)
	}
}

// Idempotence (§8 property 5): running the engine twice on the same input
// yields structurally equal output.
func TestResolveColumnsLineage_Idempotent(t *testing.T) {
	tRel := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a", "b"}}
	sql := "SELECT a + b AS s FROM t"
	first, err := ResolveColumnsLineage(sql, []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := ResolveColumnsLineage(sql, []Relation{tRel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Field != second[i].Field {
			t.Fatalf("field[%d] differs: %q vs %q", i, first[i].Field, second[i].Field)
		}
		if len(first[i].Sources) != len(second[i].Sources) {
			t.Fatalf("sources[%d] length differs", i)
		}
		for j := range first[i].Sources {
			a, b := first[i].Sources[j], second[i].Sources[j]
			if a.Relation.Path != b.Relation.Path {
				t.Fatalf("sources[%d][%d] relation differs: %+v vs %+v", i, j, a.Relation, b.Relation)
			}
			if len(a.Columns) != len(b.Columns) {
				t.Fatalf("sources[%d][%d] columns differ: %v vs %v", i, j, a.Columns, b.Columns)
			}
		}
	}
}
