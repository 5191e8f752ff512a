package lineage

import "testing"

func TestResolveFields_BindsUnqualifiedRefAndInlines(t *testing.T) {
	orders := Relation{Path: Path{Identifier: "orders"}, FieldNames: []string{"id"}}
	stmt := &Statement{
		Sources: []Source{{Path: orders.Path, Reference: &SourceReference{Relation: &orders}}},
		Fields: []Field{
			{Alias: "oid", Formula: "{0}", DependsOn: []FieldRef{{Name: "id"}}},
		},
	}

	if err := resolveFields(stmt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stmt.Fields[0].Formula != "id" {
		t.Fatalf("Formula = %q, want %q", stmt.Fields[0].Formula, "id")
	}
	if stmt.Fields[0].DependsOn[0].Source == nil {
		t.Fatal("expected the field ref's Source to be bound")
	}
}

func TestResolveFields_ExpandsUnqualifiedStar(t *testing.T) {
	t1 := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a", "b"}}
	stmt := &Statement{
		Sources: []Source{{Path: t1.Path, Reference: &SourceReference{Relation: &t1}}},
		Fields: []Field{
			{Formula: "{0}", DependsOn: []FieldRef{{Name: "*"}}},
		},
	}

	if err := resolveFields(stmt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stmt.Fields) != 2 {
		t.Fatalf("resolveFields() produced %d fields, want 2 (one per column)", len(stmt.Fields))
	}
	names := map[string]bool{}
	for i := range stmt.Fields {
		n, err := stmt.Fields[i].Name()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		names[n] = true
	}
	if !names["a"] || !names["b"] {
		t.Fatalf("expanded field names = %v, want a and b", names)
	}
}

func TestResolveFields_DuplicateNameRejected(t *testing.T) {
	t1 := Relation{Path: Path{Identifier: "t"}, FieldNames: []string{"a"}}
	stmt := &Statement{
		Sources: []Source{{Path: t1.Path, Reference: &SourceReference{Relation: &t1}}},
		Fields: []Field{
			{Formula: "{0}", DependsOn: []FieldRef{{Name: "a"}}},
			{Alias: "a", Formula: "{0}", DependsOn: []FieldRef{{Name: "a"}}},
		},
	}

	err := resolveFields(stmt)
	if err == nil {
		t.Fatal("expected a duplicate-field-name error")
	}
	if _, ok := err.(*DuplicateFieldNameError); !ok {
		t.Fatalf("expected *DuplicateFieldNameError, got %T", err)
	}
}

func TestResolveFields_UnresolvableColumnReportsSourceNotFound(t *testing.T) {
	stmt := &Statement{
		Fields: []Field{
			{Alias: "x", Formula: "{0}", DependsOn: []FieldRef{{Name: "missing"}}},
		},
	}

	err := resolveFields(stmt)
	if err == nil {
		t.Fatal("expected a source-not-found error")
	}
	if _, ok := err.(*SourceNotFoundError); !ok {
		t.Fatalf("expected *SourceNotFoundError, got %T", err)
	}
}
