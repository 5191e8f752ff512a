package lineage

import "strings"

// Source is a table expression inside a statement's FROM clause.
type Source struct {
	// Path is written as it appears in the SQL; Identifier is always set.
	Path Path
	// Alias is the optional table alias; "" if none.
	Alias string
	// Reference is filled in by the source resolver (§4.D). Nil before
	// resolution.
	Reference *SourceReference
}

// SearchPath is the path under which this source is referenced in the
// statement body: the alias if aliased, else Path verbatim.
func (s *Source) SearchPath() Path {
	if s.Alias != "" {
		return Path{Identifier: s.Alias}
	}
	return s.Path
}

// SourceReference is a tagged union: a Source resolves to exactly one of a
// sibling CTE or a base Relation. Modeled as a tagged struct rather than an
// interface so the two cases stay closed and cheap to switch on.
type SourceReference struct {
	CTE      *Statement
	Relation *Relation
}

// HasField reports whether the referenced entity exposes a column by name.
func (r SourceReference) HasField(name string) bool {
	switch {
	case r.CTE != nil:
		return r.CTE.HasField(name)
	case r.Relation != nil:
		return r.Relation.HasField(name)
	default:
		return false
	}
}

// FieldRef is a single ColumnRef as written in a projection expression.
type FieldRef struct {
	// Path is the qualifier before the column name; empty if unqualified.
	Path Path
	// Name is the column name, or the sentinel "*" for a star reference.
	Name string
	// Source is filled in by the field resolver (§4.F). Nil before
	// resolution.
	Source *Source
}

// IsStar reports whether this reference is a `*` or `t.*` wildcard.
func (f FieldRef) IsStar() bool { return f.Name == "*" }

// String renders a dotted-path representation, used in error messages.
func (f FieldRef) String() string {
	p := pathString(f.Path)
	if p == "<unqualified>" {
		return f.Name
	}
	return p + "." + f.Name
}

// Field is one entry of a statement's projection list.
type Field struct {
	// DependsOn is the ordered list of FieldRefs extracted from the
	// projection expression.
	DependsOn []FieldRef
	// Alias is the optional `AS` name; "" if none.
	Alias string
	// Formula is a template string with placeholders {0}, {1}, … matching
	// DependsOn positionally. Once inlined (§4.F step 4) it holds the
	// reconstructed SQL fragment with no placeholders left.
	Formula string
}

// Name derives the field's output name: the alias if set, otherwise the
// single DependsOn entry's name. It is an error for an unaliased field to
// depend on a number of columns other than exactly one.
func (f *Field) Name() (string, error) {
	if f.Alias != "" {
		return f.Alias, nil
	}
	if len(f.DependsOn) != 1 {
		return "", &AmbiguousFieldNameError{DependsOnCount: len(f.DependsOn)}
	}
	return f.DependsOn[0].Name, nil
}

// IsAStar reports whether this field is an unexpanded `*` / `t.*` entry.
func (f *Field) IsAStar() bool {
	name, err := f.Name()
	return err == nil && name == "*"
}

// Statement is a projection scope: the top-level Root (Name == "", the
// sentinel used by the statement sorter, §4.E) or a named CTE.
type Statement struct {
	Name    string
	Fields  []Field
	Sources []Source
}

// IsRoot reports whether this statement is the top-level SELECT.
func (s *Statement) IsRoot() bool { return s.Name == "" }

// HasField reports whether name appears among s's (possibly still
// unexpanded) field names.
func (s *Statement) HasField(name string) bool {
	for i := range s.Fields {
		if n, err := s.Fields[i].Name(); err == nil && n == name {
			return true
		}
	}
	return false
}

// GetField returns the field whose derived name matches, if any.
func (s *Statement) GetField(name string) (*Field, bool) {
	for i := range s.Fields {
		if n, err := s.Fields[i].Name(); err == nil && n == name {
			return &s.Fields[i], true
		}
	}
	return nil, false
}

// RelationLineage is the ordered list of column names (no dedup) that an
// output column draws from a single input relation.
type RelationLineage struct {
	Relation Relation
	Columns  []string
}

// FieldLineage is the full lineage entry for one output column: the
// reconstructed formula that produced it and the relations it depends on,
// in first-touched order.
type FieldLineage struct {
	Field   string
	Formula string
	Sources []RelationLineage
}

// For returns the column list contributed by rel to this field, if any.
func (fl FieldLineage) For(rel Relation) ([]string, bool) {
	for _, s := range fl.Sources {
		if s.Relation.Path == rel.Path {
			return s.Columns, true
		}
	}
	return nil, false
}

// ColumnsLineage is the engine's result: one FieldLineage per output
// column, in root-field declaration order (after `*` expansion).
//
// Go maps cannot be keyed by Relation (it embeds a slice, so it is not
// comparable) and do not preserve iteration order; an ordered slice of
// (Relation, Columns) pairs keeps the semantics of spec's
// "map from Relation to columns" while staying deterministic and testable.
type ColumnsLineage []FieldLineage

// Field returns the lineage entry for the named output column, if present.
func (cl ColumnsLineage) Field(name string) (FieldLineage, bool) {
	for _, fl := range cl {
		if fl.Field == name {
			return fl, true
		}
	}
	return FieldLineage{}, false
}

func trimSpaceLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
