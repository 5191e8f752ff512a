package lineage

import (
	"fmt"
	"strings"
)

// Error message formats, one per taxonomy entry. Kept as named constants so
// the wording lives in one place, matching the style of pkg/parser/errors.go.
const (
	ErrRootNotFound             = "no SELECT statement found in input SQL"
	ErrSourceReferenceNotFound  = "source reference not found: %s"
	ErrSourceNotFound           = "source not found for column %q"
	ErrFieldNotFound            = "field %q not found on %s"
	ErrCyclicCTE                = "cyclic CTE dependency involving %q"
	ErrTooManyPathComponents    = "too many path components: %s"
	ErrAmbiguousFieldName       = "field has no alias and depends on %d columns, need exactly 1"
	ErrDuplicateFieldName       = "duplicate field name %q"
)

// RootNotFoundError is raised when the input SQL contains no SELECT
// statement at all.
type RootNotFoundError struct{}

func (e *RootNotFoundError) Error() string { return ErrRootNotFound }

// SourceReferenceNotFoundError is raised when a FROM entry matches neither
// a sibling CTE nor a member of initial_relations.
type SourceReferenceNotFoundError struct {
	Path Path
}

func (e *SourceReferenceNotFoundError) Error() string {
	return fmt.Sprintf(ErrSourceReferenceNotFound, pathString(e.Path))
}

// SourceNotFoundError is raised when a bare column name is not exposed by
// any in-scope source.
type SourceNotFoundError struct {
	Name string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf(ErrSourceNotFound, e.Name)
}

// FieldNotFoundError is raised when a CTE claimed by source resolution does
// not expose a referenced column.
type FieldNotFoundError struct {
	Name     string
	CTEName  string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf(ErrFieldNotFound, e.Name, "CTE "+e.CTEName)
}

// CyclicCTEError is raised when the CTE dependency graph contains a cycle.
type CyclicCTEError struct {
	Name string
}

func (e *CyclicCTEError) Error() string {
	return fmt.Sprintf(ErrCyclicCTE, e.Name)
}

// TooManyPathComponentsError is raised when a ColumnRef or Path has more
// than three qualifying name components.
type TooManyPathComponentsError struct {
	Parts []string
}

func (e *TooManyPathComponentsError) Error() string {
	return fmt.Sprintf(ErrTooManyPathComponents, strings.Join(e.Parts, "."))
}

// AmbiguousFieldNameError is raised when a Field has no alias and depends
// on a number of columns other than exactly one.
type AmbiguousFieldNameError struct {
	DependsOnCount int
}

func (e *AmbiguousFieldNameError) Error() string {
	return fmt.Sprintf(ErrAmbiguousFieldName, e.DependsOnCount)
}

// DuplicateFieldNameError is raised when a statement's projection list
// contains the same output name twice after star expansion.
type DuplicateFieldNameError struct {
	Name string
}

func (e *DuplicateFieldNameError) Error() string {
	return fmt.Sprintf(ErrDuplicateFieldName, e.Name)
}

func pathString(p Path) string {
	var parts []string
	if p.Database != "" {
		parts = append(parts, p.Database)
	}
	if p.Schema != "" {
		parts = append(parts, p.Schema)
	}
	if p.Identifier != "" {
		parts = append(parts, p.Identifier)
	}
	if len(parts) == 0 {
		return "<unqualified>"
	}
	return strings.Join(parts, ".")
}
