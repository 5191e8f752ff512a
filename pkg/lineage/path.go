package lineage

// Path is a qualified identifier of up to three components: database,
// schema, identifier. An empty Path (all components unset) is a
// distinguished value meaning "unqualified".
//
// Components use "" as the unset sentinel; SQL identifiers are never empty
// strings, so this does not collide with a real component value.
type Path struct {
	Database   string
	Schema     string
	Identifier string
}

// IsEmpty reports whether p has no components set.
func (p Path) IsEmpty() bool {
	return p.Database == "" && p.Schema == "" && p.Identifier == ""
}

// NewPath builds a Path from a left-truncated list of up to three parts:
// one part binds Identifier, two bind Schema and Identifier, three bind
// all three components. More than three parts is always an error.
func NewPath(parts ...string) (Path, error) {
	switch len(parts) {
	case 0:
		return Path{}, nil
	case 1:
		return Path{Identifier: parts[0]}, nil
	case 2:
		return Path{Schema: parts[0], Identifier: parts[1]}, nil
	case 3:
		return validatePath(Path{Database: parts[0], Schema: parts[1], Identifier: parts[2]})
	default:
		return Path{}, &TooManyPathComponentsError{Parts: parts}
	}
}

// validatePath enforces that the intermediate Schema component is not unset
// while Database is set: Database set with Schema unset is illegal even if
// Identifier is set. No other combination is checked.
func validatePath(p Path) (Path, error) {
	if p.Database != "" && p.Schema == "" {
		return Path{}, &TooManyPathComponentsError{Parts: []string{p.Database, "", p.Identifier}}
	}
	return p, nil
}

// Relation is an input table: a Path plus a finite ordered set of column
// names. It is immutable once passed to the engine.
type Relation struct {
	Path       Path
	FieldNames []string
}

// HasField reports whether name appears among r's field names.
func (r Relation) HasField(name string) bool {
	for _, f := range r.FieldNames {
		if f == name {
			return true
		}
	}
	return false
}
