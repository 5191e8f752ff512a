package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/collineage/pkg/lineage"
)

// manifestModel, manifestColumn, and manifestSource mirror the lineage
// manifest shape spec.md §6 describes: one "model" entry per resolved SQL
// file, each with its columns' reconstructed formula and upstream sources.
// The engine itself never produces this shape — it is assembled here, at
// the host boundary, from a lineage.ColumnsLineage — but the formula
// reconstructor the engine exposes (§4.F step 4, `Field.Formula`) is CORE
// per spec.md §1, not project-graph-host scope; this just copies the
// already-inlined value onto the manifest's per-column "formula" field.
type manifestModel struct {
	Name    string           `json:"name"`
	Columns []manifestColumn `json:"columns"`
}

type manifestColumn struct {
	Name    string           `json:"name"`
	Formula string           `json:"formula"`
	Sources []manifestSource `json:"sources"`
}

type manifestSource struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

func buildManifest(name string, cl lineage.ColumnsLineage) manifestModel {
	columns := make([]manifestColumn, 0, len(cl))
	for _, fl := range cl {
		sources := make([]manifestSource, 0, len(fl.Sources))
		for _, rl := range fl.Sources {
			sources = append(sources, manifestSource{
				Name:    relationName(rl.Relation),
				Columns: rl.Columns,
			})
		}
		columns = append(columns, manifestColumn{
			Name:    fl.Field,
			Formula: fl.Formula,
			Sources: sources,
		})
	}
	return manifestModel{Name: name, Columns: columns}
}

// relationName renders a Relation's Path as a dotted identifier for the
// manifest's upstream-model-id field.
func relationName(rel lineage.Relation) string {
	var parts []string
	if rel.Path.Database != "" {
		parts = append(parts, rel.Path.Database)
	}
	if rel.Path.Schema != "" {
		parts = append(parts, rel.Path.Schema)
	}
	if rel.Path.Identifier != "" {
		parts = append(parts, rel.Path.Identifier)
	}
	return strings.Join(parts, ".")
}

func renderJSON(w io.Writer, model manifestModel) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{"models": []manifestModel{model}})
}

func renderText(w io.Writer, model manifestModel) error {
	if _, err := fmt.Fprintf(w, "Lineage for: %s\n\n", model.Name); err != nil {
		return err
	}
	for _, col := range model.Columns {
		if _, err := fmt.Fprintf(w, "%s = %s\n", col.Name, col.Formula); err != nil {
			return err
		}
		for _, src := range col.Sources {
			if _, err := fmt.Fprintf(w, "  <- %s.%s\n", src.Name, strings.Join(src.Columns, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}
