package lineage

import (
	"fmt"
	"strconv"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v5"
)

// buildField extracts a Field from a ResTarget whose projection-list entry
// spans the half-open byte range [start, end) of the comment-stripped SQL
// text — the formula-extraction algorithm of §4.C.
func buildField(parsed *ParsedSQL, target *pg_query.ResTarget, start, end int) (Field, error) {
	toks := parsed.Tokens.RealSlice(start, end)
	toks = trimTrailingComma(parsed, toks)
	toks = trimTrailingAlias(parsed, toks)
	if len(toks) == 0 {
		return Field{}, fmt.Errorf("empty projection target at offset %d", start)
	}
	bounds := [2]int{toks[0].Start, toks[len(toks)-1].End}

	refs := collectColumnRefs(target.GetVal(), false)
	dependsOn := make([]FieldRef, 0, len(refs))
	spans := make([][2]int, 0, len(refs))
	for _, cr := range refs {
		path, name, err := fieldRefPathAndName(cr.GetFields())
		if err != nil {
			return Field{}, err
		}
		spanEnd, err := columnRefEnd(toks, int(cr.GetLocation()), len(cr.GetFields()))
		if err != nil {
			return Field{}, err
		}
		dependsOn = append(dependsOn, FieldRef{Path: path, Name: name})
		spans = append(spans, [2]int{int(cr.GetLocation()), spanEnd})
	}

	return Field{
		DependsOn: dependsOn,
		Alias:     target.GetName(),
		Formula:   spliceTemplate(parsed.Text, bounds, spans),
	}, nil
}

// columnRefEnd locates the byte offset one past a ColumnRef's last dotted
// component. A reference with N dotted parts spans 2N-1 tokens (IDENT,
// `.`, IDENT, `.`, … IDENT); starting from the first token at `start`,
// its last token is 2N-2 positions forward, per §4.C step 3.
func columnRefEnd(toks Tokens, start, fieldsLen int) (int, error) {
	idx := -1
	for i, t := range toks {
		if t.Start == start {
			idx = i
			break
		}
	}
	if idx == -1 {
		return 0, fmt.Errorf("column reference token not found at offset %d", start)
	}
	target := idx + (2*fieldsLen - 2)
	if target < 0 || target >= len(toks) {
		return 0, fmt.Errorf("column reference span exceeds token range at offset %d", start)
	}
	return toks[target].End, nil
}

// trimTrailingComma removes a trailing `,` token, which separates
// projection-list entries rather than belonging to the expression.
func trimTrailingComma(p *ParsedSQL, toks Tokens) Tokens {
	if len(toks) == 0 {
		return toks
	}
	if p.isComma(toks[len(toks)-1]) {
		return toks[:len(toks)-1]
	}
	return toks
}

// trimTrailingAlias removes a trailing `AS <IDENT>` pair, which belongs to
// the field's alias rather than its expression. Quoted aliases and
// column-list-style aliases are not recognized (§9 open question).
func trimTrailingAlias(p *ParsedSQL, toks Tokens) Tokens {
	if len(toks) < 2 {
		return toks
	}
	asTok := toks[len(toks)-2]
	last := toks[len(toks)-1]
	if !p.isAs(asTok) {
		return toks
	}
	if p.isComma(last) || p.isLParen(last) || p.isRParen(last) || p.isAs(last) || p.isFrom(last) {
		return toks
	}
	return toks[:len(toks)-2]
}

// spliceTemplate builds a formula template by copying text[bounds[0]:bounds[1]]
// verbatim except for each span in spans (given in ascending, depends_on
// order), which is replaced by its positional placeholder {i}.
func spliceTemplate(text string, bounds [2]int, spans [][2]int) string {
	var b strings.Builder
	cursor := bounds[0]
	for i, span := range spans {
		if span[0] > cursor {
			b.WriteString(text[cursor:span[0]])
		}
		b.WriteByte('{')
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('}')
		cursor = span[1]
	}
	if cursor < bounds[1] {
		b.WriteString(text[cursor:bounds[1]])
	}
	return b.String()
}

// inlineFormula substitutes each recognized {i} placeholder in template
// with substitutions[i], walking the string once. A hand-rolled scanner is
// used rather than a native format verb because SQL text can itself
// contain literal brace runs (e.g. Postgres array literals like
// '{1,2,3}'), which a blind string-replace would also rewrite (§9).
func inlineFormula(template string, substitutions []string) string {
	var b strings.Builder
	n := len(template)
	for i := 0; i < n; {
		if template[i] == '{' {
			j := i + 1
			for j < n && template[j] >= '0' && template[j] <= '9' {
				j++
			}
			if j > i+1 && j < n && template[j] == '}' {
				if idx, err := strconv.Atoi(template[i+1 : j]); err == nil && idx >= 0 && idx < len(substitutions) {
					b.WriteString(substitutions[idx])
					i = j + 1
					continue
				}
			}
		}
		b.WriteByte(template[i])
		i++
	}
	return b.String()
}
