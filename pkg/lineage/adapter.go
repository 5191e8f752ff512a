package lineage

import (
	pg_query "github.com/pganalyze/pg_query_go/v5"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Token is one lexical token with byte offsets into the comment-stripped
// SQL text. Classification (identifier, keyword, punctuation) is derived
// on demand from the text it spans rather than stored, since the upstream
// scanner's token-kind enum is not part of the contract this package
// depends on (§6).
type Token struct {
	Start int
	End   int
}

// Tokens is an ordered token stream.
type Tokens []Token

// RealSlice returns the contiguous tokens whose span [Start,End) is a
// subset of [start,end) — half-open on the end, per §4.B. A token whose End
// lands exactly on the boundary still lies entirely inside the region (its
// last byte is end-1), so the bound check is <=, not <; using a strict <
// here drops the last token in a region whenever the cut point coincides
// with that token's own end (e.g. a field's alias immediately before FROM).
func (t Tokens) RealSlice(start, end int) Tokens {
	var out Tokens
	for _, tok := range t {
		if tok.Start >= start && tok.End <= end {
			out = append(out, tok)
		}
	}
	return out
}

// ParsedSQL bundles the comment-stripped SQL text, its parsed AST, and its
// token stream — the output of the parse-tree adapter.
type ParsedSQL struct {
	Text   string
	Tree   *pg_query.ParseResult
	Tokens Tokens
}

// parseSQL strips comments, then parses and tokenizes the result, keeping
// both views over the same byte offsets.
func parseSQL(sql string) (*ParsedSQL, error) {
	stripped := stripComments(sql)

	tree, err := pg_query.Parse(stripped)
	if err != nil {
		return nil, err
	}
	scan, err := pg_query.Scan(stripped)
	if err != nil {
		return nil, err
	}

	toks := make(Tokens, 0, len(scan.GetTokens()))
	for _, t := range scan.GetTokens() {
		toks = append(toks, Token{Start: int(t.GetStart()), End: int(t.GetEnd())})
	}
	return &ParsedSQL{Text: stripped, Tree: tree, Tokens: toks}, nil
}

func (p *ParsedSQL) tokenText(t Token) string {
	if t.Start < 0 || t.End > len(p.Text) || t.Start > t.End {
		return ""
	}
	return p.Text[t.Start:t.End]
}

func (p *ParsedSQL) isComma(t Token) bool  { return p.tokenText(t) == "," }
func (p *ParsedSQL) isLParen(t Token) bool { return p.tokenText(t) == "(" }
func (p *ParsedSQL) isRParen(t Token) bool { return p.tokenText(t) == ")" }
func (p *ParsedSQL) isAs(t Token) bool     { return trimSpaceLower(p.tokenText(t)) == "as" }
func (p *ParsedSQL) isFrom(t Token) bool   { return trimSpaceLower(p.tokenText(t)) == "from" }

// stripComments replaces `--` line comments and `/* ... */` block comments
// with spaces of equal byte length, leaving string and quoted-identifier
// bodies untouched, so that byte offsets the parser reports against the
// stripped text remain valid substring bounds into it. Dollar-quoted
// bodies are not recognized and are scanned as ordinary text — a known
// limitation of the offset-splicing approach (§9).
func stripComments(sql string) string {
	out := []byte(sql)
	n := len(out)
	for i := 0; i < n; {
		switch {
		case out[i] == '\'' || out[i] == '"':
			quote := out[i]
			i++
			for i < n {
				if out[i] == quote {
					if i+1 < n && out[i+1] == quote {
						i += 2
						continue
					}
					i++
					break
				}
				i++
			}
		case i+1 < n && out[i] == '-' && out[i+1] == '-':
			for i < n && out[i] != '\n' {
				out[i] = ' '
				i++
			}
		case i+1 < n && out[i] == '/' && out[i+1] == '*':
			out[i] = ' '
			out[i+1] = ' '
			i += 2
			for i < n && !(i+1 < n && out[i] == '*' && out[i+1] == '/') {
				if out[i] != '\n' {
					out[i] = ' '
				}
				i++
			}
			if i+1 < n {
				out[i] = ' '
				out[i+1] = ' '
				i += 2
			}
		default:
			i++
		}
	}
	return string(out)
}

// walkNode performs a depth-first traversal of the protobuf AST rooted at
// n. fn is invoked for every *pg_query.Node encountered; returning false
// stops the traversal from descending into that node's children (used by
// the typed collectors' flat mode) without stopping traversal of its
// siblings.
func walkNode(n *pg_query.Node, fn func(*pg_query.Node) bool) {
	if n == nil {
		return
	}
	if fn(n) {
		walkChildren(n.ProtoReflect(), fn)
	}
}

// walkChildren descends into every message-valued field of refl, whether
// that field is a *pg_query.Node (handled via walkNode, which applies fn)
// or a plain submessage such as Alias or WithClause (descended into
// directly, with no fn call of its own).
func walkChildren(refl protoreflect.Message, fn func(*pg_query.Node) bool) {
	refl.Range(func(fd protoreflect.FieldDescriptor, v protoreflect.Value) bool {
		if fd.Kind() != protoreflect.MessageKind {
			return true
		}
		if fd.IsList() {
			list := v.List()
			for i := 0; i < list.Len(); i++ {
				descendValue(list.Get(i).Message(), fn)
			}
			return true
		}
		descendValue(v.Message(), fn)
		return true
	})
}

func descendValue(m protoreflect.Message, fn func(*pg_query.Node) bool) {
	if !m.IsValid() {
		return
	}
	if node, ok := m.Interface().(*pg_query.Node); ok {
		walkNode(node, fn)
		return
	}
	walkChildren(m, fn)
}

// collectColumnRefs returns every ColumnRef under root, in source order.
func collectColumnRefs(root *pg_query.Node, flat bool) []*pg_query.ColumnRef {
	var out []*pg_query.ColumnRef
	walkNode(root, func(n *pg_query.Node) bool {
		if cr := n.GetColumnRef(); cr != nil {
			out = append(out, cr)
			return !flat
		}
		return true
	})
	return out
}

// collectResTargets returns every ResTarget under root, in source order.
func collectResTargets(root *pg_query.Node, flat bool) []*pg_query.ResTarget {
	var out []*pg_query.ResTarget
	walkNode(root, func(n *pg_query.Node) bool {
		if rt := n.GetResTarget(); rt != nil {
			out = append(out, rt)
			return !flat
		}
		return true
	})
	return out
}

// collectRangeVars returns every RangeVar under root, in source order.
func collectRangeVars(root *pg_query.Node, flat bool) []*pg_query.RangeVar {
	var out []*pg_query.RangeVar
	walkNode(root, func(n *pg_query.Node) bool {
		if rv := n.GetRangeVar(); rv != nil {
			out = append(out, rv)
			return !flat
		}
		return true
	})
	return out
}

// collectSelectStmts returns every SelectStmt under root, in source order.
func collectSelectStmts(root *pg_query.Node, flat bool) []*pg_query.SelectStmt {
	var out []*pg_query.SelectStmt
	walkNode(root, func(n *pg_query.Node) bool {
		if s := n.GetSelectStmt(); s != nil {
			out = append(out, s)
			return !flat
		}
		return true
	})
	return out
}

// collectCommonTableExprs returns every CommonTableExpr under root, in
// source order.
func collectCommonTableExprs(root *pg_query.Node, flat bool) []*pg_query.CommonTableExpr {
	var out []*pg_query.CommonTableExpr
	walkNode(root, func(n *pg_query.Node) bool {
		if c := n.GetCommonTableExpr(); c != nil {
			out = append(out, c)
			return !flat
		}
		return true
	})
	return out
}

// fieldRefPathAndName splits a ColumnRef's dotted Fields list into a Path
// qualifier (up to three components) and a final name — which may be the
// `*` sentinel. More than four total components (three qualifiers plus the
// name) is too-many-path-components.
func fieldRefPathAndName(fields []*pg_query.Node) (Path, string, error) {
	parts := make([]string, 0, len(fields))
	star := false
	for _, f := range fields {
		if f.GetAStar() != nil {
			star = true
			parts = append(parts, "*")
			continue
		}
		if s := f.GetString_(); s != nil {
			parts = append(parts, s.GetSval())
		}
	}
	if len(parts) == 0 {
		return Path{}, "", &TooManyPathComponentsError{Parts: parts}
	}
	name := parts[len(parts)-1]
	qualifier := parts[:len(parts)-1]
	if len(qualifier) > 3 {
		return Path{}, "", &TooManyPathComponentsError{Parts: parts}
	}
	path, err := NewPath(qualifier...)
	if err != nil {
		return Path{}, "", err
	}
	if star {
		name = "*"
	}
	return path, name, nil
}
