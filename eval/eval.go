// Package eval implements spec.md §4.9's boolean expression evaluator: a
// precedence-climbing parser over P<n> atom identifiers with `|`, `&`, `!`,
// and parentheses, and a bitwise AST evaluator that runs the matcher over
// supplied include/exclude corpora.
package eval

import (
	"fmt"
	"sort"

	"github.com/saxyguy81/patternforge/bitset"
	"github.com/saxyguy81/patternforge/matcher"
)

// ParseError reports a malformed expression: an unknown atom id, unbalanced
// parentheses, or unexpected trailing characters (spec.md §4.9/§7).
type ParseError struct {
	Expr string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("eval: parse error in %q: %s", e.Expr, e.Msg)
}

// Result is the metrics block evaluate_expr returns per spec.md §6 entry
// point 3.
type Result struct {
	Covered       int
	TotalPositive int
	FP            int
	FN            int
}

// node is the parsed AST: either an atom leaf or a binary/unary operator.
type node interface {
	eval(universe int, masks map[string]*bitset.Set) *bitset.Set
}

type atomNode struct{ id string }

func (n *atomNode) eval(universe int, masks map[string]*bitset.Set) *bitset.Set {
	if m, ok := masks[n.id]; ok {
		return m
	}
	return bitset.New()
}

type notNode struct{ operand node }

func (n *notNode) eval(universe int, masks map[string]*bitset.Set) *bitset.Set {
	return bitset.Not(n.operand.eval(universe, masks), universe)
}

type andNode struct{ left, right node }

func (n *andNode) eval(universe int, masks map[string]*bitset.Set) *bitset.Set {
	return bitset.And(n.left.eval(universe, masks), n.right.eval(universe, masks))
}

type orNode struct{ left, right node }

func (n *orNode) eval(universe int, masks map[string]*bitset.Set) *bitset.Set {
	return bitset.Or(n.left.eval(universe, masks), n.right.eval(universe, masks))
}

// tokenKind classifies one lexical token of the expression grammar.
type tokenKind int

const (
	tokAtom tokenKind = iota
	tokOr
	tokAnd
	tokNot
	tokLParen
	tokRParen
	tokEOF
)

type lexToken struct {
	kind tokenKind
	text string
}

func lex(expr string) ([]lexToken, error) {
	var toks []lexToken
	i := 0
	n := len(expr)
	for i < n {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '|':
			toks = append(toks, lexToken{tokOr, "|"})
			i++
		case c == '&':
			toks = append(toks, lexToken{tokAnd, "&"})
			i++
		case c == '!':
			toks = append(toks, lexToken{tokNot, "!"})
			i++
		case c == '(':
			toks = append(toks, lexToken{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, lexToken{tokRParen, ")"})
			i++
		case c == 'P' || c == 'p':
			j := i + 1
			for j < n && expr[j] >= '0' && expr[j] <= '9' {
				j++
			}
			if j == i+1 {
				return nil, &ParseError{Expr: expr, Msg: fmt.Sprintf("malformed atom identifier at position %d", i)}
			}
			toks = append(toks, lexToken{tokAtom, "P" + expr[i+1:j]})
			i = j
		default:
			return nil, &ParseError{Expr: expr, Msg: fmt.Sprintf("unexpected character %q at position %d", c, i)}
		}
	}
	toks = append(toks, lexToken{tokEOF, ""})
	return toks, nil
}

// parser implements the grammar from spec.md §4.9:
//
//	expr   := term ('|' term)*
//	term   := factor ('&' factor)*
//	factor := '!' factor | '(' expr ')' | atomId
type parser struct {
	expr string
	toks []lexToken
	pos  int
}

func (p *parser) peek() lexToken { return p.toks[p.pos] }

func (p *parser) advance() lexToken {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &orNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.advance()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &andNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (node, error) {
	tok := p.peek()
	switch tok.kind {
	case tokNot:
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &notNode{operand: operand}, nil
	case tokLParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, &ParseError{Expr: p.expr, Msg: "unbalanced parentheses"}
		}
		p.advance()
		return inner, nil
	case tokAtom:
		p.advance()
		return &atomNode{id: tok.text}, nil
	default:
		return nil, &ParseError{Expr: p.expr, Msg: "expected atom, '!', or '('"}
	}
}

// Parse compiles expr into an evaluable AST, per spec.md §4.9's grammar.
func Parse(expr string) (node, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{expr: expr, toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, &ParseError{Expr: expr, Msg: fmt.Sprintf("unexpected trailing input %q", p.peek().text)}
	}
	return n, nil
}

func computeMasks(atoms map[string]string, rows []string) map[string]*bitset.Set {
	masks := make(map[string]*bitset.Set, len(atoms))
	for id, pattern := range atoms {
		m := bitset.New()
		for i, row := range rows {
			if matcher.MatchPattern(row, pattern) {
				m.Set(i)
			}
		}
		masks[id] = m
	}
	return masks
}

// EvaluateExpr parses expr, evaluates it against atoms' patterns run over
// include/exclude, and returns {covered, total_positive, fp, fn} per
// spec.md §6 entry point 3.
func EvaluateExpr(expr string, atoms map[string]string, include, exclude []string) (Result, error) {
	ast, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}

	if err := validateAtoms(ast, atoms, expr); err != nil {
		return Result{}, err
	}

	includeMasks := computeMasks(atoms, include)
	excludeMasks := computeMasks(atoms, exclude)

	coveredSet := ast.eval(len(include), includeMasks)
	fpSet := ast.eval(len(exclude), excludeMasks)

	covered := coveredSet.Count()
	return Result{
		Covered:       covered,
		TotalPositive: len(include),
		FP:            fpSet.Count(),
		FN:            len(include) - covered,
	}, nil
}

// validateAtoms walks the AST collecting atom identifiers and reports a
// ParseError for any id absent from the atom→pattern map, per spec.md §4.9
// ("unknown atom id" is a parse-time class of error even though the id
// itself lexes fine).
func validateAtoms(n node, atoms map[string]string, expr string) error {
	ids := collectAtomIDs(n, nil)
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := atoms[id]; !ok {
			return &ParseError{Expr: expr, Msg: fmt.Sprintf("unknown atom id %q", id)}
		}
	}
	return nil
}

func collectAtomIDs(n node, out []string) []string {
	switch v := n.(type) {
	case *atomNode:
		return append(out, v.id)
	case *notNode:
		return collectAtomIDs(v.operand, out)
	case *andNode:
		out = collectAtomIDs(v.left, out)
		return collectAtomIDs(v.right, out)
	case *orNode:
		out = collectAtomIDs(v.left, out)
		return collectAtomIDs(v.right, out)
	default:
		return out
	}
}

// AtomsFromSolutionAtoms is a small adapter used by callers that already
// hold a solve.Atom slice: it builds the id→pattern map EvaluateExpr wants
// without this package importing solve (keeping eval's dependency surface
// limited to bitset/matcher, per spec.md §4.9's scope).
func AtomsFromSolutionAtoms(ids, patterns []string) map[string]string {
	out := make(map[string]string, len(ids))
	for i, id := range ids {
		if i < len(patterns) {
			out[id] = patterns[i]
		}
	}
	return out
}
