package engine

import (
	"errors"
	"strconv"
	"strings"

	"github.com/DaanHessen/rollwright/internal/dice"
	"github.com/DaanHessen/rollwright/internal/prob"
)

// MaxSourceLength bounds the accepted input.
const MaxSourceLength = 4096

// ParseError describes malformed input in words meant for the user.
type ParseError = dice.ParseError

func parseErrorf(input, format string, args ...any) error {
	return dice.Errorf(input, format, args...)
}

// Expression is a parsed dice expression.
type Expression struct {
	source string
	root   Node
}

// Parse turns src into an Expression. Whitespace is ignored and an empty
// source parses to an expression that always yields 0.
func Parse(src string) (*Expression, error) {
	clean := stripSpace(src)
	if len(clean) > MaxSourceLength {
		return nil, parseErrorf("", "expression is longer than %d characters", MaxSourceLength)
	}
	if err := checkParens(clean); err != nil {
		return nil, err
	}
	root, err := parseExpr(clean)
	if err != nil {
		return nil, err
	}
	return &Expression{source: src, root: root}, nil
}

func (e *Expression) Root() Node     { return e.root }
func (e *Expression) Source() string { return e.source }

// String is the canonical, whitespace-free form of the expression.
func (e *Expression) String() string { return e.root.String() }

func (e *Expression) Roll(env *Env) RollOut  { return e.root.Roll(env) }
func (e *Expression) RollQuiet(env *Env) int { return e.root.RollQuiet(env) }

// Dist returns the distribution with zero masses removed.
func (e *Expression) Dist(env *Env) prob.ProbDist {
	d := e.root.Dist(env)
	d.RemoveNull()
	return d
}

func (e *Expression) Clone() *Expression {
	return &Expression{source: e.source, root: e.root.Clone()}
}

// Plus returns a new expression that adds k to e.
func (e *Expression) Plus(k int) *Expression {
	add := signedTerm{neg: k < 0, node: literal{value: abs(k)}}
	var terms []signedTerm
	if e.root.Kind() == KindEmpty {
		root := Node(literal{value: k})
		return &Expression{source: root.String(), root: root}
	}
	if lc, ok := e.root.(linComb); ok {
		terms = append(terms, lc.Clone().(linComb).terms...)
	} else {
		terms = []signedTerm{{node: e.root.Clone()}}
	}
	root := linComb{terms: append(terms, add)}
	return &Expression{source: root.String(), root: root}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func parseExpr(src string) (Node, error) {
	if src == "" {
		return empty{}, nil
	}
	parts := splitTerms(src)
	terms := make([]signedTerm, 0, len(parts))
	for _, p := range parts {
		if p.src == "" {
			return nil, parseErrorf(src, "missing term around '+' or '-'")
		}
		n, err := parseTerm(p.src)
		if err != nil {
			return nil, err
		}
		terms = append(terms, signedTerm{neg: p.neg, node: n})
	}
	if len(terms) == 1 && !terms[0].neg {
		return terms[0].node, nil
	}
	return linComb{terms: terms}, nil
}

func parseTerm(src string) (Node, error) {
	var factors []factor
	op := byte(0)
	rest := src
	for {
		i := findTopLevelAny(rest, "*/")
		piece := rest
		if i >= 0 {
			piece = rest[:i]
		}
		f, err := parseFactor(src, piece)
		if err != nil {
			return nil, err
		}
		f.op = op
		factors = append(factors, f)
		if i < 0 {
			break
		}
		op = rest[i]
		rest = rest[i+1:]
	}
	if len(factors) == 1 && !factors[0].neg {
		return factors[0].node, nil
	}
	return term{factors: factors}, nil
}

func findTopLevelAny(src, seps string) int {
	best := -1
	for i := 0; i < len(seps); i++ {
		if j := findTopLevel(src, seps[i]); j >= 0 && (best < 0 || j < best) {
			best = j
		}
	}
	return best
}

func parseFactor(whole, src string) (factor, error) {
	neg := false
	for src != "" && (src[0] == '-' || src[0] == '+') {
		if src[0] == '-' {
			neg = !neg
		}
		src = src[1:]
	}
	if src == "" {
		return factor{}, parseErrorf(whole, "missing operand around '*' or '/'")
	}
	n, err := parsePrimary(src)
	if err != nil {
		return factor{}, err
	}
	return factor{neg: neg, node: n}, nil
}

func parsePrimary(src string) (Node, error) {
	if src[0] == '(' {
		end := matchParen(src, 0)
		if end != len(src)-1 {
			return nil, parseErrorf(src, "unexpected text after ')'")
		}
		if end == 1 {
			return nil, parseErrorf(src, "empty parentheses")
		}
		inner, err := parseExpr(src[1:end])
		if err != nil {
			return nil, err
		}
		return paren{inner: inner}, nil
	}
	if open := strings.IndexByte(src, '('); open > 0 {
		name := src[:open]
		if !isIdent(name) {
			return nil, parseErrorf(src, "%q is not a function name", name)
		}
		end := matchParen(src, open)
		if end != len(src)-1 {
			return nil, parseErrorf(src, "unexpected text after ')'")
		}
		return parseCall(name, src[open+1:end])
	}
	if strings.ContainsAny(src, "dD") && !hasHexPrefix(src) {
		d, err := dice.Parse(src)
		if err != nil {
			return nil, err
		}
		return diceNode{d: d}, nil
	}
	v, err := parseLiteral(src)
	if err != nil {
		return nil, err
	}
	return literal{value: v}, nil
}

func hasHexPrefix(s string) bool {
	return len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

func parseLiteral(src string) (int, error) {
	var (
		v   int64
		err error
	)
	if hasHexPrefix(src) {
		v, err = strconv.ParseInt(src[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(src, 10, 64)
	}
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, parseErrorf(src, "number is too large")
		}
		return 0, parseErrorf(src, "%q is not a number or dice roll", src)
	}
	return int(v), nil
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
