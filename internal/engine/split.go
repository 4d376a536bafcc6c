package engine

import "strings"

// findTopLevel returns the index of the first sep outside parentheses, or -1.
func findTopLevel(src string, sep byte) int {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch c := src[i]; {
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == sep && depth == 0:
			return i
		}
	}
	return -1
}

// splitTopLevel splits src on every sep outside parentheses.
// An empty src gives no parts.
func splitTopLevel(src string, sep byte) []string {
	if src == "" {
		return nil
	}
	var parts []string
	for {
		i := findTopLevel(src, sep)
		if i < 0 {
			return append(parts, src)
		}
		parts = append(parts, src[:i])
		src = src[i+1:]
	}
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func checkParens(src string) error {
	depth := 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return parseErrorf(src, "')' without a matching '('")
			}
		}
	}
	if depth > 0 {
		return parseErrorf(src, "'(' is never closed")
	}
	return nil
}

func stripSpace(src string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			return -1
		}
		return r
	}, src)
}

func isOperator(c byte) bool {
	return c == '+' || c == '-' || c == '*' || c == '/'
}

// splitTerms cuts src at the '+' and '-' that separate addends. A sign directly
// after another operator belongs to the following operand.
func splitTerms(src string) []signedSource {
	var out []signedSource
	depth := 0
	start := 0
	neg := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && (c == '+' || c == '-'):
			if i == 0 {
				neg = c == '-'
				start = 1
				continue
			}
			if isOperator(src[i-1]) {
				continue
			}
			out = append(out, signedSource{neg: neg, src: src[start:i]})
			neg = c == '-'
			start = i + 1
		}
	}
	return append(out, signedSource{neg: neg, src: src[start:]})
}

type signedSource struct {
	neg bool
	src string
}
