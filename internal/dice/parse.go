package dice

import (
	"strconv"
	"strings"
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func digits(s string) int {
	n := 0
	for n < len(s) && isDigit(s[n]) {
		n++
	}
	return n
}

// Parse reads a token of the form [count]d[&|...][size][modifier], for example
// "3d6", "d", "d|20", "4d6kh3" or "2d8r1".
func Parse(token string) (Dice, error) {
	src := strings.TrimSpace(token)
	n := digits(src)
	count := 1
	if n > 0 {
		c, err := strconv.Atoi(src[:n])
		if err != nil || c > MaxDiceCount {
			return Dice{}, Errorf(token, "too many dice (at most %d)", MaxDiceCount)
		}
		count = c
	}
	rest := src[n:]
	if rest == "" || (rest[0] != 'd' && rest[0] != 'D') {
		return Dice{}, Errorf(token, "not a dice roll, expected 'd'")
	}
	rest = rest[1:]

	adv := 0
	for rest != "" && (rest[0] == '|' || rest[0] == '&') {
		if rest[0] == '|' {
			adv++
		} else {
			adv--
		}
		rest = rest[1:]
	}

	size := DefaultDieSize
	if n = digits(rest); n > 0 {
		sz, err := strconv.Atoi(rest[:n])
		if err != nil || sz > MaxDieSize {
			return Dice{}, Errorf(token, "die size too large (at most %d)", MaxDieSize)
		}
		if sz == 0 {
			return Dice{}, Errorf(token, "0-sided dice are not supported")
		}
		size = sz
		rest = rest[n:]
	}

	d := Dice{Count: count, Size: size, Advantage: adv}
	if rest == "" {
		return d, nil
	}
	a, err := parseAdapter(token, strings.ToLower(rest))
	if err != nil {
		return Dice{}, err
	}
	d.Adapter = a
	return d, nil
}
