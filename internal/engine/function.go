package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/DaanHessen/rollwright/internal/dice"
)

// FunctionDoc describes a built-in function.
type FunctionDoc struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Usage string `json:"usage"`
	Doc   string `json:"doc"`
}

type function struct {
	FunctionDoc
	build func(a args) (Node, error)
}

var (
	registry []*function
	byName   map[string]*function
)

func register(fns ...*function) {
	if byName == nil {
		byName = make(map[string]*function)
	}
	for _, f := range fns {
		registry = append(registry, f)
		byName[f.Name] = f
	}
}

// Functions lists the built-in functions in display order.
func Functions() []FunctionDoc {
	out := make([]FunctionDoc, len(registry))
	for i, f := range registry {
		out[i] = f.FunctionDoc
	}
	return out
}

// LookupFunction finds a built-in function by identifier.
func LookupFunction(name string) (FunctionDoc, bool) {
	f, ok := byName[name]
	if !ok {
		return FunctionDoc{}, false
	}
	return f.FunctionDoc, true
}

func parseCall(name, argSrc string) (Node, error) {
	f, ok := byName[name]
	if !ok {
		known := make([]string, 0, len(byName))
		for n := range byName {
			known = append(known, n)
		}
		sort.Strings(known)
		return nil, parseErrorf(name+"("+argSrc+")", "unknown function %q (known: %s)", name, strings.Join(known, ", "))
	}
	return f.build(args{fn: name, list: splitTopLevel(argSrc, ',')})
}

// call holds what every function node shares: its name and argument sources.
type call struct {
	name string
	args []string
}

func (c call) Kind() Kind { return KindCall }

func (c call) String() string { return c.name + "(" + strings.Join(c.args, ",") + ")" }

// args gives typed access to a function's comma separated arguments.
type args struct {
	fn   string
	list []string
}

func (a args) toCall() call { return call{name: a.fn, args: append([]string(nil), a.list...)} }

func (a args) src() string { return a.toCall().String() }

func (a args) errorf(format string, v ...any) error {
	return parseErrorf(a.src(), a.fn+": "+format, v...)
}

// need checks that between lo and hi arguments were given; hi < 0 means no upper bound.
func (a args) need(lo, hi int) error {
	n := len(a.list)
	switch {
	case lo == hi && n != lo:
		return a.errorf("expects %d argument%s, got %d", lo, plural(lo), n)
	case n < lo:
		return a.errorf("expects at least %d argument%s, got %d", lo, plural(lo), n)
	case hi >= 0 && n > hi:
		return a.errorf("expects at most %d argument%s, got %d", hi, plural(hi), n)
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// has reports whether argument i was given and is not blank.
func (a args) has(i int) bool { return i < len(a.list) && a.list[i] != "" }

func (a args) expr(i int) (Node, error) {
	if !a.has(i) {
		return nil, a.errorf("argument %d is empty", i+1)
	}
	return parseExpr(a.list[i])
}

func (a args) intArg(i int, what string) (int, error) {
	if !a.has(i) {
		return 0, a.errorf("missing %s", what)
	}
	v, err := strconv.Atoi(a.list[i])
	if err != nil {
		return 0, a.errorf("%s %q is not a whole number", what, a.list[i])
	}
	return v, nil
}

func (a args) floatArg(i int, what string) (float64, error) {
	v, err := strconv.ParseFloat(a.list[i], 64)
	if err != nil {
		return 0, a.errorf("%s %q is not a number", what, a.list[i])
	}
	return v, nil
}

func (a args) diceArg(i int) (dice.Dice, error) {
	if !a.has(i) {
		return dice.Dice{}, a.errorf("argument %d must be a dice roll like 2d6", i+1)
	}
	d, err := dice.Parse(a.list[i])
	if err != nil {
		return dice.Dice{}, err
	}
	return d, nil
}
