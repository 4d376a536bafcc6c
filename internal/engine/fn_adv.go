package engine

import (
	"strconv"

	"github.com/DaanHessen/rollwright/internal/prob"
)

func init() {
	register(
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "adv",
				Title: "Advantage",
				Usage: "adv(expr)",
				Doc:   "Rolls the expression twice and keeps the higher result.",
			},
			build: func(a args) (Node, error) { return buildAdvantage(a, true) },
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "dis",
				Title: "Disadvantage",
				Usage: "dis(expr)",
				Doc:   "Rolls the expression twice and keeps the lower result.",
			},
			build: func(a args) (Node, error) { return buildAdvantage(a, false) },
		},
	)
}

type advantage struct {
	call
	inner  Node
	higher bool
}

func buildAdvantage(a args, higher bool) (Node, error) {
	if err := a.need(1, 1); err != nil {
		return nil, err
	}
	inner, err := a.expr(0)
	if err != nil {
		return nil, err
	}
	return advantage{call: a.toCall(), inner: inner, higher: higher}, nil
}

func (n advantage) keepsFirst(x, y int) bool {
	if n.higher {
		return x >= y
	}
	return x <= y
}

func (n advantage) Roll(env *Env) RollOut {
	x, y := n.inner.RollQuiet(env), n.inner.RollQuiet(env)
	out := RollOut{Value: y}
	out.Trace.Append("[")
	if n.keepsFirst(x, y) {
		out.Value = x
		out.Trace.Append(strconv.Itoa(x) + " ")
		out.Trace.AppendStruck(strconv.Itoa(y))
	} else {
		out.Trace.AppendStruck(strconv.Itoa(x))
		out.Trace.Append(" " + strconv.Itoa(y))
	}
	out.Trace.Append("]")
	return out
}

func (n advantage) RollQuiet(env *Env) int {
	x, y := n.inner.RollQuiet(env), n.inner.RollQuiet(env)
	if n.keepsFirst(x, y) {
		return x
	}
	return y
}

func (n advantage) Dist(env *Env) prob.ProbDist {
	if n.higher {
		return n.inner.Dist(env).Advantage(1)
	}
	return n.inner.Dist(env).Advantage(-1)
}

func (n advantage) Clone() Node {
	return advantage{call: n.call, inner: n.inner.Clone(), higher: n.higher}
}
