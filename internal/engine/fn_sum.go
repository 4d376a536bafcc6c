package engine

import (
	"strconv"

	"github.com/DaanHessen/rollwright/internal/dice"
	"github.com/DaanHessen/rollwright/internal/prob"
)

// MaxSumCount caps how many times sum may repeat its expression.
const MaxSumCount = 1_000_000

func init() {
	register(
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "sum",
				Title: "Repeated sum",
				Usage: "sum(expr, n)",
				Doc: "Rolls the expression n times and adds the results. n is a whole number " +
					"or an expression rolled first; negative counts sum nothing.",
			},
			build: buildSum,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "mirror",
				Title: "Mirror",
				Usage: "mirror(expr)",
				Doc:   "Flips the sign of the expression with even odds.",
			},
			build: buildMirror,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "addnz",
				Title: "Add to non-zero",
				Usage: "addnz(base, added)",
				Doc:   "Adds the second expression to every non-zero result of the first.",
			},
			build: buildAddNonZero,
		},
	)
}

type sum struct {
	call
	inner Node
	n     int
	count Node // nil when n is fixed
}

func buildSum(a args) (Node, error) {
	if err := a.need(2, 2); err != nil {
		return nil, err
	}
	inner, err := a.expr(0)
	if err != nil {
		return nil, err
	}
	n := sum{call: a.toCall(), inner: inner}
	if fixed, err := strconv.Atoi(a.list[1]); err == nil {
		if fixed < 0 || fixed > MaxSumCount {
			return nil, a.errorf("count %d must be between 0 and %d", fixed, MaxSumCount)
		}
		n.n = fixed
		return n, nil
	}
	if n.count, err = a.expr(1); err != nil {
		return nil, err
	}
	return n, nil
}

func clampCount(k int) int {
	if k < 0 {
		return 0
	}
	if k > MaxSumCount {
		return MaxSumCount
	}
	return k
}

func (n sum) times(env *Env) int {
	if n.count == nil {
		return n.n
	}
	return clampCount(n.count.RollQuiet(env))
}

func (n sum) Roll(env *Env) RollOut {
	var out RollOut
	k := n.n
	if n.count != nil {
		c := n.count.Roll(env)
		k = clampCount(c.Value)
		out.Trace.Extend(c.Trace)
		out.Trace.Append("x")
	}
	out.Trace.Append("[")
	for i := 0; i < k; i++ {
		if i >= dice.MaxTraceDice {
			out.Value += n.inner.RollQuiet(env)
			continue
		}
		r := n.inner.Roll(env)
		out.Value += r.Value
		if i > 0 {
			out.Trace.Append(" ")
		}
		out.Trace.Extend(r.Trace)
	}
	if k > dice.MaxTraceDice {
		out.Trace.Append(" ...")
	}
	out.Trace.Append("]")
	return out
}

func (n sum) RollQuiet(env *Env) int {
	total := 0
	for i, k := 0, n.times(env); i < k; i++ {
		total += n.inner.RollQuiet(env)
	}
	return total
}

func (n sum) Dist(env *Env) prob.ProbDist {
	inner := n.inner.Dist(env)
	if n.count == nil {
		return inner.Times(n.n, env.Limits)
	}
	return inner.Compound(n.count.Dist(env).Map(clampCount), env.Limits)
}

func (n sum) Clone() Node {
	c := sum{call: n.call, inner: n.inner.Clone(), n: n.n}
	if n.count != nil {
		c.count = n.count.Clone()
	}
	return c
}

type mirror struct {
	call
	inner Node
}

var coin = prob.FromWeights(map[int]float64{-1: 1, 1: 1})

func buildMirror(a args) (Node, error) {
	if err := a.need(1, 1); err != nil {
		return nil, err
	}
	inner, err := a.expr(0)
	if err != nil {
		return nil, err
	}
	return mirror{call: a.toCall(), inner: inner}, nil
}

func (n mirror) Roll(env *Env) RollOut {
	out := n.inner.Roll(env)
	sign := 2*env.Stream.IntRange(1, 2) - 3
	out.Value *= sign
	out.Trace.Prepend("((")
	out.Trace.Append(")*[" + strconv.Itoa(sign) + "])")
	return out
}

func (n mirror) RollQuiet(env *Env) int {
	return n.inner.RollQuiet(env) * (2*env.Stream.IntRange(1, 2) - 3)
}

func (n mirror) Dist(env *Env) prob.ProbDist { return n.inner.Dist(env).Mul(coin, env.Limits) }

func (n mirror) Clone() Node { return mirror{call: n.call, inner: n.inner.Clone()} }

type addNonZero struct {
	call
	base  Node
	added Node
}

func buildAddNonZero(a args) (Node, error) {
	if err := a.need(2, 2); err != nil {
		return nil, err
	}
	base, err := a.expr(0)
	if err != nil {
		return nil, err
	}
	added, err := a.expr(1)
	if err != nil {
		return nil, err
	}
	return addNonZero{call: a.toCall(), base: base, added: added}, nil
}

func (n addNonZero) Roll(env *Env) RollOut {
	out := n.base.Roll(env)
	out.Trace.Prepend("[")
	if out.Value != 0 {
		r := n.added.Roll(env)
		out.Value += r.Value
		out.Trace.Append(" + ")
		out.Trace.Extend(r.Trace)
	}
	out.Trace.Append("]")
	return out
}

func (n addNonZero) RollQuiet(env *Env) int {
	v := n.base.RollQuiet(env)
	if v != 0 {
		v += n.added.RollQuiet(env)
	}
	return v
}

func (n addNonZero) Dist(env *Env) prob.ProbDist {
	base := n.base.Dist(env)
	hit, pHit := base.Restrict(func(v int) bool { return v != 0 })
	return prob.Mix(
		prob.Weighted{P: 1 - pHit, Dist: prob.Point(0)},
		prob.Weighted{P: pHit, Dist: hit.Add(n.added.Dist(env), env.Limits)},
	)
}

func (n addNonZero) Clone() Node {
	return addNonZero{call: n.call, base: n.base.Clone(), added: n.added.Clone()}
}
