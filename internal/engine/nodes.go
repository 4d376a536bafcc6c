package engine

import (
	"strconv"
	"strings"

	"github.com/DaanHessen/rollwright/internal/dice"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/trace"
)

type empty struct{}

func (empty) Kind() Kind              { return KindEmpty }
func (empty) Roll(*Env) RollOut       { return RollOut{} }
func (empty) RollQuiet(*Env) int      { return 0 }
func (empty) Dist(*Env) prob.ProbDist { return prob.Point(0) }
func (empty) Clone() Node             { return empty{} }
func (empty) String() string          { return "" }

type literal struct{ value int }

func (l literal) Kind() Kind { return KindLiteral }

func (l literal) Roll(*Env) RollOut {
	return RollOut{Value: l.value, Trace: trace.Of(strconv.Itoa(l.value))}
}

func (l literal) RollQuiet(*Env) int      { return l.value }
func (l literal) Dist(*Env) prob.ProbDist { return prob.Point(l.value) }
func (l literal) Clone() Node             { return l }
func (l literal) String() string          { return strconv.Itoa(l.value) }

type diceNode struct{ d dice.Dice }

func (n diceNode) Kind() Kind { return KindDice }

func (n diceNode) Roll(env *Env) RollOut {
	v, t := n.d.Roll(env.Stream)
	return RollOut{Value: v, Trace: t}
}

func (n diceNode) RollQuiet(env *Env) int { return n.d.RollQuiet(env.Stream) }

func (n diceNode) Dist(env *Env) prob.ProbDist {
	if d, ok := n.d.Dist(env.Limits); ok {
		return d
	}
	return env.Bruteforce(n)
}

func (n diceNode) Clone() Node    { return n }
func (n diceNode) String() string { return n.d.String() }

type paren struct{ inner Node }

func (p paren) Kind() Kind { return KindParen }

func (p paren) Roll(env *Env) RollOut {
	out := p.inner.Roll(env)
	out.Trace.Prepend("(")
	out.Trace.Append(")")
	return out
}

func (p paren) RollQuiet(env *Env) int      { return p.inner.RollQuiet(env) }
func (p paren) Dist(env *Env) prob.ProbDist { return p.inner.Dist(env) }
func (p paren) Clone() Node                 { return paren{inner: p.inner.Clone()} }
func (p paren) String() string              { return "(" + p.inner.String() + ")" }

// factor is one operand of a term; op is '*' or '/' for every factor but the first.
type factor struct {
	op   byte
	neg  bool
	node Node
}

// term is a left-to-right chain of multiplications and floor divisions.
type term struct{ factors []factor }

func (t term) Kind() Kind { return KindTerm }

func combine(op byte, acc, v int) int {
	if op == '*' {
		return acc * v
	}
	if v == 0 {
		return 0
	}
	return prob.FloorDiv(acc, v)
}

func signed(neg bool, v int) int {
	if neg {
		return -v
	}
	return v
}

func (t term) Roll(env *Env) RollOut {
	var out RollOut
	for i, f := range t.factors {
		r := f.node.Roll(env)
		if i > 0 {
			out.Trace.Append(string(f.op))
		}
		if f.neg {
			out.Trace.Append("-")
		}
		out.Trace.Extend(r.Trace)
		v := signed(f.neg, r.Value)
		if i == 0 {
			out.Value = v
		} else {
			out.Value = combine(f.op, out.Value, v)
		}
	}
	return out
}

func (t term) RollQuiet(env *Env) int {
	acc := 0
	for i, f := range t.factors {
		v := signed(f.neg, f.node.RollQuiet(env))
		if i == 0 {
			acc = v
		} else {
			acc = combine(f.op, acc, v)
		}
	}
	return acc
}

func (t term) Dist(env *Env) prob.ProbDist {
	var acc prob.ProbDist
	for i, f := range t.factors {
		d := f.node.Dist(env)
		if f.neg {
			d = d.Neg()
		}
		switch {
		case i == 0:
			acc = d
		case f.op == '*':
			acc = acc.Mul(d, env.Limits)
		default:
			acc = acc.Div(d, env.Limits)
		}
	}
	return acc
}

func (t term) Clone() Node {
	fs := make([]factor, len(t.factors))
	for i, f := range t.factors {
		fs[i] = factor{op: f.op, neg: f.neg, node: f.node.Clone()}
	}
	return term{factors: fs}
}

func (t term) String() string {
	var b strings.Builder
	for i, f := range t.factors {
		if i > 0 {
			b.WriteByte(f.op)
		}
		if f.neg {
			b.WriteByte('-')
		}
		b.WriteString(f.node.String())
	}
	return b.String()
}

// signedTerm is one addend of a linear combination.
type signedTerm struct {
	neg  bool
	node Node
}

type linComb struct{ terms []signedTerm }

func (l linComb) Kind() Kind { return KindLinComb }

func (l linComb) Roll(env *Env) RollOut {
	var out RollOut
	for _, st := range l.terms {
		r := st.node.Roll(env)
		if st.neg {
			out.Trace.Append(" - ")
			out.Value -= r.Value
		} else {
			out.Trace.Append(" + ")
			out.Value += r.Value
		}
		out.Trace.Extend(r.Trace)
	}
	// the leading sign token only reads well as a bare minus
	if len(out.Trace) > 0 {
		if out.Trace[0].Text == " - " {
			out.Trace[0].Text = "-"
		} else {
			out.Trace = out.Trace[1:]
		}
	}
	return out
}

func (l linComb) RollQuiet(env *Env) int {
	total := 0
	for _, st := range l.terms {
		total += signed(st.neg, st.node.RollQuiet(env))
	}
	return total
}

func (l linComb) Dist(env *Env) prob.ProbDist {
	var acc prob.ProbDist
	for i, st := range l.terms {
		d := st.node.Dist(env)
		switch {
		case i == 0 && st.neg:
			acc = d.Neg()
		case i == 0:
			acc = d
		case st.neg:
			acc = acc.Sub(d, env.Limits)
		default:
			acc = acc.Add(d, env.Limits)
		}
	}
	return acc
}

func (l linComb) Clone() Node {
	ts := make([]signedTerm, len(l.terms))
	for i, st := range l.terms {
		ts[i] = signedTerm{neg: st.neg, node: st.node.Clone()}
	}
	return linComb{terms: ts}
}

func (l linComb) String() string {
	var b strings.Builder
	for i, st := range l.terms {
		switch {
		case st.neg:
			b.WriteByte('-')
		case i > 0:
			b.WriteByte('+')
		}
		b.WriteString(st.node.String())
	}
	return b.String()
}
