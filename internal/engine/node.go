// Package engine parses dice expressions such as "2d6+4" or "crit(1d10)+6" into a tree
// that can be rolled with a trace or turned into its probability distribution.
package engine

import (
	"github.com/DaanHessen/rollwright/internal/bruteforce"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
	"github.com/DaanHessen/rollwright/internal/trace"
)

// Kind identifies the shape of a node.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindLiteral
	KindDice
	KindLinComb
	KindTerm
	KindParen
	KindCall
)

var kindNames = [...]string{"empty", "literal", "dice", "lincomb", "term", "paren", "call"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// RollOut is one sampled value and the trace that produced it.
type RollOut struct {
	Value int         `json:"value"`
	Trace trace.Trace `json:"trace"`
}

// Node is an immutable expression tree node. Nodes may be shared between goroutines;
// all randomness comes from the Env passed in.
type Node interface {
	Kind() Kind
	Roll(env *Env) RollOut
	RollQuiet(env *Env) int
	Dist(env *Env) prob.ProbDist
	Clone() Node
	String() string
}

// Env carries the random stream and the work limits of one evaluation.
type Env struct {
	Stream   *rng.Stream
	Limits   prob.Limits
	Sampling bruteforce.Options
}

// NewEnv returns an Env with default limits drawing from s.
func NewEnv(s *rng.Stream) *Env {
	return &Env{Stream: s, Limits: prob.DefaultLimits(), Sampling: bruteforce.DefaultOptions()}
}

func (e *Env) with(s *rng.Stream) *Env {
	c := *e
	c.Stream = s
	return &c
}

// Bruteforce estimates n's distribution by sampling RollQuiet in parallel.
func (e *Env) Bruteforce(n Node) prob.ProbDist {
	return bruteforce.Estimate(func(s *rng.Stream) int {
		return n.RollQuiet(e.with(s))
	}, e.Stream, e.Sampling)
}

func cloneAll(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
