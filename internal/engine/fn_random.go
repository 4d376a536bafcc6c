package engine

import (
	"math"
	"strconv"
	"time"

	"github.com/DaanHessen/rollwright/internal/prob"
)

// Above this rate poisson switches to its normal approximation.
const poissonNormalLambda = 1e6

func init() {
	register(
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "ber",
				Title: "Bernoulli trial",
				Usage: "ber([p])",
				Doc:   "A possibly biased coin toss: 1 with probability p, otherwise 0. p defaults to 0.5.",
			},
			build: buildBernoulli,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "poisson",
				Title: "Poisson",
				Usage: "poisson(lambda)",
				Doc: "Number of events for an average rate lambda. lambda is a number or an " +
					"expression that is rolled first.",
			},
			build: buildPoisson,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "outcomes",
				Title: "Outcomes",
				Usage: "outcomes(v1, v2, ...)",
				Doc:   "Picks one of the listed whole numbers with equal odds. Repeats weigh heavier.",
			},
			build: buildOutcomes,
		},
	)
}

// table is a function whose distribution is known up front and rolled by sampling it.
type table struct {
	call
	dist prob.ProbDist
}

func (n table) Roll(env *Env) RollOut {
	v := n.RollQuiet(env)
	var out RollOut
	out.Value = v
	out.Trace.Append("[" + strconv.Itoa(v) + "]")
	return out
}

func (n table) RollQuiet(env *Env) int { return n.dist.Sample(env.Stream) }

func (n table) Dist(*Env) prob.ProbDist { return n.dist }

func (n table) Clone() Node { return n }

func buildBernoulli(a args) (Node, error) {
	if err := a.need(0, 1); err != nil {
		return nil, err
	}
	p := 0.5
	if a.has(0) {
		var err error
		if p, err = a.floatArg(0, "probability"); err != nil {
			return nil, err
		}
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, a.errorf("probability %v must be between 0 and 1", p)
		}
	}
	return table{call: a.toCall(), dist: prob.FromWeights(map[int]float64{0: 1 - p, 1: p})}, nil
}

func buildOutcomes(a args) (Node, error) {
	if err := a.need(1, -1); err != nil {
		return nil, err
	}
	samples := prob.NewSampleDist()
	for i := range a.list {
		v, err := a.intArg(i, "outcome")
		if err != nil {
			return nil, err
		}
		samples.Add(v)
	}
	return table{call: a.toCall(), dist: samples.ProbDist()}, nil
}

// PoissonDist returns the distribution of event counts for rate lambda. Counts whose
// mass is negligible are left out.
func PoissonDist(lambda float64, lim prob.Limits) prob.ProbDist {
	if lambda <= 0 || math.IsNaN(lambda) {
		return prob.Point(0)
	}
	sigma := math.Sqrt(lambda)
	lo := int(math.Max(0, math.Floor(lambda-10*sigma-10)))
	hi := poissonHigh(lambda)
	if lambda > poissonNormalLambda {
		return prob.Normal(lambda, lambda, lo, hi, lim.MaxNormalPoints)
	}
	w := make(map[int]float64, hi-lo+1)
	logLambda := math.Log(lambda)
	for k := lo; k <= hi; k++ {
		lg, _ := math.Lgamma(float64(k) + 1)
		if p := math.Exp(float64(k)*logLambda - lambda - lg); p > 0 {
			w[k] = p
		}
	}
	return prob.FromWeights(w)
}

type poisson struct {
	call
	fixed prob.ProbDist
	rate  Node // nil when lambda is constant
}

func buildPoisson(a args) (Node, error) {
	if err := a.need(1, 1); err != nil {
		return nil, err
	}
	n := poisson{call: a.toCall()}
	if v, err := strconv.ParseFloat(a.list[0], 64); err == nil {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, a.errorf("rate %v must be a finite number of at least 0", v)
		}
		n.fixed = PoissonDist(v, prob.DefaultLimits())
		return n, nil
	}
	rate, err := a.expr(0)
	if err != nil {
		return nil, err
	}
	n.rate = rate
	return n, nil
}

func (n poisson) Roll(env *Env) RollOut {
	var out RollOut
	d := n.fixed
	if n.rate != nil {
		r := n.rate.Roll(env)
		d = PoissonDist(float64(r.Value), env.Limits)
		out.Trace.Append("(")
		out.Trace.Extend(r.Trace)
		out.Trace.Append(")")
	}
	out.Value = d.Sample(env.Stream)
	out.Trace.Append("[" + strconv.Itoa(out.Value) + "]")
	return out
}

func (n poisson) RollQuiet(env *Env) int {
	if n.rate == nil {
		return n.fixed.Sample(env.Stream)
	}
	return PoissonDist(float64(n.rate.RollQuiet(env)), env.Limits).Sample(env.Stream)
}

func (n poisson) Dist(env *Env) prob.ProbDist {
	if n.rate == nil {
		return n.fixed
	}
	rates := n.rate.Dist(env)
	deadline := env.Limits.Deadline()
	mix := prob.NewMixer(0, poissonHigh(float64(rates.Max())))
	if rates.Approximate() {
		mix.MarkApproximate()
	}
	// Rates left when the budget runs out are folded into one normal
	// with mean E[rate] and variance E[rate] + Var(rate).
	var w, m1, m2 float64
	top := 0
	rates.Each(func(v int, p float64) bool {
		if v <= 0 || time.Now().Before(deadline) {
			mix.Add(p, PoissonDist(float64(v), env.Limits))
			return true
		}
		x := float64(v)
		w += p
		m1 += p * x
		m2 += p * x * x
		top = v
		return true
	})
	if w > 0 {
		mean := m1 / w
		variance := mean + m2/w - mean*mean
		mix.Add(w, prob.Normal(mean, variance, 0, poissonHigh(float64(top)), env.Limits.MaxNormalPoints))
	}
	return mix.Dist()
}

// poissonHigh is the largest count kept for rate lambda.
func poissonHigh(lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	return int(math.Ceil(lambda + 10*math.Sqrt(lambda) + 10))
}

func (n poisson) Clone() Node {
	c := n
	if n.rate != nil {
		c.rate = n.rate.Clone()
	}
	return c
}
