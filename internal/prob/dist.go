// Package prob implements discrete probability distributions over integer outcomes
// and the algebra dice expressions need: convolution, products, floor division,
// negation, advantage and repeated sums with a normal approximation.
package prob

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Mass is the probability of a single outcome.
type Mass struct {
	Outcome int     `json:"outcome"`
	P       float64 `json:"p"`
}

// ProbDist is an immutable distribution with masses kept in ascending outcome order.
// The zero value is the point mass at 0.
type ProbDist struct {
	masses []Mass
	approx bool
}

var identity = []Mass{{Outcome: 0, P: 1}}

// Float64Source is anything that yields uniform floats in [0,1).
type Float64Source interface {
	Float64() float64
}

// Point returns the distribution that is always v.
func Point(v int) ProbDist { return ProbDist{masses: []Mass{{Outcome: v, P: 1}}} }

// Uniform returns equal masses on every integer in [lo, hi].
func Uniform(lo, hi int) ProbDist {
	if hi < lo {
		lo, hi = hi, lo
	}
	n := hi - lo + 1
	p := 1 / float64(n)
	ms := make([]Mass, n)
	for i := range ms {
		ms[i] = Mass{Outcome: lo + i, P: p}
	}
	return ProbDist{masses: ms}
}

// New validates raw masses and builds a distribution from them.
func New(m map[int]float64) (ProbDist, error) {
	total := 0.0
	for _, p := range m {
		if p < 0 || math.IsNaN(p) {
			return ProbDist{}, ErrNegativeMass
		}
		total += p
	}
	if math.Abs(total-1) > Tolerance {
		return ProbDist{}, fmt.Errorf("%w: total %.4f", ErrNotNormalized, total)
	}
	return ProbDist{masses: sortedMasses(m)}, nil
}

// FromWeights normalizes non-negative weights into a distribution.
// With no positive weight it returns the point mass at 0.
func FromWeights(w map[int]float64) ProbDist {
	total := 0.0
	for _, p := range w {
		if p > 0 {
			total += p
		}
	}
	if total <= 0 {
		return ProbDist{}
	}
	m := make(map[int]float64, len(w))
	for v, p := range w {
		if p > 0 {
			m[v] = p / total
		}
	}
	return ProbDist{masses: sortedMasses(m)}
}

func sortedMasses(m map[int]float64) []Mass {
	ms := make([]Mass, 0, len(m))
	for v, p := range m {
		if p == 0 {
			continue
		}
		ms = append(ms, Mass{Outcome: v, P: p})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Outcome < ms[j].Outcome })
	return ms
}

func (d ProbDist) view() []Mass {
	if len(d.masses) == 0 {
		return identity
	}
	return d.masses
}

// Approximate reports whether an approximation (timeout, normal, sampling) produced d.
func (d ProbDist) Approximate() bool { return d.approx }

// AsApproximate returns d flagged as approximate.
func (d ProbDist) AsApproximate() ProbDist {
	d.approx = true
	return d
}

func (d ProbDist) Len() int { return len(d.view()) }

// Masses returns a copy of the masses in ascending outcome order.
func (d ProbDist) Masses() []Mass {
	v := d.view()
	out := make([]Mass, len(v))
	copy(out, v)
	return out
}

// Each calls fn for every mass in ascending order until fn returns false.
func (d ProbDist) Each(fn func(outcome int, p float64) bool) {
	for _, m := range d.view() {
		if !fn(m.Outcome, m.P) {
			return
		}
	}
}

// P returns the mass of v.
func (d ProbDist) P(v int) float64 {
	ms := d.view()
	i := sort.Search(len(ms), func(i int) bool { return ms[i].Outcome >= v })
	if i < len(ms) && ms[i].Outcome == v {
		return ms[i].P
	}
	return 0
}

func (d ProbDist) Min() int { return d.view()[0].Outcome }

func (d ProbDist) Max() int {
	v := d.view()
	return v[len(v)-1].Outcome
}

func (d ProbDist) Total() float64 {
	t := 0.0
	for _, m := range d.view() {
		t += m.P
	}
	return t
}

// Moment returns the n-th raw moment.
func (d ProbDist) Moment(n int) float64 {
	s := 0.0
	for _, m := range d.view() {
		s += math.Pow(float64(m.Outcome), float64(n)) * m.P
	}
	return s
}

func (d ProbDist) Expectation() float64 {
	s := 0.0
	for _, m := range d.view() {
		s += float64(m.Outcome) * m.P
	}
	return s
}

// Variance is the second central moment.
func (d ProbDist) Variance() float64 {
	mu := d.Expectation()
	s := 0.0
	for _, m := range d.view() {
		dx := float64(m.Outcome) - mu
		s += dx * dx * m.P
	}
	return s
}

func (d ProbDist) Sigma() float64 { return math.Sqrt(d.Variance()) }

// Peak returns the most likely outcome and its mass. Ties go to the lowest outcome.
func (d ProbDist) Peak() Mass {
	best := Mass{P: -1}
	for _, m := range d.view() {
		if m.P > best.P {
			best = m
		}
	}
	return best
}

// Cumulative returns P(X <= x) for every outcome x.
func (d ProbDist) Cumulative() []Mass {
	v := d.view()
	out := make([]Mass, len(v))
	acc := 0.0
	for i, m := range v {
		acc += m.P
		out[i] = Mass{Outcome: m.Outcome, P: acc}
	}
	return out
}

// ReverseCumulative returns P(X >= x) for every outcome x.
func (d ProbDist) ReverseCumulative() []Mass {
	v := d.view()
	out := make([]Mass, len(v))
	acc := 0.0
	for i := len(v) - 1; i >= 0; i-- {
		acc += v[i].P
		out[i] = Mass{Outcome: v[i].Outcome, P: acc}
	}
	return out
}

// AtLeast returns P(X >= v).
func (d ProbDist) AtLeast(v int) float64 {
	s := 0.0
	for _, m := range d.view() {
		if m.Outcome >= v {
			s += m.P
		}
	}
	return s
}

// AtMost returns P(X <= v).
func (d ProbDist) AtMost(v int) float64 {
	s := 0.0
	for _, m := range d.view() {
		if m.Outcome > v {
			break
		}
		s += m.P
	}
	return s
}

// Sample walks the masses in order, subtracting each from a uniform draw,
// and returns the first outcome that takes the remainder below zero.
// Rounding slack lands on the last outcome.
func (d ProbDist) Sample(src Float64Source) int {
	u := src.Float64()
	v := d.view()
	for _, m := range v {
		u -= m.P
		if u < 0 {
			return m.Outcome
		}
	}
	return v[len(v)-1].Outcome
}

// Prune drops every mass below relative times the peak, without redistributing
// the removed mass. Only the receiver changes; copies taken earlier keep their masses.
func (d *ProbDist) Prune(relative float64) {
	if len(d.masses) == 0 {
		return
	}
	threshold := d.Peak().P * relative
	kept := make([]Mass, 0, len(d.masses))
	for _, m := range d.masses {
		if m.P >= threshold {
			kept = append(kept, m)
		}
	}
	d.masses = kept
}

// Rescale makes the receiver's masses sum to exactly 1.
func (d *ProbDist) Rescale() {
	t := d.Total()
	if len(d.masses) == 0 || t <= 0 {
		return
	}
	ms := make([]Mass, len(d.masses))
	for i, m := range d.masses {
		ms[i] = Mass{Outcome: m.Outcome, P: m.P / t}
	}
	d.masses = ms
}

// RemoveNull drops the receiver's zero masses.
func (d *ProbDist) RemoveNull() {
	if len(d.masses) == 0 {
		return
	}
	kept := make([]Mass, 0, len(d.masses))
	for _, m := range d.masses {
		if m.P > 0 {
			kept = append(kept, m)
		}
	}
	d.masses = kept
}

func (d ProbDist) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, m := range d.view() {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%d: %.4f", m.Outcome, m.P)
	}
	b.WriteByte('}')
	if d.approx {
		b.WriteString(" ~")
	}
	return b.String()
}
