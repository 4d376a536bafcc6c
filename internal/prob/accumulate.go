package prob

import (
	"math"
	"sort"
)

// accumulator sums masses per outcome, densely when the outcome span is small.
// Outcomes outside the dense span go to a sparse map.
type accumulator struct {
	lo     int
	dense  []float64
	sparse map[int]float64
}

func newAccumulator(lo, hi, hint int) *accumulator {
	if hi >= lo {
		span := uint64(hi) - uint64(lo) + 1
		if span > 0 && span <= denseLimit {
			return &accumulator{lo: lo, dense: make([]float64, span)}
		}
	}
	return &accumulator{sparse: make(map[int]float64, hint)}
}

// sparseAccumulator is used when the bounds of a result cannot be represented.
func sparseAccumulator(hint int) *accumulator {
	return &accumulator{sparse: make(map[int]float64, hint)}
}

func (a *accumulator) add(v int, p float64) {
	if a.dense != nil {
		if i := uint64(v) - uint64(a.lo); i < uint64(len(a.dense)) {
			a.dense[i] += p
			return
		}
	}
	if a.sparse == nil {
		a.sparse = make(map[int]float64)
	}
	a.sparse[v] += p
}

func (a *accumulator) masses() []Mass {
	ms := make([]Mass, 0, len(a.dense)+len(a.sparse))
	for i, p := range a.dense {
		if p > 0 {
			ms = append(ms, Mass{Outcome: a.lo + i, P: p})
		}
	}
	if len(a.sparse) == 0 {
		return ms
	}
	for v, p := range a.sparse {
		if p > 0 {
			ms = append(ms, Mass{Outcome: v, P: p})
		}
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Outcome < ms[j].Outcome })
	return ms
}

func (a *accumulator) dist(approx bool) ProbDist {
	ms := a.masses()
	if len(ms) == 0 {
		return ProbDist{approx: approx}
	}
	return ProbDist{masses: ms, approx: approx}
}

// Mixer accumulates weighted branches one at a time. The bounds given to NewMixer
// only size the dense buffer; outcomes outside them are still kept.
type Mixer struct {
	acc    *accumulator
	total  float64
	approx bool
}

func NewMixer(lo, hi int) *Mixer {
	return &Mixer{acc: newAccumulator(lo, hi, 0)}
}

// Add mixes in d with weight p. Non-positive weights are ignored.
func (m *Mixer) Add(p float64, d ProbDist) {
	if p <= 0 {
		return
	}
	m.total += p
	m.approx = m.approx || d.approx
	for _, x := range d.view() {
		m.acc.add(x.Outcome, x.P*p)
	}
}

// MarkApproximate flags the mixture as approximate.
func (m *Mixer) MarkApproximate() { m.approx = true }

// Dist returns the normalized mixture. With no weight added it is the point mass at 0.
func (m *Mixer) Dist() ProbDist {
	if m.total <= 0 {
		return ProbDist{approx: m.approx}
	}
	out := m.acc.dist(m.approx)
	if math.Abs(m.total-1) > 1e-12 {
		out.Rescale()
	}
	return out
}

func minMax4(a, b, c, d int) (int, int) {
	lo, hi := a, a
	for _, v := range []int{b, c, d} {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// fitsInt reports whether every value in xs is exactly representable as an int.
func fitsInt(xs ...float64) bool {
	for _, x := range xs {
		if x < math.MinInt64 || x >= math.MaxInt64 || math.IsNaN(x) {
			return false
		}
	}
	return true
}

// satMul multiplies, saturating at the int range instead of wrapping.
func satMul(a, b int) int {
	f := float64(a) * float64(b)
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt
	case f <= math.MinInt64:
		return math.MinInt
	}
	return a * b
}
