package prob

import "math"

// Weighted pairs a distribution with the probability of taking that branch.
type Weighted struct {
	P    float64
	Dist ProbDist
}

// Shift adds k to every outcome.
func (d ProbDist) Shift(k int) ProbDist {
	v := d.view()
	out := make([]Mass, len(v))
	for i, m := range v {
		out[i] = Mass{Outcome: m.Outcome + k, P: m.P}
	}
	return ProbDist{masses: out, approx: d.approx}
}

// Neg flips the sign of every outcome.
func (d ProbDist) Neg() ProbDist {
	v := d.view()
	out := make([]Mass, len(v))
	for i, m := range v {
		out[len(v)-1-i] = Mass{Outcome: -m.Outcome, P: m.P}
	}
	return ProbDist{masses: out, approx: d.approx}
}

// Add returns the distribution of the sum of independent draws from d and o.
// When the budget runs out it returns the point mass at 0 flagged approximate.
func (d ProbDist) Add(o ProbDist, lim Limits) ProbDist {
	lim = lim.withDefaults()
	out, ok := convolve(d.view(), o.view(), newClock(lim))
	if !ok {
		return ProbDist{approx: true}
	}
	out.approx = d.approx || o.approx
	return out
}

// Sub returns the distribution of d minus an independent draw from o.
func (d ProbDist) Sub(o ProbDist, lim Limits) ProbDist { return d.Add(o.Neg(), lim) }

func convolve(a, b []Mass, c *clock) (ProbDist, bool) {
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	lo, hi := a[0].Outcome, a[len(a)-1].Outcome
	blo, bhi := b[0].Outcome, b[len(b)-1].Outcome
	acc := sparseAccumulator(len(a) + len(b))
	if fitsInt(float64(lo)+float64(blo), float64(hi)+float64(bhi)) {
		acc = newAccumulator(lo+blo, hi+bhi, len(a)+len(b))
	}
	for _, s := range short {
		for _, l := range long {
			acc.add(s.Outcome+l.Outcome, s.P*l.P)
			if !c.tick() {
				return ProbDist{}, false
			}
		}
	}
	return acc.dist(false), true
}

// Times returns the distribution of the sum of n independent draws from d.
// From lim.CLTThreshold repeats, or when the exact chain overruns the budget,
// the result is a normal approximation. n <= 0 yields the point mass at 0.
func (d ProbDist) Times(n int, lim Limits) ProbDist {
	lim = lim.withDefaults()
	switch {
	case n <= 0:
		return ProbDist{approx: d.approx}
	case n == 1:
		return d
	case n >= lim.CLTThreshold:
		return d.normalTimes(n, lim)
	}
	c := newClock(lim)
	result := Point(0)
	base := d
	for k := n; k > 0; k >>= 1 {
		var ok bool
		if k&1 == 1 {
			if result, ok = convolve(result.view(), base.view(), c); !ok {
				return d.normalTimes(n, lim)
			}
		}
		if k > 1 {
			if base, ok = convolve(base.view(), base.view(), c); !ok {
				return d.normalTimes(n, lim)
			}
		}
	}
	result.approx = d.approx
	return result
}

func (d ProbDist) normalTimes(n int, lim Limits) ProbDist {
	fn := float64(n)
	return Normal(fn*d.Expectation(), fn*d.Variance(), satMul(n, d.Min()), satMul(n, d.Max()), lim.MaxNormalPoints)
}

// maxNormalParts caps how many normals Compound mixes; beyond that, runs of
// neighbouring counts share one.
const maxNormalParts = 64

// Compound returns the distribution of the sum of N independent draws from d, where N
// is drawn from counts and counts of 0 or less sum to nothing. Partial sums are built
// one draw at a time under a single budget. Counts from lim.CLTThreshold up, and counts
// still missing when the budget runs out, are approximated by normals.
func (d ProbDist) Compound(counts ProbDist, lim Limits) ProbDist {
	lim = lim.withDefaults()
	kmax := counts.Max()
	if kmax < 0 {
		kmax = 0
	}
	lo, hi := satMul(kmax, d.Min()), satMul(kmax, d.Max())
	if lo > 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	mix := NewMixer(lo, hi)
	if counts.approx {
		mix.MarkApproximate()
	}
	c := newClock(lim)
	acc, at, exact := Point(0), 0, true
	var rest []Mass
	for _, m := range counts.view() {
		k := m.Outcome
		if k <= 0 {
			mix.Add(m.P, Point(0))
			continue
		}
		for exact && k < lim.CLTThreshold && at < k {
			next, ok := convolve(acc.view(), d.view(), c)
			if !ok {
				exact = false
				break
			}
			acc, at = next, at+1
		}
		if at != k {
			rest = append(rest, m)
			continue
		}
		part := acc
		part.approx = d.approx
		mix.Add(m.P, part)
	}
	if len(rest) == 0 {
		return mix.Dist()
	}
	chunk := (len(rest) + maxNormalParts - 1) / maxNormalParts
	for i := 0; i < len(rest); i += chunk {
		w, nd := d.compoundNormal(rest[i:min(i+chunk, len(rest))], lim)
		mix.Add(w, nd)
	}
	return mix.Dist()
}

// compoundNormal approximates the sum of N draws from d where N is drawn from the
// (unnormalized) count masses ms, given in ascending order. It returns the total
// weight of ms with the approximation.
func (d ProbDist) compoundNormal(ms []Mass, lim Limits) (float64, ProbDist) {
	var w, m1, m2 float64
	for _, m := range ms {
		k := float64(m.Outcome)
		w += m.P
		m1 += m.P * k
		m2 += m.P * k * k
	}
	if w <= 0 {
		return 0, ProbDist{}
	}
	en := m1 / w
	vn := m2/w - en*en
	if vn < 0 {
		vn = 0
	}
	mu := d.Expectation()
	mean := en * mu
	variance := en*d.Variance() + vn*mu*mu
	kmin, kmax := ms[0].Outcome, ms[len(ms)-1].Outcome
	lo := satMul(kmin, d.Min())
	if v := satMul(kmax, d.Min()); v < lo {
		lo = v
	}
	hi := satMul(kmin, d.Max())
	if v := satMul(kmax, d.Max()); v > hi {
		hi = v
	}
	return w, Normal(mean, variance, lo, hi, lim.MaxNormalPoints)
}

// Mul returns the distribution of the product of independent draws from d and o.
func (d ProbDist) Mul(o ProbDist, lim Limits) ProbDist {
	lim = lim.withDefaults()
	a, b := d.view(), o.view()
	alo, ahi := float64(a[0].Outcome), float64(a[len(a)-1].Outcome)
	blo, bhi := float64(b[0].Outcome), float64(b[len(b)-1].Outcome)
	acc := sparseAccumulator(len(a) * len(b))
	if fitsInt(alo*blo, alo*bhi, ahi*blo, ahi*bhi) {
		lo, hi := minMax4(
			a[0].Outcome*b[0].Outcome, a[0].Outcome*b[len(b)-1].Outcome,
			a[len(a)-1].Outcome*b[0].Outcome, a[len(a)-1].Outcome*b[len(b)-1].Outcome,
		)
		acc = newAccumulator(lo, hi, len(a)*len(b))
	}
	c := newClock(lim)
	for _, x := range a {
		for _, y := range b {
			acc.add(x.Outcome*y.Outcome, x.P*y.P)
			if !c.tick() {
				return ProbDist{approx: true}
			}
		}
	}
	return acc.dist(d.approx || o.approx)
}

// Div returns the distribution of floor(d / o). Divisor outcomes of 0 are left out
// and the remaining mass is renormalized; a divisor that is always 0 yields the point mass at 0.
func (d ProbDist) Div(o ProbDist, lim Limits) ProbDist {
	lim = lim.withDefaults()
	num, den := d.view(), o.view()
	acc := sparseAccumulator(len(num) * len(den))
	if lo, hi, ok := divBounds(num); ok {
		acc = newAccumulator(lo, hi, len(num)*len(den))
	}
	c := newClock(lim)
	total := 0.0
	for _, a := range den {
		if a.Outcome == 0 {
			continue
		}
		for _, b := range num {
			p := a.P * b.P
			acc.add(FloorDiv(b.Outcome, a.Outcome), p)
			total += p
			if !c.tick() {
				return ProbDist{approx: true}
			}
		}
	}
	if total <= 0 {
		return ProbDist{approx: d.approx || o.approx}
	}
	out := acc.dist(d.approx || o.approx)
	out.Rescale()
	return out
}

func divBounds(num []Mass) (int, int, bool) {
	lo, hi := num[0].Outcome, num[len(num)-1].Outcome
	if lo > 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	if lo == math.MinInt {
		return 0, 0, false
	}
	// |floor(b/a)| <= |b| for a != 0, and the extra -1 of flooring stays inside [-|b|-1, |b|].
	m := hi
	if -lo > m {
		m = -lo
	}
	if m == math.MaxInt {
		return 0, 0, false
	}
	return -m - 1, m, true
}

// FloorDiv divides rounding towards negative infinity. b must not be 0.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Advantage applies k rounds of "roll twice, keep the higher" for k > 0
// and |k| rounds of "keep the lower" for k < 0.
func (d ProbDist) Advantage(k int) ProbDist {
	out := d
	for ; k > 0; k-- {
		out = out.keepHigher()
	}
	for ; k < 0; k++ {
		out = out.keepLower()
	}
	return out
}

// keepHigher walks from the top: P(max = x) = 1 - F(x-1)^2 - P(max > x).
func (d ProbDist) keepHigher() ProbDist {
	v := d.view()
	out := make([]Mass, len(v))
	below := 1.0
	above := 0.0
	for i := len(v) - 1; i >= 0; i-- {
		below -= v[i].P
		if below < 0 {
			below = 0
		}
		p := 1 - below*below - above
		if p < 0 {
			p = 0
		}
		out[i] = Mass{Outcome: v[i].Outcome, P: p}
		above += p
	}
	return ProbDist{masses: out, approx: d.approx}
}

// keepLower walks from the bottom: P(min = x) = 1 - (1 - F(x))^2 - P(min < x).
func (d ProbDist) keepLower() ProbDist {
	v := d.view()
	out := make([]Mass, len(v))
	cdf := 0.0
	below := 0.0
	for i, m := range v {
		cdf += m.P
		if cdf > 1 {
			cdf = 1
		}
		p := 1 - (1-cdf)*(1-cdf) - below
		if p < 0 {
			p = 0
		}
		out[i] = Mass{Outcome: m.Outcome, P: p}
		below += p
	}
	return ProbDist{masses: out, approx: d.approx}
}

// Mix returns the mixture of the weighted branches. Weights are normalized.
func Mix(parts ...Weighted) ProbDist {
	lo, hi := math.MaxInt, math.MinInt
	for _, w := range parts {
		if w.P <= 0 {
			continue
		}
		if m := w.Dist.Min(); m < lo {
			lo = m
		}
		if m := w.Dist.Max(); m > hi {
			hi = m
		}
	}
	mix := NewMixer(lo, hi)
	for _, w := range parts {
		mix.Add(w.P, w.Dist)
	}
	return mix.Dist()
}

// Restrict keeps the outcomes where keep holds, renormalized, and reports their total mass.
// When nothing is kept it returns the point mass at 0 and 0.
func (d ProbDist) Restrict(keep func(int) bool) (ProbDist, float64) {
	ms := make([]Mass, 0, len(d.view()))
	total := 0.0
	for _, m := range d.view() {
		if keep(m.Outcome) {
			ms = append(ms, m)
			total += m.P
		}
	}
	if total <= 0 {
		return ProbDist{approx: d.approx}, 0
	}
	out := ProbDist{masses: ms, approx: d.approx}
	out.Rescale()
	return out, total
}

// Map sends every outcome through f, merging outcomes that collide.
func (d ProbDist) Map(f func(int) int) ProbDist {
	m := make(map[int]float64, d.Len())
	for _, ms := range d.view() {
		m[f(ms.Outcome)] += ms.P
	}
	return ProbDist{masses: sortedMasses(m), approx: d.approx}
}

// MaxOf returns the distribution of the highest of n independent draws.
func (d ProbDist) MaxOf(n int) ProbDist {
	if n <= 1 {
		return d
	}
	v := d.view()
	out := make([]Mass, len(v))
	prev, cdf := 0.0, 0.0
	for i, m := range v {
		cdf += m.P
		if cdf > 1 {
			cdf = 1
		}
		out[i] = Mass{Outcome: m.Outcome, P: math.Pow(cdf, float64(n)) - math.Pow(prev, float64(n))}
		prev = cdf
	}
	return ProbDist{masses: out, approx: d.approx}
}

// MinOf returns the distribution of the lowest of n independent draws.
func (d ProbDist) MinOf(n int) ProbDist {
	if n <= 1 {
		return d
	}
	v := d.view()
	out := make([]Mass, len(v))
	next, surv := 0.0, 0.0
	for i := len(v) - 1; i >= 0; i-- {
		surv += v[i].P
		if surv > 1 {
			surv = 1
		}
		out[i] = Mass{Outcome: v[i].Outcome, P: math.Pow(surv, float64(n)) - math.Pow(next, float64(n))}
		next = surv
	}
	return ProbDist{masses: out, approx: d.approx}
}
