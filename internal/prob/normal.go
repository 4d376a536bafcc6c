package prob

import "math"

// Normal discretizes a normal curve with the given mean and variance onto integers.
// The support is the whole of [lo, hi] when that range is narrower than 8 sigma,
// otherwise mean +- 4 sigma clipped to [lo, hi]. A support wider than maxPoints is
// strided so that only every k-th integer carries mass. The result is always approximate.
func Normal(mean, variance float64, lo, hi, maxPoints int) ProbDist {
	if variance <= 0 || math.IsNaN(variance) {
		return ProbDist{masses: []Mass{{Outcome: int(math.Round(mean)), P: 1}}, approx: true}
	}
	sigma := math.Sqrt(variance)
	if float64(hi)-float64(lo) >= 8*sigma {
		if l := int(math.Floor(mean - 4*sigma)); l > lo {
			lo = l
		}
		if h := int(math.Ceil(mean + 4*sigma)); h < hi {
			hi = h
		}
	}
	if hi < lo {
		lo, hi = hi, lo
	}
	stride := 1
	if span := float64(hi) - float64(lo) + 1; maxPoints > 0 && span > float64(maxPoints) {
		stride = int(math.Ceil(span / float64(maxPoints)))
	}
	ms := make([]Mass, 0, (hi-lo)/stride+1)
	total := 0.0
	for x := lo; x <= hi; x += stride {
		z := (float64(x) - mean) / sigma
		p := math.Exp(-0.5 * z * z)
		if p == 0 {
			continue
		}
		ms = append(ms, Mass{Outcome: x, P: p})
		total += p
		if x > hi-stride {
			break
		}
	}
	if total <= 0 {
		return ProbDist{masses: []Mass{{Outcome: int(math.Round(mean)), P: 1}}, approx: true}
	}
	for i := range ms {
		ms[i].P /= total
	}
	return ProbDist{masses: ms, approx: true}
}
