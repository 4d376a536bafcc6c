package prob

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func assertNormalized(t *testing.T, d ProbDist) {
	t.Helper()
	assert.InDelta(t, 1.0, d.Total(), Tolerance)
}

func TestZeroValueIsIdentity(t *testing.T) {
	var d ProbDist
	assert.Equal(t, 1, d.Len())
	assert.Equal(t, 1.0, d.P(0))
	assert.Equal(t, 0, d.Min())
	assert.Equal(t, 0, d.Max())
}

func TestUniform(t *testing.T) {
	d := Uniform(1, 6)
	assertNormalized(t, d)
	assert.InDelta(t, 3.5, d.Expectation(), 1e-12)
	assert.InDelta(t, 35.0/12.0, d.Variance(), 1e-12)
	assert.Equal(t, 1, d.Min())
	assert.Equal(t, 6, d.Max())
}

func TestNewValidates(t *testing.T) {
	_, err := New(map[int]float64{1: 0.5, 2: 0.2})
	assert.ErrorIs(t, err, ErrNotNormalized)

	_, err = New(map[int]float64{1: -0.5, 2: 1.5})
	assert.ErrorIs(t, err, ErrNegativeMass)

	d, err := New(map[int]float64{2: 0.25, 1: 0.75})
	require.NoError(t, err)
	assert.Equal(t, []Mass{{1, 0.75}, {2, 0.25}}, d.Masses())
}

func TestFromWeights(t *testing.T) {
	d := FromWeights(map[int]float64{0: 3, 10: 1})
	assert.InDelta(t, 0.75, d.P(0), 1e-12)
	assert.InDelta(t, 0.25, d.P(10), 1e-12)
	assert.Equal(t, 1.0, FromWeights(nil).P(0))
}

func TestAddTwoDice(t *testing.T) {
	d := Uniform(1, 6).Add(Uniform(1, 6), DefaultLimits())
	assertNormalized(t, d)
	assert.InDelta(t, 6.0/36.0, d.P(7), 1e-12)
	assert.InDelta(t, 1.0/36.0, d.P(2), 1e-12)
	assert.InDelta(t, 7.0, d.Expectation(), 1e-12)
	assert.False(t, d.Approximate())
}

func TestAddIsAssociative(t *testing.T) {
	lim := DefaultLimits()
	a, b, c := Uniform(1, 4), Uniform(-2, 3), FromWeights(map[int]float64{0: 1, 5: 2})
	left := a.Add(b, lim).Add(c, lim)
	right := a.Add(b.Add(c, lim), lim)
	require.Equal(t, left.Len(), right.Len())
	for _, m := range left.Masses() {
		assert.InDelta(t, m.P, right.P(m.Outcome), 1e-9)
	}
}

func TestAddTimeoutReturnsIdentity(t *testing.T) {
	lim := Limits{ConvolutionBudget: time.Nanosecond, CheckInterval: 1}
	d := Uniform(1, 1000).Add(Uniform(1, 1000), lim)
	assert.True(t, d.Approximate())
	assert.Equal(t, 1.0, d.P(0))
}

func TestTimesMatchesRepeatedAdd(t *testing.T) {
	lim := DefaultLimits()
	d6 := Uniform(1, 6)
	want := d6.Add(d6, lim).Add(d6, lim).Add(d6, lim).Add(d6, lim)
	got := d6.Times(5, lim)
	require.Equal(t, want.Len(), got.Len())
	for _, m := range want.Masses() {
		assert.InDelta(t, m.P, got.P(m.Outcome), 1e-12)
	}
	assert.Equal(t, 5, got.Min())
	assert.Equal(t, 30, got.Max())
}

func TestTimesEdgeCounts(t *testing.T) {
	d := Uniform(1, 6)
	assert.Equal(t, 1.0, d.Times(0, DefaultLimits()).P(0))
	assert.Equal(t, d.Masses(), d.Times(1, DefaultLimits()).Masses())
}

func TestTimesUsesNormalFromThreshold(t *testing.T) {
	d := Uniform(1, 6).Times(DefaultCLTThreshold, DefaultLimits())
	assert.True(t, d.Approximate())
	assertNormalized(t, d)
	assert.InDelta(t, 3500, d.Expectation(), 1)
	assert.GreaterOrEqual(t, d.Min(), 1000)
	assert.LessOrEqual(t, d.Max(), 6000)
}

func TestTimesFallsBackToNormalOnTimeout(t *testing.T) {
	lim := Limits{ConvolutionBudget: time.Nanosecond, CheckInterval: 1}
	d := Uniform(1, 100).Times(50, lim)
	assert.True(t, d.Approximate())
	assertNormalized(t, d)
	assert.InDelta(t, 50*50.5, d.Expectation(), 5)
}

func TestNormalStridesWideSupport(t *testing.T) {
	single := Uniform(1, 1_000_000)
	d := single.Times(1_000_000, DefaultLimits())
	assert.True(t, d.Approximate())
	assert.LessOrEqual(t, d.Len(), DefaultMaxNormalPoints+1)
	assertNormalized(t, d)
	assert.InDelta(t, 500000.5e6, d.Expectation(), 1e9)
}

func TestNormalZeroVariance(t *testing.T) {
	d := Normal(4, 0, 4, 4, 10)
	assert.Equal(t, 1.0, d.P(4))
}

func enumerate(n int, pick func(a, b int) int) map[int]float64 {
	out := map[int]float64{}
	p := 1 / float64(n*n)
	for a := 1; a <= n; a++ {
		for b := 1; b <= n; b++ {
			out[pick(a, b)] += p
		}
	}
	return out
}

func TestAdvantageMatchesEnumeration(t *testing.T) {
	for _, n := range []int{6, 20} {
		hi := enumerate(n, func(a, b int) int { return max(a, b) })
		lo := enumerate(n, func(a, b int) int { return min(a, b) })
		adv := Uniform(1, n).Advantage(1)
		dis := Uniform(1, n).Advantage(-1)
		assertNormalized(t, adv)
		assertNormalized(t, dis)
		for v := 1; v <= n; v++ {
			assert.InDelta(t, hi[v], adv.P(v), 1e-12, "adv d%d at %d", n, v)
			assert.InDelta(t, lo[v], dis.P(v), 1e-12, "dis d%d at %d", n, v)
		}
	}
}

func TestDoubleAdvantage(t *testing.T) {
	// two rounds of keep-higher is the max of four draws
	n := 6
	want := map[int]float64{}
	for x := 1; x <= n; x++ {
		f := float64(x) / float64(n)
		g := float64(x-1) / float64(n)
		want[x] = f*f*f*f - g*g*g*g
	}
	got := Uniform(1, n).Advantage(2)
	for v, p := range want {
		assert.InDelta(t, p, got.P(v), 1e-12)
	}
	assert.Greater(t, got.Expectation(), Uniform(1, n).Advantage(1).Expectation())
}

func TestNegAndShift(t *testing.T) {
	d := FromWeights(map[int]float64{1: 1, 3: 3})
	n := d.Neg()
	assert.Equal(t, []Mass{{-3, 0.75}, {-1, 0.25}}, n.Masses())
	assert.Equal(t, 4, d.Shift(3).Min())
}

func TestMulMirror(t *testing.T) {
	coin := FromWeights(map[int]float64{-1: 1, 1: 1})
	d := Uniform(1, 4).Mul(coin, DefaultLimits())
	assertNormalized(t, d)
	assert.InDelta(t, 0, d.Expectation(), 1e-12)
	assert.InDelta(t, 0.125, d.P(-4), 1e-12)
	assert.Equal(t, 0.0, d.P(0))
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 3, FloorDiv(7, 2))
	assert.Equal(t, -4, FloorDiv(-7, 2))
	assert.Equal(t, -4, FloorDiv(7, -2))
	assert.Equal(t, 3, FloorDiv(-7, -2))
	assert.Equal(t, -2, FloorDiv(-6, 3))
}

func TestDivExcludesZeroDivisor(t *testing.T) {
	num := Point(7)
	den := Uniform(-1, 1)
	d := num.Div(den, DefaultLimits())
	assertNormalized(t, d)
	assert.InDelta(t, 0.5, d.P(7), 1e-12)
	assert.InDelta(t, 0.5, d.P(-7), 1e-12)

	zero := Point(5).Div(Point(0), DefaultLimits())
	assert.Equal(t, 1.0, zero.P(0))
}

func TestDivOrder(t *testing.T) {
	d := Point(12).Div(Point(5), DefaultLimits())
	assert.Equal(t, 1.0, d.P(2))
}

func TestCumulative(t *testing.T) {
	d := Uniform(1, 4)
	cum := d.Cumulative()
	rev := d.ReverseCumulative()
	assert.InDelta(t, 1.0, cum[len(cum)-1].P, 1e-12)
	assert.InDelta(t, 1.0, rev[0].P, 1e-12)
	assert.InDelta(t, 0.5, d.AtLeast(3), 1e-12)
	assert.InDelta(t, 0.75, d.AtMost(3), 1e-12)
}

func TestMoments(t *testing.T) {
	d := FromWeights(map[int]float64{0: 1, 2: 1})
	assert.InDelta(t, 1, d.Moment(1), 1e-12)
	assert.InDelta(t, 2, d.Moment(2), 1e-12)
	assert.InDelta(t, 1, d.Variance(), 1e-12)
	assert.InDelta(t, 1, d.Sigma(), 1e-12)
}

func TestSampleWalk(t *testing.T) {
	d := FromWeights(map[int]float64{1: 1, 2: 1, 3: 2})
	assert.Equal(t, 1, d.Sample(fixedSource(0)))
	assert.Equal(t, 2, d.Sample(fixedSource(0.3)))
	assert.Equal(t, 3, d.Sample(fixedSource(0.9999999)))
}

func TestPruneKeepsCopies(t *testing.T) {
	d := FromWeights(map[int]float64{0: 1000, 1: 2, 2: 0.5})
	kept := d
	kept.Prune(DefaultPruneRatio)
	assert.Equal(t, 2, kept.Len())
	assert.Equal(t, 3, d.Len())
	assert.Less(t, kept.Total(), 1.0)

	kept.Rescale()
	assert.InDelta(t, 1.0, kept.Total(), 1e-12)
}

func TestPeak(t *testing.T) {
	d := Uniform(1, 6).Add(Uniform(1, 6), DefaultLimits())
	assert.Equal(t, 7, d.Peak().Outcome)
}

func TestMixAndRestrict(t *testing.T) {
	d := Mix(
		Weighted{P: 0.25, Dist: Point(0)},
		Weighted{P: 0.75, Dist: Uniform(1, 3)},
	)
	assertNormalized(t, d)
	assert.InDelta(t, 0.25, d.P(0), 1e-12)

	high, mass := d.Restrict(func(v int) bool { return v >= 2 })
	assert.InDelta(t, 0.5, mass, 1e-12)
	assertNormalized(t, high)
	assert.InDelta(t, 0.5, high.P(3), 1e-12)
}

func TestMap(t *testing.T) {
	d := Uniform(-2, 2).Map(func(v int) int { return v * v })
	assert.InDelta(t, 0.4, d.P(4), 1e-12)
	assert.InDelta(t, 0.2, d.P(0), 1e-12)
}

func TestMaxOfMatchesAdvantage(t *testing.T) {
	d := Uniform(1, 20)
	two := d.MaxOf(2)
	adv := d.Advantage(1)
	low := d.MinOf(2)
	dis := d.Advantage(-1)
	for v := 1; v <= 20; v++ {
		assert.InDelta(t, adv.P(v), two.P(v), 1e-12)
		assert.InDelta(t, dis.P(v), low.P(v), 1e-12)
	}
	three := d.MaxOf(3)
	assertNormalized(t, three)
	assert.InDelta(t, 1-19.0*19*19/8000, three.P(20), 1e-12)
}

func TestCompoundMatchesTimesPerCount(t *testing.T) {
	lim := DefaultLimits()
	d6 := Uniform(1, 6)
	counts := FromWeights(map[int]float64{-1: 1, 0: 1, 2: 1, 3: 1})
	got := d6.Compound(counts, lim)
	want := Mix(
		Weighted{P: 2, Dist: Point(0)},
		Weighted{P: 1, Dist: d6.Times(2, lim)},
		Weighted{P: 1, Dist: d6.Times(3, lim)},
	)
	assert.False(t, got.Approximate())
	require.Equal(t, want.Len(), got.Len())
	for _, m := range want.Masses() {
		assert.InDelta(t, m.P, got.P(m.Outcome), 1e-12)
	}
}

func TestCompoundSharesOneBudget(t *testing.T) {
	lim := DefaultLimits()
	lim.ConvolutionBudget = 50 * time.Millisecond
	start := time.Now()
	d := Uniform(1, 1000).Compound(Uniform(1, 300), lim)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, d.Approximate())
	assertNormalized(t, d)
	assert.InEpsilon(t, 150.5*500.5, d.Expectation(), 0.02)
}

func TestCompoundFromThresholdIsNormal(t *testing.T) {
	counts := FromWeights(map[int]float64{2: 1, DefaultCLTThreshold: 1})
	d := Uniform(1, 6).Compound(counts, DefaultLimits())
	assert.True(t, d.Approximate())
	assertNormalized(t, d)
	assert.InDelta(t, 1.0/72, d.P(2), 1e-12)
	assert.InEpsilon(t, (7.0+3500)/2, d.Expectation(), 0.01)
}

func TestOverflowingBoundsStayInRange(t *testing.T) {
	lim := DefaultLimits()
	require.NotPanics(t, func() {
		d := Uniform(1, 2).Shift(6148914691236517205).Mul(Uniform(1, 4), lim)
		assertNormalized(t, d)
	})
	require.NotPanics(t, func() {
		d := Point(math.MinInt).Div(Point(1), lim)
		assert.Equal(t, 1.0, d.P(math.MinInt))
		d = Point(math.MinInt).Div(Uniform(-1, 1), lim)
		assertNormalized(t, d)
	})
	require.NotPanics(t, func() {
		d := Point(math.MaxInt).Add(Uniform(0, 1), lim)
		assertNormalized(t, d)
	})
}

func TestAccumulatorKeepsOutOfRangeOutcomes(t *testing.T) {
	acc := newAccumulator(0, 3, 0)
	acc.add(2, 0.25)
	acc.add(10, 0.5)
	acc.add(-7, 0.25)
	d := acc.dist(false)
	assert.Equal(t, []Mass{{Outcome: -7, P: 0.25}, {Outcome: 2, P: 0.25}, {Outcome: 10, P: 0.5}}, d.Masses())
}

func TestMixerWeighsBranches(t *testing.T) {
	m := NewMixer(0, 1)
	m.Add(3, Point(0))
	m.Add(1, Point(5))
	m.Add(-1, Point(9))
	d := m.Dist()
	assert.InDelta(t, 0.75, d.P(0), 1e-12)
	assert.InDelta(t, 0.25, d.P(5), 1e-12)
	assert.Zero(t, d.P(9))
	assert.False(t, d.Approximate())
}
