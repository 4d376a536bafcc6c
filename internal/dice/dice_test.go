package dice

import (
	"strings"
	"testing"

	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
	"github.com/DaanHessen/rollwright/internal/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(label string) *rng.Stream {
	seed, _ := rng.NewSeed("dice-tests")
	return seed.Stream(label)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in    string
		count int
		size  int
		adv   int
		mod   string
	}{
		{"d", 1, 20, 0, ""},
		{"3d6", 3, 6, 0, ""},
		{"2D8", 2, 8, 0, ""},
		{"d|", 1, 20, 1, ""},
		{"d||20", 1, 20, 2, ""},
		{"d&&", 1, 20, -2, ""},
		{"d|&|12", 1, 12, 1, ""},
		{"4d6kh3", 4, 6, 0, "kh3"},
		{"4d6KL1", 4, 6, 0, "kl1"},
		{"2d8r1", 2, 8, 0, "r1"},
		{"1000000d1000000", 1_000_000, 1_000_000, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.count, d.Count)
			assert.Equal(t, tt.size, d.Size)
			assert.Equal(t, tt.adv, d.Advantage)
			if tt.mod == "" {
				assert.Nil(t, d.Adapter)
			} else {
				require.NotNil(t, d.Adapter)
				assert.Equal(t, tt.mod, d.Adapter.String())
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{
		"1d0",
		"d1000001",
		"3x6",
		"",
		"d6kh",
		"d6kh0",
		"d6zz",
		"d6r1x",
		"999999999999999999999999d6",
		"100000001d6",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, in := range []string{"3d6", "d|20", "d&&8", "4d6kh3", "2d8r1", "6d10kl2"} {
		d, err := Parse(in)
		require.NoError(t, err)
		back, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d.String(), back.String())
	}
	d, _ := Parse("1d20")
	assert.Equal(t, "d20", d.String())
}

func TestRollBounds(t *testing.T) {
	d, err := Parse("3d6")
	require.NoError(t, err)
	s := stream("bounds")
	for i := 0; i < 500; i++ {
		v, tr := d.Roll(s)
		require.GreaterOrEqual(t, v, 3)
		require.LessOrEqual(t, v, 18)
		require.NotEmpty(t, tr)
		q := d.RollQuiet(s)
		require.GreaterOrEqual(t, q, 3)
		require.LessOrEqual(t, q, 18)
	}
}

func TestRollTraceShape(t *testing.T) {
	d, _ := Parse("2d6")
	_, tr := d.Roll(stream("shape"))
	text := tr.String()
	assert.True(t, strings.HasPrefix(text, "[["), text)
	assert.True(t, strings.HasSuffix(text, "]]"), text)
	assert.Contains(t, text, " + ")

	single, _ := Parse("d6")
	_, tr = single.Roll(stream("shape"))
	assert.False(t, strings.HasPrefix(tr.String(), "[["))
}

func TestAdvantageTraceStrikesLoser(t *testing.T) {
	d, _ := Parse("d|20")
	v, tr := d.Roll(stream("adv"))
	struck := 0
	for _, seg := range tr {
		if seg.Style == trace.Struck {
			struck++
		}
	}
	assert.Equal(t, 1, struck)
	assert.GreaterOrEqual(t, v, 1)
}

func TestLargeGroupTraceIsElided(t *testing.T) {
	d, _ := Parse("1000d6")
	v, tr := d.Roll(stream("large"))
	assert.Equal(t, "[...]", tr.String())
	assert.GreaterOrEqual(t, v, 1000)
	assert.LessOrEqual(t, v, 6000)
}

func TestDistMatchesConvolution(t *testing.T) {
	d, _ := Parse("3d6")
	dist, ok := d.Dist(prob.DefaultLimits())
	require.True(t, ok)
	assert.InDelta(t, 1.0, dist.Total(), prob.Tolerance)
	assert.InDelta(t, 10.5, dist.Expectation(), 1e-9)
	assert.InDelta(t, 1.0/216.0, dist.P(3), 1e-12)
	assert.Equal(t, 3, dist.Min())
	assert.Equal(t, 18, dist.Max())
}

func TestAdvantageFlagsMoveMean(t *testing.T) {
	mean := func(src string) float64 {
		d, err := Parse(src)
		require.NoError(t, err)
		return d.Mean()
	}
	plain := mean("d")
	assert.InDelta(t, 10.5, plain, 1e-9)
	assert.Greater(t, mean("d|"), plain)
	assert.Greater(t, mean("d||"), mean("d|"))
	assert.Less(t, mean("d&"), plain)
	assert.Less(t, mean("d&&"), mean("d&"))
}

// bruteKeep enumerates every roll of n dice of the given size.
func bruteKeep(n, size, keepN int, highest bool) map[int]float64 {
	out := map[int]float64{}
	total := 1
	for i := 0; i < n; i++ {
		total *= size
	}
	vals := make([]int, n)
	for idx := 0; idx < total; idx++ {
		x := idx
		for i := range vals {
			vals[i] = x%size + 1
			x /= size
		}
		sorted := append([]int(nil), vals...)
		for i := 1; i < len(sorted); i++ {
			for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
				sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
			}
		}
		if highest {
			sorted = sorted[n-keepN:]
		} else {
			sorted = sorted[:keepN]
		}
		sum := 0
		for _, v := range sorted {
			sum += v
		}
		out[sum] += 1 / float64(total)
	}
	return out
}

func TestKeepDistMatchesEnumeration(t *testing.T) {
	tests := []struct {
		src     string
		n, size int
		keep    int
		highest bool
	}{
		{"4d6kh3", 4, 6, 3, true},
		{"3d6kl1", 3, 6, 1, false},
		{"5d4kh2", 5, 4, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			d, err := Parse(tt.src)
			require.NoError(t, err)
			got, ok := d.Dist(prob.DefaultLimits())
			require.True(t, ok)
			want := bruteKeep(tt.n, tt.size, tt.keep, tt.highest)
			assert.Equal(t, len(want), got.Len())
			for v, p := range want {
				assert.InDelta(t, p, got.P(v), 1e-9, "outcome %d", v)
			}
		})
	}
}

func TestKeepAllIsPlainSum(t *testing.T) {
	d, _ := Parse("2d6kh5")
	dist, ok := d.Dist(prob.DefaultLimits())
	require.True(t, ok)
	assert.InDelta(t, 7, dist.Expectation(), 1e-9)
}

func TestKeepSamplingAgreesWithDist(t *testing.T) {
	d, _ := Parse("4d6kh3")
	s := stream("kh-sampling")
	sum := 0
	const n = 20000
	for i := 0; i < n; i++ {
		sum += d.RollQuiet(s)
	}
	assert.InDelta(t, d.Mean(), float64(sum)/n, 0.1)
}

func TestKeepTraceStrikesDropped(t *testing.T) {
	d, _ := Parse("4d6kh3")
	dice := d.RollDice(stream("kh-trace"))
	dropped := 0
	for _, die := range dice {
		if die.Dropped {
			dropped++
			for _, seg := range die.Trace() {
				assert.Equal(t, trace.Struck, seg.Style)
			}
		}
	}
	assert.Equal(t, 1, dropped)
}

func TestKeepLargeGroupUsesHistogram(t *testing.T) {
	s := stream("kh-large")
	hi, _ := Parse("5000d6kh10")
	lo, _ := Parse("5000d6kl10")
	assert.Equal(t, 60, hi.RollQuiet(s))
	assert.Equal(t, 10, lo.RollQuiet(s))
}

func TestKeepTooLargeReportsNotExact(t *testing.T) {
	d, _ := Parse("500d100kh3")
	_, ok := d.Dist(prob.DefaultLimits())
	assert.False(t, ok)
}

func TestRerollDist(t *testing.T) {
	d, _ := Parse("d6r1")
	dist, ok := d.Dist(prob.DefaultLimits())
	require.True(t, ok)
	assert.InDelta(t, 1.0/36.0, dist.P(1), 1e-12)
	for v := 2; v <= 6; v++ {
		assert.InDelta(t, 7.0/36.0, dist.P(v), 1e-12)
	}
}

func TestRerollOutOfRangeIsNoop(t *testing.T) {
	d, _ := Parse("2d6r9")
	dist, ok := d.Dist(prob.DefaultLimits())
	require.True(t, ok)
	assert.InDelta(t, 7, dist.Expectation(), 1e-9)
}

func TestRerollTraceShowsPrevious(t *testing.T) {
	d, _ := Parse("20d2r1")
	dice := d.RollDice(stream("reroll"))
	seen := false
	for _, die := range dice {
		if len(die.Previous) == 0 {
			continue
		}
		seen = true
		assert.Equal(t, []int{1}, die.Previous)
		tr := die.Trace()
		assert.Equal(t, trace.Struck, tr[0].Style)
		assert.Equal(t, "1", tr[0].Text)
	}
	assert.True(t, seen, "20 coin flips should reroll at least one 1")
}
