// Package dice implements the NdM dice primitive: parsing, rolling with
// advantage and modifiers, and its exact distribution.
package dice

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
	"github.com/DaanHessen/rollwright/internal/trace"
)

const (
	DefaultDieSize = 20
	MaxDieSize     = 1_000_000
	MaxDiceCount   = 100_000_000
	// MaxTraceDice is the group size from which per-die detail is replaced by "...".
	MaxTraceDice = 1000
)

// Dice is one group of identical dice. Advantage > 0 draws 1+Advantage values per die and
// keeps the highest, Advantage < 0 keeps the lowest.
type Dice struct {
	Count     int
	Size      int
	Advantage int
	Adapter   Adapter
}

// New builds a plain dice group without validation limits, for code that synthesizes rolls.
func New(count, size, advantage int) Dice {
	return Dice{Count: count, Size: size, Advantage: advantage}
}

// Die records how one die of a group was rolled.
type Die struct {
	Draws    []int
	Kept     int
	Value    int
	Previous []int
	Dropped  bool
}

func (d Dice) draws() int {
	if d.Advantage < 0 {
		return 1 - d.Advantage
	}
	return 1 + d.Advantage
}

// RollOne rolls a single die of the group, advantage included.
func (d Dice) RollOne(s *rng.Stream) int {
	best := s.IntRange(1, d.Size)
	for i := 1; i < d.draws(); i++ {
		v := s.IntRange(1, d.Size)
		if (d.Advantage > 0 && v > best) || (d.Advantage < 0 && v < best) {
			best = v
		}
	}
	return best
}

func (d Dice) rollDie(s *rng.Stream) Die {
	die := Die{Draws: make([]int, d.draws())}
	for i := range die.Draws {
		v := s.IntRange(1, d.Size)
		die.Draws[i] = v
		switch {
		case i == 0:
			die.Value = v
		case d.Advantage > 0 && v >= die.Value:
			die.Value, die.Kept = v, i
		case d.Advantage < 0 && v < die.Value:
			die.Value, die.Kept = v, i
		}
	}
	return die
}

// RollDice rolls every die of the group and applies the adapter.
func (d Dice) RollDice(s *rng.Stream) []Die {
	dice := make([]Die, d.Count)
	for i := range dice {
		dice[i] = d.rollDie(s)
	}
	if d.Adapter != nil {
		d.Adapter.apply(s, d, dice)
	}
	return dice
}

// RollQuiet returns only the total.
func (d Dice) RollQuiet(s *rng.Stream) int {
	if d.Adapter != nil {
		return d.Adapter.rollQuiet(s, d)
	}
	total := 0
	for i := 0; i < d.Count; i++ {
		total += d.RollOne(s)
	}
	return total
}

// Roll returns the total and a trace with one bracket per die. Draws lost to
// advantage are struck, and so are dice dropped by an adapter.
func (d Dice) Roll(s *rng.Stream) (int, trace.Trace) {
	var t trace.Trace
	if d.Count > 1 {
		t.Append("[")
	}
	total := 0
	if d.Count >= MaxTraceDice {
		total = d.RollQuiet(s)
		t.Append("...")
	} else {
		for i, die := range d.RollDice(s) {
			if i > 0 {
				t.Append(" + ")
			}
			t.Extend(die.Trace())
			if !die.Dropped {
				total += die.Value
			}
		}
	}
	if d.Count > 1 {
		t.Append("]")
	}
	return total, t
}

// Trace renders one die.
func (die Die) Trace() trace.Trace {
	var t trace.Trace
	for _, p := range die.Previous {
		t.AppendStruck(strconv.Itoa(p))
		t.Append("->")
	}
	t.Append("[")
	for i, v := range die.Draws {
		if i > 0 {
			t.Append(" ")
		}
		switch {
		case i != die.Kept:
			t.AppendStruck(strconv.Itoa(v))
		case len(die.Previous) > 0:
			t.AppendColored(strconv.Itoa(v))
		default:
			t.Append(strconv.Itoa(v))
		}
	}
	t.Append("]")
	if die.Dropped {
		return t.StrikeAll()
	}
	return t
}

// SingleDist is the distribution of one die with advantage applied.
func (d Dice) SingleDist() prob.ProbDist {
	u := prob.Uniform(1, d.Size)
	if d.Advantage > 0 {
		return u.MaxOf(d.draws())
	}
	if d.Advantage < 0 {
		return u.MinOf(d.draws())
	}
	return u
}

// Dist returns the distribution of the group total. It reports false when an
// adapter cannot produce it exactly within its work limits.
func (d Dice) Dist(lim prob.Limits) (prob.ProbDist, bool) {
	if d.Adapter != nil {
		return d.Adapter.dist(d, lim)
	}
	return d.SingleDist().Times(d.Count, lim), true
}

// Mean is the expected total. Adapters that cannot compute their distribution
// fall back to the unmodified mean.
func (d Dice) Mean() float64 {
	if d.Adapter != nil {
		if dist, ok := d.Adapter.dist(d, prob.DefaultLimits()); ok {
			return dist.Expectation()
		}
	}
	return float64(d.Count) * d.SingleDist().Expectation()
}

func (d Dice) String() string {
	var b strings.Builder
	if d.Count != 1 {
		b.WriteString(strconv.Itoa(d.Count))
	}
	b.WriteByte('d')
	for i := 0; i < d.Advantage; i++ {
		b.WriteByte('|')
	}
	for i := 0; i > d.Advantage; i-- {
		b.WriteByte('&')
	}
	b.WriteString(strconv.Itoa(d.Size))
	if d.Adapter != nil {
		b.WriteString(d.Adapter.String())
	}
	return b.String()
}

// GoString keeps %#v output readable in test failures.
func (d Dice) GoString() string { return fmt.Sprintf("dice.Dice(%s)", d) }
