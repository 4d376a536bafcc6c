package dice

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
)

// Adapter is a modifier attached to a dice group, such as "kh3" or "r1".
// The set of adapters is closed; see generators.
type Adapter interface {
	String() string
	apply(s *rng.Stream, d Dice, dice []Die)
	rollQuiet(s *rng.Stream, d Dice) int
	dist(d Dice, lim prob.Limits) (prob.ProbDist, bool)
}

type generator struct {
	ident string
	build func(arg int) (Adapter, string)
}

// generators are tried in order; the first matching prefix wins.
var generators = []generator{
	{ident: "kh", build: func(n int) (Adapter, string) {
		if n < 1 {
			return nil, "kh needs to keep at least one die"
		}
		return keep{n: n, highest: true}, ""
	}},
	{ident: "kl", build: func(n int) (Adapter, string) {
		if n < 1 {
			return nil, "kl needs to keep at least one die"
		}
		return keep{n: n}, ""
	}},
	{ident: "r", build: func(n int) (Adapter, string) {
		return reroll{value: n}, ""
	}},
}

func parseAdapter(token, suffix string) (Adapter, error) {
	for _, g := range generators {
		if !strings.HasPrefix(suffix, g.ident) {
			continue
		}
		arg := suffix[len(g.ident):]
		if arg == "" || digits(arg) != len(arg) {
			return nil, Errorf(token, "modifier %q needs a number, e.g. %s2", g.ident, g.ident)
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, Errorf(token, "modifier number %q is too large", arg)
		}
		a, msg := g.build(n)
		if a == nil {
			return nil, Errorf(token, "%s", msg)
		}
		return a, nil
	}
	return nil, Errorf(token, "unknown dice modifier %q", suffix)
}

// reroll rerolls, once, every die that shows value.
type reroll struct{ value int }

func (r reroll) String() string { return "r" + strconv.Itoa(r.value) }

func (r reroll) apply(s *rng.Stream, d Dice, dice []Die) {
	for i := range dice {
		if dice[i].Value != r.value {
			continue
		}
		fresh := d.rollDie(s)
		fresh.Previous = append(dice[i].Previous, dice[i].Value)
		dice[i] = fresh
	}
}

func (r reroll) rollQuiet(s *rng.Stream, d Dice) int {
	total := 0
	for i := 0; i < d.Count; i++ {
		v := d.RollOne(s)
		if v == r.value {
			v = d.RollOne(s)
		}
		total += v
	}
	return total
}

// single returns the one-die distribution after the reroll:
// p'(v) = p(v)^2 and p'(x) = p(x)(1 + p(v)) elsewhere.
func (r reroll) single(d Dice) prob.ProbDist {
	base := d.SingleDist()
	pr := base.P(r.value)
	if pr == 0 {
		return base
	}
	w := make(map[int]float64, base.Len())
	base.Each(func(x int, p float64) bool {
		if x == r.value {
			w[x] = p * pr
		} else {
			w[x] = p * (1 + pr)
		}
		return true
	})
	return prob.FromWeights(w)
}

func (r reroll) dist(d Dice, lim prob.Limits) (prob.ProbDist, bool) {
	return r.single(d).Times(d.Count, lim), true
}

// keep keeps the n highest (or lowest) dice of the group and drops the rest.
type keep struct {
	n       int
	highest bool
}

const (
	keepMaxDice  = 150
	keepWorkCap  = 50_000_000
	keepSortSize = 4096
)

func (k keep) String() string {
	if k.highest {
		return "kh" + strconv.Itoa(k.n)
	}
	return "kl" + strconv.Itoa(k.n)
}

func (k keep) apply(_ *rng.Stream, _ Dice, dice []Die) {
	if k.n >= len(dice) {
		return
	}
	order := make([]int, len(dice))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if k.highest {
			return dice[order[a]].Value > dice[order[b]].Value
		}
		return dice[order[a]].Value < dice[order[b]].Value
	})
	for _, i := range order[k.n:] {
		dice[i].Dropped = true
	}
}

func (k keep) rollQuiet(s *rng.Stream, d Dice) int {
	if k.n >= d.Count {
		return Dice{Count: d.Count, Size: d.Size, Advantage: d.Advantage}.RollQuiet(s)
	}
	if d.Count <= keepSortSize {
		vals := make([]int, d.Count)
		for i := range vals {
			vals[i] = d.RollOne(s)
		}
		sort.Ints(vals)
		if k.highest {
			vals = vals[len(vals)-k.n:]
		} else {
			vals = vals[:k.n]
		}
		total := 0
		for _, v := range vals {
			total += v
		}
		return total
	}
	// Large groups: count faces instead of holding every die.
	hist := make([]int, d.Size+1)
	for i := 0; i < d.Count; i++ {
		hist[d.RollOne(s)]++
	}
	total, left := 0, k.n
	step, face := -1, d.Size
	if !k.highest {
		step, face = 1, 1
	}
	for ; left > 0 && face >= 1 && face <= d.Size; face += step {
		take := min(hist[face], left)
		total += take * face
		left -= take
	}
	return total
}

// dist runs a multinomial dynamic programme over the faces, from the most to the
// least preferred: W[m][s] is the weight of having placed m dice with kept sum s.
func (k keep) dist(d Dice, lim prob.Limits) (prob.ProbDist, bool) {
	single := d.SingleDist()
	n := d.Count
	if k.n >= n {
		return single.Times(n, lim), true
	}
	faces := single.Masses()
	if k.highest {
		for i, j := 0, len(faces)-1; i < j; i, j = i+1, j-1 {
			faces[i], faces[j] = faces[j], faces[i]
		}
	}
	span := k.n*d.Size + 1
	if n > keepMaxDice || float64(len(faces))*float64(n)*float64(n)*float64(span) > keepWorkCap {
		return prob.ProbDist{}, false
	}

	w := newGrid(n+1, span)
	w[0][0] = 1
	for _, f := range faces {
		next := newGrid(n+1, span)
		for m := 0; m <= n; m++ {
			kept := max(0, k.n-m)
			for sum, weight := range w[m] {
				if weight == 0 {
					continue
				}
				t := 1.0
				for c := 0; m+c <= n; c++ {
					if c > 0 {
						t *= f.P / float64(c)
					}
					next[m+c][sum+min(c, kept)*f.Outcome] += weight * t
				}
			}
		}
		w = next
	}

	fact := 1.0
	for i := 2; i <= n; i++ {
		fact *= float64(i)
	}
	weights := make(map[int]float64, span)
	for sum, weight := range w[n] {
		if p := weight * fact; p > 0 && !math.IsInf(p, 0) {
			weights[sum] = p
		}
	}
	return prob.FromWeights(weights), true
}

func newGrid(rows, cols int) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
	}
	return g
}
