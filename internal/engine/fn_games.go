package engine

import (
	"strconv"

	"github.com/DaanHessen/rollwright/internal/dice"
	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
)

const (
	maxEmpowerDice = 1000
	maxCards       = 1000
	blackjackLimit = 21
)

func init() {
	register(
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "emp",
				Title: "Empowered damage",
				Usage: "emp(dice, prof)",
				Doc: "Rolls damage as if empowered: up to prof dice that came up below average " +
					"are rerolled once, lowest first.",
			},
			build: buildEmpower,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "stat",
				Title: "Ability score",
				Usage: "stat()",
				Doc:   "Rolls 4d6 and drops the lowest die.",
			},
			build: buildStat,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "blackjack",
				Title: "Blackjack",
				Usage: "blackjack(cards[, initial])",
				Doc: "Draws the given number of cards onto a hand worth initial. Aces count 11 " +
					"or 1, a bust scores 0.",
			},
			build: buildBlackjack,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "bet",
				Title: "Come-out bet",
				Usage: "bet(chips)",
				Doc:   "One come-out roll of 2d6. A 2, 3 or 12 loses the chips.",
			},
			build: buildBet,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "bet2",
				Title: "Point bet",
				Usage: "bet2(chips, late[, p])",
				Doc: "A come-out roll followed by late chips riding on the point. With p the " +
					"point is backed to be rolled again before a 7.",
			},
			build: func(a args) (Node, error) { return buildCraps(a, 'p') },
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "bet3",
				Title: "Selective point bet",
				Usage: "bet3(chips, late[, s])",
				Doc:   "Like bet2, but with s the point is only backed on 5, 6, 8 or 9.",
			},
			build: func(a args) (Node, error) { return buildCraps(a, 's') },
		},
	)
}

type empower struct {
	call
	d      dice.Dice
	single dice.Dice
	prof   int
}

func buildEmpower(a args) (Node, error) {
	if err := a.need(2, 2); err != nil {
		return nil, err
	}
	d, err := a.diceArg(0)
	if err != nil {
		return nil, err
	}
	if d.Count > maxEmpowerDice {
		return nil, a.errorf("at most %d dice can be empowered, got %d", maxEmpowerDice, d.Count)
	}
	prof, err := a.intArg(1, "proficiency bonus")
	if err != nil {
		return nil, err
	}
	if prof < 0 {
		return nil, a.errorf("proficiency bonus %d must not be negative", prof)
	}
	return empower{
		call:   a.toCall(),
		d:      d,
		single: dice.New(1, d.Size, d.Advantage),
		prof:   prof,
	}, nil
}

// roll rerolls the lowest die below the average until the rerolls run out or no
// eligible die remains. Each die is rerolled at most once.
func (n empower) roll(s *rng.Stream) []dice.Die {
	dies := make([]dice.Die, n.d.Count)
	for i := range dies {
		dies[i] = n.single.RollDice(s)[0]
	}
	avg := (n.d.Size + 1) / 2
	rerolled := make([]bool, len(dies))
	for left := n.prof; left > 0; left-- {
		low := -1
		for i, die := range dies {
			if !rerolled[i] && die.Value < avg && (low < 0 || die.Value < dies[low].Value) {
				low = i
			}
		}
		if low < 0 {
			break
		}
		fresh := n.single.RollDice(s)[0]
		fresh.Previous = []int{dies[low].Value}
		dies[low] = fresh
		rerolled[low] = true
	}
	return dies
}

func (n empower) Roll(env *Env) RollOut {
	var out RollOut
	out.Trace.Append("[")
	for i, die := range n.roll(env.Stream) {
		if i > 0 {
			out.Trace.Append(" ")
		}
		out.Value += die.Value
		out.Trace.Extend(die.Trace())
	}
	out.Trace.Append("]")
	return out
}

func (n empower) RollQuiet(env *Env) int {
	total := 0
	for _, die := range n.roll(env.Stream) {
		total += die.Value
	}
	return total
}

func (n empower) Dist(env *Env) prob.ProbDist { return env.Bruteforce(n) }

func (n empower) Clone() Node { return n }

var statDice = func() dice.Dice {
	d, err := dice.Parse("4d6kh3")
	if err != nil {
		panic(err)
	}
	return d
}()

type stat struct{ call }

func buildStat(a args) (Node, error) {
	if err := a.need(0, 0); err != nil {
		return nil, err
	}
	return stat{call: a.toCall()}, nil
}

func (n stat) Roll(env *Env) RollOut {
	v, t := statDice.Roll(env.Stream)
	return RollOut{Value: v, Trace: t}
}

func (n stat) RollQuiet(env *Env) int { return statDice.RollQuiet(env.Stream) }

func (n stat) Dist(env *Env) prob.ProbDist {
	if d, ok := statDice.Dist(env.Limits); ok {
		return d
	}
	return env.Bruteforce(n)
}

func (n stat) Clone() Node { return n }

// deck is the value of a card drawn from an endless shoe.
var deck = prob.FromWeights(map[int]float64{
	2: 1, 3: 1, 4: 1, 5: 1, 6: 1, 7: 1, 8: 1, 9: 1, 10: 4, 11: 1,
})

type blackjack struct {
	call
	cards   int
	initial int
}

func buildBlackjack(a args) (Node, error) {
	if err := a.need(1, 2); err != nil {
		return nil, err
	}
	cards, err := a.intArg(0, "number of cards")
	if err != nil {
		return nil, err
	}
	if cards < 0 || cards > maxCards {
		return nil, a.errorf("number of cards %d must be between 0 and %d", cards, maxCards)
	}
	n := blackjack{call: a.toCall(), cards: cards}
	if a.has(1) {
		if n.initial, err = a.intArg(1, "initial hand value"); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (n blackjack) hand(s *rng.Stream) ([]int, int) {
	hand := make([]int, n.cards)
	total := n.initial
	for i := range hand {
		hand[i] = deck.Sample(s)
		total += hand[i]
	}
	for i := 0; i < len(hand) && total > blackjackLimit; i++ {
		if hand[i] == 11 {
			hand[i] = 1
			total -= 10
		}
	}
	if total > blackjackLimit {
		return hand, 0
	}
	return hand, total
}

func (n blackjack) Roll(env *Env) RollOut {
	hand, total := n.hand(env.Stream)
	out := RollOut{Value: total}
	out.Trace.Append("[")
	for i, c := range hand {
		if i > 0 {
			out.Trace.Append(" ")
		}
		out.Trace.Append(strconv.Itoa(c))
	}
	out.Trace.Append("]")
	if total == 0 && n.cards > 0 {
		out.Trace.AppendStruck(" bust")
	}
	return out
}

func (n blackjack) RollQuiet(env *Env) int {
	_, total := n.hand(env.Stream)
	return total
}

func (n blackjack) Dist(env *Env) prob.ProbDist { return env.Bruteforce(n) }

func (n blackjack) Clone() Node { return n }

var (
	twoDice = dice.New(2, 6, 0)
	twoD6   = prob.Uniform(1, 6).Add(prob.Uniform(1, 6), prob.DefaultLimits())
)

// comeOut classifies a come-out roll: craps loses, natural wins, anything else sets the point.
func comeOut(roll int) (craps, natural bool) {
	switch roll {
	case 2, 3, 12:
		return true, false
	case 7, 11:
		return false, true
	}
	return false, false
}

type bet struct {
	call
	chips int
}

func buildBet(a args) (Node, error) {
	if err := a.need(1, 1); err != nil {
		return nil, err
	}
	chips, err := a.intArg(0, "number of chips")
	if err != nil {
		return nil, err
	}
	return bet{call: a.toCall(), chips: chips}, nil
}

func (n bet) outcome(s *rng.Stream) (int, int) {
	roll := twoDice.RollQuiet(s)
	if craps, _ := comeOut(roll); craps {
		return roll, 0
	}
	return roll, n.chips
}

func (n bet) Roll(env *Env) RollOut {
	roll, v := n.outcome(env.Stream)
	return crapsOut(roll, v)
}

func (n bet) RollQuiet(env *Env) int {
	_, v := n.outcome(env.Stream)
	return v
}

func (n bet) Dist(env *Env) prob.ProbDist { return env.Bruteforce(n) }

func (n bet) Clone() Node { return n }

func crapsOut(roll, v int) RollOut {
	var out RollOut
	out.Value = v
	out.Trace.Append("[" + strconv.Itoa(roll) + " -> " + strconv.Itoa(v) + "]")
	return out
}

// craps is a come-out roll followed, when a point is set, by late chips riding on it.
// flag backs the point to repeat before a 7; only, when set, limits which points are backed.
type craps struct {
	call
	chips int
	late  int
	flag  bool
	only  func(point int) bool
}

func buildCraps(a args, flag byte) (Node, error) {
	if err := a.need(2, 3); err != nil {
		return nil, err
	}
	n := craps{call: a.toCall()}
	var err error
	if n.chips, err = a.intArg(0, "number of chips"); err != nil {
		return nil, err
	}
	if n.late, err = a.intArg(1, "number of late chips"); err != nil {
		return nil, err
	}
	if a.has(2) {
		if a.list[2] != string(flag) {
			return nil, a.errorf("third argument must be %q, got %q", string(flag), a.list[2])
		}
		n.flag = true
	}
	if flag == 's' {
		n.only = func(point int) bool { return point == 5 || point == 6 || point == 8 || point == 9 }
	}
	return n, nil
}

func (n craps) backs(point int) bool {
	if n.only != nil {
		return !n.flag || n.only(point)
	}
	return n.flag
}

// multiplier is 0 when the late chips are lost, 1 when they are kept and 2 when doubled.
func (n craps) multiplier(s *rng.Stream, point int) int {
	w := map[int]float64{}
	if n.backs(point) {
		w[0] = twoD6.P(7) + twoD6.P(2)
		w[2] = twoD6.P(point)
	} else {
		w[0] = twoD6.P(point) + twoD6.P(2)
		w[1] = twoD6.P(7)
	}
	return prob.FromWeights(w).Sample(s)
}

func (n craps) outcome(s *rng.Stream) (int, int) {
	roll := twoDice.RollQuiet(s)
	lost, natural := comeOut(roll)
	switch {
	case lost:
		return roll, n.late
	case natural:
		return roll, n.chips + n.late
	}
	return roll, (n.chips + n.late) * n.multiplier(s, roll)
}

func (n craps) Roll(env *Env) RollOut {
	roll, v := n.outcome(env.Stream)
	return crapsOut(roll, v)
}

func (n craps) RollQuiet(env *Env) int {
	_, v := n.outcome(env.Stream)
	return v
}

func (n craps) Dist(env *Env) prob.ProbDist { return env.Bruteforce(n) }

func (n craps) Clone() Node { return n }
