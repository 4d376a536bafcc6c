package engine

import (
	"fmt"
	"strconv"

	"github.com/DaanHessen/rollwright/internal/dice"
	"github.com/DaanHessen/rollwright/internal/prob"
)

func init() {
	register(
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "crit",
				Title: "Critical damage",
				Usage: "crit(dice)",
				Doc: "Rolls damage dice for a critical hit. A first roll above the average is doubled, " +
					"otherwise the dice are rolled a second time and added.",
			},
			build: buildCrit,
		},
		&function{
			FunctionDoc: FunctionDoc{
				Name:  "atk",
				Title: "Attack",
				Usage: "atk(dmg dice, dmg bonus, to hit bonus, ac[, adv|dis])",
				Doc: "Rolls a d20 attack against an armour class and the damage it deals. " +
					"A natural 1 always misses, a natural 20 always hits with critical damage.",
			},
			build: buildAttack,
		},
	)
}

type crit struct {
	call
	d    dice.Dice
	mean float64
}

func newCrit(c call, d dice.Dice) crit {
	return crit{call: c, d: d, mean: d.Mean()}
}

func buildCrit(a args) (Node, error) {
	if err := a.need(1, 1); err != nil {
		return nil, err
	}
	d, err := a.diceArg(0)
	if err != nil {
		return nil, err
	}
	return newCrit(a.toCall(), d), nil
}

func (n crit) Roll(env *Env) RollOut {
	first, t := n.d.Roll(env.Stream)
	out := RollOut{Value: first}
	out.Trace.Append("[")
	out.Trace.Extend(t)
	if float64(first) > n.mean {
		out.Value *= 2
		out.Trace.AppendColored("*2")
	} else {
		second, t2 := n.d.Roll(env.Stream)
		out.Value += second
		out.Trace.Append(" + ")
		out.Trace.Extend(t2)
	}
	out.Trace.Append("]")
	return out
}

func (n crit) RollQuiet(env *Env) int {
	first := n.d.RollQuiet(env.Stream)
	if float64(first) > n.mean {
		return 2 * first
	}
	return first + n.d.RollQuiet(env.Stream)
}

// Dist doubles the part of the distribution above the mean and convolves the rest
// with a second roll.
func (n crit) Dist(env *Env) prob.ProbDist {
	base, ok := n.d.Dist(env.Limits)
	if !ok {
		return env.Bruteforce(n)
	}
	high, pHigh := base.Restrict(func(v int) bool { return float64(v) > n.mean })
	low, pLow := base.Restrict(func(v int) bool { return float64(v) <= n.mean })
	return prob.Mix(
		prob.Weighted{P: pHigh, Dist: high.Map(func(v int) int { return 2 * v })},
		prob.Weighted{P: pLow, Dist: low.Add(base, env.Limits)},
	)
}

func (n crit) Clone() Node { return n }

type attack struct {
	call
	dmg      dice.Dice
	crit     crit
	d20      dice.Dice
	dmgBonus int
	toHit    int
	ac       int
}

func buildAttack(a args) (Node, error) {
	if err := a.need(4, 5); err != nil {
		return nil, err
	}
	dmg, err := a.diceArg(0)
	if err != nil {
		return nil, err
	}
	n := attack{call: a.toCall(), dmg: dmg, d20: dice.New(1, 20, 0)}
	if n.dmgBonus, err = a.intArg(1, "damage bonus"); err != nil {
		return nil, err
	}
	if n.toHit, err = a.intArg(2, "to hit bonus"); err != nil {
		return nil, err
	}
	if n.ac, err = a.intArg(3, "armour class"); err != nil {
		return nil, err
	}
	if a.has(4) {
		switch a.list[4] {
		case "adv":
			n.d20.Advantage = 1
		case "dis":
			n.d20.Advantage = -1
		default:
			return nil, a.errorf("last argument must be adv or dis, got %q", a.list[4])
		}
	}
	n.crit = newCrit(call{name: "crit", args: a.list[:1]}, dmg)
	return n, nil
}

func (n attack) resolve(env *Env, natural int) int {
	switch {
	case natural == 1:
		return 0
	case natural == 20:
		return n.crit.RollQuiet(env) + n.dmgBonus
	case natural+n.toHit >= n.ac:
		return n.dmg.RollQuiet(env.Stream) + n.dmgBonus
	}
	return 0
}

func (n attack) Roll(env *Env) RollOut {
	natural := n.d20.RollOne(env.Stream)
	dmg := n.resolve(env, natural)
	out := RollOut{Value: dmg}
	out.Trace.Append("[")
	switch natural {
	case 20:
		out.Trace.AppendColored(strconv.Itoa(natural))
	case 1:
		out.Trace.AppendStruck(strconv.Itoa(natural))
	default:
		out.Trace.Append(strconv.Itoa(natural))
	}
	out.Trace.Append(fmt.Sprintf(" + %d to hit against %d -> %d]", n.toHit, n.ac, dmg))
	return out
}

func (n attack) RollQuiet(env *Env) int {
	return n.resolve(env, n.d20.RollOne(env.Stream))
}

func (n attack) Dist(env *Env) prob.ProbDist {
	dmg, ok := n.dmg.Dist(env.Limits)
	if !ok {
		return env.Bruteforce(n)
	}
	d20 := n.d20.SingleDist()
	pMiss, pHit := d20.P(1), 0.0
	for r := 2; r <= 19; r++ {
		if r+n.toHit >= n.ac {
			pHit += d20.P(r)
		} else {
			pMiss += d20.P(r)
		}
	}
	return prob.Mix(
		prob.Weighted{P: pMiss, Dist: prob.Point(0)},
		prob.Weighted{P: pHit, Dist: dmg.Shift(n.dmgBonus)},
		prob.Weighted{P: d20.P(20), Dist: n.crit.Dist(env).Shift(n.dmgBonus)},
	)
}

func (n attack) Clone() Node { return n }
