package prob

import (
	"errors"
	"time"
)

const (
	// Tolerance is how far a distribution's total mass may drift from 1.
	Tolerance = 0.01

	DefaultConvolutionBudget = 2 * time.Second
	DefaultCheckInterval     = 20_000
	DefaultCLTThreshold      = 1000
	DefaultMaxNormalPoints   = 20_001

	// DefaultPruneRatio drops masses under a thousandth of the peak when displaying.
	DefaultPruneRatio = 1.0 / 1000

	denseLimit = 1 << 22
)

// ErrNotNormalized is returned when raw masses do not sum to 1.
var ErrNotNormalized = errors.New("prob: masses do not sum to 1")

// ErrNegativeMass is returned when a raw mass is negative or NaN.
var ErrNegativeMass = errors.New("prob: negative or NaN mass")

// Limits bounds the work an exact operation may do before it gives up.
type Limits struct {
	// ConvolutionBudget is the wall clock allowance of a single convolution,
	// or of the whole chain inside Times and Compound.
	ConvolutionBudget time.Duration
	// CheckInterval is how many inner iterations run between clock checks.
	CheckInterval int
	// CLTThreshold is the repeat count from which Times goes straight to a normal approximation.
	CLTThreshold int
	// MaxNormalPoints caps the support of a normal approximation.
	MaxNormalPoints int
}

func DefaultLimits() Limits {
	return Limits{
		ConvolutionBudget: DefaultConvolutionBudget,
		CheckInterval:     DefaultCheckInterval,
		CLTThreshold:      DefaultCLTThreshold,
		MaxNormalPoints:   DefaultMaxNormalPoints,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.ConvolutionBudget <= 0 {
		l.ConvolutionBudget = d.ConvolutionBudget
	}
	if l.CheckInterval <= 0 {
		l.CheckInterval = d.CheckInterval
	}
	if l.CLTThreshold <= 0 {
		l.CLTThreshold = d.CLTThreshold
	}
	if l.MaxNormalPoints <= 0 {
		l.MaxNormalPoints = d.MaxNormalPoints
	}
	return l
}

// Deadline returns when a budget of l.ConvolutionBudget starting now runs out.
func (l Limits) Deadline() time.Time {
	return time.Now().Add(l.withDefaults().ConvolutionBudget)
}

// clock counts iterations and reports once the deadline has passed.
type clock struct {
	deadline time.Time
	interval int
	n        int
}

func newClock(l Limits) *clock {
	return &clock{deadline: time.Now().Add(l.ConvolutionBudget), interval: l.CheckInterval}
}

func (c *clock) tick() bool {
	c.n++
	if c.n < c.interval {
		return true
	}
	c.n = 0
	return time.Now().Before(c.deadline)
}
