// Package bruteforce estimates a distribution by sampling when no closed form exists.
package bruteforce

import (
	"runtime"
	"strconv"
	"time"

	"github.com/DaanHessen/rollwright/internal/prob"
	"github.com/DaanHessen/rollwright/internal/rng"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBudget     = 2 * time.Second
	DefaultMinSamples = 1000
	DefaultMaxSamples = 20_000_000

	warmup      = 16
	checkEvery  = 1024
	overrunRate = 2
)

// Sampler draws one outcome using the given stream.
type Sampler func(s *rng.Stream) int

// Options controls how long and how wide sampling runs.
type Options struct {
	Budget     time.Duration
	Workers    int
	MinSamples int
	MaxSamples int
}

func DefaultOptions() Options {
	return Options{
		Budget:     DefaultBudget,
		Workers:    runtime.NumCPU(),
		MinSamples: DefaultMinSamples,
		MaxSamples: DefaultMaxSamples,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Budget <= 0 {
		o.Budget = d.Budget
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.MinSamples <= 0 {
		o.MinSamples = d.MinSamples
	}
	if o.MaxSamples <= 0 {
		o.MaxSamples = d.MaxSamples
	}
	if o.MaxSamples < o.MinSamples {
		o.MaxSamples = o.MinSamples
	}
	return o
}

// Plan times a warm-up batch and returns how many samples fit in the budget across all workers.
func Plan(sample Sampler, s *rng.Stream, opts Options) (int, *prob.SampleDist) {
	opts = opts.withDefaults()
	seen := prob.NewSampleDist()
	start := time.Now()
	for i := 0; i < warmup; i++ {
		seen.Add(sample(s))
	}
	per := time.Since(start) / warmup
	if per <= 0 {
		per = time.Nanosecond
	}
	n := int(float64(opts.Workers) * float64(opts.Budget) / float64(per))
	return max(opts.MinSamples, min(n, opts.MaxSamples)), seen
}

// Estimate samples in parallel and returns the observed distribution, flagged approximate.
// Worker i draws from s.Child("worker:i"), so a seeded stream gives reproducible shares.
// Per-worker histograms are merged only after every worker has finished.
func Estimate(sample Sampler, s *rng.Stream, opts Options) prob.ProbDist {
	opts = opts.withDefaults()
	total, seen := Plan(sample, s, opts)
	workers := min(opts.Workers, total)
	share := total / workers
	deadline := time.Now().Add(opts.Budget * overrunRate)

	parts := make([]*prob.SampleDist, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		n := share
		if w == 0 {
			n += total % workers
		}
		child := s.Child("worker:" + strconv.Itoa(w))
		g.Go(func() error {
			local := prob.NewSampleDist()
			for i := 0; i < n; i++ {
				local.Add(sample(child))
				if i%checkEvery == checkEvery-1 && time.Now().After(deadline) {
					break
				}
			}
			parts[w] = local
			return nil
		})
	}
	_ = g.Wait()

	merged := seen
	for _, p := range parts {
		merged.Merge(p)
	}
	return merged.ProbDist().AsApproximate()
}
