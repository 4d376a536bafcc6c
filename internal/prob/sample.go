package prob

import "sort"

// SampleDist counts observed outcomes.
type SampleDist struct {
	counts map[int]uint64
	total  uint64
}

func NewSampleDist() *SampleDist {
	return &SampleDist{counts: make(map[int]uint64)}
}

func (s *SampleDist) Add(v int) { s.AddN(v, 1) }

func (s *SampleDist) AddN(v int, n uint64) {
	if n == 0 {
		return
	}
	if s.counts == nil {
		s.counts = make(map[int]uint64)
	}
	s.counts[v] += n
	s.total += n
}

// Remove forgets every observation of v.
func (s *SampleDist) Remove(v int) {
	s.total -= s.counts[v]
	delete(s.counts, v)
}

// Merge folds other's counts into s.
func (s *SampleDist) Merge(other *SampleDist) {
	if other == nil {
		return
	}
	for v, n := range other.counts {
		s.AddN(v, n)
	}
}

func (s *SampleDist) Count(v int) uint64 { return s.counts[v] }
func (s *SampleDist) Total() uint64      { return s.total }
func (s *SampleDist) Len() int           { return len(s.counts) }

// ProbDist divides every count by the total. An empty histogram yields the point mass at 0.
func (s *SampleDist) ProbDist() ProbDist {
	if s.total == 0 {
		return ProbDist{}
	}
	ms := make([]Mass, 0, len(s.counts))
	t := float64(s.total)
	for v, n := range s.counts {
		ms = append(ms, Mass{Outcome: v, P: float64(n) / t})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Outcome < ms[j].Outcome })
	return ProbDist{masses: ms}
}

// Sample draws an outcome with probability proportional to its count.
func (s *SampleDist) Sample(src Float64Source) int {
	return s.ProbDist().Sample(src)
}
