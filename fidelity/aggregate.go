package fidelity

import "sort"

// CriterionStats summarizes one rubric criterion across a run.
type CriterionStats struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Count    int     `json:"count"`
}

// Summary is the per-run metric roll-up included in the run artifact.
type Summary struct {
	Criteria    map[string]CriterionStats `json:"criteria"`
	Turns       int                       `json:"turns"`
	Errors      int                       `json:"errors"`
	ErrorRate   float64                   `json:"error_rate"`
	MeanOverall float64                   `json:"mean_overall"`
}

// CriterionNames returns the summarized criterion names in sorted order,
// for deterministic reporting.
func (s *Summary) CriterionNames() []string {
	names := make([]string, 0, len(s.Criteria))
	for name := range s.Criteria {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregator accumulates per-turn MetricSets into a run Summary.
// It belongs to a single run and is not safe for concurrent use; the engine
// feeds it sequentially between suspension points.
type Aggregator struct {
	sums    map[string]float64
	sumSqs  map[string]float64
	counts  map[string]int
	overall float64
	turns   int
	errors  int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		sums:   make(map[string]float64),
		sumSqs: make(map[string]float64),
		counts: make(map[string]int),
	}
}

// Add records one scored turn.
func (a *Aggregator) Add(ms MetricSet) {
	a.turns++
	a.overall += ms.Overall
	for name, score := range ms.Scores {
		a.sums[name] += score
		a.sumSqs[name] += score * score
		a.counts[name]++
	}
}

// AddError records a turn that failed before it could be scored.
func (a *Aggregator) AddError() {
	a.errors++
}

// Turns returns the number of scored turns so far.
func (a *Aggregator) Turns() int {
	return a.turns
}

// Summarize rolls the accumulated scores into a Summary. It can be called
// mid-run for a stopped run; the summary then covers only the partial
// transcript.
func (a *Aggregator) Summarize() Summary {
	s := Summary{
		Criteria: make(map[string]CriterionStats, len(a.sums)),
		Turns:    a.turns,
		Errors:   a.errors,
	}
	for name, sum := range a.sums {
		n := float64(a.counts[name])
		mean := sum / n
		// sumSq/n - mean^2 can dip fractionally below zero from rounding.
		variance := max(a.sumSqs[name]/n-mean*mean, 0)
		s.Criteria[name] = CriterionStats{
			Mean:     mean,
			Variance: variance,
			Count:    a.counts[name],
		}
	}
	if a.turns > 0 {
		s.MeanOverall = a.overall / float64(a.turns)
	}
	if total := a.turns + a.errors; total > 0 {
		s.ErrorRate = float64(a.errors) / float64(total)
	}
	return s
}
