// Package fidelity scores character behavior against per-character rubrics.
//
// Scoring is a pure function of the rubric and the turn's recorded input and
// output. It never consults wall-clock time or call order, so identical
// transcripts always yield identical scores. Per-run aggregation (mean and
// variance per criterion, turn count, error rate) happens in Aggregator.
package fidelity

import (
	"strings"

	"github.com/dcs-research/simengine/definition"
)

// MetricSet holds one turn's rubric scores. Every score is in [0, 1].
// Overall is the weight-averaged score used by the shared-simulation
// wrapper as the persona-drift signal.
type MetricSet struct {
	Scores  map[string]float64 `json:"scores"`
	Overall float64            `json:"overall"`
}

// Score evaluates each rubric criterion against a turn's input and output.
func Score(rubric definition.Rubric, turnInput, turnOutput string) MetricSet {
	ms := MetricSet{Scores: make(map[string]float64, len(rubric.Criteria))}
	if len(rubric.Criteria) == 0 {
		ms.Overall = 1.0
		return ms
	}

	var weighted, totalWeight float64
	for _, c := range rubric.Criteria {
		score := scoreCriterion(c, turnInput, turnOutput)
		ms.Scores[c.Name] = score

		weight := c.Weight
		if weight == 0 {
			weight = 1
		}
		weighted += score * weight
		totalWeight += weight
	}
	ms.Overall = weighted / totalWeight
	return ms
}

func scoreCriterion(c definition.Criterion, _, output string) float64 {
	switch c.Method {
	case definition.MethodKeywordOverlap:
		return keywordOverlap(c.Keywords, output)
	case definition.MethodLengthBounds:
		return lengthBounds(c.MinWords, c.MaxWords, output)
	case definition.MethodConstraintScan:
		return constraintScan(c.Phrases, output)
	default:
		// Unknown methods are rejected at definition load; scoring one
		// here means the rubric bypassed the loader.
		return 0
	}
}

// keywordOverlap returns the fraction of keywords present in the output.
func keywordOverlap(keywords []string, output string) float64 {
	if len(keywords) == 0 {
		return 1
	}
	lower := strings.ToLower(output)
	found := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// lengthBounds returns 1 inside the declared word-count bounds and decays
// proportionally outside them.
func lengthBounds(minWords, maxWords int, output string) float64 {
	words := len(strings.Fields(output))
	if minWords > 0 && words < minWords {
		return float64(words) / float64(minWords)
	}
	if maxWords > 0 && words > maxWords {
		return float64(maxWords) / float64(words)
	}
	return 1
}

// constraintScan returns 1 minus the fraction of forbidden phrases found in
// the output.
func constraintScan(phrases []string, output string) float64 {
	if len(phrases) == 0 {
		return 1
	}
	lower := strings.ToLower(output)
	violations := 0
	for _, phrase := range phrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			violations++
		}
	}
	return 1 - float64(violations)/float64(len(phrases))
}
