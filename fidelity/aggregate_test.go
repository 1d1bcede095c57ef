package fidelity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorMeanAndVariance(t *testing.T) {
	agg := NewAggregator()
	agg.Add(MetricSet{Scores: map[string]float64{"c": 0.2}, Overall: 0.2})
	agg.Add(MetricSet{Scores: map[string]float64{"c": 0.4}, Overall: 0.4})
	agg.Add(MetricSet{Scores: map[string]float64{"c": 0.6}, Overall: 0.6})

	s := agg.Summarize()
	require.Contains(t, s.Criteria, "c")
	assert.InDelta(t, 0.4, s.Criteria["c"].Mean, 1e-9)
	// Population variance of {0.2, 0.4, 0.6}.
	assert.InDelta(t, 0.0266666667, s.Criteria["c"].Variance, 1e-9)
	assert.Equal(t, 3, s.Criteria["c"].Count)
	assert.Equal(t, 3, s.Turns)
	assert.InDelta(t, 0.4, s.MeanOverall, 1e-9)
}

func TestAggregatorVarianceNeverNegative(t *testing.T) {
	agg := NewAggregator()
	// Identical fractional scores: the naive sumSq/n - mean^2 formula can
	// round to a tiny negative number here.
	for i := 0; i < 7; i++ {
		agg.Add(MetricSet{Scores: map[string]float64{"c": 0.1}, Overall: 0.1})
	}

	s := agg.Summarize()
	assert.GreaterOrEqual(t, s.Criteria["c"].Variance, 0.0)
	assert.InDelta(t, 0, s.Criteria["c"].Variance, 1e-12)
}

func TestAggregatorErrorRate(t *testing.T) {
	agg := NewAggregator()
	agg.Add(MetricSet{Scores: map[string]float64{"c": 1}, Overall: 1})
	agg.AddError()

	s := agg.Summarize()
	assert.Equal(t, 1, s.Errors)
	assert.InDelta(t, 0.5, s.ErrorRate, 1e-9)
}

func TestAggregatorEmpty(t *testing.T) {
	s := NewAggregator().Summarize()
	assert.Zero(t, s.Turns)
	assert.Zero(t, s.MeanOverall)
	assert.Zero(t, s.ErrorRate)
	assert.Empty(t, s.Criteria)
}

func TestSummaryCriterionNamesSorted(t *testing.T) {
	agg := NewAggregator()
	agg.Add(MetricSet{Scores: map[string]float64{"zeta": 1, "alpha": 1, "mid": 1}, Overall: 1})

	s := agg.Summarize()
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, s.CriterionNames())
}
