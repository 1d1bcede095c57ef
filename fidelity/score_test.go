package fidelity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcs-research/simengine/definition"
)

func testRubric() definition.Rubric {
	return definition.Rubric{
		Criteria: []definition.Criterion{
			{
				Name:     "mentions_senses",
				Method:   definition.MethodKeywordOverlap,
				Keywords: []string{"touch", "vibration", "surface"},
			},
			{
				Name:     "concise",
				Method:   definition.MethodLengthBounds,
				MinWords: 3,
				MaxWords: 50,
			},
			{
				Name:    "stays_nonverbal",
				Method:  definition.MethodConstraintScan,
				Phrases: []string{"says", "shouts"},
				Weight:  2,
			},
		},
	}
}

func TestScoreKeywordOverlap(t *testing.T) {
	ms := Score(testRubric(), "", "The worm senses a faint vibration along the surface.")
	assert.InDelta(t, 2.0/3.0, ms.Scores["mentions_senses"], 1e-9)
}

func TestScoreLengthBounds(t *testing.T) {
	rubric := definition.Rubric{Criteria: []definition.Criterion{
		{Name: "concise", Method: definition.MethodLengthBounds, MinWords: 4, MaxWords: 6},
	}}

	assert.Equal(t, 1.0, Score(rubric, "", "one two three four five").Scores["concise"])
	assert.InDelta(t, 0.5, Score(rubric, "", "one two").Scores["concise"], 1e-9)
	assert.InDelta(t, 0.5, Score(rubric, "", "a b c d e f g h i j k l").Scores["concise"], 1e-9)
}

func TestScoreConstraintScan(t *testing.T) {
	ms := Score(testRubric(), "", "The worm says hello and glides away.")
	assert.InDelta(t, 0.5, ms.Scores["stays_nonverbal"], 1e-9)

	clean := Score(testRubric(), "", "The worm glides along the surface, feeling vibration and touch.")
	assert.Equal(t, 1.0, clean.Scores["stays_nonverbal"])
}

func TestScoreIsDeterministic(t *testing.T) {
	rubric := testRubric()
	input := "I tap the table twice."
	output := "The worm curls toward the vibration on the surface."

	first := Score(rubric, input, output)
	for i := 0; i < 10; i++ {
		again := Score(rubric, input, output)
		require.Equal(t, first, again, "identical transcripts must yield identical scores")
	}
}

func TestScoreWeightedOverall(t *testing.T) {
	rubric := definition.Rubric{Criteria: []definition.Criterion{
		{Name: "a", Method: definition.MethodKeywordOverlap, Keywords: []string{"present"}},
		{Name: "b", Method: definition.MethodConstraintScan, Phrases: []string{"absent"}, Weight: 3},
	}}

	ms := Score(rubric, "", "present")
	// a scores 1 (weight 1), b scores 1 (weight 3): overall 1.
	assert.Equal(t, 1.0, ms.Overall)

	ms = Score(rubric, "", "nothing here")
	// a scores 0 (weight 1), b scores 1 (weight 3): overall 0.75.
	assert.InDelta(t, 0.75, ms.Overall, 1e-9)
}

func TestScoreEmptyRubric(t *testing.T) {
	ms := Score(definition.Rubric{}, "", "anything")
	assert.Equal(t, 1.0, ms.Overall)
	assert.Empty(t, ms.Scores)
}
