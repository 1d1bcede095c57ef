package definition

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validGame = `
name: explore
version: 1.2.0
authors: [dcs-research]
description: Open-ended exploration scenario.
characters:
  - hid: human-normative
    version: 1.0.0
    short_description: A typical human player.
    abilities: [sight, hearing, speech]
  - hid: flatworm
    version: 2.1.0
    short_description: A planarian flatworm.
    abilities: [mechanosensation]
    constraints: ["speaks in words", "uses vision"]
    rubric:
      criteria:
        - name: stays_nonverbal
          method: constraint_scan
          phrases: ["says", "shouts", "replies verbally"]
        - name: mentions_senses
          method: keyword_overlap
          keywords: [touch, vibration, surface]
        - name: concise
          method: length_bounds
          min_words: 5
          max_words: 120
models:
  - id: scene-model
    provider: openrouter
    model: openai/gpt-5-mini
    temperature: 0.7
    max_tokens: 512
nodes:
  - name: intro
    role: narrator
    model: scene-model
    prompt: "You enter a new space."
  - name: character_turn
    role: participant
    character: flatworm
    model: scene-model
    prompt: "Advance the scene."
  - name: check_end
    role: termination
transitions:
  - from: intro
    to: character_turn
  - from: character_turn
    to: check_end
    when: "turns >= max_turns"
  - from: character_turn
    to: character_turn
flow:
  start: intro
  max_turns: 3
`

func TestLoadValidDefinition(t *testing.T) {
	def, err := Load([]byte(validGame))
	require.NoError(t, err)

	assert.Equal(t, "explore", def.Name)
	assert.Equal(t, "1.2.0", def.Version)
	assert.Len(t, def.Characters, 2)
	assert.Len(t, def.Nodes, 3)
	assert.Equal(t, 3, def.Flow.MaxTurns)

	fw := def.Character("flatworm")
	require.NotNil(t, fw)
	assert.Len(t, fw.Rubric.Criteria, 3)
	assert.Equal(t, MethodConstraintScan, fw.Rubric.Criteria[0].Method)

	require.NotNil(t, def.Model("scene-model"))
	assert.Nil(t, def.Model("missing"))
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	_, err := Load([]byte("nodes: [unterminated"))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	// Drop the version field entirely.
	doc := strings.Replace(validGame, "version: 1.2.0\n", "", 1)
	_, err := Load([]byte(doc))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Contains(t, defErr.Description, "version")
}

func TestLoadRejectsBadSemver(t *testing.T) {
	doc := strings.Replace(validGame, "version: 1.2.0", "version: not-a-version", 1)
	_, err := Load([]byte(doc))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "version", defErr.Field)
}

func TestLoadRejectsUnknownCharacterReference(t *testing.T) {
	doc := strings.Replace(validGame, "character: flatworm", "character: ghost", 1)
	_, err := Load([]byte(doc))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Contains(t, defErr.Error(), "ghost")
}

func TestLoadRejectsUnknownTransitionTarget(t *testing.T) {
	doc := strings.Replace(validGame, "to: check_end", "to: nowhere", 1)
	_, err := Load([]byte(doc))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Contains(t, defErr.Field, "transitions")
}

func TestLoadRejectsNonPositiveMaxTurns(t *testing.T) {
	doc := strings.Replace(validGame, "max_turns: 3", "max_turns: 0", 1)
	_, err := Load([]byte(doc))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
	assert.Equal(t, "flow.max_turns", defErr.Field)
}

func TestLoadRejectsCriterionWithoutParams(t *testing.T) {
	doc := strings.Replace(validGame,
		"phrases: [\"says\", \"shouts\", \"replies verbally\"]",
		"phrases: []", 1)
	_, err := Load([]byte(doc))
	var defErr *DefinitionError
	require.ErrorAs(t, err, &defErr)
}

func TestLoadRejectsDuplicateNodeName(t *testing.T) {
	doc := strings.Replace(validGame, "name: check_end", "name: intro", 1)
	_, err := Load([]byte(doc))
	require.Error(t, err)
}
