package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSubstitutesVariables(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("Narrate {{game}} for {{character}}.", map[string]string{
		"game":      "explore",
		"character": "flatworm",
	})
	require.NoError(t, err)
	assert.Equal(t, "Narrate explore for flatworm.", out)
}

func TestRenderResolvesNestedVariables(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("{{opening}}", map[string]string{
		"opening": "Welcome to {{game}}.",
		"game":    "explore",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to explore.", out)
}

func TestRenderRejectsUnresolvedPlaceholders(t *testing.T) {
	r := NewRenderer()
	_, err := r.Render("Hello {{nobody}}.", map[string]string{"game": "explore"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{nobody}}")
}

func TestRenderPlainTextPassesThrough(t *testing.T) {
	r := NewRenderer()
	out, err := r.Render("No placeholders here.", nil)
	require.NoError(t, err)
	assert.Equal(t, "No placeholders here.", out)
}

func TestMergeLaterMapsWin(t *testing.T) {
	merged := Merge(
		map[string]string{"turn": "1", "game": "explore"},
		map[string]string{"turn": "2"},
	)
	assert.Equal(t, map[string]string{"turn": "2", "game": "explore"}, merged)
}
