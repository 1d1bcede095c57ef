package events

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcs-research/simengine/fidelity"
	"github.com/dcs-research/simengine/types"
)

func testArtifact() *RunArtifact {
	return &RunArtifact{
		Meta: RunMeta{
			RunID:       "explore-cli-1234",
			Game:        "explore",
			GameVersion: "1.0.0",
			Status:      "completed",
			Turns:       3,
			Exited:      true,
			ExitReason:  "user exit",
			StartedAt:   time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC),
			EndedAt:     time.Date(2026, 8, 27, 10, 5, 0, 0, time.UTC),
			Environment: CaptureEnvironment(),
		},
		Transcript: []*types.Message{
			{Type: types.MessageUser, Content: "I tap the table.", Turn: 1},
			{Type: types.MessageAssistant, Content: "The worm curls toward the vibration.", Character: "flatworm", Turn: 1},
		},
		Metrics: &fidelity.Summary{Turns: 3, MeanOverall: 0.8},
	}
}

func TestArtifactWriteAndRead(t *testing.T) {
	writer, err := NewArtifactWriter(t.TempDir())
	require.NoError(t, err)

	dir, err := writer.Write(testArtifact())
	require.NoError(t, err)

	got, err := ReadArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, "explore-cli-1234", got.Meta.RunID)
	assert.Equal(t, "user exit", got.Meta.ExitReason)
	assert.True(t, got.Meta.Exited)
	require.Len(t, got.Transcript, 2)
	assert.Equal(t, "flatworm", got.Transcript[1].Character)
	require.NotNil(t, got.Metrics)
	assert.InDelta(t, 0.8, got.Metrics.MeanOverall, 1e-9)
}

func TestArtifactDirectoryIsCompleteOrAbsent(t *testing.T) {
	base := t.TempDir()
	writer, err := NewArtifactWriter(base)
	require.NoError(t, err)

	artifact := testArtifact()
	dir, err := writer.Write(artifact)
	require.NoError(t, err)

	// The published directory must contain all files at once.
	for _, name := range []string{transcriptFile, runFile, metricsFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// No temp scaffolding left behind.
	entries, err := os.ReadDir(base)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, artifact.Meta.RunID, entries[0].Name())
}

func TestArtifactWriteReplacesPrevious(t *testing.T) {
	writer, err := NewArtifactWriter(t.TempDir())
	require.NoError(t, err)

	first := testArtifact()
	first.Meta.Turns = 1
	_, err = writer.Write(first)
	require.NoError(t, err)

	second := testArtifact()
	second.Meta.Turns = 5
	dir, err := writer.Write(second)
	require.NoError(t, err)

	got, err := ReadArtifact(dir)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Meta.Turns)
}

func TestArtifactWithoutMetrics(t *testing.T) {
	writer, err := NewArtifactWriter(t.TempDir())
	require.NoError(t, err)

	artifact := testArtifact()
	artifact.Metrics = nil
	dir, err := writer.Write(artifact)
	require.NoError(t, err)

	got, err := ReadArtifact(dir)
	require.NoError(t, err)
	assert.Nil(t, got.Metrics)
}

func TestArtifactRequiresRunID(t *testing.T) {
	writer, err := NewArtifactWriter(t.TempDir())
	require.NoError(t, err)

	_, err = writer.Write(&RunArtifact{})
	assert.Error(t, err)
}
