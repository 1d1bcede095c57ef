package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dcs-research/simengine/fidelity"
	"github.com/dcs-research/simengine/types"
	"github.com/dcs-research/simengine/version"
)

// Environment fingerprints the process that produced a run, so that scores
// can be compared like-for-like across machines and engine builds.
type Environment struct {
	Engine    string `json:"engine"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Hostname  string `json:"hostname,omitempty"`
}

// CaptureEnvironment records the current process environment.
func CaptureEnvironment() Environment {
	host, _ := os.Hostname()
	return Environment{
		Engine:    version.Version(),
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  host,
	}
}

// RunMeta summarizes how a run ended.
type RunMeta struct {
	RunID       string      `json:"run_id"`
	Game        string      `json:"game"`
	GameVersion string      `json:"game_version"`
	Status      string      `json:"status"`
	Turns       int         `json:"turns"`
	Exited      bool        `json:"exited"`
	ExitReason  string      `json:"exit_reason,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	EndedAt     time.Time   `json:"ended_at"`
	Environment Environment `json:"environment"`
}

// RunArtifact bundles everything a finished (or stopped) run leaves behind:
// the full transcript, the aggregated fidelity summary, and run metadata.
type RunArtifact struct {
	Meta       RunMeta           `json:"meta"`
	Transcript []*types.Message  `json:"transcript"`
	Metrics    *fidelity.Summary `json:"metrics,omitempty"`
}

// Artifact file names inside a run directory.
const (
	transcriptFile = "transcript.jsonl"
	metricsFile    = "metrics.json"
	runFile        = "run.json"
)

// ArtifactWriter persists run artifacts to disk. Each run gets its own
// directory named after the run id.
type ArtifactWriter struct {
	dir string
}

// NewArtifactWriter creates a writer rooted at dir.
func NewArtifactWriter(dir string) (*ArtifactWriter, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}
	return &ArtifactWriter{dir: dir}, nil
}

// Write persists the artifact atomically: files are assembled in a temp
// directory and renamed into place, so readers never observe a run directory
// with a transcript but no metadata.
func (w *ArtifactWriter) Write(artifact *RunArtifact) (string, error) {
	if artifact.Meta.RunID == "" {
		return "", fmt.Errorf("artifact has no run ID")
	}

	tmp, err := os.MkdirTemp(w.dir, ".tmp-"+artifact.Meta.RunID+"-*")
	if err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := writeTranscript(filepath.Join(tmp, transcriptFile), artifact.Transcript); err != nil {
		return "", err
	}
	if artifact.Metrics != nil {
		if err := writeJSON(filepath.Join(tmp, metricsFile), artifact.Metrics); err != nil {
			return "", err
		}
	}
	if err := writeJSON(filepath.Join(tmp, runFile), artifact.Meta); err != nil {
		return "", err
	}

	final := filepath.Join(w.dir, artifact.Meta.RunID)
	if err := os.RemoveAll(final); err != nil {
		return "", fmt.Errorf("clear previous artifact: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("publish artifact: %w", err)
	}
	return final, nil
}

// ReadArtifact loads a previously written artifact from a run directory.
func ReadArtifact(dir string) (*RunArtifact, error) {
	var artifact RunArtifact

	if err := readJSON(filepath.Join(dir, runFile), &artifact.Meta); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, transcriptFile))
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	for _, line := range splitLines(data) {
		var msg types.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("decode transcript line: %w", err)
		}
		artifact.Transcript = append(artifact.Transcript, &msg)
	}

	metricsPath := filepath.Join(dir, metricsFile)
	if _, err := os.Stat(metricsPath); err == nil {
		var summary fidelity.Summary
		if err := readJSON(metricsPath, &summary); err != nil {
			return nil, err
		}
		artifact.Metrics = &summary
	}
	return &artifact, nil
}

func writeTranscript(path string, messages []*types.Message) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return fmt.Errorf("create transcript: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, msg := range messages {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("encode transcript message: %w", err)
		}
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), filePermissions); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}
