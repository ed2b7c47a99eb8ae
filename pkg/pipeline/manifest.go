package pipeline

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// GenerateRunID creates a run ID in format YYYYMMDDTHHmmss-xxxx.
func GenerateRunID() string {
	ts := time.Now().Format("20060102T150405")
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s-%x", ts, suffix)
}

// ArtifactsDir is where a run keeps its manifest and trace. It lives
// under the system temp directory so a wiped toolchain root never takes
// run history with it.
func ArtifactsDir(runID string) string {
	return filepath.Join(os.TempDir(), "mobup-"+runID)
}

// RunManifest records the metadata for one provisioning run.
// Written as run.yaml after the run completes or aborts.
type RunManifest struct {
	RunID     string    `yaml:"run_id"     json:"run_id"`
	Phase     string    `yaml:"phase"      json:"phase"`
	Mode      string    `yaml:"mode"       json:"mode"`
	OS        string    `yaml:"os"         json:"os"`
	Root      string    `yaml:"root"       json:"root"`
	StartedAt string    `yaml:"started_at" json:"started_at"`
	EndedAt   string    `yaml:"ended_at"   json:"ended_at"`
	Summary   Summary   `yaml:"summary"    json:"summary"`
	Outcomes  []Outcome `yaml:"steps"      json:"steps"`
	LogPath   string    `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// WriteManifest writes run.yaml into dir, creating it as needed.
func WriteManifest(dir string, m *RunManifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts directory: %w", err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, "run.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
