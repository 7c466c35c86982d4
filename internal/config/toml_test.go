package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Field.Width != nil || cfg.Experiment.Repetitions != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[scoring]
miss-penalty = 7.5

[field]
min-stimulus-spacing = 15.0
min-target-spacing = 45.0

[experiment]
repetitions = 2

[[experiment.trials]]
stimulus-count = 8
target-count = 2
serial = true
serial-time = 0.5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Scoring.MissPenalty == nil || *cfg.Scoring.MissPenalty != 7.5 {
		t.Fatalf("miss-penalty = %v", cfg.Scoring.MissPenalty)
	}
	if cfg.Scoring.HitScore != nil {
		t.Fatal("expected unset hit-score to stay nil")
	}
	if cfg.Field.MinStimulusSpacing == nil || *cfg.Field.MinStimulusSpacing != 15 {
		t.Fatalf("min-stimulus-spacing = %v", cfg.Field.MinStimulusSpacing)
	}
	if cfg.Field.MinTargetSpacing == nil || *cfg.Field.MinTargetSpacing != 45 {
		t.Fatalf("min-target-spacing = %v", cfg.Field.MinTargetSpacing)
	}
	if cfg.Experiment.Repetitions == nil || *cfg.Experiment.Repetitions != 2 {
		t.Fatalf("repetitions = %v", cfg.Experiment.Repetitions)
	}
	if len(cfg.Experiment.Trials) != 1 {
		t.Fatalf("expected 1 trial type, got %d", len(cfg.Experiment.Trials))
	}
	trial := cfg.Experiment.Trials[0]
	if trial.StimulusCount == nil || *trial.StimulusCount != 8 {
		t.Fatalf("stimulus-count = %v", trial.StimulusCount)
	}
	if trial.Serial == nil || !*trial.Serial {
		t.Fatalf("serial = %v", trial.Serial)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := writeConfig(t, `
[field]
min-spacing = 20.0
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
	if !strings.Contains(err.Error(), "min-spacing") {
		t.Fatalf("error does not name the key: %v", err)
	}
}
