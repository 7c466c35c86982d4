// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML experiment profile.
type FileConfig struct {
	Scoring    ScoringConfig    `toml:"scoring"`
	Field      FieldConfig      `toml:"field"`
	Experiment ExperimentConfig `toml:"experiment"`
}

// ScoringConfig maps the composite score weights.
type ScoringConfig struct {
	AirtimePenalty *float64 `toml:"airtime-penalty"`
	TimePenalty    *float64 `toml:"time-penalty"`
	MissPenalty    *float64 `toml:"miss-penalty"`
	HitScore       *float64 `toml:"hit-score"`
	DistanceScore  *float64 `toml:"distance-score"`
}

// FieldConfig maps stimulus field geometry settings shared by all trials.
type FieldConfig struct {
	Width              *float64 `toml:"width"`
	Height             *float64 `toml:"height"`
	StimulusSize       *float64 `toml:"stimulus-size"`
	MinStimulusSpacing *float64 `toml:"min-stimulus-spacing"`
	MinTargetSpacing   *float64 `toml:"min-target-spacing"`
	RotationStep       *float64 `toml:"rotation-step"`
	TargetRotation     *float64 `toml:"target-rotation"`
}

// ExperimentConfig maps the trial sequence settings.
type ExperimentConfig struct {
	Repetitions *int              `toml:"repetitions"`
	Trials      []TrialTypeConfig `toml:"trials"`
}

// TrialTypeConfig maps one configured trial type.
type TrialTypeConfig struct {
	StimulusCount *int     `toml:"stimulus-count"`
	TargetCount   *int     `toml:"target-count"`
	Serial        *bool    `toml:"serial"`
	SerialTime    *float64 `toml:"serial-time"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}
	return cfg, nil
}
