package model

import "fmt"

// TrialConfiguration holds the immutable inputs for one trial. StimulusCount
// is the number of distractors; the generated field additionally contains
// TargetCount targets, and the cue is kept outside the field.
type TrialConfiguration struct {
	Region             Rect
	StimulusCount      int
	TargetCount        int
	StimulusSize       float64
	MinStimulusSpacing float64
	MinTargetSpacing   float64
	RotationStep       float64
	Serial             bool
	SerialTime         float64
	TargetRotation     float64
}

// ConfigError reports an invalid trial configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid trial configuration: %s %s", e.Field, e.Reason)
}

// Validate checks the configuration before any placement is attempted.
func (c TrialConfiguration) Validate() error {
	if c.Region.Dx() <= 0 || c.Region.Dy() <= 0 {
		return &ConfigError{Field: "region", Reason: "must have positive area"}
	}
	if c.StimulusCount <= 0 {
		return &ConfigError{Field: "stimulus-count", Reason: "must be > 0"}
	}
	if c.TargetCount <= 0 {
		return &ConfigError{Field: "target-count", Reason: "must be > 0"}
	}
	if c.StimulusSize <= 0 {
		return &ConfigError{Field: "stimulus-size", Reason: "must be > 0"}
	}
	if c.MinStimulusSpacing <= 0 {
		return &ConfigError{Field: "min-stimulus-spacing", Reason: "must be > 0"}
	}
	if c.MinTargetSpacing <= 0 {
		return &ConfigError{Field: "min-target-spacing", Reason: "must be > 0"}
	}
	if c.RotationStep <= 0 || c.RotationStep > 360 {
		return &ConfigError{Field: "rotation-step", Reason: "must be in (0, 360]"}
	}
	steps := 360 / c.RotationStep
	if steps != float64(int(steps)) {
		return &ConfigError{Field: "rotation-step", Reason: "must evenly divide 360"}
	}
	if int(steps) < 2 {
		return &ConfigError{Field: "rotation-step", Reason: "must allow at least one non-target orientation"}
	}
	if c.Serial && c.SerialTime <= 0 {
		return &ConfigError{Field: "serial-time", Reason: "must be > 0 in serial mode"}
	}
	rot := c.TargetRotation / 90
	if rot != float64(int(rot)) {
		return &ConfigError{Field: "target-rotation", Reason: "must be a multiple of 90"}
	}
	if c.TargetRotation < 0 || c.TargetRotation >= 360 {
		return &ConfigError{Field: "target-rotation", Reason: "must be in [0, 360)"}
	}
	return nil
}
