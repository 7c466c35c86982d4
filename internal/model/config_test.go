package model

import "testing"

func validConfig() TrialConfiguration {
	return TrialConfiguration{
		Region:             Rect{Min: Point{X: 0, Y: 0}, Max: Point{X: 100, Y: 100}},
		StimulusCount:      8,
		TargetCount:        2,
		StimulusSize:       10,
		MinStimulusSpacing: 5,
		MinTargetSpacing:   15,
		RotationStep:       90,
		TargetRotation:     180,
	}
}

func TestValidateAccepts(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.Serial = true
	cfg.SerialTime = 0.5
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid serial config rejected: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TrialConfiguration)
		field  string
	}{
		{"zero-area region", func(c *TrialConfiguration) { c.Region.Max = c.Region.Min }, "region"},
		{"no stimuli", func(c *TrialConfiguration) { c.StimulusCount = 0 }, "stimulus-count"},
		{"no targets", func(c *TrialConfiguration) { c.TargetCount = 0 }, "target-count"},
		{"negative size", func(c *TrialConfiguration) { c.StimulusSize = -1 }, "stimulus-size"},
		{"zero stimulus spacing", func(c *TrialConfiguration) { c.MinStimulusSpacing = 0 }, "min-stimulus-spacing"},
		{"zero target spacing", func(c *TrialConfiguration) { c.MinTargetSpacing = 0 }, "min-target-spacing"},
		{"step not dividing 360", func(c *TrialConfiguration) { c.RotationStep = 50 }, "rotation-step"},
		{"step of 360", func(c *TrialConfiguration) { c.RotationStep = 360 }, "rotation-step"},
		{"serial without time", func(c *TrialConfiguration) { c.Serial = true }, "serial-time"},
		{"off-grid target rotation", func(c *TrialConfiguration) { c.TargetRotation = 45 }, "target-rotation"},
		{"target rotation out of range", func(c *TrialConfiguration) { c.TargetRotation = 360 }, "target-rotation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("got %T, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("got field %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestAirborne(t *testing.T) {
	airborne := map[TrialState]bool{
		TrialInitialisation: false,
		TrialSearching:      false,
		TrialMoving:         true,
		TrialCorrectTap:     true,
		TrialIncorrectTap:   true,
		TrialDone:           false,
	}
	for state, want := range airborne {
		if got := state.Airborne(); got != want {
			t.Errorf("%s: airborne = %v, want %v", state, got, want)
		}
	}
}
