package layout

import (
	"errors"
	"testing"

	"github.com/verte-zerg/oddsearch/internal/model"
)

func testConfig() model.TrialConfiguration {
	return model.TrialConfiguration{
		Region:             model.Rect{Min: model.Point{X: 0, Y: 0}, Max: model.Point{X: 300, Y: 300}},
		StimulusCount:      10,
		TargetCount:        3,
		StimulusSize:       10,
		MinStimulusSpacing: 10,
		MinTargetSpacing:   30,
		RotationStep:       45,
		TargetRotation:     90,
	}
}

func TestGenerateConstraints(t *testing.T) {
	cfg := testConfig()
	for seed := int64(0); seed < 20; seed++ {
		gen := NewSeeded(seed)
		specs, err := gen.Generate(cfg)
		if err != nil {
			t.Fatalf("seed %d: generate: %v", seed, err)
		}
		if len(specs) != cfg.StimulusCount+cfg.TargetCount {
			t.Fatalf("seed %d: got %d specs, want %d", seed, len(specs), cfg.StimulusCount+cfg.TargetCount)
		}

		targets := 0
		for i, spec := range specs {
			if !cfg.Region.Contains(spec.Pos) {
				t.Errorf("seed %d: stimulus %d at %+v outside region", seed, i, spec.Pos)
			}
			if spec.Kind == model.KindTarget {
				targets++
			}
		}
		if targets != cfg.TargetCount {
			t.Fatalf("seed %d: got %d targets, want %d", seed, targets, cfg.TargetCount)
		}

		tailStart := cfg.StimulusCount - cfg.TargetCount - 1
		for i := range specs {
			for j := 0; j < i; j++ {
				d := model.Distance(specs[i].Pos, specs[j].Pos)
				if d < cfg.MinStimulusSpacing {
					t.Errorf("seed %d: stimuli %d/%d only %.2f apart", seed, i, j, d)
				}
				if i > tailStart && j > tailStart && d < cfg.MinTargetSpacing {
					t.Errorf("seed %d: tail stimuli %d/%d only %.2f apart", seed, i, j, d)
				}
			}
		}
	}
}

func TestGenerateRotations(t *testing.T) {
	cfg := testConfig()
	gen := NewSeeded(7)
	specs, err := gen.Generate(cfg)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, spec := range specs {
		switch spec.Kind {
		case model.KindTarget:
			if spec.Rotation != cfg.TargetRotation {
				t.Errorf("target %d has rotation %.0f, want %.0f", i, spec.Rotation, cfg.TargetRotation)
			}
		case model.KindDistractor:
			if spec.Rotation == cfg.TargetRotation {
				t.Errorf("distractor %d has the target rotation", i)
			}
			steps := spec.Rotation / cfg.RotationStep
			if steps != float64(int(steps)) {
				t.Errorf("distractor %d rotation %.1f not on the step grid", i, spec.Rotation)
			}
			if spec.Rotation < 0 || spec.Rotation >= 360 {
				t.Errorf("distractor %d rotation %.1f out of range", i, spec.Rotation)
			}
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := testConfig()
	a, err := NewSeeded(42).Generate(cfg)
	if err != nil {
		t.Fatalf("generate a: %v", err)
	}
	b, err := NewSeeded(42).Generate(cfg)
	if err != nil {
		t.Fatalf("generate b: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("spec %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateConstraintError(t *testing.T) {
	cfg := testConfig()
	cfg.Region = model.Rect{Min: model.Point{X: 0, Y: 0}, Max: model.Point{X: 10, Y: 10}}
	cfg.MinStimulusSpacing = 500
	cfg.MinTargetSpacing = 500

	_, err := NewSeeded(1).Generate(cfg)
	var cerr *ConstraintError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %v, want ConstraintError", err)
	}
	if cerr.Attempts != maxPlacementAttempts {
		t.Errorf("got %d attempts, want %d", cerr.Attempts, maxPlacementAttempts)
	}
}

func TestGenerateInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.RotationStep = 50

	_, err := NewSeeded(1).Generate(cfg)
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("got %v, want ConfigError", err)
	}
}
