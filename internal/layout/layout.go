// Package layout builds constrained random stimulus arrangements.
package layout

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/verte-zerg/oddsearch/internal/model"
)

const maxPlacementAttempts = 100

// ConstraintError reports that a stimulus could not be placed within the
// attempt cap. It is recoverable: the caller may retry with a fresh seed or
// relaxed spacing, or fail the trial setup.
type ConstraintError struct {
	Index    int
	Attempts int
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("no valid position for stimulus %d after %d attempts", e.Index, e.Attempts)
}

// Generator produces randomized stimulus layouts.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewFromRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewSeeded returns a Generator with a fixed seed for deterministic layouts.
func NewSeeded(seed int64) *Generator {
	return NewFromRand(rand.New(rand.NewSource(seed)))
}

// NewFromRand returns a Generator drawing from the provided source.
func NewFromRand(rnd *rand.Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Generate places cfg.StimulusCount distractors and cfg.TargetCount targets
// inside cfg.Region so that no pair is closer than MinStimulusSpacing and no
// pair within the tail window is closer than MinTargetSpacing. The returned
// slice is in placement (shuffled) order with all stimuli hidden and
// unmasked.
func (g *Generator) Generate(cfg model.TrialConfiguration) ([]model.StimulusSpec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sentinel := sentinelPos(cfg)
	specs := make([]model.StimulusSpec, 0, cfg.StimulusCount+cfg.TargetCount)
	for i := 0; i < cfg.StimulusCount; i++ {
		specs = append(specs, model.StimulusSpec{
			Kind:     model.KindDistractor,
			Pos:      sentinel,
			Rotation: g.distractorRotation(cfg),
		})
	}
	for i := 0; i < cfg.TargetCount; i++ {
		specs = append(specs, model.StimulusSpec{
			Kind:     model.KindTarget,
			Pos:      sentinel,
			Rotation: cfg.TargetRotation,
		})
	}

	g.rnd.Shuffle(len(specs), func(i, j int) {
		specs[i], specs[j] = specs[j], specs[i]
	})

	// Spacing among the most-recently-placed tail is checked from this
	// index on, independent of stimulus kind.
	tailStart := cfg.StimulusCount - cfg.TargetCount - 1
	for i := range specs {
		pos, err := g.placeStimulus(cfg, specs, i, tailStart)
		if err != nil {
			return nil, err
		}
		specs[i].Pos = pos
	}
	return specs, nil
}

func (g *Generator) placeStimulus(cfg model.TrialConfiguration, specs []model.StimulusSpec, i, tailStart int) (model.Point, error) {
	for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
		pos := model.Point{
			X: cfg.Region.Min.X + g.rnd.Float64()*cfg.Region.Dx(),
			Y: cfg.Region.Min.Y + g.rnd.Float64()*cfg.Region.Dy(),
		}
		if g.validPosition(cfg, specs, i, tailStart, pos) {
			return pos, nil
		}
	}
	return model.Point{}, &ConstraintError{Index: i, Attempts: maxPlacementAttempts}
}

func (g *Generator) validPosition(cfg model.TrialConfiguration, specs []model.StimulusSpec, i, tailStart int, pos model.Point) bool {
	for j := 0; j < i; j++ {
		d := model.Distance(pos, specs[j].Pos)
		if d < cfg.MinStimulusSpacing {
			return false
		}
		if i > tailStart && j > tailStart && d < cfg.MinTargetSpacing {
			return false
		}
	}
	return true
}

// distractorRotation samples a rotation from the step grid, excluding the
// target rotation by shifting one step past it.
func (g *Generator) distractorRotation(cfg model.TrialConfiguration) float64 {
	orientations := int(360/cfg.RotationStep) - 1
	rot := float64(g.rnd.Intn(orientations)) * cfg.RotationStep
	if rot >= cfg.TargetRotation {
		rot += cfg.RotationStep
	}
	return rot
}

// sentinelPos is the pre-placement position, outside the region so partial
// layouts never collide with not-yet-placed stimuli.
func sentinelPos(cfg model.TrialConfiguration) model.Point {
	spacing := cfg.MinStimulusSpacing
	if cfg.MinTargetSpacing > spacing {
		spacing = cfg.MinTargetSpacing
	}
	return model.Point{X: cfg.Region.Min.X - spacing, Y: cfg.Region.Min.Y - spacing}
}
