// Package model defines shared data structures.
package model

import (
	"math"
	"time"
)

// Point is a 2D position in region coordinates.
type Point struct {
	X float64
	Y float64
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min Point
	Max Point
}

// Dx returns the width of the rectangle.
func (r Rect) Dx() float64 {
	return r.Max.X - r.Min.X
}

// Dy returns the height of the rectangle.
func (r Rect) Dy() float64 {
	return r.Max.Y - r.Min.Y
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// StimulusKind classifies a stimulus within a trial field.
type StimulusKind int

const (
	// KindCue is the single pre-trial memory prompt, never tappable.
	KindCue StimulusKind = iota
	// KindDistractor has a rotation distinct from the target rotation.
	KindDistractor
	// KindTarget shares the cue's rotation.
	KindTarget
)

// String returns the string representation of StimulusKind.
func (k StimulusKind) String() string {
	switch k {
	case KindCue:
		return "cue"
	case KindDistractor:
		return "distractor"
	case KindTarget:
		return "target"
	default:
		return "unknown"
	}
}

// StimulusSpec describes one placed stimulus. Rotation is fixed at creation;
// masking and visibility only change what is displayed.
type StimulusSpec struct {
	Kind     StimulusKind
	Pos      Point
	Rotation float64
	Visible  bool
	Masked   bool
}

// TrialStats accumulates per-trial performance counters. It is zeroed at
// trial start, mutated only by the trial session, and treated as immutable
// once the trial ends.
type TrialStats struct {
	TrialTime   float64
	AirTime     float64
	Hits        int
	Misses      int
	Targets     int
	Taps        int
	TapDistance float64
}

// TrialState identifies the phase of a single trial.
type TrialState int

const (
	TrialInitialisation TrialState = iota
	TrialSearching
	TrialMoving
	TrialCorrectTap
	TrialIncorrectTap
	TrialDone
)

// String returns the string representation of TrialState.
func (s TrialState) String() string {
	switch s {
	case TrialInitialisation:
		return "initialisation"
	case TrialSearching:
		return "searching"
	case TrialMoving:
		return "moving"
	case TrialCorrectTap:
		return "correct-tap"
	case TrialIncorrectTap:
		return "incorrect-tap"
	case TrialDone:
		return "done"
	default:
		return "unknown"
	}
}

// Airborne reports whether the state is one where stimuli are occluded
// because the participant has lifted from the home anchor.
func (s TrialState) Airborne() bool {
	switch s {
	case TrialMoving, TrialCorrectTap, TrialIncorrectTap:
		return true
	default:
		return false
	}
}

// ExperimentState identifies the phase of an experiment run.
type ExperimentState int

const (
	ExperimentInitialisation ExperimentState = iota
	ExperimentInstructions
	ExperimentPreTrial
	ExperimentInTrial
	ExperimentPostTrial
	ExperimentThankYou
)

// String returns the string representation of ExperimentState.
func (s ExperimentState) String() string {
	switch s {
	case ExperimentInitialisation:
		return "initialisation"
	case ExperimentInstructions:
		return "instructions"
	case ExperimentPreTrial:
		return "pre-trial"
	case ExperimentInTrial:
		return "in-trial"
	case ExperimentPostTrial:
		return "post-trial"
	case ExperimentThankYou:
		return "thank-you"
	default:
		return "unknown"
	}
}

// RunSummary summarizes a stored experiment run for reporting.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	Score     float64
	Trials    int
}

// TrialRecord is one completed trial within a stored run.
type TrialRecord struct {
	Seq        int
	Stats      TrialStats
	ScoreDelta float64
	Feedback   string
	Skipped    bool
}

// ReportConfig defines filters and options for stats output.
type ReportConfig struct {
	Last        int
	CurveWindow int
}
