// Package trial implements the per-trial search/occlusion state machine.
package trial

import (
	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/model"
)

// Display is the rendering collaborator. The session issues visibility and
// feedback changes through it and never draws anything itself.
type Display interface {
	Show(id int)
	Hide(id int)
	Mask(id int)
	Unmask(id int)
	SetFeedback(id int, correct bool)
	ShowCue()
	HideCue()
}

// NopDisplay discards all display calls. Useful for tests and headless runs.
type NopDisplay struct{}

func (NopDisplay) Show(int)              {}
func (NopDisplay) Hide(int)              {}
func (NopDisplay) Mask(int)              {}
func (NopDisplay) Unmask(int)            {}
func (NopDisplay) SetFeedback(int, bool) {}
func (NopDisplay) ShowCue()              {}
func (NopDisplay) HideCue()              {}

// Session runs a single trial. It owns its stimulus field exclusively;
// participant input arrives as discrete method calls and time as Advance
// ticks. Calls that have no defined transition in the current state are
// ignored, never errors, so out-of-order input callbacks are tolerated.
type Session struct {
	cfg   model.TrialConfiguration
	field []model.StimulusSpec
	cue   model.StimulusSpec
	disp  Display
	log   *eventlog.Log

	state model.TrialState
	stats model.TrialStats

	tappedID      int
	tappedCorrect bool

	serialIdx     int
	serialElapsed float64
}

// New builds a session over an already-generated field. The cue mirrors the
// target rotation and is shown until the trial starts.
func New(cfg model.TrialConfiguration, field []model.StimulusSpec, disp Display, log *eventlog.Log) *Session {
	s := &Session{
		cfg:      cfg,
		field:    field,
		disp:     disp,
		log:      log,
		state:    model.TrialInitialisation,
		tappedID: -1,
		cue: model.StimulusSpec{
			Kind:     model.KindCue,
			Rotation: cfg.TargetRotation,
			Visible:  true,
		},
	}
	s.stats.Targets = cfg.TargetCount
	disp.ShowCue()
	log.AppendScalar(eventlog.TypeTrial, "cue_rotation", cfg.TargetRotation)
	return s
}

// State returns the current trial state.
func (s *Session) State() model.TrialState {
	return s.state
}

// Stats returns a snapshot of the accumulated stats.
func (s *Session) Stats() model.TrialStats {
	return s.stats
}

// Field returns a copy of the stimulus field.
func (s *Session) Field() []model.StimulusSpec {
	out := make([]model.StimulusSpec, len(s.field))
	copy(out, s.field)
	return out
}

// Cue returns the cue stimulus.
func (s *Session) Cue() model.StimulusSpec {
	return s.cue
}

// TappedID returns the index of the most recently tapped stimulus and
// whether it was a target, or -1 when nothing has been tapped yet.
func (s *Session) TappedID() (int, bool) {
	return s.tappedID, s.tappedCorrect
}

// Start begins the search phase: the cue disappears and the field is
// revealed, either all at once or one stimulus at a time in serial mode.
func (s *Session) Start() {
	if s.state != model.TrialInitialisation {
		s.ignore("start")
		return
	}
	s.cue.Visible = false
	s.disp.HideCue()
	if s.cfg.Serial {
		s.serialIdx = 0
		s.serialElapsed = 0
		s.setVisible(0, true)
	} else {
		for i := range s.field {
			s.setVisible(i, true)
		}
	}
	s.state = model.TrialSearching
	s.log.Append(eventlog.TypeTrial, "started")
}

// LeaveHome occludes the field when the participant lifts from the home
// anchor while searching.
func (s *Session) LeaveHome() {
	if s.state != model.TrialSearching {
		s.ignore("leave_home")
		return
	}
	for i := range s.field {
		s.setMasked(i, true)
	}
	s.state = model.TrialMoving
	s.log.Append(eventlog.TypeInput, "leave_home")
}

// TapObject evaluates a tap on field stimulus id at position p. It returns
// false when the tap is not applicable (wrong state or unknown id), leaving
// all stats untouched. Otherwise it returns the distance from the target
// center, or -1 for a non-target hit, and moves to the matching feedback
// state.
func (s *Session) TapObject(id int, p model.Point) (float64, bool) {
	if s.state != model.TrialMoving || id < 0 || id >= len(s.field) {
		s.ignore("tap")
		return 0, false
	}
	spec := s.field[id]
	dist := -1.0
	if spec.Kind == model.KindTarget {
		dist = model.Distance(spec.Pos, p)
	}
	s.tappedID = id
	s.tappedCorrect = dist >= 0
	s.stats.Taps++
	// The raw proximity term is accumulated for every tap, including the
	// -1 sentinel for non-targets.
	s.stats.TapDistance += 1 - dist/s.cfg.StimulusSize
	if dist >= 0 {
		s.stats.Hits++
		s.state = model.TrialCorrectTap
	} else {
		s.stats.Misses++
		s.state = model.TrialIncorrectTap
	}
	s.log.AppendVec(eventlog.TypeInput, "tap", p)
	s.log.AppendScalar(eventlog.TypeTrial, "tap_distance", dist)
	return dist, true
}

// ReturnHome unmasks the field after tap feedback and marks the tapped
// stimulus by outcome.
func (s *Session) ReturnHome() {
	if s.state != model.TrialCorrectTap && s.state != model.TrialIncorrectTap {
		s.ignore("return_home")
		return
	}
	for i := range s.field {
		s.setMasked(i, false)
	}
	if s.tappedID >= 0 {
		s.disp.SetFeedback(s.tappedID, s.tappedCorrect)
	}
	s.state = model.TrialSearching
	s.log.Append(eventlog.TypeInput, "return_home")
}

// End finishes the trial from any state: everything is unmasked, then
// hidden, and the final stats snapshot is returned. Always safe to call.
func (s *Session) End() model.TrialStats {
	if s.state == model.TrialDone {
		return s.stats
	}
	s.cue.Visible = false
	s.disp.HideCue()
	for i := range s.field {
		s.setMasked(i, false)
		s.setVisible(i, false)
	}
	s.state = model.TrialDone
	s.log.Append(eventlog.TypeTrial, "ended")
	return s.stats
}

// Advance accounts elapsed seconds to the active timing bucket and drives
// the serial presentation sequence.
func (s *Session) Advance(dt float64) {
	switch {
	case s.state == model.TrialSearching:
		s.stats.TrialTime += dt
		if s.cfg.Serial {
			s.advanceSerial(dt)
		}
	case s.state.Airborne():
		s.stats.AirTime += dt
	}
}

// advanceSerial shows stimuli one at a time for SerialTime seconds each and
// ends the trial once the sequence is exhausted.
func (s *Session) advanceSerial(dt float64) {
	s.serialElapsed += dt
	for s.serialElapsed >= s.cfg.SerialTime {
		s.serialElapsed -= s.cfg.SerialTime
		s.setVisible(s.serialIdx, false)
		s.serialIdx++
		if s.serialIdx >= len(s.field) {
			s.End()
			return
		}
		s.setVisible(s.serialIdx, true)
	}
}

func (s *Session) setVisible(id int, visible bool) {
	s.field[id].Visible = visible
	if visible {
		s.disp.Show(id)
	} else {
		s.disp.Hide(id)
	}
}

func (s *Session) setMasked(id int, masked bool) {
	s.field[id].Masked = masked
	if masked {
		s.disp.Mask(id)
	} else {
		s.disp.Unmask(id)
	}
}

// ignore records an out-of-state call for diagnosis without treating it as
// an error.
func (s *Session) ignore(op string) {
	s.log.AppendTag(eventlog.TypeTrial, "transition_ignored", op+"@"+s.state.String())
}
