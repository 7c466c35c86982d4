// Package experiment sequences trials and computes the composite score.
package experiment

import (
	"errors"
	"math/rand"
	"time"

	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/layout"
	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/trial"
)

// Constants are the experiment-level scoring weights.
type Constants struct {
	AirtimePenalty float64
	TimePenalty    float64
	MissPenalty    float64
	HitScore       float64
	DistanceScore  float64
}

// DefaultConstants returns the standard scoring weights.
func DefaultConstants() Constants {
	return Constants{
		AirtimePenalty: 1,
		TimePenalty:    0.5,
		MissPenalty:    5,
		HitScore:       10,
		DistanceScore:  5,
	}
}

// Coaching messages, indexed by the dominant loss factor: airtime, search
// speed, tap accuracy, completeness, tap precision.
var feedbackMessages = [5]string{
	"Keep your finger on the home key until you are sure where to tap.",
	"Try to spot the odd ones out more quickly.",
	"Check the rotation carefully before tapping; look-alikes cost points.",
	"Try to find every rotated shape, not just the obvious ones.",
	"Aim closer to the centre of each shape.",
}

// TrialResult is the outcome of one sequenced trial.
type TrialResult struct {
	Stats      model.TrialStats
	ScoreDelta float64
	Feedback   string
	Skipped    bool
}

// Session runs one experiment: a shuffled sequence of trial configurations,
// one active trial at a time, a running score, and coaching feedback. It
// exclusively owns the active trial session and replaces it when the next
// trial is prepared.
type Session struct {
	consts   Constants
	sequence []model.TrialConfiguration
	gen      *layout.Generator
	disp     trial.Display
	log      *eventlog.Log
	rnd      *rand.Rand

	state      model.ExperimentState
	trialIndex int
	trial      *trial.Session
	score      float64
	feedback   string
	results    []TrialResult
	finished   bool
}

// New builds a session from repetitions concatenations of trialTypes,
// uniformly shuffled once. Every trial type is validated up front. A nil rnd
// falls back to a time-seeded source.
func New(trialTypes []model.TrialConfiguration, repetitions int, consts Constants, disp trial.Display, log *eventlog.Log, rnd *rand.Rand) (*Session, error) {
	if len(trialTypes) == 0 {
		return nil, &model.ConfigError{Field: "trial-types", Reason: "must not be empty"}
	}
	if repetitions <= 0 {
		return nil, &model.ConfigError{Field: "repetitions", Reason: "must be > 0"}
	}
	for _, cfg := range trialTypes {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	sequence := make([]model.TrialConfiguration, 0, len(trialTypes)*repetitions)
	for i := 0; i < repetitions; i++ {
		sequence = append(sequence, trialTypes...)
	}
	rnd.Shuffle(len(sequence), func(i, j int) {
		sequence[i], sequence[j] = sequence[j], sequence[i]
	})

	return &Session{
		consts:   consts,
		sequence: sequence,
		gen:      layout.NewFromRand(rnd),
		disp:     disp,
		log:      log,
		rnd:      rnd,
		state:    model.ExperimentInitialisation,
	}, nil
}

// State returns the current experiment state.
func (s *Session) State() model.ExperimentState {
	return s.state
}

// Score returns the running composite score.
func (s *Session) Score() float64 {
	return s.score
}

// Feedback returns the coaching message from the last completed trial.
func (s *Session) Feedback() string {
	return s.feedback
}

// Trial returns the active trial session, or nil outside a trial.
func (s *Session) Trial() *trial.Session {
	return s.trial
}

// TrialIndex returns the number of consumed sequence entries.
func (s *Session) TrialIndex() int {
	return s.trialIndex
}

// SequenceLen returns the total number of sequenced trials.
func (s *Session) SequenceLen() int {
	return len(s.sequence)
}

// Results returns the recorded per-trial outcomes.
func (s *Session) Results() []TrialResult {
	out := make([]TrialResult, len(s.results))
	copy(out, s.results)
	return out
}

// Finished reports whether the participant has dismissed the thank-you
// screen.
func (s *Session) Finished() bool {
	return s.finished
}

// Begin shows the instructions.
func (s *Session) Begin() {
	if s.state != model.ExperimentInitialisation {
		return
	}
	s.state = model.ExperimentInstructions
	s.log.Append(eventlog.TypeExperiment, "started")
}

// Proceed leaves the instructions and prepares the first trial.
func (s *Session) Proceed() {
	if s.state != model.ExperimentInstructions {
		return
	}
	if !s.prepareTrial() {
		s.state = model.ExperimentThankYou
		return
	}
	s.state = model.ExperimentPreTrial
}

// LongPressHome advances past the cue prompt into the trial, or past the
// feedback screen into the next trial (or the thank-you screen when the
// sequence is exhausted).
func (s *Session) LongPressHome() {
	switch s.state {
	case model.ExperimentPreTrial:
		s.trial.Start()
		s.state = model.ExperimentInTrial
		s.log.AppendScalar(eventlog.TypeExperiment, "trial_started", float64(s.trialIndex))
	case model.ExperimentPostTrial:
		if !s.prepareTrial() {
			s.state = model.ExperimentThankYou
			s.log.Append(eventlog.TypeExperiment, "completed")
			return
		}
		s.state = model.ExperimentPreTrial
	}
}

// LongPressDone dismisses the thank-you screen.
func (s *Session) LongPressDone() {
	if s.state != model.ExperimentThankYou {
		return
	}
	s.finished = true
	s.log.Append(eventlog.TypeExperiment, "dismissed")
}

// LeaveHome forwards the lift-off event to the active trial.
func (s *Session) LeaveHome() {
	if s.state != model.ExperimentInTrial {
		return
	}
	s.trial.LeaveHome()
}

// ReturnHome forwards the touch-down event to the active trial.
func (s *Session) ReturnHome() {
	if s.state != model.ExperimentInTrial {
		return
	}
	s.trial.ReturnHome()
}

// Tap forwards a tap to the active trial and folds the outcome into the
// live running score.
func (s *Session) Tap(id int, p model.Point) {
	if s.state != model.ExperimentInTrial {
		return
	}
	dist, ok := s.trial.TapObject(id, p)
	if !ok {
		return
	}
	s.applyTapScore(dist)
}

// EndTrial closes the active trial and applies the end-of-trial score.
func (s *Session) EndTrial() {
	if s.state != model.ExperimentInTrial {
		return
	}
	s.finishTrial()
}

// Advance forwards elapsed time to the active trial. A serial trial that
// exhausts its sequence ends itself; the session then settles the score as
// if EndTrial had been called.
func (s *Session) Advance(dt float64) {
	if s.state != model.ExperimentInTrial {
		return
	}
	s.trial.Advance(dt)
	if s.trial.State() == model.TrialDone {
		s.finishTrial()
	}
}

// applyTapScore is the live per-tap path. It coexists with applyTrialScore;
// both mutate the same running total.
func (s *Session) applyTapScore(dist float64) {
	if dist >= 0 {
		s.score += s.consts.HitScore + (0.5-dist)*s.consts.DistanceScore
	} else {
		s.score -= s.consts.MissPenalty
	}
	s.log.AppendScalar(eventlog.TypeScore, "live_score", s.score)
}

// applyTrialScore is the end-of-trial aggregate path. It returns the score
// delta and the index of the dominant loss factor.
func (s *Session) applyTrialScore(stats model.TrialStats) (float64, int) {
	airscore := -stats.AirTime * s.consts.AirtimePenalty
	timescore := -stats.TrialTime * s.consts.TimePenalty
	missscore := -(float64(stats.Misses) / float64(stats.Targets)) * s.consts.MissPenalty
	hitscore := (float64(stats.Hits) / float64(stats.Targets)) * s.consts.HitScore
	distancescore := 0.0
	if stats.Taps > 0 {
		distancescore = (stats.TapDistance / float64(stats.Taps)) * s.consts.DistanceScore
	}
	delta := airscore + timescore + missscore + hitscore + distancescore
	s.score += delta

	losses := [5]float64{
		airscore,
		timescore,
		missscore,
		hitscore - s.consts.HitScore,
		distancescore - s.consts.DistanceScore,
	}
	worst := 0
	for i, loss := range losses {
		if loss < losses[worst] {
			worst = i
		}
	}
	return delta, worst
}

func (s *Session) finishTrial() {
	stats := s.trial.End()
	delta, worst := s.applyTrialScore(stats)
	s.feedback = feedbackMessages[worst]
	s.results = append(s.results, TrialResult{
		Stats:      stats,
		ScoreDelta: delta,
		Feedback:   s.feedback,
	})
	s.trialIndex++
	s.state = model.ExperimentPostTrial
	s.log.AppendScalar(eventlog.TypeScore, "trial_score", delta)
	s.log.AppendScalar(eventlog.TypeScore, "total_score", s.score)
	s.log.AppendTag(eventlog.TypeExperiment, "feedback", s.feedback)
}

// prepareTrial builds the next trial session from the sequence. A layout
// that exhausts its placement attempts is retried once with halved spacing;
// a second failure skips the trial and moves on. Returns false when the
// sequence is exhausted.
func (s *Session) prepareTrial() bool {
	for s.trialIndex < len(s.sequence) {
		cfg := s.sequence[s.trialIndex]
		field, err := s.gen.Generate(cfg)
		var cerr *layout.ConstraintError
		if errors.As(err, &cerr) {
			relaxed := cfg
			relaxed.MinStimulusSpacing /= 2
			relaxed.MinTargetSpacing /= 2
			field, err = s.gen.Generate(relaxed)
		}
		if err != nil {
			s.log.AppendTag(eventlog.TypeExperiment, "trial_skipped", err.Error())
			s.results = append(s.results, TrialResult{Skipped: true})
			s.trialIndex++
			continue
		}
		s.trial = trial.New(cfg, field, s.disp, s.log)
		return true
	}
	return false
}
