package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/oddsearch/internal/config"
	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/experiment"
	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/stats"
	"github.com/verte-zerg/oddsearch/internal/store"
	"github.com/verte-zerg/oddsearch/internal/trial"
)

// Scripted participant pacing, in seconds.
const (
	simSearchTime = 0.8
	simMoveTime   = 0.4
)

var (
	simSeed int64
	simSave bool
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a scripted headless experiment",
		RunE:  runSimulateCmd,
	}
	addTrialFlags(cmd)
	cmd.Flags().Int64Var(&simSeed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&simSave, "save", false, "persist the simulated run")
	return cmd
}

// runSimulateCmd drives a full experiment with a scripted participant that
// taps every target once, dead centre. Useful for checking a profile and the
// scoring weights without sitting through the TUI.
func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	trialTypes, repetitions, consts, err := resolveExperiment(cmd)
	if err != nil {
		return err
	}

	log := eventlog.New()
	rnd := rand.New(rand.NewSource(simSeed))
	sess, err := experiment.New(trialTypes, repetitions, consts, trial.NopDisplay{}, log, rnd)
	if err != nil {
		return err
	}
	startedAt := time.Now()

	sess.Begin()
	sess.Proceed()
	for guard := 0; !sess.Finished(); guard++ {
		if guard > 10*len(trialTypes)*repetitions+10 {
			return fmt.Errorf("simulation did not finish (stuck in state %s)", sess.State())
		}
		switch sess.State() {
		case model.ExperimentPreTrial, model.ExperimentPostTrial:
			sess.LongPressHome()
		case model.ExperimentInTrial:
			simulateTrial(sess)
		case model.ExperimentThankYou:
			sess.LongPressDone()
		default:
			return fmt.Errorf("unexpected experiment state %s", sess.State())
		}
	}

	printSimulation(cmd, sess)

	if simSave {
		if err := saveSimulation(sess, log, startedAt); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved run %s\n", log.RunID())
	}
	return nil
}

func simulateTrial(sess *experiment.Session) {
	tr := sess.Trial()
	if tr == nil {
		sess.EndTrial()
		return
	}
	if isSerialTrial(tr) {
		// Serial presentation ends on its own clock; just let it run.
		for step := 0; sess.State() == model.ExperimentInTrial && step < 100000; step++ {
			sess.Advance(0.1)
		}
		return
	}
	for id, spec := range tr.Field() {
		if spec.Kind != model.KindTarget {
			continue
		}
		sess.Advance(simSearchTime)
		sess.LeaveHome()
		sess.Advance(simMoveTime)
		sess.Tap(id, spec.Pos)
		sess.ReturnHome()
	}
	sess.EndTrial()
}

// isSerialTrial detects serial presentation from the initial field: parallel
// trials start with every stimulus visible, serial ones with at most one.
func isSerialTrial(tr *trial.Session) bool {
	visible := 0
	for _, spec := range tr.Field() {
		if spec.Visible {
			visible++
		}
	}
	return visible <= 1
}

func printSimulation(cmd *cobra.Command, sess *experiment.Session) {
	out := cmd.OutOrStdout()
	for i, r := range sess.Results() {
		if r.Skipped {
			fmt.Fprintf(out, "Trial %d: skipped (layout constraints unsatisfiable)\n", i+1)
			continue
		}
		fmt.Fprintf(out, "Trial %d: %+0.1f (search %.1fs, air %.1fs, %d/%d hits, %d misses)\n",
			i+1, r.ScoreDelta, r.Stats.TrialTime, r.Stats.AirTime, r.Stats.Hits, r.Stats.Targets, r.Stats.Misses)
	}
	fmt.Fprintf(out, "Final score: %.1f\n", sess.Score())
}

func saveSimulation(sess *experiment.Session, log *eventlog.Log, startedAt time.Time) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	results := sess.Results()
	trials := make([]model.TrialRecord, 0, len(results))
	for i, r := range results {
		trials = append(trials, model.TrialRecord{
			Seq:        i,
			Stats:      r.Stats,
			ScoreDelta: r.ScoreDelta,
			Feedback:   r.Feedback,
			Skipped:    r.Skipped,
		})
	}
	run := model.RunSummary{
		RunID:     log.RunID(),
		StartedAt: startedAt,
		EndedAt:   time.Now(),
		Score:     sess.Score(),
		Trials:    len(trials),
	}
	return st.InsertRun(context.Background(), run, trials, log.Records())
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a plain-text results report",
		RunE:  runReportCmd,
	}
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	cfg := model.ReportConfig{
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
	}
	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if len(report.Runs) == 0 {
		logErrln("No runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Runs); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Fprintln(out)
	if len(report.LastTrials) > 0 {
		if err := stats.RenderTrialTable(out, report.LastTrials); err != nil {
			return fmt.Errorf("failed to render trials: %w", err)
		}
		fmt.Fprintln(out)
	}
	if err := stats.RenderScoreCurve(out, report.Runs, cfg.CurveWindow, 0, 10); err != nil {
		return fmt.Errorf("failed to render score curve: %w", err)
	}
	return nil
}
