// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Runs       []model.RunSummary
	LastRunID  string
	LastTrials []model.TrialRecord
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.ReportConfig) (Report, error) {
	runs, err := st.ListRuns(ctx)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(runs) > cfg.Last {
		runs = runs[len(runs)-cfg.Last:]
	}
	report := Report{Runs: runs}
	if len(runs) > 0 {
		report.LastRunID = runs[len(runs)-1].RunID
		trials, err := st.ListTrials(ctx, report.LastRunID)
		if err != nil {
			return Report{}, err
		}
		report.LastTrials = trials
	}
	return report, nil
}

// RenderSummary prints a summary over stored runs.
func RenderSummary(w io.Writer, runs []model.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	var totalScore float64
	bestScore := runs[0].Score
	totalTrials := 0
	for _, r := range runs {
		totalScore += r.Score
		totalTrials += r.Trials
		if r.Score > bestScore {
			bestScore = r.Score
		}
	}
	count := float64(len(runs))
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Runs: %d\n", len(runs)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trials: %d\n", totalTrials); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg Score: %.2f\n", totalScore/count); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best Score: %.2f\n", bestScore); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderTrialTable prints per-trial rows for the most recent run.
func RenderTrialTable(w io.Writer, trials []model.TrialRecord) error {
	if len(trials) == 0 {
		_, err := fmt.Fprintln(w, "No trials found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Last Run Trials"); err != nil {
		return err
	}
	headers := []string{"Trial", "Search (s)", "Air (s)", "Hits", "Misses", "Taps", "Precision", "Score"}
	rows := make([][]string, 0, len(trials))
	for _, tr := range trials {
		if tr.Skipped {
			rows = append(rows, []string{fmt.Sprintf("%d", tr.Seq+1), "skipped", "", "", "", "", "", ""})
			continue
		}
		_, precision, _ := TrialMetrics(tr.Stats)
		rows = append(rows, []string{
			fmt.Sprintf("%d", tr.Seq+1),
			fmt.Sprintf("%.1f", tr.Stats.TrialTime),
			fmt.Sprintf("%.1f", tr.Stats.AirTime),
			fmt.Sprintf("%d", tr.Stats.Hits),
			fmt.Sprintf("%d", tr.Stats.Misses),
			fmt.Sprintf("%d", tr.Stats.Taps),
			fmt.Sprintf("%.2f", precision),
			fmt.Sprintf("%+.1f", tr.ScoreDelta),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true, 6: true, 7: true}
	lines := formatTable(headers, rows, rightAlign)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// RenderScoreCurve prints a score-over-runs plot smoothed by a moving
// average window.
func RenderScoreCurve(w io.Writer, runs []model.RunSummary, window, totalWidth, height int) error {
	if len(runs) == 0 {
		return nil
	}
	scores := make([]float64, len(runs))
	for i, r := range runs {
		scores[i] = r.Score
	}
	scores = MovingAverage(scores, window)
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeries(w, "Score Over Runs", scores, width, height)
}
