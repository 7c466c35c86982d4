package stats

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/oddsearch/internal/model"
	"github.com/verte-zerg/oddsearch/internal/store"
)

func seedStore(t *testing.T, runs int) *store.Store {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "oddsearch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	base := time.Unix(0, 0).UTC()
	for i := 0; i < runs; i++ {
		run := model.RunSummary{
			RunID:     "run-" + string(rune('a'+i)),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			EndedAt:   base.Add(time.Duration(i)*time.Hour + time.Minute),
			Score:     float64(10 * (i + 1)),
			Trials:    1,
		}
		trials := []model.TrialRecord{
			{
				Seq: 0,
				Stats: model.TrialStats{
					TrialTime: 8, AirTime: 1,
					Hits: 2, Targets: 2, Taps: 2, TapDistance: 1.8,
				},
				ScoreDelta: run.Score,
				Feedback:   "faster",
			},
		}
		if err := st.InsertRun(ctx, run, trials, nil); err != nil {
			t.Fatalf("insert run %d: %v", i, err)
		}
	}
	return st
}

func TestBuildReport(t *testing.T) {
	st := seedStore(t, 3)
	report, err := BuildReport(context.Background(), st, model.ReportConfig{Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(report.Runs))
	}
	if report.LastRunID != "run-c" {
		t.Errorf("last run = %q, want run-c", report.LastRunID)
	}
	if len(report.LastTrials) != 1 {
		t.Fatalf("got %d trials, want 1", len(report.LastTrials))
	}
}

func TestBuildReportEmpty(t *testing.T) {
	st := seedStore(t, 0)
	report, err := BuildReport(context.Background(), st, model.ReportConfig{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Runs) != 0 || report.LastRunID != "" {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRenderSummary(t *testing.T) {
	st := seedStore(t, 2)
	report, err := BuildReport(context.Background(), st, model.ReportConfig{})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	var b strings.Builder
	if err := RenderSummary(&b, report.Runs); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := b.String()
	for _, want := range []string{"Runs: 2", "Avg Score: 15.00", "Best Score: 20.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTrialTable(t *testing.T) {
	trials := []model.TrialRecord{
		{
			Seq: 0,
			Stats: model.TrialStats{
				TrialTime: 5, AirTime: 0.5,
				Hits: 1, Misses: 1, Targets: 2, Taps: 2, TapDistance: 0.4,
			},
			ScoreDelta: 3.5,
		},
		{Seq: 1, Skipped: true},
	}
	var b strings.Builder
	if err := RenderTrialTable(&b, trials); err != nil {
		t.Fatalf("render trial table: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "skipped") {
		t.Errorf("skipped trial not shown:\n%s", out)
	}
	if !strings.Contains(out, "+3.5") {
		t.Errorf("score delta not shown:\n%s", out)
	}
}

func TestRenderScoreCurve(t *testing.T) {
	runs := []model.RunSummary{
		{Score: 1}, {Score: 4}, {Score: 2}, {Score: 8},
	}
	var b strings.Builder
	if err := RenderScoreCurve(&b, runs, 2, 60, 6); err != nil {
		t.Fatalf("render score curve: %v", err)
	}
	out := b.String()
	if !strings.Contains(out, "Score Over Runs") {
		t.Errorf("missing title:\n%s", out)
	}
	if len(strings.Split(strings.TrimRight(out, "\n"), "\n")) < 7 {
		t.Errorf("plot too short:\n%s", out)
	}
}
