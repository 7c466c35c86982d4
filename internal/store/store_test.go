package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := Open(filepath.Join(dir, "oddsearch.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestInsertAndListRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	started := time.Unix(1000, 0).UTC()
	run := model.RunSummary{
		RunID:     "run-1",
		StartedAt: started,
		EndedAt:   started.Add(5 * time.Minute),
		Score:     42.5,
		Trials:    2,
	}
	trials := []model.TrialRecord{
		{
			Seq: 0,
			Stats: model.TrialStats{
				TrialTime: 10, AirTime: 2,
				Hits: 3, Misses: 1, Targets: 3, Taps: 4,
				TapDistance: 2.9,
			},
			ScoreDelta: 12.5,
			Feedback:   "faster",
		},
		{Seq: 1, Skipped: true},
	}
	events := []eventlog.Record{
		{Type: "trial", Name: "started", At: started, Kind: eventlog.ValueNone},
		{Type: "input", Name: "tap", At: started.Add(time.Second), Kind: eventlog.ValueVec, Vec: model.Point{X: 3, Y: 4}},
		{Type: "score", Name: "total_score", At: started.Add(2 * time.Second), Kind: eventlog.ValueScalar, Scalar: 42.5},
		{Type: "experiment", Name: "feedback", At: started.Add(3 * time.Second), Kind: eventlog.ValueTag, Tag: "faster"},
	}

	if err := st.InsertRun(ctx, run, trials, events); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].RunID != "run-1" || runs[0].Score != 42.5 || runs[0].Trials != 2 {
		t.Errorf("run = %+v", runs[0])
	}
	if !runs[0].StartedAt.Equal(started) {
		t.Errorf("started at = %v, want %v", runs[0].StartedAt, started)
	}

	gotTrials, err := st.ListTrials(ctx, "run-1")
	if err != nil {
		t.Fatalf("list trials: %v", err)
	}
	if len(gotTrials) != 2 {
		t.Fatalf("got %d trials, want 2", len(gotTrials))
	}
	if gotTrials[0].Stats != trials[0].Stats {
		t.Errorf("trial 0 stats = %+v, want %+v", gotTrials[0].Stats, trials[0].Stats)
	}
	if gotTrials[0].Feedback != "faster" || gotTrials[0].ScoreDelta != 12.5 {
		t.Errorf("trial 0 = %+v", gotTrials[0])
	}
	if !gotTrials[1].Skipped {
		t.Error("trial 1 not marked skipped")
	}

	gotEvents, err := st.ListEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(gotEvents) != 4 {
		t.Fatalf("got %d events, want 4", len(gotEvents))
	}
	for i, ev := range gotEvents {
		if ev.Name != events[i].Name || ev.Kind != events[i].Kind {
			t.Errorf("event %d = %+v, want %+v", i, ev, events[i])
		}
	}
	if gotEvents[1].Vec != (model.Point{X: 3, Y: 4}) {
		t.Errorf("vec event = %+v", gotEvents[1])
	}
	if gotEvents[2].Scalar != 42.5 {
		t.Errorf("scalar event = %+v", gotEvents[2])
	}
	if gotEvents[3].Tag != "faster" {
		t.Errorf("tag event = %+v", gotEvents[3])
	}
}

func TestListRunsChronological(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	base := time.Unix(0, 0).UTC()
	for i, id := range []string{"c", "a", "b"} {
		run := model.RunSummary{
			RunID:     id,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			EndedAt:   base.Add(time.Duration(i)*time.Hour + time.Minute),
			Score:     float64(i),
		}
		if err := st.InsertRun(ctx, run, nil, nil); err != nil {
			t.Fatalf("insert run %s: %v", id, err)
		}
	}

	runs, err := st.ListRuns(ctx)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, want 3", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].EndedAt.Before(runs[i-1].EndedAt) {
			t.Errorf("runs out of order: %v before %v", runs[i].EndedAt, runs[i-1].EndedAt)
		}
	}
}

func TestListUnknownRun(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	trials, err := st.ListTrials(ctx, "missing")
	if err != nil {
		t.Fatalf("list trials: %v", err)
	}
	if len(trials) != 0 {
		t.Errorf("got %d trials for unknown run", len(trials))
	}
	events, err := st.ListEvents(ctx, "missing")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events for unknown run", len(events))
	}
}
