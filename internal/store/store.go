// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/oddsearch/internal/eventlog"
	"github.com/verte-zerg/oddsearch/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for experiment run data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			score REAL NOT NULL,
			trials INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trials (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			trialtime REAL NOT NULL,
			airtime REAL NOT NULL,
			hits INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			targets INTEGER NOT NULL,
			taps INTEGER NOT NULL,
			tapdistance REAL NOT NULL,
			score_delta REAL NOT NULL,
			feedback TEXT NOT NULL,
			skipped INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			at TEXT NOT NULL,
			kind INTEGER NOT NULL,
			scalar REAL NOT NULL,
			vec_x REAL NOT NULL,
			vec_y REAL NOT NULL,
			tag TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_events_name ON events(name);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores a completed run with its trials and event records in one
// transaction. Event ordering is preserved by sequence number.
func (s *Store) InsertRun(ctx context.Context, run model.RunSummary, trials []model.TrialRecord, events []eventlog.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, score, trials) VALUES (?, ?, ?, ?, ?)`,
		run.RunID,
		run.StartedAt.Format(time.RFC3339Nano),
		run.EndedAt.Format(time.RFC3339Nano),
		run.Score,
		run.Trials,
	); err != nil {
		return err
	}

	if len(trials) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO trials (run_id, seq, trialtime, airtime, hits, misses, targets, taps, tapdistance, score_delta, feedback, skipped)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, tr := range trials {
			skipped := 0
			if tr.Skipped {
				skipped = 1
			}
			if _, err = stmt.ExecContext(ctx, run.RunID, tr.Seq,
				tr.Stats.TrialTime, tr.Stats.AirTime,
				tr.Stats.Hits, tr.Stats.Misses, tr.Stats.Targets, tr.Stats.Taps,
				tr.Stats.TapDistance, tr.ScoreDelta, tr.Feedback, skipped,
			); err != nil {
				return err
			}
		}
	}

	if len(events) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO events (run_id, seq, type, name, at, kind, scalar, vec_x, vec_y, tag)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, ev := range events {
			if _, err = stmt.ExecContext(ctx, run.RunID, i, ev.Type, ev.Name,
				ev.At.Format(time.RFC3339Nano), int(ev.Kind),
				ev.Scalar, ev.Vec.X, ev.Vec.Y, ev.Tag,
			); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// ListRuns returns stored runs in chronological order.
func (s *Store) ListRuns(ctx context.Context) ([]model.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, score, trials FROM runs ORDER BY ended_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunSummary
	for rows.Next() {
		var run model.RunSummary
		var startedAt, endedAt string
		if err := rows.Scan(&run.RunID, &startedAt, &endedAt, &run.Score, &run.Trials); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// ListTrials returns the trials of one run in sequence order.
func (s *Store) ListTrials(ctx context.Context, runID string) ([]model.TrialRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, trialtime, airtime, hits, misses, targets, taps, tapdistance, score_delta, feedback, skipped
		 FROM trials WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var trials []model.TrialRecord
	for rows.Next() {
		var tr model.TrialRecord
		var skipped int
		if err := rows.Scan(&tr.Seq,
			&tr.Stats.TrialTime, &tr.Stats.AirTime,
			&tr.Stats.Hits, &tr.Stats.Misses, &tr.Stats.Targets, &tr.Stats.Taps,
			&tr.Stats.TapDistance, &tr.ScoreDelta, &tr.Feedback, &skipped,
		); err != nil {
			return nil, err
		}
		tr.Skipped = skipped != 0
		trials = append(trials, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trials, nil
}

// ListEvents returns the event records of one run in append order.
func (s *Store) ListEvents(ctx context.Context, runID string) ([]eventlog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, name, at, kind, scalar, vec_x, vec_y, tag
		 FROM events WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []eventlog.Record
	for rows.Next() {
		var ev eventlog.Record
		var at string
		var kind int
		if err := rows.Scan(&ev.Type, &ev.Name, &at, &kind, &ev.Scalar, &ev.Vec.X, &ev.Vec.Y, &ev.Tag); err != nil {
			return nil, err
		}
		if ev.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, err
		}
		ev.Kind = eventlog.ValueKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
