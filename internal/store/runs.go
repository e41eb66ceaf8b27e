package store

import (
	"context"
	"fmt"

	"github.com/u-ask/uask-dom-sub000/internal/engine"
)

// Run identifies one participant run.
type Run struct {
	ID          string `json:"id"`
	Participant string `json:"participant"`
	RulesHash   string `json:"rulesHash"`
	Seq         int64  `json:"seq"`
}

// WriteRun stores a run and its firings in one transaction. Seq is
// assigned by the store. Writing an existing run ID is a no-op.
func (s *Store) WriteRun(ctx context.Context, run Run, firings []engine.Firing) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("write run: begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, participant, rules_hash, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs))
		ON CONFLICT(id) DO NOTHING
	`, run.ID, run.Participant, run.RulesHash)
	if err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The transaction holds the only connection.
		err := tx.QueryRowContext(ctx, `SELECT participant, rules_hash, seq FROM runs WHERE id = ?`, run.ID).
			Scan(&run.Participant, &run.RulesHash, &run.Seq)
		if err != nil {
			return run, fmt.Errorf("write run: %w", err)
		}
		return run, nil
	}

	for _, f := range firings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO firings (run_id, seq, pass, interview, rule, target, changed, error)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, f.Seq, f.Pass, f.Interview, f.Rule, f.Target, f.Changed, f.Error)
		if err != nil {
			return run, fmt.Errorf("write run: firing %d: %w", f.Seq, err)
		}
	}

	if err := tx.QueryRowContext(ctx, `SELECT seq FROM runs WHERE id = ?`, run.ID).Scan(&run.Seq); err != nil {
		return run, fmt.Errorf("write run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("write run: commit: %w", err)
	}
	return run, nil
}

// ReadRun returns the run with id, or an error wrapping sql.ErrNoRows.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	run := Run{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT participant, rules_hash, seq FROM runs WHERE id = ?
	`, id).Scan(&run.Participant, &run.RulesHash, &run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ReadFirings returns the firings of a run ordered by seq. Returns an
// empty slice, not nil, when the run has none.
func (s *Store) ReadFirings(ctx context.Context, runID string) ([]engine.Firing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, pass, interview, rule, target, changed, error
		FROM firings
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query firings: %w", err)
	}
	defer rows.Close()

	firings := []engine.Firing{}
	for rows.Next() {
		var f engine.Firing
		if err := rows.Scan(&f.Seq, &f.Pass, &f.Interview, &f.Rule, &f.Target, &f.Changed, &f.Error); err != nil {
			return nil, fmt.Errorf("scan firing: %w", err)
		}
		firings = append(firings, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate firings: %w", err)
	}
	return firings, nil
}

// ListRuns returns the runs of a participant, oldest first. An empty
// participant lists every run.
func (s *Store) ListRuns(ctx context.Context, participant string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant, rules_hash, seq
		FROM runs
		WHERE ? = '' OR participant = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, participant, participant)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Participant, &r.RulesHash, &r.Seq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
