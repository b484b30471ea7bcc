package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Output is one file written by a run.
type Output struct {
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint"`
	Outcome     string `json:"outcome"`
}

// Run is one recorded generation.
type Run struct {
	ID               string   `json:"id"`
	Seq              int64    `json:"seq"`
	Root             string   `json:"root"`
	GeneratorVersion string   `json:"generator_version"`
	ModelFingerprint string   `json:"model_fingerprint"`
	FileCount        int      `json:"file_count"`
	Outputs          []Output `json:"outputs,omitempty"`
}

// RecordRun appends run to the ledger and returns it with ID, Seq and
// FileCount filled in. An empty ID gets a fresh UUID; Seq is always one past
// the highest recorded seq.
func (s *Store) RecordRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.FileCount = len(run.Outputs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, errors.Wrap(err, "record run: begin")
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq); err != nil {
		return Run{}, errors.Wrap(err, "record run: next seq")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, root, generator_version, model_fingerprint, file_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.Seq, run.Root, run.GeneratorVersion, run.ModelFingerprint, run.FileCount)
	if err != nil {
		return Run{}, errors.Wrap(err, "record run")
	}

	for _, out := range run.Outputs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outputs (run_id, path, fingerprint, outcome)
			VALUES (?, ?, ?, ?)
		`, run.ID, out.Path, out.Fingerprint, out.Outcome)
		if err != nil {
			return Run{}, errors.Wrapf(err, "record output %s", out.Path)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, errors.Wrap(err, "record run: commit")
	}
	return run, nil
}

// LatestRun returns the most recent run for root with its outputs, or nil
// when root has never been generated.
func (s *Store) LatestRun(ctx context.Context, root string) (*Run, error) {
	runs, err := s.Runs(ctx, root, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	run := runs[0]
	run.Outputs, err = s.outputs(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// Runs returns up to limit runs, newest first. An empty root matches every
// root; a limit of zero or less means no limit. Outputs are not loaded.
func (s *Store) Runs(ctx context.Context, root string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, root, generator_version, model_fingerprint, file_count
		FROM runs
		WHERE ? = '' OR root = ?
		ORDER BY seq DESC
		LIMIT ?
	`, root, root, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seq, &r.Root, &r.GeneratorVersion, &r.ModelFingerprint, &r.FileCount); err != nil {
			return nil, errors.Wrap(err, "scan run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate runs")
	}
	return runs, nil
}

func (s *Store) outputs(ctx context.Context, runID string) ([]Output, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, fingerprint, outcome
		FROM outputs
		WHERE run_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "query outputs")
	}
	defer rows.Close()

	out := []Output{}
	for rows.Next() {
		var o Output
		if err := rows.Scan(&o.Path, &o.Fingerprint, &o.Outcome); err != nil {
			return nil, errors.Wrap(err, "scan output")
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate outputs")
	}
	return out, nil
}
