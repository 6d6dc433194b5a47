package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ListRuns returns all runs ordered by seq.
// Returns an empty slice (not nil) when the log is empty.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, source, renderer_version, node_version
		FROM runs
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Seq, &r.Source, &r.RendererVersion, &r.NodeVersion); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadRun returns a single run. Returns ErrRunNotFound if absent.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source, renderer_version, node_version
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Seq, &r.Source, &r.RendererVersion, &r.NodeVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %q: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %q: %w", id, err)
	}
	return r, nil
}

// LatestRun returns the run with the highest seq.
// Returns ErrRunNotFound if the log is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source, renderer_version, node_version
		FROM runs ORDER BY seq DESC LIMIT 1
	`).Scan(&r.ID, &r.Seq, &r.Source, &r.RendererVersion, &r.NodeVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("latest run: %w", ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// ReadRenders returns a run's renders ordered by seq, with trees
// decompressed. Returns an empty slice (not nil) for a run without rows.
func (s *Store) ReadRenders(ctx context.Context, runID string) ([]Render, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.seq, r.name, r.tree_id, r.render_id,
		       r.output, r.error_kind, r.error_message, t.doc
		FROM renders r
		JOIN trees t ON t.id = r.tree_id
		WHERE r.run_id = ?
		ORDER BY r.seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query renders: %w", err)
	}
	defer rows.Close()

	renders := []Render{}
	for rows.Next() {
		var (
			r    Render
			blob []byte
		)
		if err := rows.Scan(&r.RunID, &r.Seq, &r.Name, &r.TreeID, &r.RenderID,
			&r.Output, &r.ErrorKind, &r.ErrorMessage, &blob); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		r.Tree, err = decompressTree(blob)
		if err != nil {
			return nil, fmt.Errorf("render %d: %w", r.Seq, err)
		}
		renders = append(renders, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}
	return renders, nil
}

// RunsForTree returns the IDs of runs that rendered the given tree, in run
// order.
func (s *Store) RunsForTree(ctx context.Context, treeID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ru.id, ru.seq
		FROM renders r
		JOIN runs ru ON ru.id = r.run_id
		WHERE r.tree_id = ?
		ORDER BY ru.seq ASC, ru.id COLLATE BINARY ASC
	`, treeID)
	if err != nil {
		return nil, fmt.Errorf("query runs for tree: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var (
			id  string
			seq int64
		)
		if err := rows.Scan(&id, &seq); err != nil {
			return nil, fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run ids: %w", err)
	}
	return ids, nil
}

func (s *Store) runRendererVersion(ctx context.Context, runID string) (string, error) {
	run, err := s.ReadRun(ctx, runID)
	if err != nil {
		return "", err
	}
	return run.RendererVersion, nil
}
