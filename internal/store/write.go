package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/jpqlc/internal/ir"
)

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreateRun inserts a run record and assigns it the next logical sequence
// number. Version fields default to the current ir versions when empty.
func (s *Store) CreateRun(ctx context.Context, run Run) (Run, error) {
	run, err := insertRun(ctx, s.db, run)
	if err != nil {
		return Run{}, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// WriteRender stores a render row and its tree in one transaction.
//
// TreeID and RenderID are computed from the row when empty. The tree blob
// is written with ON CONFLICT DO NOTHING (trees are content addressed) and
// the render row with ON CONFLICT DO NOTHING on (run_id, seq), so retried
// writes are idempotent. Returns the row with its IDs filled in.
func (s *Store) WriteRender(ctx context.Context, r Render) (Render, error) {
	if r.Tree == nil {
		return Render{}, fmt.Errorf("write render: tree is required")
	}
	version := ""
	if r.RenderID == "" {
		v, err := s.runRendererVersion(ctx, r.RunID)
		if err != nil {
			return Render{}, fmt.Errorf("write render: %w", err)
		}
		version = v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Render{}, fmt.Errorf("write render: begin: %w", err)
	}
	defer tx.Rollback()

	r, err = insertRender(ctx, tx, r, version)
	if err != nil {
		return Render{}, fmt.Errorf("write render: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Render{}, fmt.Errorf("write render: commit: %w", err)
	}
	return r, nil
}

// RecordRun writes a run and all of its renders in one transaction: either
// the whole run lands in the log or none of it does. Each render's RunID is
// set to the run's ID and a zero Seq becomes its 1-based position. Returns
// the stored run and renders with IDs filled in.
func (s *Store) RecordRun(ctx context.Context, run Run, renders []Render) (Run, []Render, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, nil, fmt.Errorf("record run: begin: %w", err)
	}
	defer tx.Rollback()

	run, err = insertRun(ctx, tx, run)
	if err != nil {
		return Run{}, nil, fmt.Errorf("record run: %w", err)
	}

	stored := make([]Render, 0, len(renders))
	for i, r := range renders {
		if r.Tree == nil {
			return Run{}, nil, fmt.Errorf("record run: render %q: tree is required", r.Name)
		}
		r.RunID = run.ID
		if r.Seq == 0 {
			r.Seq = int64(i + 1)
		}
		written, err := insertRender(ctx, tx, r, run.RendererVersion)
		if err != nil {
			return Run{}, nil, fmt.Errorf("record run: render %q: %w", r.Name, err)
		}
		stored = append(stored, written)
	}

	if err := tx.Commit(); err != nil {
		return Run{}, nil, fmt.Errorf("record run: commit: %w", err)
	}
	return run, stored, nil
}

func insertRun(ctx context.Context, db execer, run Run) (Run, error) {
	if run.ID == "" {
		return Run{}, fmt.Errorf("id is required")
	}
	if run.RendererVersion == "" {
		run.RendererVersion = ir.RendererVersion
	}
	if run.NodeVersion == "" {
		run.NodeVersion = ir.NodeVersion
	}

	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&run.Seq)
	if err != nil {
		return Run{}, fmt.Errorf("next seq: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, seq, source, renderer_version, node_version)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Seq, run.Source, run.RendererVersion, run.NodeVersion)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// insertRender fills in missing IDs and writes the tree blob and the render
// row. version is the run's renderer version, used only when RenderID is
// empty.
func insertRender(ctx context.Context, db execer, r Render, version string) (Render, error) {
	if r.TreeID == "" {
		id, err := ir.TreeID(r.Tree)
		if err != nil {
			return Render{}, err
		}
		r.TreeID = id
	}
	if r.RenderID == "" {
		id, err := ir.RenderID(r.TreeID, version, r.Output, r.ErrorKind)
		if err != nil {
			return Render{}, err
		}
		r.RenderID = id
	}

	blob, err := compressTree(r.Tree)
	if err != nil {
		return Render{}, err
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO trees (id, doc) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, r.TreeID, blob); err != nil {
		return Render{}, fmt.Errorf("tree: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		INSERT INTO renders
		(run_id, seq, name, tree_id, render_id, output, error_kind, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		r.RunID,
		r.Seq,
		r.Name,
		r.TreeID,
		r.RenderID,
		r.Output,
		r.ErrorKind,
		r.ErrorMessage,
	); err != nil {
		return Render{}, err
	}
	return r, nil
}
