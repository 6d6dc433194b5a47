package store

import (
	"context"
	"fmt"

	"github.com/roach88/jpqlc/internal/jpql"
)

// ReplayResult summarizes re-rendering a logged run with the current
// renderer.
type ReplayResult struct {
	RunID      string     `json:"run_id"`
	Total      int        `json:"total"`
	Matched    int        `json:"matched"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Mismatch is a render whose current outcome differs from the logged one.
type Mismatch struct {
	Seq      int64        `json:"seq"`
	Name     string       `json:"name"`
	Recorded jpql.Outcome `json:"recorded"`
	Current  jpql.Outcome `json:"current"`
}

// Identical reports whether every logged render reproduced exactly.
func (r ReplayResult) Identical() bool {
	return len(r.Mismatches) == 0
}

// Replay re-renders every tree of a run and compares output and error kind
// against the log. Error messages are not compared; they may be reworded
// without changing behavior.
func (s *Store) Replay(ctx context.Context, runID string) (ReplayResult, error) {
	if _, err := s.ReadRun(ctx, runID); err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	renders, err := s.ReadRenders(ctx, runID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("replay: %w", err)
	}

	result := ReplayResult{RunID: runID, Total: len(renders), Mismatches: []Mismatch{}}
	for _, r := range renders {
		if err := ctx.Err(); err != nil {
			return ReplayResult{}, fmt.Errorf("replay: %w", err)
		}

		current := jpql.RenderDocument(r.Tree)
		if current.Output == r.Output && current.ErrorKind == r.ErrorKind {
			result.Matched++
			continue
		}
		result.Mismatches = append(result.Mismatches, Mismatch{
			Seq:  r.Seq,
			Name: r.Name,
			Recorded: jpql.Outcome{
				Output:       r.Output,
				ErrorKind:    r.ErrorKind,
				ErrorMessage: r.ErrorMessage,
			},
			Current: current,
		})
	}
	return result, nil
}
