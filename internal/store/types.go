package store

import (
	"errors"

	"github.com/roach88/jpqlc/internal/ir"
)

// ErrRunNotFound is returned when a run ID is not in the log.
var ErrRunNotFound = errors.New("run not found")

// Run is one logged invocation of the renderer over a fragment source.
type Run struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`              // Logical clock, assigned by CreateRun
	Source          string `json:"source"`           // Fragment file or directory
	RendererVersion string `json:"renderer_version"` // ir.RendererVersion at write time
	NodeVersion     string `json:"node_version"`     // ir.NodeVersion at write time
}

// Render is one rendered fragment within a run.
type Render struct {
	RunID        string   `json:"run_id"`
	Seq          int64    `json:"seq"` // Position within the run, from 1
	Name         string   `json:"name"`
	TreeID       string   `json:"tree_id"`   // Content address of Tree
	RenderID     string   `json:"render_id"` // ir.RenderID over tree, version and outcome
	Tree         *ir.Node `json:"tree,omitempty"`
	Output       string   `json:"output,omitempty"`
	ErrorKind    string   `json:"error_kind,omitempty"`
	ErrorMessage string   `json:"error_message,omitempty"`
}
