package ir

// Version constants for the node document and renderer.
const (
	// NodeVersion is the node document schema version.
	NodeVersion = "1"

	// RendererVersion is recorded with every logged render so replays can
	// tell which rendering rules produced the stored text.
	RendererVersion = "0.1.0"
)
