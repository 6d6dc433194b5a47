// Package store provides SQLite-backed durable storage for render logs.
//
// Each invocation of the render command is a run; each rendered fragment is
// a render row linked to the content-addressed tree it came from:
//   - Runs: source, renderer version, logical sequence number
//   - Trees: zstd-compressed node documents keyed by ir.TreeID
//   - Renders: per-fragment output or error kind
//
// # Critical Patterns
//
// Logical ordering
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Queries order by seq ASC, id ASC COLLATE BINARY
//
// Idempotent writes
//   - Trees are inserted with ON CONFLICT DO NOTHING, so the same tree
//     rendered by many runs is stored once
//   - Re-writing a render row with the same (run_id, seq) is a no-op
//
// Replay
//   - Replay re-renders every stored tree with the current renderer and
//     reports rows whose output or error kind changed
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
