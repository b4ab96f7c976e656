// Package board defines the core entities of a content-production workflow:
// channels with ordered pipeline columns, typed custom fields with per-column
// requirements and edit permissions, active tasks, the append-only stage-event
// audit log, and write-once completed-task snapshots.
//
// Treat this package as the single source of truth for entity semantics. Field
// values are tagged variants keyed by the declaring field's type; validity is
// checked at the edit boundary, not on read. Column order values within a
// channel are unique and gapless from zero, so every column has exactly zero
// or one successor.
package board
