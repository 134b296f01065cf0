// Package repositories implements SQLite persistence for sync run history.
//
// [RunRepository] handles CRUD operations on runs with atomic sequence generation for human-readable ordering,
// soft deletes via deleted_at timestamps, and the list of albums each run appended.
//
// The history is an audit log. The spreadsheet stays the only source of truth for which albums are recorded.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
