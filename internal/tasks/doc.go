// Package tasks turns playlist tracks into spreadsheet rows with real-time progress reporting.
//
// # Core Operations
//
//  1. [AggregateAlbums] : Playlist → albums
//     - Pages through the playlist until the declared total is collected
//     - Keeps the first track seen per album ID
//     - Sorts the albums by date with [SortAlbums]
//
//  2. [Reconciler] : albums → sheet rows
//     - [Reconciler.Plan] reads the range and keeps albums whose URI is not in column E
//     - [Reconciler.Apply] appends [date, offset formula, name, artists, uri] rows in one request
//
// [SyncEngine.Run] chains both. [SyncEngine.Albums] runs only the first step.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] interface persists each run (repositories.RunRepository).
// History is an audit log: it is never read back to decide what to append.
package tasks
