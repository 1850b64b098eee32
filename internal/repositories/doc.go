// Package repositories implements SQLite persistence for the sync run history.
//
// The history is an audit log: runs and their per-item results are written after a run ends
// and read back only by the history command. The sync engine never consults it.
//
// Key Implementations:
//   - [SyncRunRepository] : Run records with per-item results and state-based queries
//   - [RunHistoryAdapter] : tasks.RunRecorder backed by SyncRunRepository
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and timestamps.
// The [NextSequence] function increments per-table sequence counters in dedicated sequence tables.
package repositories
