// Package tasks drives a list sync from a dataset of titles to a remote catalog list with real-time progress reporting.
//
// # Run
//
// [ListEngine.Run] moves through a fixed sequence of states:
//
//  1. Init : the dataset is loaded. An unreadable dataset aborts before any remote call.
//  2. ListResolved : the target list is found by exact name, or created in a live run.
//     A dry run never creates the list.
//  3. SnapshotCaptured : the list membership is read once. A dry run uses an empty snapshot.
//  4. Processing : each item is classified, then applied when it is ToAdd, in dataset order.
//  5. Done : the [models.SyncSummary] is final.
//
// Any setup failure moves the run to Aborted and returns an error wrapping [shared.ErrSetup].
// Per-item failures never abort; they are folded into the summary.
//
// # Classification
//
// The [Classifier] short-circuits titles already in the snapshot (exact, case-sensitive)
// and otherwise asks the [Resolver] for the first catalog result.
// [MatchByID] resolves every item and compares catalog identifiers instead.
//
// # Pacing
//
// The [Applier] waits a fixed delay after every successful live addition.
// Failed, duplicate and dry-run additions do not wait.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for rendering.
// A nil [Reporter] in [EngineOpts] discards updates.
//
// # Run History
//
// The optional [RunRecorder] receives the finished run and its items (repositories.SyncRunRepository).
// Recording errors are reported as warnings and never change the run's result.
package tasks
