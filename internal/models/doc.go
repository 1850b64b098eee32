// Package models defines the domain types for list synchronization.
//
// The package contains two categories of types:
//
// 1. Sync values: immutable inputs and results passed between the engine stages
//   - [DesiredItem] : one dataset row (title, optional year)
//   - [CatalogMatch] : the catalog entry chosen for a title
//   - [TargetList] : the remote list being synchronized
//   - [MembershipSnapshot] : list contents captured at run start
//   - [Disposition], [Outcome], [SyncSummary] : classification and tallies
//
// 2. Persistent entities: records written by the run-history store
//   - [SyncRun] : one sync invocation with its final counts
//   - [SyncRunItem] : per-item disposition and outcome for a run
//
// Persistent entities implement [Model]; repositories implement [Repository].
package models
