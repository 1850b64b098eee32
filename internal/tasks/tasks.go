// package tasks implements the list sync engine.
//
// A run loads the desired titles, resolves or creates the target list, captures its membership once,
// then classifies and applies every title in dataset order.
// Progress is emitted through a [Reporter] so the CLI layer can render it.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
)

// DatasetSource supplies the desired items in processing order.
type DatasetSource interface {
	Load(ctx context.Context) ([]models.DesiredItem, error)
}

// StaticDataset is an in-memory [DatasetSource].
type StaticDataset []models.DesiredItem

func (s StaticDataset) Load(context.Context) ([]models.DesiredItem, error) {
	return s, nil
}

// RunRecorder persists the audit record of a finished run.
//
// The engine never reads recorded runs back. A recording error is reported as a warning.
type RunRecorder interface {
	RecordRun(run *models.SyncRun, items []models.SyncRunItem) error
}

// ItemResult is the final state of one desired item.
type ItemResult struct {
	Item        models.DesiredItem
	Disposition models.Disposition
	Outcome     models.Outcome
	Match       *models.CatalogMatch
	Err         error
}

// SyncResult contains everything a completed run produced.
type SyncResult struct {
	List    models.TargetList
	DryRun  bool
	Items   []ItemResult
	Summary models.SyncSummary
	Run     *models.SyncRun
}

// RunOpts configures a single run.
type RunOpts struct {
	ListName    string
	DatasetPath string // recorded in the run history, "-" when empty
	Dataset     DatasetSource
	DryRun      bool
}

// SyncEngine runs list syncs.
type SyncEngine interface {
	// Run drives one sync from Init to Done, or to Aborted on a setup failure or cancellation.
	Run(ctx context.Context, opts RunOpts) (*SyncResult, error)
}

// EngineOpts holds the collaborators of a [ListEngine].
type EngineOpts struct {
	Search   services.CatalogSearch
	Store    services.ListStore
	Reporter Reporter    // nil discards progress
	Recorder RunRecorder // nil disables run history
	Delay    time.Duration
	Match    MatchPolicy
	Sleep    Sleeper // nil uses SleepContext
}

// ListEngine implements [SyncEngine].
//
// Items are processed strictly one at a time. Cancellation is checked between items;
// an in-flight catalog or list call always runs to completion.
type ListEngine struct {
	store      services.ListStore
	classifier *Classifier
	applier    *Applier
	reporter   Reporter
	recorder   RunRecorder
	state      models.RunState
}

// NewListEngine creates a ListEngine from opts.
func NewListEngine(opts EngineOpts) *ListEngine {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}

	return &ListEngine{
		store:      opts.Store,
		classifier: NewClassifier(NewResolver(opts.Search), opts.Match),
		applier:    NewApplier(opts.Store, opts.Delay, opts.Sleep),
		reporter:   reporter,
		recorder:   opts.Recorder,
		state:      models.StateInit,
	}
}

// State returns the state the last run reached.
func (e *ListEngine) State() models.RunState {
	return e.state
}

// Run performs a sync. A setup failure returns an error wrapping [shared.ErrSetup] and leaves the list untouched
// beyond what setup itself did. Cancellation between items returns an error wrapping [shared.ErrCancelled].
// Per-item failures never abort the run.
func (e *ListEngine) Run(ctx context.Context, opts RunOpts) (*SyncResult, error) {
	e.state = models.StateInit

	datasetPath := opts.DatasetPath
	if datasetPath == "" {
		datasetPath = "-"
	}
	run := models.NewSyncRun(opts.ListName, datasetPath, opts.DryRun)
	callCtx := context.WithoutCancel(ctx)

	if opts.ListName == "" {
		return nil, e.abort(run, 0, fmt.Errorf("%w: list name is required", shared.ErrMissingArgument))
	}
	if opts.Dataset == nil {
		return nil, e.abort(run, 0, fmt.Errorf("%w: no dataset", shared.ErrDatasetUnreadable))
	}

	items, err := opts.Dataset.Load(callCtx)
	if err != nil {
		return nil, e.abort(run, 0, err)
	}
	total := len(items)
	run.ItemsTotal = total
	e.reporter.Report(datasetLoadedUpdate(total))

	if err := ctx.Err(); err != nil {
		return nil, e.cancel(run, total, err, models.SyncSummary{}, nil)
	}

	list, err := e.resolveList(callCtx, opts.ListName, opts.DryRun, total)
	if err != nil {
		return nil, e.abort(run, total, err)
	}
	run.ListID = list.ID
	e.state = models.StateListResolved

	if err := ctx.Err(); err != nil {
		return nil, e.cancel(run, total, err, models.SyncSummary{}, nil)
	}

	snapshot, err := CaptureSnapshot(callCtx, e.store, *list, opts.DryRun)
	if err != nil {
		return nil, e.abort(run, total, err)
	}
	e.state = models.StateSnapshotCaptured
	e.reporter.Report(snapshotUpdate(total, snapshot, opts.DryRun))

	e.state = models.StateProcessing
	summary := &Summary{}
	results := make([]ItemResult, 0, total)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, e.cancel(run, total, err, summary.Render(), results)
		}

		res := e.process(ctx, callCtx, item, *list, snapshot, opts.DryRun)
		summary.Record(res.Disposition, res.Outcome)
		results = append(results, res)
		e.reporter.Report(itemUpdate(i+1, total, res, opts.DryRun))
	}

	final := summary.Render()
	e.state = models.StateDone
	run.Complete(models.StateDone, final, nil)
	e.record(run, results)
	e.reporter.Report(completeUpdate(total, final))

	return &SyncResult{
		List:    *list,
		DryRun:  opts.DryRun,
		Items:   results,
		Summary: final,
		Run:     run,
	}, nil
}

// process classifies one item and applies it when it is ToAdd.
// Collaborator calls use callCtx; only the pacing delay observes ctx.
func (e *ListEngine) process(ctx, callCtx context.Context, item models.DesiredItem, list models.TargetList, snapshot models.MembershipSnapshot, dryRun bool) ItemResult {
	c := e.classifier.Classify(callCtx, item, snapshot)
	res := ItemResult{Item: item, Disposition: c.Disposition, Match: c.Match, Err: c.Err}

	switch c.Disposition {
	case models.AlreadyPresent:
		res.Outcome = models.Skipped
	case models.NotFound:
		res.Outcome = models.OutcomeNotFound
	case models.ToAdd:
		applied := e.applier.Apply(ctx, *c.Match, list, dryRun)
		res.Outcome, res.Err = applied.Outcome, applied.Err
	}
	return res
}

// resolveList finds the list by exact name or creates it. In dry-run a missing list is never created
// and a lookup failure degrades to a warning.
func (e *ListEngine) resolveList(ctx context.Context, name string, dryRun bool, total int) (*models.TargetList, error) {
	if e.store == nil {
		if dryRun {
			return &models.TargetList{Name: name}, nil
		}
		return nil, fmt.Errorf("%w: list store not configured", shared.ErrServiceUnavailable)
	}

	list, err := e.store.FindListByName(ctx, name)
	if err != nil {
		if !dryRun {
			return nil, fmt.Errorf("%w: %w", shared.ErrListResolution, err)
		}
		e.reporter.Report(warningUpdate(total, "Could not look up lists, assuming the list is new: %v", err))
		list = nil
	}

	if list != nil {
		e.reporter.Report(foundListUpdate(total, list))
		return list, nil
	}

	if dryRun {
		e.reporter.Report(missingListUpdate(total, name))
		return &models.TargetList{Name: name}, nil
	}

	created, err := e.store.CreateList(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create list %q: %w", shared.ErrListResolution, name, err)
	}
	e.reporter.Report(createdListUpdate(total, created))
	return created, nil
}

func (e *ListEngine) abort(run *models.SyncRun, total int, cause error) error {
	err := fmt.Errorf("%w: %w", shared.ErrSetup, cause)
	e.state = models.StateAborted
	run.Complete(models.StateAborted, models.SyncSummary{}, err)
	e.record(run, nil)
	e.reporter.Report(abortedUpdate(total, err))
	return err
}

// cancel aborts a run interrupted by ctx, keeping whatever was processed before the interruption.
func (e *ListEngine) cancel(run *models.SyncRun, total int, cause error, partial models.SyncSummary, results []ItemResult) error {
	err := fmt.Errorf("%w: %v", shared.ErrCancelled, cause)
	e.state = models.StateAborted
	run.Complete(models.StateAborted, partial, err)
	e.record(run, results)
	e.reporter.Report(abortedUpdate(total, err))
	return err
}

func (e *ListEngine) record(run *models.SyncRun, results []ItemResult) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordRun(run, runItems(results)); err != nil {
		e.reporter.Report(warningUpdate(run.ItemsTotal, "Could not record run history: %v", err))
	}
}

func runItems(results []ItemResult) []models.SyncRunItem {
	items := make([]models.SyncRunItem, 0, len(results))
	for i, res := range results {
		item := models.SyncRunItem{
			Position:    i + 1,
			Title:       res.Item.Title,
			Year:        res.Item.Year,
			Disposition: res.Disposition,
			Outcome:     res.Outcome,
		}
		if res.Match != nil {
			item.ExternalID = res.Match.ExternalID
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		items = append(items, item)
	}
	return items
}
