package tasks

import (
	"fmt"

	"github.com/desertthunder/listsync/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase               // Operation phase
	Step    int                 // Current item number (1-based), zero for run-level events
	Total   int                 // Number of desired items, zero before the dataset is loaded
	Message string              // Human-readable message for display
	Item    *models.DesiredItem // Item the update refers to, if any
	Err     error               // Recovered or fatal error, if any
	Data    any                 // Optional phase-specific data
}

// Reporter receives progress updates in the order they happen.
type Reporter interface {
	Report(update ProgressUpdate)
}

type nopReporter struct{}

func (nopReporter) Report(ProgressUpdate) {}

// Operation phase enumeration
type Phase int

const (
	LoadDataset Phase = iota
	ResolveList
	CreateList
	SnapshotCaptured
	ItemAlreadyPresent
	ItemNotFound
	ItemWouldAdd
	ItemAdded
	ItemDuplicate
	ItemFailed
	RunWarning
	RunComplete
	RunAborted
)

func (p Phase) String() string {
	switch p {
	case LoadDataset:
		return "load_dataset"
	case ResolveList:
		return "resolve_list"
	case CreateList:
		return "create_list"
	case SnapshotCaptured:
		return "snapshot_captured"
	case ItemAlreadyPresent:
		return "item_already_present"
	case ItemNotFound:
		return "item_not_found"
	case ItemWouldAdd:
		return "item_would_add"
	case ItemAdded:
		return "item_added"
	case ItemDuplicate:
		return "item_duplicate"
	case ItemFailed:
		return "item_failed"
	case RunWarning:
		return "run_warning"
	case RunComplete:
		return "run_complete"
	case RunAborted:
		return "run_aborted"
	default:
		return ""
	}
}

// IsItem reports whether the phase describes a single desired item.
func (p Phase) IsItem() bool {
	return p >= ItemAlreadyPresent && p <= ItemFailed
}

func datasetLoadedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadDataset,
		Total:   total,
		Message: fmt.Sprintf("Loaded %d titles", total),
	}
}

func foundListUpdate(total int, list *models.TargetList) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveList,
		Total:   total,
		Message: fmt.Sprintf("Found existing list: %s (ID: %s)", list.Name, list.ID),
		Data:    *list,
	}
}

func missingListUpdate(total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveList,
		Total:   total,
		Message: fmt.Sprintf("List %q does not exist and would be created", name),
		Data:    models.TargetList{Name: name},
	}
}

func createdListUpdate(total int, list *models.TargetList) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreateList,
		Total:   total,
		Message: fmt.Sprintf("Created new list: %s (ID: %s)", list.Name, list.ID),
		Data:    *list,
	}
}

func snapshotUpdate(total int, snapshot models.MembershipSnapshot, dryRun bool) ProgressUpdate {
	msg := fmt.Sprintf("List currently holds %d titles", snapshot.Len())
	if dryRun {
		msg = "Dry run: current list contents are not read"
	}
	return ProgressUpdate{
		Phase:   SnapshotCaptured,
		Total:   total,
		Message: msg,
		Data:    snapshot.Len(),
	}
}

func warningUpdate(total int, format string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunWarning,
		Total:   total,
		Message: fmt.Sprintf(format, err),
		Err:     err,
	}
}

func itemUpdate(step, total int, res ItemResult, dryRun bool) ProgressUpdate {
	item := res.Item
	u := ProgressUpdate{Step: step, Total: total, Item: &item, Err: res.Err}

	switch {
	case res.Disposition == models.AlreadyPresent:
		u.Phase = ItemAlreadyPresent
		u.Message = fmt.Sprintf("Already in list: %s", item.Title)
	case res.Disposition == models.NotFound && res.Err != nil:
		u.Phase = ItemNotFound
		u.Message = fmt.Sprintf("Not found: %s (%v)", item.Title, res.Err)
	case res.Disposition == models.NotFound:
		u.Phase = ItemNotFound
		u.Message = fmt.Sprintf("Not found: %s", item.Title)
	case res.Outcome == models.Added && dryRun:
		u.Phase = ItemWouldAdd
		u.Message = fmt.Sprintf("Would add: %s (ID: %s)", item.Title, res.Match.ExternalID)
	case res.Outcome == models.Added:
		u.Phase = ItemAdded
		u.Message = fmt.Sprintf("Added: %s (ID: %s)", item.Title, res.Match.ExternalID)
	case res.Outcome == models.Skipped:
		u.Phase = ItemDuplicate
		u.Message = fmt.Sprintf("Already in list: %s (ID: %s, rejected as duplicate)", item.Title, res.Match.ExternalID)
	default:
		u.Phase = ItemFailed
		u.Message = fmt.Sprintf("Error adding %s: %v", item.Title, res.Err)
	}

	if res.Match != nil {
		u.Data = *res.Match
	}
	return u
}

func completeUpdate(total int, summary models.SyncSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunComplete,
		Total:   total,
		Message: fmt.Sprintf("Added: %d, already in list: %d, not found: %d", summary.Added, summary.AlreadyInList, summary.NotFound),
		Data:    summary,
	}
}

func abortedUpdate(total int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RunAborted,
		Total:   total,
		Message: fmt.Sprintf("An error occurred: %v", err),
		Err:     err,
	}
}
