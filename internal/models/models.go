// package models defines the data model for list synchronization
package models

import (
	"fmt"
	"strconv"
	"time"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string      // ID returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error        // Create inserts a new model into the database
	Get(id string) (T, error)    // Get retrieves a model by its ID
	Update(model T) error        // Update modifies an existing model in the database
	List(limit int) ([]T, error) // List retrieves the most recent models, newest first
}

// DesiredItem is one row of the input dataset.
type DesiredItem struct {
	Row   int // 1-based data row in the source file (header excluded)
	Title string
	Year  *int // nil when the dataset has no year for this row
}

// NewDesiredItem returns a DesiredItem for title with an optional year (zero means absent).
func NewDesiredItem(title string, year int) DesiredItem {
	item := DesiredItem{Title: title}
	if year != 0 {
		item.Year = &year
	}
	return item
}

// String formats the item as "Title (Year)" or "Title".
func (d DesiredItem) String() string {
	if d.Year == nil {
		return d.Title
	}
	return fmt.Sprintf("%s (%d)", d.Title, *d.Year)
}

// YearString returns the year as a string, or "" when absent.
func (d DesiredItem) YearString() string {
	if d.Year == nil {
		return ""
	}
	return strconv.Itoa(*d.Year)
}

// CatalogMatch is a catalog entry returned by a search.
type CatalogMatch struct {
	ExternalID   string `json:"external_id"`
	DisplayTitle string `json:"title"`
	ReleaseDate  string `json:"release_date,omitempty"` // informational, may be empty
}

// TargetList identifies the remote list. An empty ID means the list does not exist yet (dry-run only).
type TargetList struct {
	ID   string
	Name string
}

// Exists reports whether the list has a remote identifier.
func (t TargetList) Exists() bool { return t.ID != "" }

// ListItem is one entry of a remote list.
type ListItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MembershipSnapshot is the set of titles (and ids) present in the target list at run start.
//
// It is built once and never refreshed during a run.
type MembershipSnapshot struct {
	titles map[string]struct{}
	ids    map[string]struct{}
}

// NewMembershipSnapshot builds a snapshot from list items.
func NewMembershipSnapshot(items []ListItem) MembershipSnapshot {
	s := MembershipSnapshot{
		titles: make(map[string]struct{}, len(items)),
		ids:    make(map[string]struct{}, len(items)),
	}
	for _, it := range items {
		if it.Title != "" {
			s.titles[it.Title] = struct{}{}
		}
		if it.ID != "" {
			s.ids[it.ID] = struct{}{}
		}
	}
	return s
}

// HasTitle reports exact, case-sensitive title membership.
func (s MembershipSnapshot) HasTitle(title string) bool {
	_, ok := s.titles[title]
	return ok
}

// HasID reports catalog identifier membership.
func (s MembershipSnapshot) HasID(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of distinct titles.
func (s MembershipSnapshot) Len() int { return len(s.titles) }

// Disposition classifies a desired item against the snapshot.
type Disposition int

const (
	AlreadyPresent Disposition = iota
	ToAdd
	NotFound
)

func (d Disposition) String() string {
	switch d {
	case AlreadyPresent:
		return "already_present"
	case ToAdd:
		return "to_add"
	case NotFound:
		return "not_found"
	default:
		return ""
	}
}

// ParseDisposition is the inverse of [Disposition.String].
func ParseDisposition(s string) (Disposition, error) {
	for _, d := range []Disposition{AlreadyPresent, ToAdd, NotFound} {
		if d.String() == s {
			return d, nil
		}
	}
	return NotFound, fmt.Errorf("unknown disposition %q", s)
}

// Outcome is the result of acting on a desired item.
type Outcome int

const (
	Added Outcome = iota
	Skipped
	Failed
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case OutcomeNotFound:
		return "not_found"
	default:
		return ""
	}
}

// ParseOutcome is the inverse of [Outcome.String].
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range []Outcome{Added, Skipped, Failed, OutcomeNotFound} {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomeNotFound, fmt.Errorf("unknown outcome %q", s)
}

// SyncSummary holds the final counts of a run.
//
// Added + AlreadyInList + NotFound always equals the number of desired items.
// Failed is the part of NotFound caused by rejected additions.
type SyncSummary struct {
	Added         int `json:"added" yaml:"added"`
	AlreadyInList int `json:"already_in_list" yaml:"already_in_list"`
	NotFound      int `json:"not_found" yaml:"not_found"`
	Failed        int `json:"failed" yaml:"failed"`
}

// Total returns the number of items accounted for.
func (s SyncSummary) Total() int {
	return s.Added + s.AlreadyInList + s.NotFound
}

// RunState names a sync orchestrator state.
type RunState string

const (
	StateInit             RunState = "init"
	StateListResolved     RunState = "list_resolved"
	StateSnapshotCaptured RunState = "snapshot_captured"
	StateProcessing       RunState = "processing"
	StateDone             RunState = "done"
	StateAborted          RunState = "aborted"
)

// SyncRun is the persisted audit record of one sync invocation.
type SyncRun struct {
	id          string
	Sequence    int
	ListName    string
	ListID      string
	DatasetPath string
	DryRun      bool
	State       RunState
	ItemsTotal  int
	Summary     SyncSummary
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// NewSyncRun creates a run record in the init state.
func NewSyncRun(listName, datasetPath string, dryRun bool) *SyncRun {
	return &SyncRun{
		ListName:    listName,
		DatasetPath: datasetPath,
		DryRun:      dryRun,
		State:       StateInit,
		StartedAt:   time.Now().UTC(),
	}
}

func (r *SyncRun) ID() string { return r.id }

// SetID assigns the identifier generated by the repository.
func (r *SyncRun) SetID(id string) { r.id = id }

// Validate checks required fields.
func (r *SyncRun) Validate() error {
	if r.ListName == "" {
		return fmt.Errorf("list name is required")
	}
	if r.DatasetPath == "" {
		return fmt.Errorf("dataset path is required")
	}
	switch r.State {
	case StateInit, StateListResolved, StateSnapshotCaptured, StateProcessing, StateDone, StateAborted:
	default:
		return fmt.Errorf("invalid state %q", r.State)
	}
	return nil
}

// Complete marks the run finished in state with summary and optional error.
func (r *SyncRun) Complete(state RunState, summary SyncSummary, err error) {
	now := time.Now().UTC()
	r.State = state
	r.Summary = summary
	r.CompletedAt = &now
	if err != nil {
		r.Error = err.Error()
	}
}

// SyncRunItem is the persisted result of one desired item within a run.
type SyncRunItem struct {
	RunID       string
	Position    int
	Title       string
	Year        *int
	Disposition Disposition
	Outcome     Outcome
	ExternalID  string
	Error       string
}
