package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/repositories"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

type runView struct {
	ID          string             `json:"id"`
	Sequence    int                `json:"sequence"`
	List        string             `json:"list"`
	ListID      string             `json:"list_id,omitempty"`
	Dataset     string             `json:"dataset"`
	DryRun      bool               `json:"dry_run"`
	State       models.RunState    `json:"state"`
	ItemsTotal  int                `json:"items_total"`
	Summary     models.SyncSummary `json:"summary"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Items       []runItemView      `json:"items,omitempty"`
}

type runItemView struct {
	Position    int    `json:"position"`
	Title       string `json:"title"`
	Year        *int   `json:"year,omitempty"`
	Disposition string `json:"disposition"`
	Outcome     string `json:"outcome"`
	ExternalID  string `json:"external_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newRunView(run *models.SyncRun, items []models.SyncRunItem) runView {
	v := runView{
		ID:          run.ID(),
		Sequence:    run.Sequence,
		List:        run.ListName,
		ListID:      run.ListID,
		Dataset:     run.DatasetPath,
		DryRun:      run.DryRun,
		State:       run.State,
		ItemsTotal:  run.ItemsTotal,
		Summary:     run.Summary,
		Error:       run.Error,
		StartedAt:   run.StartedAt,
		CompletedAt: run.CompletedAt,
	}
	for _, it := range items {
		v.Items = append(v.Items, runItemView{
			Position:    it.Position,
			Title:       it.Title,
			Year:        it.Year,
			Disposition: it.Disposition.String(),
			Outcome:     it.Outcome.String(),
			ExternalID:  it.ExternalID,
			Error:       it.Error,
		})
	}
	return v
}

// History prints recorded runs, newest first. With a sequence argument it prints that run and its items.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	repo := repositories.NewSyncRunRepository(db)

	if seq := cmd.IntArg("sequence"); seq > 0 {
		return r.showRun(repo, seq, cmd.Bool("json"), cmd.Bool("pretty"))
	}

	runs, err := repo.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, 0, len(runs))
		for _, run := range runs {
			views = append(views, newRunView(run, nil))
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("No runs recorded\n")
	}

	r.writePlainHeader("Sync history")
	for _, run := range runs {
		mode := ""
		if run.DryRun {
			mode = " (dry run)"
		}
		r.writePlain("#%d %s %s%s [%s]\n", run.Sequence, run.StartedAt.Local().Format(time.DateTime), run.ListName, mode, run.State)
		r.writePlain("   %s: added %d, already in list %d, not found %d\n",
			run.DatasetPath, run.Summary.Added, run.Summary.AlreadyInList, run.Summary.NotFound)
		if run.Error != "" {
			r.writePlain("   error: %s\n", run.Error)
		}
	}
	return nil
}

func (r *Runner) showRun(repo *repositories.SyncRunRepository, seq int, asJSON, pretty bool) error {
	run, err := repo.GetBySequence(seq)
	if err != nil {
		return err
	}
	items, err := repo.Items(run.ID())
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(newRunView(run, items), pretty)
	}

	r.writePlainHeader(fmt.Sprintf("Run #%d: %s [%s]", run.Sequence, run.ListName, run.State))
	for _, it := range items {
		line := fmt.Sprintf("%d. %s", it.Position, it.Title)
		if it.Year != nil {
			line += fmt.Sprintf(" (%d)", *it.Year)
		}
		line += " - " + it.Outcome.String()
		if it.ExternalID != "" {
			line += " [" + it.ExternalID + "]"
		}
		if it.Error != "" {
			line += ": " + it.Error
		}
		r.writePlain("%s\n", line)
	}
	return nil
}
