package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/listsync/internal/dataset"
	"github.com/desertthunder/listsync/internal/formatter"
	"github.com/desertthunder/listsync/internal/repositories"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/desertthunder/listsync/internal/tasks"
	"github.com/desertthunder/listsync/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultListName = "My Movie List"

// Sync loads the dataset and adds the missing titles to the named list.
//
// Only a setup failure is returned as an error. Per-item failures are part of the summary,
// and an interrupted run keeps whatever it already recorded.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("dataset")
	if path == "" {
		return fmt.Errorf("%w: dataset path is required", shared.ErrMissingArgument)
	}

	listName := cmd.StringArg("list-name")
	if listName == "" {
		listName = r.config.Sync.ListName
	}
	if listName == "" {
		listName = defaultListName
	}

	match := r.config.Sync.Match
	if cmd.IsSet("match") {
		match = cmd.String("match")
	}
	policy, err := tasks.ParseMatchPolicy(match)
	if err != nil {
		return err
	}

	delay := r.config.Sync.Delay()
	if cmd.IsSet("delay") {
		delay = max(cmd.Duration("delay"), 0)
	}

	reportPath := cmd.String("report")
	if reportPath != "" {
		if _, err := formatter.FormatFor(reportPath); err != nil {
			return err
		}
	}

	catalog, err := r.catalogFor(cmd, cmd.StringArg("api-key"))
	if err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	recorder, closeHistory := r.openHistory()
	defer closeHistory()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Debug("starting sync", "dataset", path, "list", listName, "dry_run", dryRun, "match", policy, "delay", delay)

	engine := tasks.NewListEngine(tasks.EngineOpts{
		Search:   catalog,
		Store:    catalog,
		Reporter: ui.NewConsoleReporter(r.output, dryRun),
		Recorder: recorder,
		Delay:    delay,
		Match:    policy,
	})

	result, err := engine.Run(ctx, tasks.RunOpts{
		ListName:    listName,
		DatasetPath: path,
		Dataset:     dataset.File{Path: path},
		DryRun:      dryRun,
	})
	if err != nil {
		if errors.Is(err, shared.ErrCancelled) {
			r.logger.Warn("sync interrupted", "list", listName)
			return nil
		}
		return err
	}

	r.logger.Info("sync complete", "list", result.List.Name, "added", result.Summary.Added,
		"already_in_list", result.Summary.AlreadyInList, "not_found", result.Summary.NotFound)

	if reportPath != "" {
		format, err := formatter.WriteReport(result, reportPath)
		if err != nil {
			r.logger.Error("failed to write report", "path", reportPath, "error", err)
			return nil
		}
		r.writePlain("✓ %s report written to %s\n", format, reportPath)
	}

	return nil
}

// openHistory opens the run history database. History is optional: on failure the sync runs without it.
func (r *Runner) openHistory() (tasks.RunRecorder, func()) {
	if r.config.Database.Path == "" {
		return nil, func() {}
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		r.logger.Warn("run history disabled", "path", r.config.Database.Path, "error", err)
		return nil, func() {}
	}

	closeFn := func() {
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
	return repositories.NewRunHistoryAdapter(repositories.NewSyncRunRepository(db)), closeFn
}
