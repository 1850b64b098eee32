package repositories

import (
	"fmt"

	"github.com/desertthunder/listsync/internal/models"
)

// RunHistoryAdapter implements tasks.RunRecorder using SyncRunRepository.
//
// Each finished run is written once with all of its item results.
type RunHistoryAdapter struct {
	repo *SyncRunRepository
}

// NewRunHistoryAdapter creates a new RunHistoryAdapter with the given repository
func NewRunHistoryAdapter(repo *SyncRunRepository) *RunHistoryAdapter {
	return &RunHistoryAdapter{repo: repo}
}

// RecordRun persists run and items. Items are attached to the newly created run id.
func (a *RunHistoryAdapter) RecordRun(run *models.SyncRun, items []models.SyncRunItem) error {
	if err := a.repo.CreateWithItems(run, items); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}
