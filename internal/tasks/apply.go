package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default [Sleeper].
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ApplyResult is the outcome of applying one ToAdd item.
type ApplyResult struct {
	Outcome models.Outcome
	Err     error
}

// Applier performs additions against the target list.
type Applier struct {
	store services.ListStore
	delay time.Duration
	sleep Sleeper
}

// NewApplier creates an Applier that waits delay after every successful live addition.
// A nil sleep uses [SleepContext].
func NewApplier(store services.ListStore, delay time.Duration, sleep Sleeper) *Applier {
	if sleep == nil {
		sleep = SleepContext
	}
	return &Applier{store: store, delay: delay, sleep: sleep}
}

// Apply adds match to list. In dry-run no call is made and the outcome is [models.Added].
//
// The add call itself is never interrupted by ctx. Only the pacing delay observes cancellation;
// an interrupted delay still reports the addition that already happened.
func (a *Applier) Apply(ctx context.Context, match models.CatalogMatch, list models.TargetList, dryRun bool) ApplyResult {
	if dryRun {
		return ApplyResult{Outcome: models.Added}
	}
	if a.store == nil {
		return ApplyResult{Outcome: models.Failed, Err: fmt.Errorf("%w: list store not configured", shared.ErrServiceUnavailable)}
	}

	if err := a.store.AddItem(context.WithoutCancel(ctx), list.ID, match.ExternalID); err != nil {
		if errors.Is(err, shared.ErrDuplicateItem) {
			return ApplyResult{Outcome: models.Skipped, Err: err}
		}
		return ApplyResult{Outcome: models.Failed, Err: err}
	}

	_ = a.sleep(ctx, a.delay)
	return ApplyResult{Outcome: models.Added}
}
