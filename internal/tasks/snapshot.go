package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
)

// CaptureSnapshot reads the target list's membership once, at run start.
//
// In dry-run it returns an empty snapshot without calling the store.
func CaptureSnapshot(ctx context.Context, store services.ListStore, list models.TargetList, dryRun bool) (models.MembershipSnapshot, error) {
	if dryRun {
		return models.NewMembershipSnapshot(nil), nil
	}
	if store == nil {
		return models.MembershipSnapshot{}, fmt.Errorf("%w: list store not configured", shared.ErrServiceUnavailable)
	}
	if !list.Exists() {
		return models.MembershipSnapshot{}, fmt.Errorf("%w: list %q has no id", shared.ErrListResolution, list.Name)
	}

	items, err := store.ListItems(ctx, list.ID)
	if err != nil {
		return models.MembershipSnapshot{}, fmt.Errorf("failed to read list %q: %w", list.Name, err)
	}

	return models.NewMembershipSnapshot(items), nil
}
