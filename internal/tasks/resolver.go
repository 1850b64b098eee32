package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
)

// Resolver turns a desired item into at most one catalog match.
//
// The catalog's relevance order is trusted: the first result wins and no local scoring is applied.
type Resolver struct {
	search services.CatalogSearch
}

// NewResolver creates a Resolver backed by search.
func NewResolver(search services.CatalogSearch) *Resolver {
	return &Resolver{search: search}
}

// Resolve performs exactly one search call. It returns (nil, nil) when the catalog has no results,
// and an error wrapping [shared.ErrResolution] when the search fails. Errors are not retried.
func (r *Resolver) Resolve(ctx context.Context, item models.DesiredItem) (*models.CatalogMatch, error) {
	if r.search == nil {
		return nil, fmt.Errorf("%w: catalog search not configured", shared.ErrServiceUnavailable)
	}

	results, err := r.search.Search(ctx, item.Title, item.Year)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrResolution, err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	match := results[0]
	return &match, nil
}
