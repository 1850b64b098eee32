package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/shared"
)

// MatchPolicy selects how the classifier decides an item is already in the list.
type MatchPolicy int

const (
	// MatchByTitle compares the desired title against list titles by exact, case-sensitive equality.
	// A member title short-circuits without a search call.
	MatchByTitle MatchPolicy = iota
	// MatchByID resolves every item and compares catalog identifiers.
	MatchByID
)

func (m MatchPolicy) String() string {
	switch m {
	case MatchByTitle:
		return "title"
	case MatchByID:
		return "id"
	default:
		return ""
	}
}

// ParseMatchPolicy parses "title" (or "") and "id".
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch s {
	case "", "title":
		return MatchByTitle, nil
	case "id":
		return MatchByID, nil
	default:
		return MatchByTitle, fmt.Errorf("%w: match policy %q (must be 'title' or 'id')", shared.ErrInvalidArgument, s)
	}
}

// Classification is the disposition of one desired item.
type Classification struct {
	Disposition models.Disposition
	Match       *models.CatalogMatch // set for ToAdd, and for AlreadyPresent under MatchByID
	Err         error                // resolution failure folded into NotFound
}

// Classifier assigns a [models.Disposition] to each desired item.
type Classifier struct {
	resolver *Resolver
	policy   MatchPolicy
}

// NewClassifier creates a Classifier using resolver and policy.
func NewClassifier(resolver *Resolver, policy MatchPolicy) *Classifier {
	return &Classifier{resolver: resolver, policy: policy}
}

// Classify makes at most one resolver call. Titles are never normalized:
// two spellings of the same work are distinct under [MatchByTitle].
func (c *Classifier) Classify(ctx context.Context, item models.DesiredItem, snapshot models.MembershipSnapshot) Classification {
	if c.policy == MatchByTitle && snapshot.HasTitle(item.Title) {
		return Classification{Disposition: models.AlreadyPresent}
	}

	match, err := c.resolver.Resolve(ctx, item)
	if err != nil {
		return Classification{Disposition: models.NotFound, Err: err}
	}
	if match == nil {
		return Classification{Disposition: models.NotFound}
	}

	if c.policy == MatchByID && snapshot.HasID(match.ExternalID) {
		return Classification{Disposition: models.AlreadyPresent, Match: match}
	}

	return Classification{Disposition: models.ToAdd, Match: match}
}
