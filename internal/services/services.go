// package services defines the collaborator interfaces used by the sync engine
//
// TMDb implements both of them over HTTP.
package services

import (
	"context"

	"github.com/desertthunder/listsync/internal/models"
)

// CatalogSearch finds catalog entries for a title.
type CatalogSearch interface {
	// Search returns matches ordered by relevance, best first.
	// A nil year searches without a release year filter. Zero results is not an error.
	Search(ctx context.Context, title string, year *int) ([]models.CatalogMatch, error)
}

// ListStore reads and mutates remote lists owned by the authenticated account.
type ListStore interface {
	// FindListByName returns the first list named name, or nil when the account has none.
	FindListByName(ctx context.Context, name string) (*models.TargetList, error)

	// CreateList creates an empty list named name.
	CreateList(ctx context.Context, name string) (*models.TargetList, error)

	// ListItems returns the current entries of a list.
	ListItems(ctx context.Context, listID string) ([]models.ListItem, error)

	// AddItem appends the catalog entry itemID to the list.
	// Returns an error wrapping [shared.ErrDuplicateItem] when the entry is already present.
	AddItem(ctx context.Context, listID, itemID string) error
}

// Catalog is a remote service providing both search and list storage.
type Catalog interface {
	CatalogSearch
	ListStore

	// Name returns the name of the service (e.g., "TMDb")
	Name() string
}

// ListSummary describes a list owned by the account.
type ListSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ItemCount int    `json:"item_count"`
}

// ListDetails is a list with its entries.
type ListDetails struct {
	ID    string            `json:"id"`
	Name  string            `json:"name"`
	Items []models.ListItem `json:"items"`
}

// SessionAuthenticator performs the request token approval flow.
//
// RequestToken creates a token, the user approves it at ApproveURL, and CreateSession exchanges it for a session id.
type SessionAuthenticator interface {
	RequestToken(ctx context.Context) (string, error)
	ApproveURL(token, redirectTo string) string
	CreateSession(ctx context.Context, token string) (string, error)
}
