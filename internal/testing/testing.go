// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/listsync/internal/models"
)

// MockCatalog is an in-memory test double for [services.Catalog].
//
// Every call is recorded in Calls as "op:arg" (search, find, create, items, add) so tests can assert
// which collaborator calls a run made and in what order.
// Added items become visible to later ListItems calls, titled by the matching search result.
type MockCatalog struct {
	mu sync.Mutex

	Results     map[string][]models.CatalogMatch // search results keyed by exact title
	SearchErrs  map[string]error                 // search failures keyed by exact title
	SearchYears map[string]*int                  // year passed on the last search for a title
	Lists       map[string]*models.TargetList    // lists keyed by name
	Items       map[string][]models.ListItem     // list contents keyed by list id
	AddErrs     map[string]error                 // add failures keyed by item id

	FindErr      error
	CreateErr    error
	ListItemsErr error

	// OnAdd runs after every add call, before the error (if any) is returned.
	OnAdd func(listID, itemID string)

	Calls  []string
	nextID int
}

// NewMockCatalog returns an empty MockCatalog.
func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		Results:     map[string][]models.CatalogMatch{},
		SearchErrs:  map[string]error{},
		SearchYears: map[string]*int{},
		Lists:       map[string]*models.TargetList{},
		Items:       map[string][]models.ListItem{},
		AddErrs:     map[string]error{},
	}
}

// AddResult registers search results for title.
func (m *MockCatalog) AddResult(title string, matches ...models.CatalogMatch) *MockCatalog {
	m.Results[title] = append(m.Results[title], matches...)
	return m
}

// AddList registers an existing list with items.
func (m *MockCatalog) AddList(id, name string, items ...models.ListItem) *MockCatalog {
	m.Lists[name] = &models.TargetList{ID: id, Name: name}
	m.Items[id] = append(m.Items[id], items...)
	return m
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) Search(ctx context.Context, title string, year *int) ([]models.CatalogMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "search:"+title)
	m.SearchYears[title] = year
	if err := m.SearchErrs[title]; err != nil {
		return nil, err
	}
	return m.Results[title], nil
}

func (m *MockCatalog) FindListByName(ctx context.Context, name string) (*models.TargetList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "find:"+name)
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	if list, ok := m.Lists[name]; ok {
		found := *list
		return &found, nil
	}
	return nil, nil
}

func (m *MockCatalog) CreateList(ctx context.Context, name string) (*models.TargetList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "create:"+name)
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	m.nextID++
	list := &models.TargetList{ID: fmt.Sprintf("list-%d", m.nextID), Name: name}
	m.Lists[name] = list
	created := *list
	return &created, nil
}

func (m *MockCatalog) ListItems(ctx context.Context, listID string) ([]models.ListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, "items:"+listID)
	if m.ListItemsErr != nil {
		return nil, m.ListItemsErr
	}
	return append([]models.ListItem(nil), m.Items[listID]...), nil
}

func (m *MockCatalog) AddItem(ctx context.Context, listID, itemID string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, "add:"+itemID)
	err := m.AddErrs[itemID]
	if err == nil {
		m.Items[listID] = append(m.Items[listID], models.ListItem{ID: itemID, Title: m.titleFor(itemID)})
	}
	onAdd := m.OnAdd
	m.mu.Unlock()

	if onAdd != nil {
		onAdd(listID, itemID)
	}
	return err
}

func (m *MockCatalog) titleFor(itemID string) string {
	for _, matches := range m.Results {
		for _, match := range matches {
			if match.ExternalID == itemID {
				return match.DisplayTitle
			}
		}
	}
	return ""
}

// CallsWith returns recorded calls for op, without the "op:" prefix.
func (m *MockCatalog) CallsWith(op string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, c := range m.Calls {
		if arg, ok := strings.CutPrefix(c, op+":"); ok {
			out = append(out, arg)
		}
	}
	return out
}

// Mutations returns the number of create and add calls.
func (m *MockCatalog) Mutations() int {
	return len(m.CallsWith("create")) + len(m.CallsWith("add"))
}

// Reset clears recorded calls.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
