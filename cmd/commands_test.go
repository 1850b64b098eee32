package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/listsync/internal/models"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
	tu "github.com/desertthunder/listsync/internal/testing"
)

const moviesCSV = "title,year\nInception,2010\nHeat,1995\nUnknown Film,\n"

type harness struct {
	runner  *Runner
	config  *shared.Config
	catalog *tu.MockCatalog
	output  *bytes.Buffer
	dir     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("TMDB_API_KEY", "")

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(dir, "history.db")
	config.Sync.DelayMS = 0

	catalog := tu.NewMockCatalog().
		AddList("8234", "My Movie List", models.ListItem{ID: "27205", Title: "Inception"}).
		AddResult("Heat", models.CatalogMatch{ExternalID: "949", DisplayTitle: "Heat"})

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:      config,
		Catalog:     catalog,
		Output:      output,
		Logger:      shared.NewLogger(io.Discard),
		OpenBrowser: func(string) error { return nil },
	})

	return &harness{runner: runner, config: config, catalog: catalog, output: output, dir: dir}
}

func (h *harness) run(args ...string) error {
	argv := append([]string{appName, "--config", filepath.Join(h.dir, "config.toml")}, args...)
	return h.runner.app().Run(context.Background(), argv)
}

func (h *harness) dataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(h.dir, "movies.csv")
	tu.MustWriteFile(t, path, content)
	return path
}

func TestSyncCommand(t *testing.T) {
	t.Run("live run adds missing titles", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)

		if err := h.run("sync", path); err != nil {
			t.Fatalf("sync error: %v", err)
		}

		if adds := h.catalog.CallsWith("add"); len(adds) != 1 || adds[0] != "949" {
			t.Errorf("expected a single add of 949, got %v", adds)
		}
		if searches := h.catalog.CallsWith("search"); strings.Join(searches, ",") != "Heat,Unknown Film" {
			t.Errorf("expected present title to skip search, got %v", searches)
		}

		out := h.output.String()
		for _, want := range []string{"Found existing list", "Added: Heat", "Summary"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("dry run never mutates", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)

		if err := h.run("sync", "--dry-run", path, "Brand New List"); err != nil {
			t.Fatalf("sync error: %v", err)
		}

		if n := h.catalog.Mutations(); n != 0 {
			t.Errorf("expected no mutations in dry run, got %d (%v)", n, h.catalog.Calls)
		}
		if !strings.Contains(h.output.String(), "Summary (dry run)") {
			t.Errorf("expected dry run summary:\n%s", h.output.String())
		}
	})

	t.Run("list name argument creates list", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)

		if err := h.run("sync", path, "Favorites"); err != nil {
			t.Fatalf("sync error: %v", err)
		}
		if creates := h.catalog.CallsWith("create"); len(creates) != 1 || creates[0] != "Favorites" {
			t.Errorf("expected Favorites to be created, got %v", creates)
		}
	})

	t.Run("writes report", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)
		report := filepath.Join(h.dir, "out", "report.json")

		if err := h.run("sync", "--report", report, path); err != nil {
			t.Fatalf("sync error: %v", err)
		}

		var doc struct {
			Summary models.SyncSummary `json:"summary"`
		}
		if err := json.Unmarshal([]byte(tu.MustReadFile(t, report)), &doc); err != nil {
			t.Fatalf("report is not valid JSON: %v", err)
		}
		if doc.Summary != (models.SyncSummary{Added: 1, AlreadyInList: 1, NotFound: 1}) {
			t.Errorf("unexpected report summary %+v", doc.Summary)
		}
	})

	t.Run("setup errors", func(t *testing.T) {
		tests := []struct {
			name string
			args func(h *harness, path string) []string
			want error
		}{
			{
				name: "missing dataset argument",
				args: func(h *harness, path string) []string { return []string{"sync"} },
				want: shared.ErrMissingArgument,
			},
			{
				name: "unreadable dataset",
				args: func(h *harness, path string) []string {
					return []string{"sync", filepath.Join(h.dir, "nope.csv")}
				},
				want: shared.ErrDatasetUnreadable,
			},
			{
				name: "invalid match policy",
				args: func(h *harness, path string) []string { return []string{"sync", "--match", "fuzzy", path} },
				want: shared.ErrInvalidArgument,
			},
			{
				name: "unsupported report format",
				args: func(h *harness, path string) []string {
					return []string{"sync", "--report", filepath.Join(h.dir, "r.xml"), path}
				},
				want: shared.ErrInvalidArgument,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)
				path := h.dataset(t, moviesCSV)

				err := h.run(tt.args(h, path)...)
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if n := h.catalog.Mutations(); n != 0 {
					t.Errorf("expected no mutations, got %v", h.catalog.Calls)
				}
			})
		}
	})

	t.Run("list resolution failure aborts", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)
		h.catalog.FindErr = errors.New("status 500")

		err := h.run("sync", path)
		if !errors.Is(err, shared.ErrSetup) || !errors.Is(err, shared.ErrListResolution) {
			t.Fatalf("expected setup error, got %v", err)
		}
	})

	t.Run("item failures do not fail the command", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)
		h.catalog.AddErrs["949"] = errors.New("status 500")

		if err := h.run("sync", path); err != nil {
			t.Fatalf("expected per-item failure to be reported, got %v", err)
		}
		if !strings.Contains(h.output.String(), "rejected additions") {
			t.Errorf("expected failed note in summary:\n%s", h.output.String())
		}
	})

	t.Run("requires credentials", func(t *testing.T) {
		t.Setenv("TMDB_API_KEY", "")
		dir := t.TempDir()
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}, Logger: shared.NewLogger(io.Discard)})
		path := filepath.Join(dir, "movies.csv")
		tu.MustWriteFile(t, path, moviesCSV)

		err := runner.app().Run(context.Background(), []string{appName, "--config", filepath.Join(dir, "config.toml"), "sync", path})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Fatalf("expected ErrMissingCredentials, got %v", err)
		}
	})
}

func TestHistoryCommand(t *testing.T) {
	h := newHarness(t)
	path := h.dataset(t, moviesCSV)

	if err := h.run("sync", path); err != nil {
		t.Fatalf("sync error: %v", err)
	}
	if err := h.run("sync", "--dry-run", path); err != nil {
		t.Fatalf("dry run error: %v", err)
	}

	t.Run("lists runs newest first", func(t *testing.T) {
		h.output.Reset()
		if err := h.run("history"); err != nil {
			t.Fatalf("history error: %v", err)
		}

		out := h.output.String()
		second, first := strings.Index(out, "#2"), strings.Index(out, "#1")
		if second < 0 || first < 0 || second > first {
			t.Errorf("expected #2 before #1:\n%s", out)
		}
		if !strings.Contains(out, "My Movie List (dry run)") {
			t.Errorf("expected dry run marker:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		h.output.Reset()
		if err := h.run("history", "--json", "--limit", "1"); err != nil {
			t.Fatalf("history error: %v", err)
		}

		var runs []runView
		if err := json.Unmarshal(h.output.Bytes(), &runs); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(runs) != 1 || runs[0].Sequence != 2 || !runs[0].DryRun {
			t.Errorf("unexpected runs %+v", runs)
		}
		if runs[0].State != models.StateDone || runs[0].Summary.Total() != runs[0].ItemsTotal {
			t.Errorf("unexpected run state %+v", runs[0])
		}
	})

	t.Run("single run items", func(t *testing.T) {
		h.output.Reset()
		if err := h.run("history", "1"); err != nil {
			t.Fatalf("history error: %v", err)
		}

		out := h.output.String()
		for _, want := range []string{"1. Inception (2010) - skipped", "2. Heat (1995) - added [949]", "3. Unknown Film - not_found"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("requires database path", func(t *testing.T) {
		h.config.Database.Path = ""
		defer func() { h.config.Database.Path = filepath.Join(h.dir, "history.db") }()

		if err := h.run("history"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestSearchCommand(t *testing.T) {
	t.Run("plain output", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("search", "--year", "1995", "Heat"); err != nil {
			t.Fatalf("search error: %v", err)
		}
		if !strings.Contains(h.output.String(), "1. Heat (ID: 949)") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
		if y := h.catalog.SearchYears["Heat"]; y == nil || *y != 1995 {
			t.Errorf("expected year 1995 to be passed, got %v", y)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("search", "--json", "Heat"); err != nil {
			t.Fatalf("search error: %v", err)
		}
		if !strings.Contains(h.output.String(), `"external_id": "949"`) {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
		if h.catalog.SearchYears["Heat"] != nil {
			t.Error("expected no year filter")
		}
	})

	t.Run("no matches", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("search", "Unknown Film"); err != nil {
			t.Fatalf("search error: %v", err)
		}
		if !strings.Contains(h.output.String(), "No matches") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})

	t.Run("requires title", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run("search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

// fakeTMDb serves the token, session, account and list endpoints used by the auth and list commands.
func fakeTMDb(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var body any
		switch r.URL.Path {
		case "/authentication/token/new":
			body = map[string]any{"success": true, "request_token": "tok"}
		case "/authentication/session/new":
			body = map[string]any{"success": true, "session_id": "sess-new"}
		case "/account":
			body = map[string]any{"id": 42, "username": "me"}
		case "/account/42/lists":
			body = map[string]any{
				"page": 1, "total_pages": 1,
				"results": []map[string]any{{"id": 8234, "name": "My Movie List", "item_count": 1}},
			}
		case "/list/8234":
			body = map[string]any{
				"id": "8234", "name": "My Movie List",
				"items": []map[string]any{{"id": 27205, "title": "Inception"}},
			}
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTMDbHarness(t *testing.T, sessionID string, browser func(string) error) (*harness, *services.TMDbService) {
	t.Helper()
	h := newHarness(t)
	srv := fakeTMDb(t)

	svc, err := services.NewTMDbService(services.TMDbOpts{
		BaseURL:    srv.URL,
		APIKey:     "k",
		SessionID:  sessionID,
		HTTPClient: srv.Client(),
	})
	if err != nil {
		t.Fatalf("NewTMDbService() error: %v", err)
	}

	h.config.Server.Host = "127.0.0.1"
	h.config.Server.Port = 0
	if err := shared.SaveConfig(filepath.Join(h.dir, "config.toml"), h.config); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}

	h.runner = NewRunner(RunnerOpts{
		Config:      h.config,
		TMDb:        svc,
		Output:      h.output,
		Logger:      shared.NewLogger(io.Discard),
		OpenBrowser: browser,
	})
	return h, svc
}

// approveIn returns a browser that follows the approval redirect with the given query.
func approveIn(t *testing.T, query string) func(string) error {
	return func(approveURL string) error {
		u, err := url.Parse(approveURL)
		if err != nil {
			return err
		}
		if !strings.HasSuffix(u.Path, "/tok") {
			t.Errorf("expected approval URL for tok, got %s", approveURL)
		}

		resp, err := http.Get(u.Query().Get("redirect_to") + query)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}
}

func TestAuthCommand(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		h, svc := newTMDbHarness(t, "", approveIn(t, "?request_token=tok&approved=true"))

		if err := h.run("auth", "--timeout", "5s"); err != nil {
			t.Fatalf("auth error: %v", err)
		}

		loaded, err := shared.LoadConfig(filepath.Join(h.dir, "config.toml"))
		if err != nil {
			t.Fatalf("LoadConfig() error: %v", err)
		}
		if loaded.Credentials.TMDb.SessionID != "sess-new" {
			t.Errorf("expected session id to be saved, got %q", loaded.Credentials.TMDb.SessionID)
		}
		if !svc.HasSession() {
			t.Error("expected service to use the new session")
		}
		if !strings.Contains(h.output.String(), "Authorization successful") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})

	t.Run("denied", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "", approveIn(t, "?request_token=tok&denied=true"))

		if err := h.run("auth", "--timeout", "5s"); !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "", func(string) error { return nil })

		if err := h.run("auth", "--timeout", "50ms"); !errors.Is(err, shared.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("prints URL when browser fails", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "", func(string) error { return errors.New("no browser") })

		_ = h.run("auth", "--timeout", "50ms")
		if !strings.Contains(h.output.String(), "Please open this URL") {
			t.Errorf("expected manual URL hint:\n%s", h.output.String())
		}
	})
}

func TestListCommands(t *testing.T) {
	t.Run("lists", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "sess", nil)

		if err := h.run("lists"); err != nil {
			t.Fatalf("lists error: %v", err)
		}
		if !strings.Contains(h.output.String(), "My Movie List (ID: 8234, 1 items)") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})

	t.Run("list", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "sess", nil)

		if err := h.run("list", "My Movie List"); err != nil {
			t.Fatalf("list error: %v", err)
		}
		if !strings.Contains(h.output.String(), "1. Inception (ID: 27205)") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})

	t.Run("unknown list", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "sess", nil)

		err := h.run("list", "Nope")
		if !errors.Is(err, shared.ErrListNotFound) {
			t.Errorf("expected ErrListNotFound, got %v", err)
		}
		if err != nil && strings.Contains(err.Error(), "did you mean") {
			t.Errorf("expected no suggestions, got %v", err)
		}
	})

	t.Run("unknown list suggests close names", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "sess", nil)

		err := h.run("list", "movie list")
		if !errors.Is(err, shared.ErrListNotFound) {
			t.Fatalf("expected ErrListNotFound, got %v", err)
		}
		if !strings.Contains(err.Error(), `did you mean "My Movie List"?`) {
			t.Errorf("expected suggestion, got %v", err)
		}
	})

	t.Run("requires session", func(t *testing.T) {
		h, _ := newTMDbHarness(t, "", nil)

		if err := h.run("lists"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		h := newHarness(t)
		configPath := filepath.Join(h.dir, "config.toml")

		if err := h.run("setup", "config"); err != nil {
			t.Fatalf("setup config error: %v", err)
		}
		tu.AssertFileExists(t, configPath)
		if _, err := shared.LoadConfig(configPath); err != nil {
			t.Errorf("created config does not load: %v", err)
		}

		h.output.Reset()
		if err := h.run("setup", "config"); err != nil {
			t.Fatalf("second setup config error: %v", err)
		}
		if !strings.Contains(h.output.String(), "already exists") {
			t.Errorf("expected existing file notice:\n%s", h.output.String())
		}
	})

	t.Run("database", func(t *testing.T) {
		h := newHarness(t)
		if err := shared.SaveConfig(filepath.Join(h.dir, "config.toml"), h.config); err != nil {
			t.Fatalf("SaveConfig() error: %v", err)
		}

		if err := h.run("setup", "database"); err != nil {
			t.Fatalf("setup database error: %v", err)
		}
		tu.AssertFileExists(t, h.config.Database.Path)

		if err := h.run("setup", "rollback"); err != nil {
			t.Fatalf("setup rollback error: %v", err)
		}
		if !strings.Contains(h.output.String(), "Rolled back") {
			t.Errorf("unexpected output:\n%s", h.output.String())
		}
	})
}

func TestConfigLoading(t *testing.T) {
	t.Run("invalid config stops the command", func(t *testing.T) {
		h := newHarness(t)
		tu.MustWriteFile(t, filepath.Join(h.dir, "config.toml"), "[sync]\nmatch = \"ID\"\n")
		path := h.dataset(t, moviesCSV)

		err := h.run("sync", path)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
		if len(h.catalog.Calls) != 0 {
			t.Errorf("expected no catalog calls, got %v", h.catalog.Calls)
		}
	})

	t.Run("unparseable config stops the command", func(t *testing.T) {
		h := newHarness(t)
		tu.MustWriteFile(t, filepath.Join(h.dir, "config.toml"), "[sync\n")

		if err := h.run("history"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("missing config keeps defaults", func(t *testing.T) {
		h := newHarness(t)
		path := h.dataset(t, moviesCSV)

		if err := h.run("sync", "--dry-run", path); err != nil {
			t.Fatalf("sync error: %v", err)
		}
	})

	t.Run("valid config is applied", func(t *testing.T) {
		h := newHarness(t)
		config := "[sync]\nlist_name = \"Favorites\"\nmatch = \"id\"\ndelay_ms = 0\n\n" +
			"[database]\npath = '" + filepath.Join(h.dir, "history.db") + "'\n"
		tu.MustWriteFile(t, filepath.Join(h.dir, "config.toml"), config)
		path := h.dataset(t, moviesCSV)

		if err := h.run("sync", path); err != nil {
			t.Fatalf("sync error: %v", err)
		}
		if creates := h.catalog.CallsWith("create"); len(creates) != 1 || creates[0] != "Favorites" {
			t.Errorf("expected configured list to be created, got %v", creates)
		}
	})
}
