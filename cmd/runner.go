package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listsync/internal/services"
	"github.com/desertthunder/listsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	catalog     services.Catalog
	tmdb        *services.TMDbService
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Catalog and TMDb are built from the loaded config when left nil.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	Catalog     services.Catalog
	TMDb        *services.TMDbService
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Catalog == nil && opts.TMDb != nil {
		opts.Catalog = opts.TMDb
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		catalog:     opts.Catalog,
		tmdb:        opts.TMDb,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    appName,
		Usage:   "Sync a CSV of movie titles into a TMDb list",
		Version: appVersion,
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   defaultConfigPath,
				Sources: cli.EnvVars("LISTSYNC_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "TMDb v3 API key (overrides credentials.tmdb.api_key)",
				Sources: cli.EnvVars("TMDB_API_KEY"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, authCommand, searchCommand, listsCommand, listCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads the config file named by --config and applies the log level.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		if err := r.loadConfig(path); err != nil {
			return ctx, err
		}
	}

	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	} else if err := shared.SetLogLevel(r.logger, r.config.Log.Level); err != nil {
		r.logger.Warn("ignoring log level", "error", err)
	}

	if r.catalog == nil && r.config.Credentials.TMDb.HasKey() {
		svc, err := r.newTMDb("")
		if err != nil {
			r.logger.Warn("failed to create TMDb service", "error", err)
		} else {
			r.tmdb = svc
			r.catalog = svc
		}
	}

	return ctx, nil
}

// loadConfig replaces the runner config with the file at path. A missing file keeps the defaults;
// a file that fails to parse or validate is an error.
func (r *Runner) loadConfig(path string) error {
	r.configPath = path
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	r.config = config
	return nil
}

// newTMDb creates a TMDb client from the runner config. A non-empty apiKey replaces the configured one.
func (r *Runner) newTMDb(apiKey string) (*services.TMDbService, error) {
	creds := r.config.Credentials.TMDb
	if apiKey != "" {
		creds.APIKey = apiKey
	}

	return services.NewTMDbService(services.TMDbOpts{
		BaseURL:           r.config.TMDb.BaseURL,
		ApproveURL:        r.config.TMDb.ApproveURL,
		APIKey:            creds.APIKey,
		AccessToken:       creds.AccessToken,
		SessionID:         creds.SessionID,
		Language:          r.config.TMDb.Language,
		ListDescription:   r.config.Sync.ListDescription,
		RequestsPerSecond: r.config.TMDb.RequestsPerSecond,
		HTTPClient:        r.httpClient,
		Logger:            shared.WithLogger(r.logger, "service", "tmdb"),
	})
}

// tmdbFor returns the TMDb client for cmd, honouring an explicit --api-key.
func (r *Runner) tmdbFor(cmd *cli.Command) (*services.TMDbService, error) {
	if key := cmd.String("api-key"); key != "" && key != r.config.Credentials.TMDb.APIKey {
		return r.newTMDb(key)
	}
	if r.tmdb == nil {
		return r.newTMDb("")
	}
	return r.tmdb, nil
}

// catalogFor returns the catalog for cmd. apiKey, when set, takes precedence over --api-key and the config.
func (r *Runner) catalogFor(cmd *cli.Command, apiKey string) (services.Catalog, error) {
	if apiKey == "" {
		apiKey = cmd.String("api-key")
	}
	if apiKey != "" && apiKey != r.config.Credentials.TMDb.APIKey {
		return r.newTMDb(apiKey)
	}
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: set credentials.tmdb.api_key in %s, TMDB_API_KEY or --api-key", shared.ErrMissingCredentials, r.configPathOrDefault())
	}
	return r.catalog, nil
}

func (r *Runner) configPathOrDefault() string {
	if r.configPath == "" {
		return defaultConfigPath
	}
	return r.configPath
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
