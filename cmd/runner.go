package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/curator/internal/auth"
	"github.com/desertthunder/curator/internal/credentials"
	"github.com/desertthunder/curator/internal/curation"
	"github.com/desertthunder/curator/internal/models"
	"github.com/desertthunder/curator/internal/playback"
	"github.com/desertthunder/curator/internal/repositories"
	"github.com/desertthunder/curator/internal/services"
	"github.com/desertthunder/curator/internal/shared"
	"github.com/desertthunder/curator/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The session graph (credential store, clients, poller, resolver) is built on first use so that
// commands like setup run without a database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	backend    models.CredentialBackend
	closers    []io.Closer

	once    sync.Once
	wireErr error

	store       *credentials.Store
	coordinator *auth.Coordinator
	spotify     *services.SpotifyService
	curation    *services.CurationService
	resolver    *curation.Resolver
	relocator   *tasks.Relocator
	poller      *playback.Poller
	controls    *playback.Controls
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Backend    models.CredentialBackend // overrides the configured database when set
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

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		backend:    opts.Backend,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playerCommand, curationCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger. Must be called before the session graph is built.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// SetConfig replaces the configuration. Must be called before the session graph is built.
func (r *Runner) SetConfig(config *shared.Config, path string) {
	r.config = config
	r.configPath = path
}

// wire builds the session graph once.
func (r *Runner) wire() error {
	r.once.Do(func() {
		r.wireErr = r.build()
	})
	return r.wireErr
}

func (r *Runner) build() error {
	backend := r.backend
	if backend == nil {
		b, closer, err := openBackend(r.config.Database)
		if err != nil {
			return err
		}
		backend = b
		r.closers = append(r.closers, closer)
	}

	store, err := credentials.NewStore(backend, r.logger)
	if err != nil {
		return err
	}
	r.store = store

	r.coordinator = auth.NewCoordinator(store, r.config.API.BaseURL, r.httpClient, r.logger)
	r.coordinator.OnExpired(func() {
		r.logger.Warn("session expired; run `curator auth login`")
	})

	transport := r.httpClient.Transport
	bearer := services.NewBearerClient(store, r.coordinator, services.ClientOpts{
		Transport: transport,
		Limiter:   newLimiter(r.config.Provider.RateLimit),
		Logger:    r.logger,
	})
	tokenized := services.NewTokenizedClient(store, r.coordinator, services.ClientOpts{
		Transport: transport,
		Logger:    r.logger,
	})

	r.spotify = services.NewSpotifyService(bearer, services.SpotifyOpts{BaseURL: r.config.Provider.BaseURL, Logger: r.logger})
	r.curation = services.NewCurationService(r.config.API.BaseURL, tokenized, r.logger)
	r.resolver = curation.NewResolver(r.curation, curation.ResolverOpts{TTL: r.config.Curation.CacheTTL(), Logger: r.logger})
	r.relocator = tasks.NewRelocator(r.spotify, r.logger)
	r.poller = playback.NewPoller(r.spotify, store, playback.PollerOpts{
		PollInterval: r.config.Player.PollInterval(),
		ResyncDelay:  r.config.Player.ResyncDelay(),
		Logger:       r.logger,
	})
	r.controls = playback.NewControls(r.poller, time.Duration(r.config.Player.SeekStepMS)*time.Millisecond)
	return nil
}

// Close releases the database handle, if one was opened.
func (r *Runner) Close() error {
	if r.poller != nil {
		r.poller.Stop()
	}
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}

// openBackend opens the configured credential backend.
func openBackend(cfg shared.DatabaseConfig) (models.CredentialBackend, io.Closer, error) {
	switch cfg.Driver {
	case "bolt":
		repo, err := repositories.OpenBoltCredentialRepository(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case "sqlite", "":
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repositories.NewCredentialRepository(db), db, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// newLimiter returns a limiter for rps requests per second, or nil when rps is not positive.
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
