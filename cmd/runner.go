package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spotsnap/spotsnap/internal/repositories"
	"github.com/spotsnap/spotsnap/internal/shared"
	"github.com/spotsnap/spotsnap/internal/spotify"
	"github.com/spotsnap/spotsnap/internal/tasks"
	"github.com/spotsnap/spotsnap/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// prober resolves what resource type a bare 22-character ID belongs to by
// asking the API which namespace answers.
type prober interface {
	TrackByID(ctx context.Context, trackID string) (*spotify.Track, error)
	Playlist(ctx context.Context, playlistID string) (*spotify.FullPlaylist, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	client     *spotify.Client // nil until credentials are configured
	service    tasks.Service
	prober     prober
	engine     *tasks.Engine
	logger     *log.Logger
	output     io.Writer
	confirm    func(prompt string) (bool, error)
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Client     *spotify.Client
	Service    tasks.Service
	Prober     prober
	Logger     *log.Logger
	Output     io.Writer
	Confirm    func(prompt string) (bool, error)
	Now        func() time.Time
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
	if opts.Service == nil && opts.Client != nil {
		opts.Service = opts.Client
	}
	if opts.Prober == nil && opts.Client != nil {
		opts.Prober = opts.Client
	}
	if opts.Confirm == nil {
		opts.Confirm = ui.ConfirmDestructive
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		client:     opts.Client,
		service:    opts.Service,
		prober:     opts.Prober,
		logger:     opts.Logger,
		output:     opts.Output,
		confirm:    opts.Confirm,
		now:        opts.Now,
	}
	if opts.Service != nil {
		r.engine = tasks.NewEngine(opts.Service, opts.Logger)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, loginCommand, backupCommand, restoreCommand, resolveCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// ensureSession makes the service ready for API calls, installing the
// persisted OAuth2 token when running against the real client.
func (r *Runner) ensureSession(ctx context.Context) error {
	if r.engine == nil {
		return fmt.Errorf("%w: run `spotsnap setup` and add your Spotify credentials", shared.ErrMissingCredentials)
	}
	if r.client == nil {
		return nil
	}

	r.client.OnTokenRefresh(func(token *oauth2.Token) {
		if err := r.config.Credentials.Spotify.Update(token); err != nil {
			r.logger.Warn("refreshed token is unusable", "error", err)
			return
		}
		if err := r.saveConfig(); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
	})
	return r.client.Authenticate(ctx, r.config.Credentials.Spotify.Token())
}

// watchProgress drains engine progress updates into log lines until the
// channel closes.
func (r *Runner) watchProgress(progress <-chan tasks.ProgressUpdate) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 {
				r.logger.Info(update.Message, "phase", update.Phase, "progress", fmt.Sprintf("%d/%d", update.Current, update.Total))
			} else {
				r.logger.Info(update.Message, "phase", update.Phase)
			}
		}
	}()
	return done
}

// openHistory opens the run-history database, creating the schema on first
// use. The configured path is resolved under the config directory unless
// absolute.
func (r *Runner) openHistory() (*repositories.RunRepository, func(), error) {
	path := r.config.Database.Path
	if path == "" {
		path = "spotsnap.db"
	}
	if path != ":memory:" && !filepath.IsAbs(path) {
		dir, err := shared.ConfigDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, path)
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	repo := repositories.NewRunRepository(db)
	if err := repo.Init(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

// recordRun appends a row to the run history. History is bookkeeping, not a
// precondition: failures are logged and swallowed.
func (r *Runner) recordRun(run *repositories.Run) {
	repo, closeDB, err := r.openHistory()
	if err != nil {
		r.logger.Warn("failed to open run history", "error", err)
		return
	}
	defer closeDB()

	run.CreatedAt = r.now().UTC()
	if err := repo.Create(run); err != nil {
		r.logger.Warn("failed to record run", "error", err)
	}
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

// saveConfig persists the in-memory config, including rotated tokens.
func (r *Runner) saveConfig() error {
	if r.configPath == "" {
		dir, err := shared.ConfigDir()
		if err != nil {
			return err
		}
		r.configPath = filepath.Join(dir, "config.toml")
	}
	return shared.SaveConfig(r.configPath, r.config)
}
