package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/tasks"
	"github.com/desertthunder/tapedeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// PlaylistClient reads playlist metadata and tracks.
type PlaylistClient interface {
	tasks.PlaylistSource
	Playlist(ctx context.Context, ref string) (*models.Playlist, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	source     PlaylistClient
	fetcher    tasks.AudioFetcher
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Source and Fetcher are built from the configuration when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Source     PlaylistClient
	Fetcher    tasks.AudioFetcher
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
		source:     opts.Source,
		fetcher:    opts.Fetcher,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		downloadCommand, spotifyCommand, logCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration file and sets the log level from the global flags.
//
// A missing config file is not an error: defaults and environment variables are used instead.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	switch {
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.WarnLevel)
	}

	r.configPath = cmd.String("config")
	if err := r.loadConfig(); err != nil {
		return ctx, err
	}
	return ctx, nil
}

func (r *Runner) loadConfig() error {
	config := shared.DefaultConfig()

	if r.configPath != "" {
		loaded, err := shared.LoadConfig(r.configPath)
		switch {
		case err == nil:
			config = loaded
			r.logger.Debug("loaded config", "path", r.configPath)
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		default:
			return err
		}
	}

	config.ApplyEnv()
	r.config = config
	return nil
}

// playlistClient returns the injected source or a Spotify client built from the credentials.
func (r *Runner) playlistClient() (PlaylistClient, error) {
	if r.source != nil {
		return r.source, nil
	}

	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}
	r.source = svc
	return svc, nil
}

// audioFetcher returns the injected fetcher or a yt-dlp fetcher built from the download settings.
func (r *Runner) audioFetcher() tasks.AudioFetcher {
	if r.fetcher != nil {
		return r.fetcher
	}

	dl := r.config.Download
	r.fetcher = services.NewYTDLPFetcher(services.FetcherOpts{
		AudioFormat:  dl.AudioFormat,
		AudioQuality: dl.AudioQuality,
		SearchPrefix: dl.SearchPrefix,
		Executable:   dl.YTDLPPath,
		Logger:       r.logger,
	})
	return r.fetcher
}

// openHistory opens the history database, returning nil when history is disabled.
func (r *Runner) openHistory() (*sql.DB, error) {
	if !r.config.HistoryEnabled() {
		return nil, nil
	}
	return shared.OpenHistory(r.config.Database)
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

func (r *Runner) writePlainHeader(title string) {
	if err := r.writePlain("%s", ui.Styles.Header(title)); err != nil {
		r.logger.Warn("failed to write header", "err", err)
	}
}
