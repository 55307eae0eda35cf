package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/services"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s Config written to %s\n", ui.Styles.OK("✓"), path)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("2. Set download.playlist or pass --playlist to 'tapedeck download'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if !r.config.HistoryEnabled() {
		return fmt.Errorf("%w: database.path is empty", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupYTDLP installs yt-dlp into the go-ytdlp cache unless a usable binary is already present.
func (r *Runner) SetupYTDLP(ctx context.Context, cmd *cli.Command) error {
	if path := r.config.Download.YTDLPPath; path != "" {
		r.logger.Info("using configured yt-dlp binary, nothing to install", "path", path)
		return nil
	}

	r.logger.Info("resolving yt-dlp")
	if err := services.InstallYTDLP(ctx); err != nil {
		return err
	}

	r.writePlain("%s yt-dlp is installed\n", ui.Styles.OK("✓"))
	r.writePlain("%s\n", ui.Styles.Help("ffmpeg must also be on PATH for audio extraction"))
	return nil
}
