package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Download runs one full playlist download.
//
// A run that downloads nothing still succeeds; only playlist, directory and log failures
// are returned as errors.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	config := *r.config
	if p := cmd.String("playlist"); p != "" {
		config.Download.Playlist = p
	}
	if o := cmd.String("output"); o != "" {
		config.Download.OutputDir = o
	}
	if err := config.Validate(); err != nil {
		return err
	}

	source, err := r.playlistClient()
	if err != nil {
		return err
	}

	opts := tasks.EngineOpts{
		SearchRate: config.Download.SearchRate,
		Output:     r.output,
		Logger:     r.logger,
	}

	if !cmd.Bool("no-history") {
		db, err := r.openHistory()
		if err != nil {
			r.logger.Warn("run history unavailable", "err", err)
		} else if db != nil {
			defer db.Close()
			opts.Recorder = repositories.NewRunCacheAdapter(repositories.NewRunRepository(db))
		}
	}

	if playlist, err := source.Playlist(ctx, config.Download.Playlist); err != nil {
		r.logger.Debug("could not fetch playlist metadata", "err", err)
	} else {
		r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", playlist.Name, playlist.TrackCount))
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	engine := tasks.NewDownloadEngine(source, r.audioFetcher(), opts)
	result, err := engine.Run(ctx, progressCh, tasks.RunOpts{
		PlaylistID: config.Download.Playlist,
		OutputDir:  config.Download.OutputDir,
	})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if result.Failed > 0 {
		r.logger.Warn("some tracks were not downloaded", "failed", result.Failed, "total", result.Total())
	}
	if result.RunID != "" {
		r.logger.Info("run recorded", "id", result.RunID)
	}

	return nil
}
