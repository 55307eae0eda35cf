package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"
)

// History lists recorded runs, or the downloads of one run with --run.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openHistory()
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	if db == nil {
		return fmt.Errorf("%w: database.path is empty, run history is disabled", shared.ErrInvalidConfig)
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)

	if runID := cmd.String("run"); runID != "" {
		return r.showRun(repo, runID, cmd.Bool("json"))
	}

	runs, err := repo.List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded yet\n")
		return nil
	}

	r.writePlainHeader("Download history")
	for _, run := range runs {
		status := ui.Styles.Warn("incomplete")
		if run.Finished() {
			status = ui.Styles.OK(fmt.Sprintf("%d/%d", run.Downloaded, run.Total))
		}
		r.writePlain("%s  %s  %s  %s\n", run.ID, humanize.Time(run.StartedAt), run.PlaylistID, status)
		r.writePlain("   %s\n", ui.Styles.Help(run.OutputDir))
	}

	return nil
}

func (r *Runner) showRun(repo *repositories.RunRepository, runID string, asJSON bool) error {
	run, err := repo.Get(runID)
	if err != nil {
		return err
	}

	downloads, err := repo.Downloads(runID)
	if err != nil {
		return err
	}

	if asJSON {
		return r.writeJSON(map[string]any{"run": run, "downloads": downloads}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Run %s", run.ID))
	r.writePlain("Playlist: %s\n", run.PlaylistID)
	r.writePlain("Started: %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.Finished() {
		r.writePlain("Finished: %s (%s)\n", run.FinishedAt.Local().Format(time.DateTime), run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	} else {
		r.writePlain("Finished: %s\n", ui.Styles.Warn("no (interrupted or failed)"))
	}
	r.writePlain("Downloaded: %d of %d\n\n", run.Downloaded, run.Total)

	for _, d := range downloads {
		r.writePlain("%d. %s\n", d.Position+1, d.OriginalName)
		r.writePlain("   %s\n", ui.Styles.Help(d.FilePath))
	}

	return nil
}
