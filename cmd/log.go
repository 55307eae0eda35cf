package main

import (
	"context"

	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/desertthunder/tapedeck/internal/ui"
	"github.com/urfave/cli/v3"
)

// LogShow prints the download log of an output directory.
func (r *Runner) LogShow(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("output")
	if dir == "" {
		dir = r.config.Download.OutputDir
	}

	dir, err := shared.ResolveOutputDir(dir)
	if err != nil {
		return err
	}

	entries, err := formatter.ReadLog(dir)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	r.writePlainHeader(formatter.LogPath(dir))
	for i, entry := range entries {
		r.writePlain("%d. %s\n", i+1, entry.OriginalName)
		r.writePlain("   %s\n", ui.Styles.Help(entry.FilePath))
	}
	r.writePlain("\n%d downloaded tracks\n", len(entries))

	return nil
}
