package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/urfave/cli/v3"
)

// trackQuery is a track paired with the search query a download would use.
type trackQuery struct {
	models.Track
	Query string `json:"query"`
}

// SpotifyTracks lists the tracks of a playlist without downloading anything.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	ref := cmd.String("playlist")
	if ref == "" {
		ref = r.config.Download.Playlist
	}
	if ref == "" {
		return fmt.Errorf("%w: --playlist or download.playlist is required", shared.ErrMissingArgument)
	}

	source, err := r.playlistClient()
	if err != nil {
		return err
	}

	tracks, err := source.PlaylistTracks(ctx, ref)
	if err != nil {
		return fmt.Errorf("failed to fetch playlist: %w", err)
	}

	r.logger.Infof("fetched %d tracks", len(tracks))

	if cmd.Bool("json") {
		out := make([]trackQuery, 0, len(tracks))
		for _, t := range tracks {
			out = append(out, trackQuery{Track: t, Query: formatter.SearchQuery(t)})
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	playlist, err := source.Playlist(ctx, ref)
	if err != nil {
		r.logger.Warn("could not fetch playlist metadata", "err", err)
	}

	_, err = r.output.Write(formatter.ExportToText(playlist, tracks))
	return err
}
