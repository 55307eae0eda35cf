// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// newApp builds the root command with the global flags shared by every subcommand.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tapedeck",
		Usage:   "Download a Spotify playlist as MP3 files sourced from YouTube",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log warnings and errors",
			},
		},
		Before:   r.Before,
		Commands: r.register(),
	}
}

// downloadCommand runs a full playlist download
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download every track of a Spotify playlist as audio files",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Playlist ID, spotify:playlist: URI or open.spotify.com URL (overrides config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: ~/Downloads/SpotifyDownloads)",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history database",
			},
		},
		Action: r.Download,
	}
}

// spotifyCommand handles Spotify operations
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist operations",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List playlist tracks and the search query each one produces",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "playlist",
						Aliases: []string{"p"},
						Usage:   "Playlist ID, URI or URL (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SpotifyTracks,
			},
		},
	}
}

// logCommand reads download logs
func logCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Download log operations",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the download log saved in an output directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory containing download_log.json",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.LogShow,
			},
		},
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded download runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to list (0 for all)",
				Value: 10,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Show the downloads recorded for one run ID",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration, database and yt-dlp.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml template",
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the history database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "ytdlp",
				Usage:  "Download the yt-dlp binary if it is not installed",
				Action: r.SetupYTDLP,
			},
		},
	}
}
