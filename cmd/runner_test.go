package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/repositories"
	"github.com/desertthunder/tapedeck/internal/shared"
	tu "github.com/desertthunder/tapedeck/internal/testing"
)

func sampleTracks() []models.Track {
	return []models.Track{
		{ID: "1", Title: "Song A", Artists: []string{"Artist1"}, Position: 0, Duration: 200},
		{ID: "2", Title: "Song B", Artists: []string{"Artist2", "Artist3"}, Position: 1},
		{ID: "3", Title: "Song C", Artists: []string{"Artist4"}, Position: 2},
	}
}

// writeTestConfig writes a config whose output and database live under a temp dir.
func writeTestConfig(t *testing.T, mutate func(*shared.Config)) (string, *shared.Config) {
	t.Helper()

	dir := t.TempDir()
	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "test_client_id"
	config.Credentials.Spotify.ClientSecret = "test_client_secret"
	config.Download.Playlist = "abc"
	config.Download.OutputDir = filepath.Join(dir, "music")
	config.Database.Path = filepath.Join(dir, "history.db")
	if mutate != nil {
		mutate(config)
	}

	path := filepath.Join(dir, "config.toml")
	if err := shared.SaveConfig(path, config); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}
	return path, config
}

// runApp runs the CLI with injected collaborators and returns the console output.
func runApp(t *testing.T, opts RunnerOpts, args ...string) (string, *Runner, error) {
	t.Helper()

	var out bytes.Buffer
	opts.Output = &out
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	runner := NewRunner(opts)
	err := newApp(runner).Run(context.Background(), append([]string{"tapedeck"}, args...))
	return out.String(), runner, err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			source := &tu.MockPlaylistSource{}
			fetcher := &tu.MockFetcher{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Source:     source,
				Fetcher:    fetcher,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.source != source {
				t.Error("expected source to be set")
			}
			if runner.fetcher != fetcher {
				t.Error("expected fetcher to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("builds services from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = "id"
			config.Credentials.Spotify.ClientSecret = "secret"
			runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard)})

			source, err := runner.playlistClient()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if source == nil {
				t.Error("expected Spotify client to be built")
			}
			if runner.audioFetcher() == nil {
				t.Error("expected yt-dlp fetcher to be built")
			}
		})

		t.Run("missing credentials", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Credentials.Spotify.ClientID = ""
			runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard)})

			if _, err := runner.playlistClient(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("writePlainHeader", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: log.New(io.Discard)})
		runner.writePlainHeader("Road Trip (3 tracks)")
		if !strings.Contains(output.String(), "Road Trip (3 tracks)") {
			t.Errorf("expected header title in output, got %q", output.String())
		}

		var logs bytes.Buffer
		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Logger: log.New(&logs)})
		failing.writePlainHeader("Road Trip")
		if !strings.Contains(logs.String(), "failed to write header") {
			t.Errorf("expected write failure to be logged, got %q", logs.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"download", "spotify", "log", "history", "setup"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("command at index %d: expected %s", i, want[i])
			}
		}
	})
}

func TestBefore(t *testing.T) {
	t.Run("loads config file", func(t *testing.T) {
		path, _ := writeTestConfig(t, func(c *shared.Config) { c.Download.AudioQuality = "192K" })

		_, runner, err := runApp(t, RunnerOpts{}, "--config", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.config.Download.AudioQuality != "192K" {
			t.Errorf("expected config to be loaded, got %q", runner.config.Download.AudioQuality)
		}
		if runner.configPath != path {
			t.Errorf("expected config path %s, got %s", path, runner.configPath)
		}
	})

	t.Run("missing config uses defaults", func(t *testing.T) {
		_, runner, err := runApp(t, RunnerOpts{}, "--config", filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.config.Download.AudioFormat != "mp3" {
			t.Errorf("expected default audio format, got %q", runner.config.Download.AudioFormat)
		}
	})

	t.Run("environment overrides credentials", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		t.Setenv("SPOTIFY_CLIENT_ID", "env_id")
		t.Setenv("SPOTIFY_CLIENT_SECRET", "env_secret")

		_, runner, err := runApp(t, RunnerOpts{}, "--config", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if runner.config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env client id, got %q", runner.config.Credentials.Spotify.ClientID)
		}
	})

	t.Run("invalid config is an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[download\nplaylist ="), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		_, _, err := runApp(t, RunnerOpts{}, "--config", path)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("verbose sets debug level", func(t *testing.T) {
		logger := log.New(io.Discard)
		_, _, err := runApp(t, RunnerOpts{Logger: logger}, "--config", filepath.Join(t.TempDir(), "none.toml"), "--verbose")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}
	})
}

func TestDownload(t *testing.T) {
	t.Run("downloads playlist and records history", func(t *testing.T) {
		path, config := writeTestConfig(t, nil)
		source := &tu.MockPlaylistSource{
			Info:   &models.Playlist{ID: "abc", Name: "Road Trip", TrackCount: 3},
			Tracks: sampleTracks(),
		}
		fetcher := &tu.MockFetcher{Failures: map[string]error{"Song C Artist4": shared.ErrNoResult}}

		out, _, err := runApp(t, RunnerOpts{Source: source, Fetcher: fetcher}, "--config", path, "download")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		dir := config.Download.OutputDir
		if !strings.Contains(out, "Road Trip (3 tracks)") {
			t.Errorf("expected header, got %q", out)
		}
		if !strings.Contains(out, "Downloading: Song A Artist1\n") {
			t.Errorf("expected downloading line, got %q", out)
		}
		if !strings.Contains(out, "Error downloading Song C Artist4: ") {
			t.Errorf("expected error line, got %q", out)
		}
		if !strings.HasSuffix(out, formatter.Summary(2, 3, dir)) {
			t.Errorf("expected summary, got %q", out)
		}

		entries, err := formatter.ReadLog(dir)
		if err != nil {
			t.Fatalf("failed to read log: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("expected 2 log entries, got %d", len(entries))
		}

		db, err := shared.OpenHistory(config.Database)
		if err != nil {
			t.Fatalf("failed to open history: %v", err)
		}
		defer db.Close()

		runs, err := repositories.NewRunRepository(db).List(0)
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 1 || runs[0].Downloaded != 2 || !runs[0].Finished() {
			t.Errorf("unexpected history %+v", runs)
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		dir := filepath.Join(t.TempDir(), "elsewhere")
		source := &tu.MockPlaylistSource{Tracks: sampleTracks()[:1]}

		_, _, err := runApp(t, RunnerOpts{Source: source, Fetcher: &tu.MockFetcher{}},
			"--config", path, "download", "--playlist", "xyz", "--output", dir, "--no-history")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, formatter.LogPath(dir))
	})

	t.Run("missing playlist", func(t *testing.T) {
		path, _ := writeTestConfig(t, func(c *shared.Config) { c.Download.Playlist = "" })

		_, _, err := runApp(t, RunnerOpts{Source: &tu.MockPlaylistSource{}, Fetcher: &tu.MockFetcher{}}, "--config", path, "download")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("playlist failure is fatal", func(t *testing.T) {
		path, config := writeTestConfig(t, nil)
		source := &tu.MockPlaylistSource{Err: shared.ErrPlaylistNotFound}

		out, _, err := runApp(t, RunnerOpts{Source: source, Fetcher: &tu.MockFetcher{}}, "--config", path, "download")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
		}
		if strings.Contains(out, "Downloaded") {
			t.Errorf("expected no summary, got %q", out)
		}
		if _, err := os.Stat(formatter.LogPath(config.Download.OutputDir)); !os.IsNotExist(err) {
			t.Error("expected no download log")
		}
	})

	t.Run("unusable history database is ignored", func(t *testing.T) {
		path, config := writeTestConfig(t, func(c *shared.Config) {
			c.Database.Path = filepath.Join(t.TempDir(), "missing", "dir", "history.db")
		})

		_, _, err := runApp(t, RunnerOpts{Source: &tu.MockPlaylistSource{Tracks: sampleTracks()}, Fetcher: &tu.MockFetcher{}}, "--config", path, "download")
		if err != nil {
			t.Fatalf("expected history failure to be ignored, got %v", err)
		}
		tu.AssertFileExists(t, formatter.LogPath(config.Download.OutputDir))
	})
}

func TestSpotifyTracks(t *testing.T) {
	source := &tu.MockPlaylistSource{
		Info:   &models.Playlist{ID: "abc", Name: "Road Trip", Owner: "someone"},
		Tracks: sampleTracks(),
	}

	t.Run("text", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		out, _, err := runApp(t, RunnerOpts{Source: source}, "--config", path, "spotify", "tracks")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Playlist: Road Trip") {
			t.Errorf("expected playlist name, got %q", out)
		}
		if !strings.Contains(out, `query: "Song B Artist2 Artist3"`) {
			t.Errorf("expected query line, got %q", out)
		}
		if !strings.Contains(out, "1. Artist1 - Song A [3:20]") {
			t.Errorf("expected track line, got %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		out, _, err := runApp(t, RunnerOpts{Source: source}, "--config", path, "spotify", "tracks", "--json", "--pretty=false")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, `"query":"Song A Artist1"`) {
			t.Errorf("expected query field, got %q", out)
		}
	})

	t.Run("missing playlist", func(t *testing.T) {
		path, _ := writeTestConfig(t, func(c *shared.Config) { c.Download.Playlist = "" })
		_, _, err := runApp(t, RunnerOpts{Source: source}, "--config", path, "spotify", "tracks")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestLogShow(t *testing.T) {
	t.Run("prints entries", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		dir := t.TempDir()
		entries := []models.LogEntry{{OriginalName: "Song A Artist1", FilePath: filepath.Join(dir, "Song A.mp3")}}
		if _, err := formatter.WriteLog(dir, entries); err != nil {
			t.Fatalf("failed to write log: %v", err)
		}

		out, _, err := runApp(t, RunnerOpts{}, "--config", path, "log", "show", "--output", dir)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "1. Song A Artist1") {
			t.Errorf("expected entry, got %q", out)
		}
		if !strings.Contains(out, "1 downloaded tracks") {
			t.Errorf("expected count, got %q", out)
		}
	})

	t.Run("missing log", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		_, _, err := runApp(t, RunnerOpts{}, "--config", path, "log", "show", "--output", t.TempDir())
		if err == nil {
			t.Error("expected error for missing log")
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("lists runs", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		opts := RunnerOpts{Source: &tu.MockPlaylistSource{Tracks: sampleTracks()}, Fetcher: &tu.MockFetcher{}}

		if _, _, err := runApp(t, opts, "--config", path, "download"); err != nil {
			t.Fatalf("download failed: %v", err)
		}

		out, _, err := runApp(t, RunnerOpts{}, "--config", path, "history")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "abc") || !strings.Contains(out, "3/3") {
			t.Errorf("expected run listing, got %q", out)
		}
	})

	t.Run("empty", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		out, _, err := runApp(t, RunnerOpts{}, "--config", path, "history")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "No runs recorded yet") {
			t.Errorf("expected empty message, got %q", out)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		path, _ := writeTestConfig(t, func(c *shared.Config) { c.Database.Path = "" })
		_, _, err := runApp(t, RunnerOpts{}, "--config", path, "history")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		path, _ := writeTestConfig(t, nil)
		_, _, err := runApp(t, RunnerOpts{}, "--config", path, "history", "--run", "nope")
		if !errors.Is(err, repositories.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "config.toml")

		if _, _, err := runApp(t, RunnerOpts{}, "--config", path, "setup", "config"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if _, _, err := runApp(t, RunnerOpts{}, "--config", path, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
	})

	t.Run("database", func(t *testing.T) {
		path, config := writeTestConfig(t, nil)

		if _, _, err := runApp(t, RunnerOpts{}, "--config", path, "setup", "database"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
	})

	t.Run("ytdlp with configured binary", func(t *testing.T) {
		path, _ := writeTestConfig(t, func(c *shared.Config) { c.Download.YTDLPPath = "/usr/local/bin/yt-dlp" })

		if _, _, err := runApp(t, RunnerOpts{}, "--config", path, "setup", "ytdlp"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
