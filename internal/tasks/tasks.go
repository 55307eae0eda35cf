// package tasks implements the playlist download run.
//
// The core abstraction is DownloadEngine, which fetches a playlist, downloads every track it can
// and writes the download log. Runs emit progress updates via channels for non-blocking status
// reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/formatter"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"golang.org/x/time/rate"
)

// PlaylistSource lists the tracks of a playlist in playlist order.
type PlaylistSource interface {
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error)
}

// AudioFetcher downloads audio for one search query into a directory.
//
// Failures are reported in the returned [models.DownloadResult], never as a separate error.
type AudioFetcher interface {
	Fetch(ctx context.Context, query, dir string) models.DownloadResult
}

// RunRecorder persists run history. Implemented by repositories.RunCacheAdapter.
type RunRecorder interface {
	StartRun(run *models.Run) error
	RecordDownload(download *models.Download) error
	FinishRun(run *models.Run) error
}

// RunOpts selects the playlist and destination for a [DownloadEngine.Run].
type RunOpts struct {
	PlaylistID string // Playlist ID, URI or URL
	OutputDir  string // Destination directory; empty uses ~/Downloads/SpotifyDownloads
}

// RunResult contains all data from a finished download run.
type RunResult struct {
	RunID      string                  // History ID (empty when no recorder is configured)
	Tracks     []models.Track          // Tracks returned by the source
	Results    []models.DownloadResult // One result per track, in playlist order
	Entries    []models.LogEntry       // Successful downloads, as written to the log
	Downloaded int                     // Number of successful downloads
	Failed     int                     // Number of tracks skipped after a failure
	OutputDir  string                  // Resolved destination directory
	LogPath    string                  // Path of the written download log
}

// Total returns the number of tracks in the run.
func (r *RunResult) Total() int {
	return len(r.Tracks)
}

// EngineOpts configures the optional collaborators of a [DownloadEngine].
type EngineOpts struct {
	Recorder   RunRecorder // Optional history store; errors are logged and ignored
	SearchRate float64     // Searches per second; 0 disables pacing
	Output     io.Writer   // Console output (default: os.Stdout)
	Logger     *log.Logger
}

// DownloadEngine downloads every track of a playlist sequentially.
type DownloadEngine struct {
	source   PlaylistSource
	fetcher  AudioFetcher
	recorder RunRecorder
	limiter  *rate.Limiter
	out      io.Writer
	logger   *log.Logger
}

// NewDownloadEngine creates a new DownloadEngine with the provided services.
func NewDownloadEngine(source PlaylistSource, fetcher AudioFetcher, opts EngineOpts) *DownloadEngine {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.SearchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.SearchRate), 1)
	}

	return &DownloadEngine{
		source:   source,
		fetcher:  fetcher,
		recorder: opts.Recorder,
		limiter:  limiter,
		out:      opts.Output,
		logger:   shared.WithLogger(opts.Logger, "task", "download"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *DownloadEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *DownloadEngine) print(s string) {
	if _, err := io.WriteString(e.out, s); err != nil {
		e.logger.Warn("failed to write console output", "err", err)
	}
}

// Run downloads every track of a playlist into the output directory and writes the download log.
//
// A failure to create the directory, read the playlist or write the log aborts the run with an
// error and no summary. A failed track is reported on the console and left out of the log; the run
// continues with the next track. Cancelling ctx stops the run before the log is written.
func (e *DownloadEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: playlist source not initialized", shared.ErrServiceUnavailable)
	}
	if e.fetcher == nil {
		return nil, fmt.Errorf("%w: audio fetcher not initialized", shared.ErrServiceUnavailable)
	}
	if opts.PlaylistID == "" {
		return nil, fmt.Errorf("%w: playlist", shared.ErrMissingArgument)
	}

	dir, err := shared.ResolveOutputDir(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	logger := shared.WithLogger(e.logger, "playlist", opts.PlaylistID)
	result := &RunResult{OutputDir: dir}

	e.sendProgress(progress, fetchingPlaylistUpdate(opts.PlaylistID))

	tracks, err := e.source.PlaylistTracks(ctx, opts.PlaylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch playlist: %w", err)
	}

	total := len(tracks)
	result.Tracks = tracks
	result.Results = make([]models.DownloadResult, 0, total)
	result.Entries = make([]models.LogEntry, 0, total)

	e.sendProgress(progress, foundPlaylistUpdate(tracks))
	logger.Info("starting downloads", "tracks", total, "dir", dir)

	run := e.startRun(logger, opts.PlaylistID, dir, total)
	if run != nil {
		result.RunID = run.ID
	}

	for i, track := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		query := formatter.SearchQuery(track)
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		e.sendProgress(progress, downloadingUpdate(i+1, total, query))
		e.print(formatter.DownloadingLine(query))

		res := e.fetcher.Fetch(ctx, query, dir)
		result.Results = append(result.Results, res)
		e.sendProgress(progress, downloadedUpdate(i+1, total, res))

		if !res.OK() {
			reason := res.Err
			if reason == nil {
				reason = shared.ErrNoResult
			}
			result.Failed++
			e.print(formatter.ErrorLine(query, reason))
			continue
		}

		entry := models.LogEntry{OriginalName: query, FilePath: res.FilePath}
		result.Entries = append(result.Entries, entry)
		result.Downloaded++
		e.recordDownload(logger, run, track, entry)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logPath, err := formatter.WriteLog(dir, result.Entries)
	if err != nil {
		return nil, err
	}
	result.LogPath = logPath
	e.sendProgress(progress, logWrittenUpdate(logPath, len(result.Entries)))

	e.finishRun(logger, run, result.Downloaded)
	e.print(formatter.Summary(result.Downloaded, total, dir))

	logger.Info("run complete", "downloaded", result.Downloaded, "failed", result.Failed, "log", logPath)
	return result, nil
}

// startRun records the run start. A nil run disables recording for the rest of the run.
func (e *DownloadEngine) startRun(logger *log.Logger, playlistID, dir string, total int) *models.Run {
	if e.recorder == nil {
		return nil
	}

	run := &models.Run{
		ID:         shared.GenerateID(),
		PlaylistID: playlistID,
		OutputDir:  dir,
		Total:      total,
		StartedAt:  time.Now().UTC(),
	}
	if err := e.recorder.StartRun(run); err != nil {
		logger.Warn("failed to record run, history disabled", "err", err)
		return nil
	}
	return run
}

func (e *DownloadEngine) recordDownload(logger *log.Logger, run *models.Run, track models.Track, entry models.LogEntry) {
	if run == nil {
		return
	}

	download := &models.Download{
		ID:           shared.GenerateID(),
		RunID:        run.ID,
		Position:     track.Position,
		OriginalName: entry.OriginalName,
		FilePath:     entry.FilePath,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.recorder.RecordDownload(download); err != nil {
		logger.Warn("failed to record download", "query", entry.OriginalName, "err", err)
	}
}

func (e *DownloadEngine) finishRun(logger *log.Logger, run *models.Run, downloaded int) {
	if run == nil {
		return
	}

	finished := time.Now().UTC()
	run.Downloaded = downloaded
	run.FinishedAt = &finished
	if err := e.recorder.FinishRun(run); err != nil {
		logger.Warn("failed to record run finish", "err", err)
	}
}
