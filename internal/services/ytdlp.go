// yt-dlp audio fetcher
//
// Searches YouTube for a query, downloads the first match's best audio stream and
// transcodes it with ffmpeg (invoked by yt-dlp) to a constant-bitrate file.
package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
	"github.com/dustin/go-humanize"
	"github.com/lrstanley/go-ytdlp"
)

const (
	defaultAudioFormat  = "mp3"
	defaultAudioQuality = "320K"
	defaultSearchPrefix = "ytsearch"

	// %(title)s names the file after the video, not the search query
	outputTemplate = "%(title)s.%(ext)s"

	progressInterval = 500 * time.Millisecond
)

// FetcherOpts configures a [YTDLPFetcher]. Zero values use the defaults.
type FetcherOpts struct {
	AudioFormat  string // Target codec passed to --audio-format (default: mp3)
	AudioQuality string // Target bitrate passed to --audio-quality (default: 320K)
	SearchPrefix string // yt-dlp search key (default: ytsearch, first match only)
	Executable   string // Path to the yt-dlp binary; empty resolves from PATH/cache
	Logger       *log.Logger
}

// searchFunc runs one search+download and returns the entries yt-dlp reported.
type searchFunc func(ctx context.Context, target, dir string) ([]*ytdlp.ExtractedInfo, error)

// YTDLPFetcher downloads audio for search queries with yt-dlp.
type YTDLPFetcher struct {
	format     string
	quality    string
	prefix     string
	executable string
	logger     *log.Logger
	search     searchFunc
}

// NewYTDLPFetcher creates a fetcher with a fixed command configuration.
func NewYTDLPFetcher(opts FetcherOpts) *YTDLPFetcher {
	if opts.AudioFormat == "" {
		opts.AudioFormat = defaultAudioFormat
	}
	if opts.AudioQuality == "" {
		opts.AudioQuality = defaultAudioQuality
	}
	if opts.SearchPrefix == "" {
		opts.SearchPrefix = defaultSearchPrefix
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	f := &YTDLPFetcher{
		format:     opts.AudioFormat,
		quality:    opts.AudioQuality,
		prefix:     opts.SearchPrefix,
		executable: opts.Executable,
		logger:     shared.WithLogger(opts.Logger, "service", "yt-dlp"),
	}
	f.search = f.runYTDLP
	return f
}

// Name returns the service name.
func (f *YTDLPFetcher) Name() string {
	return "YouTube"
}

// Target returns the yt-dlp argument for a search query, e.g. "ytsearch:Song A B".
func (f *YTDLPFetcher) Target(query string) string {
	return f.prefix + ":" + query
}

// command builds the yt-dlp invocation shared by every fetch.
func (f *YTDLPFetcher) command(dir string) *ytdlp.Command {
	dl := ytdlp.New().
		Format("bestaudio/best").
		ExtractAudio().
		AudioFormat(f.format).
		AudioQuality(f.quality).
		Output(filepath.Join(dir, outputTemplate)).
		NoOverwrites().
		PrintJSON()

	if f.executable != "" {
		dl.SetExecutable(f.executable)
	}

	dl.ProgressFunc(progressInterval, func(update ytdlp.ProgressUpdate) {
		f.logProgress(update)
	})

	return dl
}

func (f *YTDLPFetcher) runYTDLP(ctx context.Context, target, dir string) ([]*ytdlp.ExtractedInfo, error) {
	result, err := f.command(dir).Run(ctx, target)
	if err != nil {
		return nil, err
	}
	f.logDiagnostics(result)
	return result.GetExtractedInfo()
}

// logDiagnostics replays the yt-dlp output lines that go-ytdlp captured. JSON
// entries and progress lines are already consumed, so what remains is yt-dlp's
// own reporting, mapped onto the matching log level.
func (f *YTDLPFetcher) logDiagnostics(result *ytdlp.Result) {
	if result == nil {
		return
	}

	for _, entry := range result.OutputLogs {
		if entry == nil || entry.JSON != nil {
			continue
		}

		line := strings.TrimSpace(entry.Line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "WARNING:"):
			f.logger.Warn(strings.TrimSpace(strings.TrimPrefix(line, "WARNING:")), "source", "yt-dlp")
		case strings.HasPrefix(line, "ERROR:"):
			f.logger.Error(strings.TrimSpace(strings.TrimPrefix(line, "ERROR:")), "source", "yt-dlp")
		default:
			f.logger.Info(line, "source", "yt-dlp")
		}
	}
}

// logProgress reports yt-dlp progress at info level, so only --quiet hides it.
func (f *YTDLPFetcher) logProgress(update ytdlp.ProgressUpdate) {
	title := ""
	if update.Info != nil && update.Info.Title != nil {
		title = *update.Info.Title
	}

	kv := []any{"title", title, "downloaded", humanize.Bytes(uint64(max(update.DownloadedBytes, 0)))}
	if update.TotalBytes > 0 {
		kv = append(kv, "total", humanize.Bytes(uint64(update.TotalBytes)), "percent", update.PercentString())
	}
	if update.Status != "" {
		kv = append(kv, "status", string(update.Status))
	}
	if eta := update.ETA(); eta > 0 {
		kv = append(kv, "eta", eta.Round(time.Second))
	}
	f.logger.Info("download progress", kv...)
}

// Fetch searches for query, downloads the first match into dir and reports the transcoded file.
//
// Fetch never returns an error value: search, download and transcode failures are logged and
// carried in the returned [models.DownloadResult].
func (f *YTDLPFetcher) Fetch(ctx context.Context, query, dir string) models.DownloadResult {
	logger := shared.WithLogger(f.logger, "query", query)

	entries, err := f.search(ctx, f.Target(query), dir)
	if err != nil {
		logger.Error("download failed", "err", err)
		return models.Failed(query, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err))
	}

	for _, entry := range entries {
		path, ok := f.completedFile(entry)
		if !ok {
			continue
		}

		title := ""
		if entry.Title != nil {
			title = *entry.Title
		}

		logger.Info("downloaded", "path", path)
		return models.Succeeded(query, path, title)
	}

	logger.Warn("no entry produced a file", "entries", len(entries))
	return models.Failed(query, fmt.Errorf("%w: %d entries", shared.ErrNoResult, len(entries)))
}

// completedFile returns the transcoded path for entry if it exists on disk.
//
// yt-dlp reports the pre-conversion filename (e.g. .webm); after extraction the file carries the
// target audio extension. An existing file with either name counts as completed, which covers
// the --no-overwrites case where the download was skipped.
func (f *YTDLPFetcher) completedFile(entry *ytdlp.ExtractedInfo) (string, bool) {
	if entry == nil || entry.Filename == nil || *entry.Filename == "" {
		return "", false
	}

	original := *entry.Filename
	converted := strings.TrimSuffix(original, filepath.Ext(original)) + "." + f.format

	for _, candidate := range []string{converted, original} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	return "", false
}

// InstallYTDLP makes sure a yt-dlp binary is available, downloading it into the go-ytdlp cache if needed.
func InstallYTDLP(ctx context.Context) error {
	if _, err := ytdlp.Install(ctx, &ytdlp.InstallOptions{}); err != nil {
		return fmt.Errorf("%w: failed to install yt-dlp: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}
