package tasks

import (
	"fmt"

	"github.com/desertthunder/tapedeck/internal/models"
)

// ProgressUpdate represents a progress event during a download run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	DownloadTracks
	WriteLog
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case DownloadTracks:
		return "download_tracks"
	case WriteLog:
		return "write_log"
	default:
		return ""
	}
}

func fetchingPlaylistUpdate(playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s from Spotify...", playlistID),
	}
}

func foundPlaylistUpdate(tracks []models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracks", len(tracks)),
		Data:    tracks,
	}
}

func downloadingUpdate(step, total int, query string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, query),
	}
}

func downloadedUpdate(step, total int, result models.DownloadResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, result.Query)
	if !result.OK() {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, result.Query, result.Err)
	}
	return ProgressUpdate{
		Phase:   DownloadTracks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}

func logWrittenUpdate(path string, entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteLog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %d entries to %s", entries, path),
		Data:    path,
	}
}
