// package models defines the data model for the playlist downloader
package models

import (
	"time"
)

// Track represents one playlist entry fetched from the metadata API.
type Track struct {
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album,omitempty"`
	Duration int      `json:"duration,omitempty"` // Duration in seconds
	Position int      `json:"position"`           // 0-based ordinal in the playlist
}

// Playlist is the metadata shown in the run header.
type Playlist struct {
	ID         string
	Name       string
	Owner      string
	TrackCount int
}

// DownloadResult is the outcome of fetching audio for one search query.
//
// A result is successful when Err is nil and FilePath is set.
type DownloadResult struct {
	Query    string
	FilePath string
	Title    string // Title reported by the video platform
	Err      error
}

// OK reports whether the fetch produced a file.
func (r DownloadResult) OK() bool {
	return r.Err == nil && r.FilePath != ""
}

// Succeeded builds a successful [DownloadResult].
func Succeeded(query, path, title string) DownloadResult {
	return DownloadResult{Query: query, FilePath: path, Title: title}
}

// Failed builds a failed [DownloadResult].
func Failed(query string, err error) DownloadResult {
	return DownloadResult{Query: query, Err: err}
}

// LogEntry is one element of the download log.
type LogEntry struct {
	OriginalName string `json:"original_name"`
	FilePath     string `json:"file_path"`
}

// Run is a playlist download recorded in the history database.
type Run struct {
	ID         string
	PlaylistID string
	OutputDir  string
	Total      int
	Downloaded int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Finished reports whether the run reached the persisting step.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// Download is a successful download recorded against a [Run].
type Download struct {
	ID           string
	RunID        string
	Position     int
	OriginalName string
	FilePath     string
	CreatedAt    time.Time
}
