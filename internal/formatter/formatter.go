// package formatter turns tracks into search queries and download results into the on-disk log and console text
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/tapedeck/internal/models"
)

// LogFileName is the name of the download log written into the output directory.
const LogFileName = "download_log.json"

// SearchQuery builds the video search string for a track: the title, one space, then the artists joined by spaces.
//
// The result is not normalized. A track with no artists yields the title followed by a single space.
func SearchQuery(t models.Track) string {
	return t.Title + " " + strings.Join(t.Artists, " ")
}

// EncodeLog renders log entries as a JSON array indented with two spaces.
func EncodeLog(entries []models.LogEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.LogEntry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode download log: %w", err)
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeLog parses a download log produced by [EncodeLog].
func DecodeLog(data []byte) ([]models.LogEntry, error) {
	var entries []models.LogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode download log: %w", err)
	}
	return entries, nil
}

// LogPath returns the download log location inside dir.
func LogPath(dir string) string {
	return filepath.Join(dir, LogFileName)
}

// WriteLog writes entries to dir/download_log.json, replacing any previous log.
func WriteLog(dir string, entries []models.LogEntry) (string, error) {
	data, err := EncodeLog(entries)
	if err != nil {
		return "", err
	}

	path := LogPath(dir)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write download log: %w", err)
	}

	return path, nil
}

// ReadLog reads dir/download_log.json.
func ReadLog(dir string) ([]models.LogEntry, error) {
	data, err := os.ReadFile(LogPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to read download log: %w", err)
	}
	return DecodeLog(data)
}

// Summary returns the end-of-run lines.
func Summary(downloaded, total int, dir string) string {
	return fmt.Sprintf("Downloaded %d of %d tracks to %s\nA download log has been saved in the same directory.\n", downloaded, total, dir)
}

// DownloadingLine is printed before each fetch.
func DownloadingLine(query string) string {
	return fmt.Sprintf("Downloading: %s\n", query)
}

// ErrorLine is printed when a fetch fails.
func ErrorLine(query string, err error) string {
	return fmt.Sprintf("Error downloading %s: %v\n", query, err)
}

// ExportToText renders a track listing with the query each track produces.
func ExportToText(playlist *models.Playlist, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if playlist != nil {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", playlist.Name))
		if playlist.Owner != "" {
			buf.WriteString(fmt.Sprintf("Owner: %s\n", playlist.Owner))
		}
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))

	for _, track := range tracks {
		line := fmt.Sprintf("%d. %s - %s", track.Position+1, strings.Join(track.Artists, ", "), track.Title)
		if track.Duration > 0 {
			line += fmt.Sprintf(" [%s]", FormatDuration(track.Duration))
		}
		buf.WriteString(line + "\n")
		buf.WriteString(fmt.Sprintf("   query: %q\n", SearchQuery(track)))
	}

	return buf.Bytes()
}

// FormatDuration renders seconds as m:ss.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
