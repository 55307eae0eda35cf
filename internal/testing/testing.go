// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/tapedeck/internal/models"
)

// MockPlaylistSource is a test double for tasks.PlaylistSource
type MockPlaylistSource struct {
	Info   *models.Playlist
	Tracks []models.Track
	Err    error
	Calls  int
}

func (m *MockPlaylistSource) PlaylistTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks, nil
}

func (m *MockPlaylistSource) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Info == nil {
		return &models.Playlist{ID: playlistID, TrackCount: len(m.Tracks)}, nil
	}
	return m.Info, nil
}

// MockFetcher is a test double for tasks.AudioFetcher.
//
// Queries listed in Failures fail with the mapped error. Every other query writes
// "<dir>/<query>.mp3" and succeeds.
type MockFetcher struct {
	Failures map[string]error
	Queries  []string
}

func (m *MockFetcher) Fetch(ctx context.Context, query, dir string) models.DownloadResult {
	m.Queries = append(m.Queries, query)
	if err, ok := m.Failures[query]; ok {
		return models.Failed(query, err)
	}

	path := filepath.Join(dir, query+".mp3")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		return models.Failed(query, err)
	}
	return models.Succeeded(query, path, query)
}

// MockRecorder is a test double for tasks.RunRecorder
type MockRecorder struct {
	Started   []models.Run
	Recorded  []models.Download
	Finished  []models.Run
	StartErr  error
	RecordErr error
}

func (m *MockRecorder) StartRun(run *models.Run) error {
	if m.StartErr != nil {
		return m.StartErr
	}
	m.Started = append(m.Started, *run)
	return nil
}

func (m *MockRecorder) RecordDownload(d *models.Download) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.Recorded = append(m.Recorded, *d)
	return nil
}

func (m *MockRecorder) FinishRun(run *models.Run) error {
	m.Finished = append(m.Finished, *run)
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
