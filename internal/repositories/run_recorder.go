package repositories

import (
	"github.com/desertthunder/tapedeck/internal/models"
)

// RunCacheAdapter implements tasks.RunRecorder using RunRepository.
type RunCacheAdapter struct {
	repo *RunRepository
}

// NewRunCacheAdapter creates a new RunCacheAdapter with the given repository
func NewRunCacheAdapter(repo *RunRepository) *RunCacheAdapter {
	return &RunCacheAdapter{repo: repo}
}

// StartRun records a new run.
func (a *RunCacheAdapter) StartRun(run *models.Run) error {
	return a.repo.Create(run)
}

// RecordDownload records one successful download against its run.
func (a *RunCacheAdapter) RecordDownload(download *models.Download) error {
	return a.repo.AddDownload(download)
}

// FinishRun records the final state of a run.
func (a *RunCacheAdapter) FinishRun(run *models.Run) error {
	return a.repo.Finish(run)
}
