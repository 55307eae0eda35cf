package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tapedeck/internal/models"
	"github.com/desertthunder/tapedeck/internal/shared"
)

const runColumns = "id, playlist_id, output_dir, total, downloaded, started_at, finished_at"

const downloadColumns = "id, run_id, position, original_name, file_path, created_at"

// scanner is satisfied by both [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// RunRepository persists [models.Run] and [models.Download] records.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run. An empty ID is replaced with a generated one.
func (r *RunRepository) Create(run *models.Run) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.PlaylistID == "" {
		return fmt.Errorf("%w: run playlist_id", shared.ErrMissingArgument)
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.PlaylistID,
		run.OutputDir,
		run.Total,
		run.Downloaded,
		run.StartedAt,
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Finish stores the final download count and completion time of a run.
func (r *RunRepository) Finish(run *models.Run) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}

	result, err := r.db.Exec(
		`UPDATE runs SET downloaded = ?, finished_at = ? WHERE id = ?`,
		run.Downloaded, *run.FinishedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	return checkAffected(result, "run", run.ID)
}

// Get retrieves a run by ID
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`

	run, err := scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List retrieves runs newest first. A limit of zero or less returns every run.
func (r *RunRepository) List(limit int) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id ASC`
	args := []any{}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

// Delete removes a run and, through the foreign key cascade, its downloads.
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return checkAffected(result, "run", id)
}

// AddDownload inserts a successful download for an existing run.
func (r *RunRepository) AddDownload(d *models.Download) error {
	if d.ID == "" {
		d.ID = shared.GenerateID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO downloads (` + downloadColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, d.ID, d.RunID, d.Position, d.OriginalName, d.FilePath, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}

	return nil
}

// Downloads retrieves the downloads of a run in playlist order.
func (r *RunRepository) Downloads(runID string) ([]*models.Download, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE run_id = ? ORDER BY position ASC`

	rows, err := r.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		var d models.Download
		if err := rows.Scan(&d.ID, &d.RunID, &d.Position, &d.OriginalName, &d.FilePath, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		downloads = append(downloads, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return downloads, nil
}

func scanRun(s scanner) (*models.Run, error) {
	var (
		run        models.Run
		finishedAt sql.NullTime
	)

	err := s.Scan(&run.ID, &run.PlaylistID, &run.OutputDir, &run.Total, &run.Downloaded, &run.StartedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if finishedAt.Valid {
		t := finishedAt.Time
		run.FinishedAt = &t
	}

	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
