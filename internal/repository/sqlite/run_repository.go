package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"yolotester/internal/models"
)

// RunRepository implements repository.RunRepository for SQLite.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Insert adds a new run record to the database.
func (r *RunRepository) Insert(run *models.Run) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().Exec(`
		INSERT INTO runs (id, source, model_path, device, save_dir, confidence, frames, detections, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.ModelPath, run.Device, run.SaveDir, run.Confidence,
		run.Frames, run.Detections, run.StartedAt, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID.
func (r *RunRepository) GetByID(id string) (*models.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, source, model_path, device, save_dir, confidence, frames, detections, started_at, duration_ms
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// GetAll retrieves runs based on filter criteria, newest first.
func (r *RunRepository) GetAll(filter *models.RunFilter) ([]models.Run, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `
		SELECT id, source, model_path, device, save_dir, confidence, frames, detections, started_at, duration_ms
		FROM runs
	`
	where, args := buildRunWhere(filter)
	query += where + " ORDER BY started_at DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetTotalCount returns the number of runs matching the filter.
func (r *RunRepository) GetTotalCount(filter *models.RunFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildRunWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM runs"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Delete removes a run and, through the foreign key, its detections.
func (r *RunRepository) Delete(id string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

func buildRunWhere(filter *models.RunFilter) (string, []interface{}) {
	where := " WHERE 1=1"
	args := []interface{}{}

	if filter == nil {
		return where, args
	}

	if filter.Source != "" {
		where += " AND source = ?"
		args = append(args, filter.Source)
	}

	if filter.Device != "" {
		where += " AND device = ?"
		args = append(args, filter.Device)
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var run models.Run
	var durationMs int64
	err := row.Scan(&run.ID, &run.Source, &run.ModelPath, &run.Device, &run.SaveDir, &run.Confidence,
		&run.Frames, &run.Detections, &run.StartedAt, &durationMs)
	if err != nil {
		return nil, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return &run, nil
}
