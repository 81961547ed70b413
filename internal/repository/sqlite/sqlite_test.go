package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"yolotester/internal/models"
	"yolotester/internal/repository"
)

var (
	_ repository.RunRepository       = (*RunRepository)(nil)
	_ repository.DetectionRepository = (*DetectionRepository)(nil)
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun(id, source string, started time.Time) *models.Run {
	return &models.Run{
		ID:         id,
		Source:     source,
		ModelPath:  "yolov8s.onnx",
		Device:     "cuda",
		SaveDir:    "runs/detect/predict",
		Confidence: 0.1,
		Frames:     3,
		Detections: 2,
		StartedAt:  started,
		Duration:   1500 * time.Millisecond,
	}
}

func TestDatabase_CreatesFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "runs.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestRunRepository_InsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewRunRepository(db)

	started := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	if err := repo.Insert(testRun("run-1", "clip.mp4", started)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := repo.GetByID("run-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected run, got nil")
	}
	if got.Source != "clip.mp4" || got.Device != "cuda" || got.Frames != 3 || got.Detections != 2 {
		t.Errorf("Unexpected run: %+v", got)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Expected 1.5s duration, got %v", got.Duration)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("Expected started %v, got %v", started, got.StartedAt)
	}
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	got, err := repo.GetByID("missing")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing run, got %+v", got)
	}
}

func TestRunRepository_GetAll_FilterAndOrder(t *testing.T) {
	repo := NewRunRepository(newTestDB(t))

	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	repo.Insert(testRun("a", "clip.mp4", base))
	repo.Insert(testRun("b", "other.mp4", base.Add(time.Minute)))
	repo.Insert(testRun("c", "clip.mp4", base.Add(2*time.Minute)))

	runs, err := repo.GetAll(&models.RunFilter{Source: "clip.mp4"})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "a" {
		t.Errorf("Expected newest first [c a], got [%s %s]", runs[0].ID, runs[1].ID)
	}

	limited, err := repo.GetAll(&models.RunFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetAll with limit failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "c" {
		t.Errorf("Expected only run c, got %+v", limited)
	}

	count, err := repo.GetTotalCount(nil)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 runs, got %d", count)
	}
}

func TestDetectionRepository_BatchAndCounts(t *testing.T) {
	db := newTestDB(t)
	runs := NewRunRepository(db)
	detections := NewDetectionRepository(db)

	if err := runs.Insert(testRun("run-1", "clip.mp4", time.Now())); err != nil {
		t.Fatalf("Insert run failed: %v", err)
	}

	batch := []models.Detection{
		{RunID: "run-1", Frame: 0, ClassID: 0, Label: "person", Confidence: 0.9},
		{RunID: "run-1", Frame: 1, ClassID: 0, Label: "person", Confidence: 0.8},
		{RunID: "run-1", Frame: 1, ClassID: 2, Label: "car", Confidence: 0.5},
	}
	if err := detections.InsertBatch(batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	got, err := detections.GetByRunID("run-1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 detections, got %d", len(got))
	}

	counts, err := detections.CountByLabel("run-1")
	if err != nil {
		t.Fatalf("CountByLabel failed: %v", err)
	}
	if len(counts) != 2 || counts[0].Label != "person" || counts[0].Count != 2 {
		t.Errorf("Unexpected label counts: %+v", counts)
	}
}

func TestRunRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	runs := NewRunRepository(db)
	detections := NewDetectionRepository(db)

	runs.Insert(testRun("run-1", "clip.mp4", time.Now()))
	detections.InsertBatch([]models.Detection{{RunID: "run-1", Label: "person"}})

	if err := runs.Delete("run-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := detections.GetByRunID("run-1")
	if err != nil {
		t.Fatalf("GetByRunID failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected detections to be removed with the run, got %d", len(got))
	}
}
