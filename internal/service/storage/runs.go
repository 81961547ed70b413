package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"yolotester/internal/logger"
	"yolotester/internal/models"
	"yolotester/internal/repository"

	"github.com/google/uuid"
)

// RunService hands out output directories for saved runs and records them in the database.
type RunService struct {
	runsDir       string
	name          string
	mu            sync.Mutex
	logger        *logger.Logger
	runRepo       repository.RunRepository
	detectionRepo repository.DetectionRepository
}

// NewRunService creates a RunService rooted at runsDir. The repositories may be nil,
// in which case Record is a no-op.
func NewRunService(runsDir string, logger *logger.Logger, runRepo repository.RunRepository, detectionRepo repository.DetectionRepository) *RunService {
	return &RunService{
		runsDir:       runsDir,
		name:          "predict",
		logger:        logger,
		runRepo:       runRepo,
		detectionRepo: detectionRepo,
	}
}

// NextSaveDir creates and returns the first free directory among predict, predict2, predict3...
func (s *RunService) NextSaveDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.runsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create runs directory: %w", err)
	}

	for i := 1; ; i++ {
		name := s.name
		if i > 1 {
			name = fmt.Sprintf("%s%d", s.name, i)
		}
		dir := filepath.Join(s.runsDir, name)

		err := os.Mkdir(dir, 0755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("failed to create save directory: %w", err)
		}
	}
}

// Record stores the run summary and all detections of result.
func (s *RunService) Record(result *models.Results, run *models.Run) error {
	if s.runRepo == nil {
		return nil
	}

	if run.ID == "" {
		run.ID = result.RunID
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.Source = result.Source
	run.Device = result.Device
	run.SaveDir = result.SaveDir
	run.Frames = len(result.Frames)
	run.Detections = result.DetectionCount()
	run.Duration = result.Elapsed
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().Add(-result.Elapsed)
	}

	if err := s.runRepo.Insert(run); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}

	if s.detectionRepo != nil && run.Detections > 0 {
		detections := make([]models.Detection, 0, run.Detections)
		for _, frame := range result.Frames {
			for _, det := range frame.Detections {
				det.RunID = run.ID
				det.Frame = frame.Index
				detections = append(detections, det)
			}
		}
		if err := s.detectionRepo.InsertBatch(detections); err != nil {
			return fmt.Errorf("failed to save detections of run %s: %w", run.ID, err)
		}
	}

	s.logger.Info("Recorded run %s: %d frames, %d detections", run.ID, run.Frames, run.Detections)
	return nil
}
