package repository

import (
	"yolotester/internal/models"
)

// RunRepository defines the interface for recorded run operations.
type RunRepository interface {
	// Create operations
	Insert(run *models.Run) error

	// Read operations
	GetByID(id string) (*models.Run, error)
	GetAll(filter *models.RunFilter) ([]models.Run, error)
	GetTotalCount(filter *models.RunFilter) (int, error)

	// Delete operations
	Delete(id string) error
}

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []models.Detection) error

	// Read operations
	GetByRunID(runID string) ([]models.Detection, error)
	CountByLabel(runID string) ([]models.LabelCount, error)

	// Delete operations
	DeleteByRunID(runID string) error
}
