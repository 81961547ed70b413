package models

import "time"

// Run represents a recorded inference run.
type Run struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"`
	ModelPath  string        `json:"model_path"`
	Device     string        `json:"device"`
	SaveDir    string        `json:"save_dir"`
	Confidence float64       `json:"confidence"`
	Frames     int           `json:"frames"`
	Detections int           `json:"detections"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// RunFilter contains filtering options for querying runs.
type RunFilter struct {
	Source string
	Device string
	Limit  int
	Offset int
}

// LabelCount is the number of detections recorded for one label.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
