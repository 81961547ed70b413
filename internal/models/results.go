package models

import "time"

// PredictParams are the per-call options handed to the detection model.
type PredictParams struct {
	Source     string
	Show       bool
	Confidence float64
	Save       bool
	Device     string
}

// Results is what the detection model returns for one source.
type Results struct {
	RunID   string        `json:"run_id"`
	Source  string        `json:"source"`
	Device  string        `json:"device"`
	SaveDir string        `json:"save_dir,omitempty"`
	Frames  []FrameResult `json:"frames"`
	Elapsed time.Duration `json:"elapsed"`
}

// DetectionCount returns the number of detections across all frames.
func (r *Results) DetectionCount() int {
	total := 0
	for _, f := range r.Frames {
		total += len(f.Detections)
	}
	return total
}
