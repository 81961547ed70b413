package models

import (
	"fmt"
	"strings"
)

// Detection represents a detected object in a single frame.
type Detection struct {
	ID         int64   `json:"id,omitempty"`
	RunID      string  `json:"run_id,omitempty"`
	Frame      int     `json:"frame"`
	ClassID    int     `json:"class_id"`
	Label      string  `json:"label"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// FrameResult holds the detections found in one frame of the source.
type FrameResult struct {
	Index      int         `json:"index"`
	Detections []Detection `json:"detections"`
}

// Summary counts detections per label in order of first appearance, e.g. "2 person, 1 car".
func (f FrameResult) Summary() string {
	if len(f.Detections) == 0 {
		return "(no detections)"
	}

	counts := make(map[string]int)
	var order []string
	for _, d := range f.Detections {
		if counts[d.Label] == 0 {
			order = append(order, d.Label)
		}
		counts[d.Label]++
	}

	parts := make([]string, len(order))
	for i, label := range order {
		parts[i] = fmt.Sprintf("%d %s", counts[label], label)
	}
	return strings.Join(parts, ", ")
}
