// Package yolo decodes raw YOLOv8 style output tensors.
package yolo

import (
	"fmt"
	"image"
)

const (
	// InputWidth and InputHeight are the network input size.
	InputWidth  = 640
	InputHeight = 640
	// IoUThreshold is used when suppressing overlapping boxes.
	IoUThreshold = 0.45
)

// Candidate is a single box that passed the confidence threshold, before suppression.
type Candidate struct {
	Box     image.Rectangle
	Score   float32
	ClassID int
}

// Decode reads a channel-major output of shape [1, 4+classes, anchors]. Each anchor
// holds cx, cy, w, h in network input pixels followed by one score per class. Boxes are
// scaled back to the source frame with scaleX and scaleY and clipped to its bounds.
func Decode(data []float32, channels, anchors int, conf float32, scaleX, scaleY float32, bounds image.Rectangle) ([]Candidate, error) {
	if channels < 5 {
		return nil, fmt.Errorf("unexpected output channels: %d", channels)
	}
	if len(data) != channels*anchors {
		return nil, fmt.Errorf("unexpected output length: got %d, want %d", len(data), channels*anchors)
	}

	classes := channels - 4
	candidates := make([]Candidate, 0, 64)

	for i := 0; i < anchors; i++ {
		bestClass := 0
		bestScore := data[4*anchors+i]
		for c := 1; c < classes; c++ {
			if s := data[(4+c)*anchors+i]; s > bestScore {
				bestScore = s
				bestClass = c
			}
		}

		if bestScore < conf {
			continue
		}

		cx := data[i]
		cy := data[anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		box := image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		).Intersect(bounds)
		if box.Empty() {
			continue
		}

		candidates = append(candidates, Candidate{Box: box, Score: bestScore, ClassID: bestClass})
	}

	return candidates, nil
}
