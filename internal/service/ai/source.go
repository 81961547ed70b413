package ai

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".webp": true, ".tif": true, ".tiff": true,
}

// frameSource yields the frames of an image or a video.
type frameSource interface {
	Read(dst *gocv.Mat) bool
	FrameCount() int
	FPS() float64
	IsImage() bool
	Close() error
}

func openSource(path string) (frameSource, error) {
	if imageExtensions[strings.ToLower(filepath.Ext(path))] {
		return &imageSource{path: path}, nil
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		if capture != nil {
			capture.Close()
		}
		return nil, fmt.Errorf("failed to open video capture %s: %w", path, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("failed to open video capture %s", path)
	}
	return &videoSource{capture: capture}, nil
}

type imageSource struct {
	path string
	read bool
}

func (s *imageSource) Read(dst *gocv.Mat) bool {
	if s.read {
		return false
	}
	s.read = true

	img := gocv.IMRead(s.path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return false
	}
	img.CopyTo(dst)
	return true
}

func (s *imageSource) FrameCount() int { return 1 }
func (s *imageSource) FPS() float64    { return 0 }
func (s *imageSource) IsImage() bool   { return true }
func (s *imageSource) Close() error    { return nil }

type videoSource struct {
	capture *gocv.VideoCapture
}

func (s *videoSource) Read(dst *gocv.Mat) bool {
	return s.capture.Read(dst)
}

func (s *videoSource) FrameCount() int {
	return int(s.capture.Get(gocv.VideoCaptureFrameCount))
}

func (s *videoSource) FPS() float64 {
	return s.capture.Get(gocv.VideoCaptureFPS)
}

func (s *videoSource) IsImage() bool { return false }

func (s *videoSource) Close() error {
	return s.capture.Close()
}
