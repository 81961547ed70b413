package ai

import (
	"fmt"
	"path/filepath"
	"strings"

	"gocv.io/x/gocv"
)

const (
	videoCodec = "mp4v"
	defaultFPS = 30
)

// frameOutput stores annotated frames of a saved run.
type frameOutput interface {
	Write(frame gocv.Mat) error
	Close() error
}

func newOutput(dir, sourcePath string, src frameSource) frameOutput {
	name := filepath.Base(sourcePath)
	if src.IsImage() {
		return &imageOutput{path: filepath.Join(dir, name)}
	}

	fps := src.FPS()
	if fps <= 0 {
		fps = defaultFPS
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return &videoOutput{path: filepath.Join(dir, stem+".mp4"), fps: fps}
}

type imageOutput struct {
	path string
}

func (o *imageOutput) Write(frame gocv.Mat) error {
	if ok := gocv.IMWrite(o.path, frame); !ok {
		return fmt.Errorf("failed to write image %s", o.path)
	}
	return nil
}

func (o *imageOutput) Close() error { return nil }

// videoOutput opens its writer on the first frame, once the frame size is known.
type videoOutput struct {
	path   string
	fps    float64
	writer *gocv.VideoWriter
}

func (o *videoOutput) Write(frame gocv.Mat) error {
	if o.writer == nil {
		writer, err := gocv.VideoWriterFile(o.path, videoCodec, o.fps, frame.Cols(), frame.Rows(), true)
		if err != nil {
			return fmt.Errorf("failed to open video writer %s: %w", o.path, err)
		}
		o.writer = writer
	}
	return o.writer.Write(frame)
}

func (o *videoOutput) Close() error {
	if o.writer == nil {
		return nil
	}
	return o.writer.Close()
}
