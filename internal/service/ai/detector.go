package ai

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"
	"yolotester/internal/accel"
	"yolotester/internal/logger"
	"yolotester/internal/models"
	"yolotester/internal/yolo"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gocv.io/x/gocv"
)

// FrameSink receives annotated frames as JPEG bytes.
type FrameSink interface {
	Publish(frame int, jpeg []byte)
}

// DetectorService runs a YOLO network through OpenCV's DNN module.
type DetectorService struct {
	net       gocv.Net
	modelPath string
	device    accel.Device
	saveDir   func() (string, error)
	open      func(path string) (frameSource, error)
	output    func(dir, sourcePath string, src frameSource) frameOutput
	preview   FrameSink
	logger    *logger.Logger
	mu        sync.Mutex // gocv.Net is not safe for concurrent use
}

// Option configures optional DetectorService collaborators.
type Option func(*DetectorService)

// WithSaveDirs sets how output directories for saved runs are allocated.
func WithSaveDirs(next func() (string, error)) Option {
	return func(s *DetectorService) {
		s.saveDir = next
	}
}

// WithPreview publishes every annotated frame to sink.
func WithPreview(sink FrameSink) Option {
	return func(s *DetectorService) {
		s.preview = sink
	}
}

// NewDetectorService loads the network at modelPath and pins it to device.
// configPath is only needed by frameworks that split weights and graph.
func NewDetectorService(modelPath, configPath string, device accel.Device, logger *logger.Logger, opts ...Option) (*DetectorService, error) {
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	backend, target := preferences(device)
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable target: %w", err)
	}

	service := &DetectorService{
		net:       net,
		modelPath: modelPath,
		device:    device,
		saveDir:   defaultSaveDir,
		open:      openSource,
		output:    newOutput,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(service)
	}

	service.logger.Info("Detection network initialized on %s", device)
	return service, nil
}

func preferences(device accel.Device) (gocv.NetBackendType, gocv.NetTargetType) {
	if device == accel.CUDA {
		return gocv.NetBackendCUDA, gocv.NetTargetCUDA
	}
	return gocv.NetBackendDefault, gocv.NetTargetCPU
}

func defaultSaveDir() (string, error) {
	return filepath.Join("runs", "detect", "predict"), nil
}

// RuntimeVersion describes the linked OpenCV build.
func RuntimeVersion() string {
	return fmt.Sprintf("gocv %s, opencv %s", gocv.Version(), gocv.OpenCVVersion())
}

// Predict runs detection over every frame of params.Source. Annotated frames are saved,
// shown and previewed as requested. Showing stops early on q or Esc.
func (s *DetectorService) Predict(ctx context.Context, params models.PredictParams) (result *models.Results, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	src, err := s.open(params.Source)
	if err != nil {
		return nil, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(src))

	result = &models.Results{
		RunID:  uuid.NewString(),
		Source: params.Source,
		Device: params.Device,
	}

	var out frameOutput
	if params.Save {
		var dir string
		dir, err = s.saveDir()
		if err != nil {
			return nil, err
		}
		result.SaveDir = dir
		out = s.output(dir, params.Source, src)
		defer multierr.AppendInvoke(&err, multierr.Close(out))
	}

	var window *gocv.Window
	if params.Show {
		window = gocv.NewWindow("yolotester: " + filepath.Base(params.Source))
		defer multierr.AppendInvoke(&err, multierr.Close(window))
	}

	frame := gocv.NewMat()
	defer frame.Close()

	total := src.FrameCount()
	conf := float32(params.Confidence)

	for index := 0; src.Read(&frame); index++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if frame.Empty() {
			continue
		}

		frameStart := time.Now()
		detections, err := s.detect(frame, conf)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", index, err)
		}
		frameResult := models.FrameResult{Index: index, Detections: detections}
		result.Frames = append(result.Frames, frameResult)
		s.logger.Info("%s %d/%d: %s, %v", filepath.Base(params.Source), index+1, total, frameResult.Summary(), time.Since(frameStart).Round(time.Millisecond))

		if out == nil && window == nil && s.preview == nil {
			continue
		}

		if err := DrawDetections(&frame, detections); err != nil {
			return nil, err
		}
		if out != nil {
			if err := out.Write(frame); err != nil {
				return nil, err
			}
		}
		if s.preview != nil {
			s.publish(index, frame)
		}
		if window != nil {
			window.IMShow(frame)
			if key := window.WaitKey(1); key == 'q' || key == 27 {
				s.logger.Info("Display closed at frame %d", index)
				break
			}
		}
	}

	if len(result.Frames) == 0 {
		return nil, fmt.Errorf("no frames could be read from %s", params.Source)
	}

	result.Elapsed = time.Since(start)
	if result.SaveDir != "" {
		s.logger.Info("Results saved to %s", result.SaveDir)
	}
	return result, nil
}

// detect runs the network on one frame and returns the detections left after suppression.
func (s *DetectorService) detect(frame gocv.Mat, conf float32) ([]models.Detection, error) {
	blob := gocv.BlobFromImage(frame, 1.0/255.0, image.Pt(yolo.InputWidth, yolo.InputHeight), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	s.net.SetInput(blob, "")
	output := s.net.Forward("")
	defer output.Close()

	sizes := output.Size()
	if len(sizes) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", sizes)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	scaleX := float32(frame.Cols()) / yolo.InputWidth
	scaleY := float32(frame.Rows()) / yolo.InputHeight
	bounds := image.Rect(0, 0, frame.Cols(), frame.Rows())

	candidates, err := yolo.Decode(data, sizes[1], sizes[2], conf, scaleX, scaleY, bounds)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}

	indices := gocv.NMSBoxes(boxes, scores, conf, yolo.IoUThreshold)

	detections := make([]models.Detection, 0, len(indices))
	for _, i := range indices {
		c := candidates[i]
		detections = append(detections, models.Detection{
			ClassID:    c.ClassID,
			Label:      yolo.Label(c.ClassID),
			Confidence: float64(c.Score),
			X:          c.Box.Min.X,
			Y:          c.Box.Min.Y,
			Width:      c.Box.Dx(),
			Height:     c.Box.Dy(),
		})
	}
	return detections, nil
}

func (s *DetectorService) publish(index int, frame gocv.Mat) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		s.logger.Error("Failed to encode preview frame: %v", err)
		return
	}
	defer buf.Close()

	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	s.preview.Publish(index, jpeg)
}

// Close releases the network.
func (s *DetectorService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net.Close()
}
