// Package runner sequences the environment check, model loading, source
// resolution and inference of a single detection run.
package runner

import (
	"context"
	"yolotester/internal/accel"
	"yolotester/internal/logger"
	"yolotester/internal/models"
)

// Model is a loaded detection model.
type Model interface {
	Predict(ctx context.Context, params models.PredictParams) (*models.Results, error)
	Close() error
}

// Loader builds a Model from a checkpoint for the given device.
type Loader func(path string, device accel.Device) (Model, error)

// SourceResolver makes sure a source path exists locally.
type SourceResolver interface {
	Ensure(ctx context.Context, path string) error
}

// Recorder persists saved runs.
type Recorder interface {
	Record(result *models.Results, run *models.Run) error
}

// Config is fixed for the lifetime of a Runner.
type Config struct {
	ModelPath string
	Device    accel.Device
	Runtime   string // detection runtime version, reported with the environment
}

// Params are the options of a single Run call.
type Params struct {
	Source     string
	Show       bool
	Confidence float64
	Save       bool
}

// DefaultParams mirrors the defaults of the command line.
func DefaultParams() Params {
	return Params{
		Source:     "people-detection.mp4",
		Confidence: 0.1,
		Save:       true,
	}
}

// Runner owns a loaded model pinned to a validated device.
type Runner struct {
	config   Config
	model    Model
	resolver SourceResolver
	recorder Recorder
	logger   *logger.Logger
}

// Option configures optional Runner collaborators.
type Option func(*Runner)

// WithRecorder records every saved run.
func WithRecorder(recorder Recorder) Option {
	return func(r *Runner) {
		r.recorder = recorder
	}
}

// New checks the device with probe and only then loads the model. Loader errors
// are returned as is.
func New(cfg Config, probe accel.Probe, load Loader, resolver SourceResolver, logger *logger.Logger, opts ...Option) (*Runner, error) {
	report := accel.Collect()
	report.Runtime = cfg.Runtime
	logger.Info("Environment: %s", report)

	if !probe.Available(cfg.Device) {
		err := &EnvironmentError{Device: cfg.Device}
		logger.Error("%v", err)
		return nil, err
	}
	logger.Info("Environment check passed: %s backend available", cfg.Device)

	model, err := load(cfg.ModelPath, cfg.Device)
	if err != nil {
		return nil, err
	}
	logger.Info("Model loaded: %s", cfg.ModelPath)

	r := &Runner{
		config:   cfg,
		model:    model,
		resolver: resolver,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Device returns the device inference is pinned to.
func (r *Runner) Device() accel.Device {
	return r.config.Device
}

// Run resolves the source and runs detection on it. The model's result is returned
// unmodified. Confidence is passed through without validation.
func (r *Runner) Run(ctx context.Context, params Params) (*models.Results, error) {
	if err := r.resolver.Ensure(ctx, params.Source); err != nil {
		return nil, err
	}

	r.logger.Info("Processing source: %s", params.Source)
	result, err := r.model.Predict(ctx, models.PredictParams{
		Source:     params.Source,
		Show:       params.Show,
		Confidence: params.Confidence,
		Save:       params.Save,
		Device:     string(r.config.Device),
	})
	if err != nil {
		r.logger.Error("Error during model run: %v", err)
		return nil, &InferenceError{Message: err.Error(), Err: err}
	}
	r.logger.Info("Processing finished, results saved: %t", params.Save)

	if params.Save && r.recorder != nil {
		run := &models.Run{
			ModelPath:  r.config.ModelPath,
			Confidence: params.Confidence,
		}
		if err := r.recorder.Record(result, run); err != nil {
			r.logger.Warning("Failed to record run: %v", err)
		}
	}

	return result, nil
}

// Close releases the model.
func (r *Runner) Close() error {
	return r.model.Close()
}
