package runner

import (
	"errors"
	"fmt"
	"yolotester/internal/accel"
	"yolotester/internal/source"
)

// EnvironmentError is returned by New when the requested device is not available.
type EnvironmentError struct {
	Device accel.Device
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("%s backend is not available", e.Device)
}

// InferenceError wraps a failure of the detection model, keeping its message.
type InferenceError struct {
	Message string
	Err     error
}

func (e *InferenceError) Error() string {
	return "inference failed: " + e.Message
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Outcome classifies how a construction or invocation ended.
type Outcome int

const (
	Success Outcome = iota
	EnvironmentUnavailable
	DownloadFailed
	InferenceFailed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case EnvironmentUnavailable:
		return "environment_unavailable"
	case DownloadFailed:
		return "download_failed"
	case InferenceFailed:
		return "inference_failed"
	default:
		return "failed"
	}
}

// Classify maps an error returned by New or Run to its Outcome.
func Classify(err error) Outcome {
	var envErr *EnvironmentError
	var dlErr *source.DownloadError
	var infErr *InferenceError

	switch {
	case err == nil:
		return Success
	case errors.As(err, &envErr):
		return EnvironmentUnavailable
	case errors.As(err, &dlErr):
		return DownloadFailed
	case errors.As(err, &infErr):
		return InferenceFailed
	default:
		return Failed
	}
}
