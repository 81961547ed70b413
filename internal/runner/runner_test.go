package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"yolotester/internal/accel"
	"yolotester/internal/config"
	"yolotester/internal/logger"
	"yolotester/internal/models"
	"yolotester/internal/source"
)

type fakeProbe struct {
	available bool
	asked     []accel.Device
}

func (p *fakeProbe) Available(device accel.Device) bool {
	p.asked = append(p.asked, device)
	return p.available
}

type fakeModel struct {
	result *models.Results
	err    error
	calls  []models.PredictParams
	closed bool
}

func (m *fakeModel) Predict(ctx context.Context, params models.PredictParams) (*models.Results, error) {
	m.calls = append(m.calls, params)
	return m.result, m.err
}

func (m *fakeModel) Close() error {
	m.closed = true
	return nil
}

type fakeResolver struct {
	err   error
	paths []string
}

func (r *fakeResolver) Ensure(ctx context.Context, path string) error {
	r.paths = append(r.paths, path)
	return r.err
}

type fakeRecorder struct {
	err  error
	runs []*models.Run
}

func (r *fakeRecorder) Record(result *models.Results, run *models.Run) error {
	r.runs = append(r.runs, run)
	return r.err
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.NewLogger(&config.Config{LogDirectory: t.TempDir(), LogFile: "test.log", LogMaxSizeMB: 1})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func loaderFor(model *fakeModel, loaded *[]string) Loader {
	return func(path string, device accel.Device) (Model, error) {
		*loaded = append(*loaded, path)
		return model, nil
	}
}

func TestNew_UnavailableBackendNeverLoads(t *testing.T) {
	probe := &fakeProbe{available: false}
	var loaded []string

	r, err := New(Config{ModelPath: "model.onnx", Device: accel.CUDA}, probe, loaderFor(&fakeModel{}, &loaded), &fakeResolver{}, newTestLogger(t))

	if r != nil {
		t.Error("Expected no runner")
	}
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("Expected EnvironmentError, got %v", err)
	}
	if envErr.Device != accel.CUDA {
		t.Errorf("Expected cuda in error, got %s", envErr.Device)
	}
	if len(loaded) != 0 {
		t.Errorf("Loader must not be called, got %v", loaded)
	}
	if Classify(err) != EnvironmentUnavailable {
		t.Errorf("Expected EnvironmentUnavailable, got %s", Classify(err))
	}
}

func TestNew_LoaderErrorReturnedAsIs(t *testing.T) {
	loadErr := errors.New("failed to load network from missing.onnx")
	load := func(path string, device accel.Device) (Model, error) {
		return nil, loadErr
	}

	r, err := New(Config{ModelPath: "missing.onnx", Device: accel.CPU}, &fakeProbe{available: true}, load, &fakeResolver{}, newTestLogger(t))

	if r != nil {
		t.Error("Expected no runner")
	}
	if err != loadErr {
		t.Errorf("Expected the loader error unchanged, got %v", err)
	}
	if Classify(err) != Failed {
		t.Errorf("Expected Failed, got %s", Classify(err))
	}
}

func TestRun_ExistingSourcePinsDevice(t *testing.T) {
	want := &models.Results{Source: "clip.mp4", Frames: []models.FrameResult{{Index: 0}}}
	model := &fakeModel{result: want}
	resolver := &fakeResolver{}
	probe := &fakeProbe{available: true}
	var loaded []string

	r, err := New(Config{ModelPath: "model.onnx", Device: accel.CUDA}, probe, loaderFor(model, &loaded), resolver, newTestLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(probe.asked) != 1 || probe.asked[0] != accel.CUDA {
		t.Errorf("Expected one cuda probe, got %v", probe.asked)
	}
	if len(loaded) != 1 || loaded[0] != "model.onnx" {
		t.Errorf("Expected model.onnx loaded once, got %v", loaded)
	}

	got, err := r.Run(context.Background(), Params{Source: "clip.mp4", Confidence: 0.1, Save: false})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != want {
		t.Error("Result must be returned unmodified")
	}
	if len(resolver.paths) != 1 || resolver.paths[0] != "clip.mp4" {
		t.Errorf("Expected resolver called with clip.mp4, got %v", resolver.paths)
	}
	if len(model.calls) != 1 {
		t.Fatalf("Expected one predict call, got %d", len(model.calls))
	}
	call := model.calls[0]
	if call.Device != "cuda" || call.Source != "clip.mp4" || call.Save || call.Show {
		t.Errorf("Unexpected predict params: %+v", call)
	}
}

func TestRun_ConfidenceNotClamped(t *testing.T) {
	for _, conf := range []float64{1.5, -0.2, 0} {
		model := &fakeModel{result: &models.Results{}}
		var loaded []string
		r, err := New(Config{ModelPath: "m", Device: accel.CPU}, &fakeProbe{available: true}, loaderFor(model, &loaded), &fakeResolver{}, newTestLogger(t))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}

		if _, err := r.Run(context.Background(), Params{Source: "a.mp4", Confidence: conf}); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if got := model.calls[0].Confidence; got != conf {
			t.Errorf("Confidence %v passed as %v", conf, got)
		}
	}
}

func TestRun_DownloadFailureSkipsPredict(t *testing.T) {
	model := &fakeModel{result: &models.Results{}}
	resolver := &fakeResolver{err: &source.DownloadError{URL: source.FallbackURL, Status: 404}}
	var loaded []string
	r, err := New(Config{ModelPath: "m", Device: accel.CPU}, &fakeProbe{available: true}, loaderFor(model, &loaded), resolver, newTestLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = r.Run(context.Background(), Params{Source: "missing.mp4"})

	var dlErr *source.DownloadError
	if !errors.As(err, &dlErr) || dlErr.Status != 404 {
		t.Fatalf("Expected DownloadError 404, got %v", err)
	}
	if len(model.calls) != 0 {
		t.Errorf("Predict must not run after a failed download, got %d calls", len(model.calls))
	}
	if Classify(err) != DownloadFailed {
		t.Errorf("Expected DownloadFailed, got %s", Classify(err))
	}
}

func TestRun_PredictErrorWrapped(t *testing.T) {
	cause := fmt.Errorf("failed to open video capture")
	model := &fakeModel{err: cause}
	var loaded []string
	r, err := New(Config{ModelPath: "m", Device: accel.CPU}, &fakeProbe{available: true}, loaderFor(model, &loaded), &fakeResolver{}, newTestLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, err = r.Run(context.Background(), DefaultParams())

	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("Expected InferenceError, got %v", err)
	}
	if infErr.Message != cause.Error() {
		t.Errorf("Expected original message %q, got %q", cause.Error(), infErr.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("InferenceError should unwrap to the cause")
	}
	if Classify(err) != InferenceFailed {
		t.Errorf("Expected InferenceFailed, got %s", Classify(err))
	}
}

func TestRun_RecordsOnlySavedRuns(t *testing.T) {
	model := &fakeModel{result: &models.Results{}}
	recorder := &fakeRecorder{err: errors.New("disk full")}
	var loaded []string
	r, err := New(Config{ModelPath: "model.onnx", Device: accel.CPU}, &fakeProbe{available: true}, loaderFor(model, &loaded), &fakeResolver{}, newTestLogger(t), WithRecorder(recorder))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := r.Run(context.Background(), Params{Source: "a.mp4", Save: false}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(recorder.runs) != 0 {
		t.Errorf("Unsaved run should not be recorded")
	}

	if _, err := r.Run(context.Background(), Params{Source: "a.mp4", Save: true, Confidence: 0.3}); err != nil {
		t.Fatalf("A recorder failure must not fail the run: %v", err)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].ModelPath != "model.onnx" || recorder.runs[0].Confidence != 0.3 {
		t.Errorf("Unexpected recorded runs: %+v", recorder.runs)
	}
}

func TestClose_ReleasesModel(t *testing.T) {
	model := &fakeModel{}
	var loaded []string
	r, err := New(Config{ModelPath: "m", Device: accel.CPU}, &fakeProbe{available: true}, loaderFor(model, &loaded), &fakeResolver{}, newTestLogger(t))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r.Close()
	if !model.closed {
		t.Error("Close should release the model")
	}
}

func TestClassify_Success(t *testing.T) {
	if Classify(nil) != Success {
		t.Error("nil error should classify as success")
	}
	if Success.String() != "success" || InferenceFailed.String() != "inference_failed" {
		t.Error("Unexpected outcome names")
	}
}
