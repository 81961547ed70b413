package app

import (
	"context"
	"errors"
	"net/http"
	"time"
	"yolotester/internal/accel"
	"yolotester/internal/config"
	"yolotester/internal/logger"
	"yolotester/internal/models"
	"yolotester/internal/repository/sqlite"
	"yolotester/internal/routes"
	"yolotester/internal/runner"
	"yolotester/internal/service/ai"
	"yolotester/internal/service/storage"
	"yolotester/internal/service/websocket"
	"yolotester/internal/source"

	"go.uber.org/multierr"
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	runRepo    *sqlite.RunRepository
	detRepo    *sqlite.DetectionRepository
	runService *storage.RunService
	hubService *websocket.HubService
	runner     *runner.Runner
	server     *http.Server
	stopHub    context.CancelFunc
}

// NewApp sets up logging, storage and the preview hub, then builds the runner: the
// device is checked before the model is loaded.
func NewApp(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{config: cfg, logger: log}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	device, err := accel.ParseDevice(a.config.Device)
	if err != nil {
		return err
	}

	db, err := sqlite.New(a.config.DatabasePath)
	if err != nil {
		return err
	}
	a.db = db
	a.runRepo = sqlite.NewRunRepository(db)
	a.detRepo = sqlite.NewDetectionRepository(db)
	a.runService = storage.NewRunService(a.config.RunsDirectory, a.logger, a.runRepo, a.detRepo)

	opts := []ai.Option{ai.WithSaveDirs(a.runService.NextSaveDir)}
	if a.config.PreviewAddr != "" {
		a.hubService = websocket.NewHubService(a.logger)
		opts = append(opts, ai.WithPreview(a.hubService))
	}

	load := func(path string, device accel.Device) (runner.Model, error) {
		return ai.NewDetectorService(path, a.config.ModelConfig, device, a.logger, opts...)
	}

	r, err := runner.New(
		runner.Config{ModelPath: a.config.ModelPath, Device: device, Runtime: ai.RuntimeVersion()},
		accel.SystemProbe{},
		load,
		source.NewResolver(a.config.DownloadTimeout, a.logger),
		a.logger,
		runner.WithRecorder(a.runService),
	)
	if err != nil {
		return err
	}
	a.runner = r

	if a.hubService != nil {
		a.startPreview()
	}
	return nil
}

func (a *App) startPreview() {
	ctx, cancel := context.WithCancel(context.Background())
	a.stopHub = cancel
	go a.hubService.Run(ctx)

	a.server = &http.Server{
		Addr:         a.config.PreviewAddr,
		Handler:      routes.SetupRoutes(a.hubService, a.runRepo, a.detRepo, a.logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Preview server stopped: %v", err)
		}
	}()
	a.logger.Info("Live preview on ws://%s/ws", a.config.PreviewAddr)
}

// Logger returns the application logger.
func (a *App) Logger() *logger.Logger {
	return a.logger
}

// Run executes one detection run.
func (a *App) Run(ctx context.Context, params runner.Params) (*models.Results, error) {
	return a.runner.Run(ctx, params)
}

// Close releases the model, the preview server, the database and finally the log file.
func (a *App) Close() error {
	var err error
	if a.runner != nil {
		err = multierr.Append(err, a.runner.Close())
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = multierr.Append(err, a.server.Shutdown(ctx))
		cancel()
	}
	if a.stopHub != nil {
		a.stopHub()
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	return multierr.Append(err, a.logger.Close())
}
