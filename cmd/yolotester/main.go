package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"yolotester/internal/app"
	"yolotester/internal/config"
	"yolotester/internal/runner"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.Load()

	fs := newFlagSet(cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}
	params := fs.params()

	application, err := app.NewApp(cfg)
	if err != nil {
		fmt.Println(err)
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := application.Run(ctx, params)
	if err != nil {
		application.Logger().Error("Run ended with %s", runner.Classify(err))
		fmt.Println(err)
		return 1
	}

	fmt.Println("Model test succeeded!")
	fmt.Printf("Frames: %d, detections: %d, time: %v\n", len(results.Frames), results.DetectionCount(), results.Elapsed)
	if results.SaveDir != "" {
		fmt.Printf("Results saved to %s\n", results.SaveDir)
	}
	return 0
}

// flagSet overrides the environment config from the command line.
type flagSet struct {
	*flag.FlagSet
	source *string
	show   *bool
	conf   *float64
	save   *bool
}

func newFlagSet(cfg *config.Config) *flagSet {
	fs := &flagSet{FlagSet: flag.NewFlagSet("yolotester", flag.ContinueOnError)}
	fs.StringVar(&cfg.ModelPath, "model", cfg.ModelPath, "Path to the model checkpoint")
	fs.StringVar(&cfg.Device, "device", cfg.Device, "Compute device: cuda (needs a binary built with -tags cuda) or cpu")
	fs.source = fs.String("source", cfg.Source, "Image or video to run detection on")
	fs.show = fs.Bool("show", cfg.Show, "Display annotated frames in a window")
	fs.conf = fs.Float64("conf", cfg.Confidence, "Confidence threshold")
	fs.save = fs.Bool("save", cfg.Save, "Save annotated output and record the run")
	return fs
}

func (fs *flagSet) params() runner.Params {
	return runner.Params{
		Source:     *fs.source,
		Show:       *fs.show,
		Confidence: *fs.conf,
		Save:       *fs.save,
	}
}
