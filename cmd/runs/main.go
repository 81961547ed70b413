package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"yolotester/internal/models"
	"yolotester/internal/repository/sqlite"

	"github.com/dustin/go-humanize"
)

func main() {
	dbPath := flag.String("db", filepath.Join("data", "runs.db"), "Database path")
	limit := flag.Int("limit", 10, "Number of runs to show")
	source := flag.String("source", "", "Only show runs of this source")
	flag.Parse()

	if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
		log.Fatalf("No run database at %s", *dbPath)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	runRepo := sqlite.NewRunRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	filter := &models.RunFilter{Source: *source, Limit: *limit}
	total, err := runRepo.GetTotalCount(filter)
	if err != nil {
		log.Fatalf("Failed to count runs: %v", err)
	}

	runs, err := runRepo.GetAll(filter)
	if err != nil {
		log.Fatalf("Failed to load runs: %v", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return
	}

	fmt.Printf("Showing %d of %d runs\n\n", len(runs), total)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSOURCE\tDEVICE\tCONF\tFRAMES\tDETECTIONS\tDURATION\tOBJECTS\tSAVED TO")
	for _, run := range runs {
		counts, err := detectionRepo.CountByLabel(run.ID)
		if err != nil {
			log.Printf("Failed to count labels of %s: %v", run.ID, err)
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%d\t%v\t%s\t%s\n",
			humanize.Time(run.StartedAt),
			run.Source,
			run.Device,
			run.Confidence,
			run.Frames,
			run.Detections,
			run.Duration.Round(time.Millisecond),
			formatCounts(counts),
			run.SaveDir,
		)
	}
	w.Flush()
}

func formatCounts(counts []models.LabelCount) string {
	if len(counts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(counts))
	for _, c := range counts {
		parts = append(parts, fmt.Sprintf("%s=%d", c.Label, c.Count))
	}
	return strings.Join(parts, ",")
}
