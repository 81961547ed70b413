package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"yolotester/internal/logger"
	"yolotester/internal/models"
	"yolotester/internal/repository"

	"github.com/gorilla/mux"
)

// RunsData is a paginated response payload for recorded runs.
type RunsData struct {
	Runs        []models.Run `json:"runs"`
	Length      int          `json:"length"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Limit       int          `json:"pageSize"`
}

// RunDetail is a recorded run with its detections.
type RunDetail struct {
	models.Run
	Labels     []models.LabelCount `json:"labels"`
	Detections []models.Detection  `json:"detections"`
}

// ListRunsHandler lists recorded runs newest first, filtered by source and device.
func ListRunsHandler(runs repository.RunRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 20)

		filter := &models.RunFilter{
			Source: q.Get("source"),
			Device: q.Get("device"),
			Limit:  limit,
			Offset: (page - 1) * limit,
		}

		total, err := runs.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting runs: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		list, err := runs.GetAll(filter)
		if err != nil {
			logger.Error("Error loading runs: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if list == nil {
			list = []models.Run{}
		}

		writeJSON(w, RunsData{
			Runs:        list,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

// RunDetailHandler returns one run with its per-label counts and detections.
func RunDetailHandler(runs repository.RunRepository, detections repository.DetectionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		run, err := runs.GetByID(id)
		if err != nil {
			logger.Error("Error loading run %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if run == nil {
			http.NotFound(w, r)
			return
		}

		labels, err := detections.CountByLabel(id)
		if err != nil {
			logger.Error("Error counting labels of run %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		dets, err := detections.GetByRunID(id)
		if err != nil {
			logger.Error("Error loading detections of run %s: %v", id, err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, RunDetail{Run: *run, Labels: labels, Detections: dets})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// atoiDefault parses a positive integer, returning def otherwise.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
