package routes

import (
	"net/http"
	"yolotester/internal/handlers"
	"yolotester/internal/logger"
	"yolotester/internal/repository"
	"yolotester/internal/service/websocket"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the live preview and recorded run endpoints.
func SetupRoutes(hub *websocket.HubService, runs repository.RunRepository, detections repository.DetectionRepository, logger *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/ws", handlers.PreviewWebsocketHandler(hub, logger)).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handlers.HealthHandler(hub)).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", handlers.ListRunsHandler(runs, logger)).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", handlers.RunDetailHandler(runs, detections, logger)).Methods(http.MethodGet)

	return r
}
