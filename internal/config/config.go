package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ModelPath       string
	ModelConfig     string // Optional network description (.pbtxt, .cfg); empty for ONNX
	Device          string
	Source          string
	Confidence      float64
	Show            bool
	Save            bool
	LogDirectory    string
	LogFile         string
	LogMaxSizeMB    int // Log file is rotated once it grows past this size
	RunsDirectory   string
	DatabasePath    string
	DownloadTimeout time.Duration // 0 means no timeout
	PreviewAddr     string        // Empty disables the live preview server
}

// Load reads the optional .env file and builds the configuration from the environment.
func Load() *Config {
	// A missing .env is fine, the environment and defaults still apply.
	_ = godotenv.Load()

	return &Config{
		ModelPath:       getEnv("MODEL_PATH", "yolov8s.onnx"),
		ModelConfig:     getEnv("MODEL_CONFIG", ""),
		Device:          getEnv("DEVICE", "cuda"),
		Source:          getEnv("SOURCE", "people-detection.mp4"),
		Confidence:      getEnvAsFloat("CONFIDENCE", 0.1),
		Show:            getEnvAsBool("SHOW", false),
		Save:            getEnvAsBool("SAVE", true),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogFile:         getEnv("LOG_FILE", "yolotester.log"),
		LogMaxSizeMB:    getEnvAsInt("LOG_MAX_SIZE_MB", 30),
		RunsDirectory:   getEnv("RUNS_DIR", filepath.Join(".", "runs", "detect")),
		DatabasePath:    getEnv("DB_PATH", filepath.Join(".", "data", "runs.db")),
		DownloadTimeout: getEnvAsDuration("DOWNLOAD_TIMEOUT", 0),
		PreviewAddr:     getEnv("PREVIEW_ADDR", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
