package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"yolotester/internal/config"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides leveled logging (info/warning/error) to a rotating file and stdout/stderr.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	sink       *lumberjack.Logger
	mu         sync.Mutex
}

// NewLogger creates a Logger whose file sink rotates once it exceeds the configured size.
func NewLogger(config *config.Config) (*Logger, error) {
	return newLogger(config, os.Stdout, os.Stderr)
}

func newLogger(config *config.Config, stdout, stderr io.Writer) (*Logger, error) {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	maxSize := config.LogMaxSizeMB
	if maxSize <= 0 {
		maxSize = 30
	}

	l := &Logger{
		sink: &lumberjack.Logger{
			Filename:   filepath.Join(config.LogDirectory, config.LogFile),
			MaxSize:    maxSize,
			MaxBackups: 5,
		},
	}

	l.setupLoggers(stdout, stderr)
	l.Info("Logging configured: %s (rotates at %d MB)", l.sink.Filename, maxSize)
	return l, nil
}

// setupLoggers initializes per-level loggers that share the rotating file.
func (l *Logger) setupLoggers(stdout, stderr io.Writer) {
	infoWriter := io.MultiWriter(stdout, l.sink)
	warningWriter := io.MultiWriter(stdout, l.sink)
	errorWriter := io.MultiWriter(stderr, l.sink)

	l.infoLog = log.New(infoWriter, "INFO    ", log.Ldate|log.Ltime|log.Lshortfile)
	l.warningLog = log.New(warningWriter, "WARNING ", log.Ldate|log.Ltime|log.Lshortfile)
	l.errorLog = log.New(errorWriter, "ERROR   ", log.Ldate|log.Ltime|log.Lshortfile)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Output(2, fmt.Sprintf(format, v...))
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Output(2, fmt.Sprintf(format, v...))
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Output(2, fmt.Sprintf(format, v...))
}

// Path returns the current log file path.
func (l *Logger) Path() string {
	return l.sink.Filename
}

// Close closes the log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sink.Close()
}
