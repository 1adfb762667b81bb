// Package logging provides component-scoped logging for the imgindex tools.
// It wraps charmbracelet/log with a shared level and per-component loggers.
//
// Basic usage:
//
//	if err := logging.Init(logging.Config{Level: "info"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := logging.Get("scanner")
//	logger.Info("scan started", "root", "/srv/cdn")
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a level string into a charmbracelet/log level.
func ParseLevel(s string) (log.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	default:
		return log.InfoLevel, fmt.Errorf("%w: %s", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default log level (debug, info, warn, error).
	Level string

	// Output is the destination writer. Defaults to stderr.
	Output io.Writer
}

// state holds the global logging state.
type state struct {
	mu      sync.RWMutex
	level   log.Level
	output  io.Writer
	loggers map[string]*log.Logger
}

var globalState = &state{
	level:   log.InfoLevel,
	output:  os.Stderr,
	loggers: make(map[string]*log.Logger),
}

// Init initializes the logging system with the given configuration.
// Loggers created before Init pick up the new level and output.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	globalState.level = level
	if cfg.Output != nil {
		globalState.output = cfg.Output
	}
	for _, logger := range globalState.loggers {
		logger.SetLevel(level)
		logger.SetOutput(globalState.output)
	}
	return nil
}

// Get returns the logger for the named component, creating it on first use.
func Get(component string) *log.Logger {
	globalState.mu.Lock()
	defer globalState.mu.Unlock()

	if logger, ok := globalState.loggers[component]; ok {
		return logger
	}

	logger := log.NewWithOptions(globalState.output, log.Options{
		Prefix:          component,
		ReportTimestamp: true,
	})
	logger.SetLevel(globalState.level)
	globalState.loggers[component] = logger
	return logger
}
