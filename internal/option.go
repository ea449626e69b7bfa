package internal

import (
	"io"
	"log/slog"
)

// Mode selects what Run does.
type Mode string

// Run modes.
const (
	ModeAnalyze Mode = "analyze"
	ModeWatch   Mode = "watch"
	ModeServe   Mode = "serve"
	ModeMCP     Mode = "mcp"
	ModeRuns    Mode = "runs"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	mode   Mode
	logger *slog.Logger
	stdout io.Writer
	limit  int
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeAnalyze.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithLogger replaces the JSON stderr logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithStdout sets where human-readable results are printed.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

// WithLimit caps the number of runs listed in ModeRuns.
func WithLimit(n int) Option {
	return func(a *application) {
		a.limit = n
	}
}
