package config

import (
	"strings"

	"go.uber.org/zap"
)

// NewLogger builds a zap logger for the given mode. "prod" and
// "production" log JSON at info level; anything else logs human-readable
// output at debug level.
func NewLogger(mode string) (*zap.Logger, error) {
	return loggerConfig(mode).Build()
}

// NewFileLogger is NewLogger writing to path instead of stderr, for the
// terminal UI which owns the screen.
func NewFileLogger(mode, path string) (*zap.Logger, error) {
	cfg := loggerConfig(mode)
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}

func loggerConfig(mode string) zap.Config {
	switch strings.ToLower(mode) {
	case "prod", "production":
		return zap.NewProductionConfig()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return cfg
}
