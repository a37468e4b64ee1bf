// Package logging builds the service logger and sanitizes values before they
// are logged.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap logger for the given environment. Local and dev
// environments get the human-readable development encoder; everything else
// logs JSON. An empty level keeps the config's default.
func NewLogger(env, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if IsDevelopment(env) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// IsDevelopment reports whether env names a local or development environment.
func IsDevelopment(env string) bool {
	switch strings.ToLower(env) {
	case "local", "dev", "development":
		return true
	}
	return false
}
