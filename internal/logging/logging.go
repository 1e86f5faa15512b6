// Package logging builds the *zap.SugaredLogger the solver, the
// structured dispatcher, and the CLI share: a production logger for
// cmd/patternforge, and a no-op default for library callers that never
// configure one.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewCLILogger builds a production zap logger for cmd/patternforge,
// raising the level to debug when verbose is set.
func NewCLILogger(verbose bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Nop returns a no-op logger: the default for library callers (solve,
// structured) that don't configure one of their own.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Debugf logs at debug level. logger may be nil, meaning "don't log" —
// callers never need their own nil check before every call site.
func Debugf(logger *zap.SugaredLogger, template string, args ...any) {
	if logger == nil {
		return
	}
	logger.Debugf(template, args...)
}

// Infof is Debugf's info-level counterpart.
func Infof(logger *zap.SugaredLogger, template string, args ...any) {
	if logger == nil {
		return
	}
	logger.Infof(template, args...)
}

// Warnf is Debugf's warn-level counterpart.
func Warnf(logger *zap.SugaredLogger, template string, args ...any) {
	if logger == nil {
		return
	}
	logger.Warnf(template, args...)
}
