// Package logging wires zap into logr.Logger the same way
// sigs.k8s.io/controller-runtime's manager does, and threads the resulting
// logger through context.Context so every component logs via an injected
// logger rather than a package-level global.
package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process-wide logger. development toggles a human-readable
// console encoder instead of JSON, mirroring zap's NewDevelopment/
// NewProduction split.
func New(development bool) (logr.Logger, error) {
	var zl *zap.Logger
	var err error
	if development {
		zl, err = zap.NewDevelopment()
	} else {
		zl, err = zap.NewProduction()
	}
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

// NewAtLevel builds a production-config logger at an explicit level, for a
// caller that wants a verbosity other than New's default without touching
// the global production config.
func NewAtLevel(level zapcore.Level) (logr.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(zl), nil
}

type ctxKey struct{}

// IntoContext attaches a logger to ctx, retrievable with FromContext.
func IntoContext(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

// FromContext returns the logger attached to ctx, or a discarding logger if
// none was attached — callers never need a nil check.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
