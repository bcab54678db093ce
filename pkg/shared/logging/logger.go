package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
)

// NewLogger builds a logr.Logger backed by zap, JSON-encoded for production
// and console-encoded for development, matching the two modes every
// component's caller selects via internal/config.
func NewLogger(development bool) (logr.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	z, err := cfg.Build()
	if err != nil {
		return logr.Discard(), err
	}
	return zapr.NewLogger(z), nil
}

// WithFields attaches Fields to logger as key/value pairs.
func WithFields(logger logr.Logger, fields Fields) logr.Logger {
	return logger.WithValues(fields.KeysAndValues()...)
}
