package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName tags every log entry written by NewLogger.
const ServiceName = "linklore"

// loggerConfig keeps stdout free for command output: both modes log to stderr.
// Debug mode is human-readable at debug level; otherwise JSON at info level
// with ISO8601 timestamps.
func loggerConfig(debug bool) zap.Config {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg
}

// NewLogger returns a zap logger for the given mode with the service field set.
func NewLogger(debug bool, opts ...zap.Option) (*zap.Logger, error) {
	logger, err := loggerConfig(debug).Build(opts...)
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", ServiceName)), nil
}
