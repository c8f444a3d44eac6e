package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for log files.
const (
	logFileMaxSizeMB  = 10
	logFileMaxBackups = 3
)

// NewFileLogger returns a logger that outputs logs at lvl and above to stderr and, as JSON, to a
// size rotated file at path.
func NewFileLogger(name string, lvl Level, path string) Logger {
	level := NewAtomicLevelAt(lvl)
	cfg := NewLoggerConfig()
	cfg.Level = level.zap
	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewNop()
	}

	encoderConfig := cfg.EncoderConfig
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			Compress:   true,
		}),
		level.zap,
	)
	return &impl{name: name, level: level, core: zapcore.NewTee(zl.Core(), fileCore)}
}
