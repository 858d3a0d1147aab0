package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Package-level logger so call sites stay flat: logger.Info("msg", fields).
// Defaults to a nop logger until Init runs, which keeps tests quiet.
var log = zap.NewNop()

func Init() {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		return
	}
	log = built
	log.Info("logger initialized")
}

// Sync flushes buffered entries. Call on shutdown.
func Sync() {
	_ = log.Sync()
}

func Info(msg string, fields map[string]any) {
	log.Info(msg, zapFields(fields)...)
}

func Warn(msg string, fields map[string]any) {
	log.Warn(msg, zapFields(fields)...)
}

func Error(msg string, fields map[string]any) {
	log.Error(msg, zapFields(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	log.Fatal(msg, zapFields(fields)...)
}

func zapFields(fields map[string]any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}
