// pkg/logger/logger.go

package logger

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// L returns the process logger, which may be nil before initialization.
func L() *zap.Logger {
	return log
}

// SetLogger replaces the process logger. Tests use this to capture output.
func SetLogger(l *zap.Logger) {
	log = l
}

// DefaultConsoleEncoderConfig returns the console encoder used for terminal
// output: ISO-8601 timestamps, capitalized levels.
func DefaultConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// ParseLogLevel maps the LOG_LEVEL environment value to a zap level,
// defaulting to info.
func ParseLogLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zap.DebugLevel
	case "warn", "warning":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// NewFallbackLogger builds a console-only logger writing to stderr. Command
// stdout stays reserved for command output.
func NewFallbackLogger() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		ParseLogLevel(os.Getenv("LOG_LEVEL")),
	)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

// InitializeWithFallback sets up the process logger: console output to
// stderr, plus a JSON log file when a writable path is available.
func InitializeWithFallback() {
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()),
		zapcore.Lock(os.Stderr),
		ParseLogLevel(os.Getenv("LOG_LEVEL")),
	)

	cores := []zapcore.Core{consoleCore}

	if path := resolveLogPath(); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
			jsonCfg := zap.NewProductionEncoderConfig()
			jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
			cores = append(cores, zapcore.NewCore(
				zapcore.NewJSONEncoder(jsonCfg),
				zapcore.AddSync(f),
				zap.DebugLevel,
			))
		}
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(log)
}

// resolveLogPath returns the first writable log file path, or "" when none
// is available (console-only logging).
func resolveLogPath() string {
	cache, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(cache, "wpsnap")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ""
	}
	return filepath.Join(dir, "wpsnap.log")
}

// Sync flushes buffered log entries. Errors are ignored: stderr sync fails
// on some platforms and there is nothing useful to do about it at exit.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}
