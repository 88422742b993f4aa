// Package logger provides structured logging using zap.
package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger. It discards everything until Init is called, so
// library packages and tests can log unconditionally.
var Log = zap.NewNop()

// Sugar is the sugared form of Log.
var Sugar = Log.Sugar()

// level is shared by every core so SetLevel applies without rebuilding Log.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Options selects where log entries go.
type Options struct {
	Level string // debug, info, warn or error

	// Console writes colored, human-readable lines. Nil disables console output.
	Console io.Writer

	// File enables JSON lines in a rotating file when File.Path is set.
	File FileConfig
}

// FileConfig holds log file rotation settings.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileConfig returns rotation settings for a viewer log file.
func DefaultFileConfig(path string) FileConfig {
	return FileConfig{
		Path:       path,
		MaxSizeMB:  20,
		MaxBackups: 3,
		MaxAgeDays: 14,
		Compress:   true,
	}
}

// Named returns a child logger for a component, e.g. "compiler" or "library".
// The child is taken from the current global logger, so call it after Init.
func Named(component string) *zap.Logger {
	return Log.Named(component)
}

// Init logs to stderr and, when logFile is set, to a rotating JSON file.
func Init(levelName, logFile string) error {
	opts := Options{Level: levelName, Console: os.Stderr}
	if logFile != "" {
		opts.File = DefaultFileConfig(logFile)
	}
	return InitWithOptions(opts)
}

// InitWithOptions replaces the global logger.
func InitWithOptions(opts Options) error {
	if err := SetLevel(opts.Level); err != nil {
		return err
	}

	var cores []zapcore.Core
	if opts.Console != nil {
		enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
			TimeKey:          "time",
			LevelKey:         "level",
			NameKey:          "logger",
			MessageKey:       "msg",
			CallerKey:        "caller",
			EncodeTime:       zapcore.TimeEncoderOfLayout("15:04:05"),
			EncodeName:       zapcore.FullNameEncoder,
			EncodeLevel:      zapcore.CapitalColorLevelEncoder,
			EncodeCaller:     zapcore.ShortCallerEncoder,
			ConsoleSeparator: " ",
		})
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(opts.Console)), level))
	}

	if opts.File.Path != "" {
		w := &lumberjack.Logger{
			Filename:   opts.File.Path,
			MaxSize:    opts.File.MaxSizeMB,
			MaxBackups: opts.File.MaxBackups,
			MaxAge:     opts.File.MaxAgeDays,
			Compress:   opts.File.Compress,
			LocalTime:  true,
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), level))
	}

	if len(cores) == 0 {
		return fmt.Errorf("logger: no output configured")
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	Sugar = Log.Sugar()
	return nil
}

// SetLevel changes the minimum level of the current logger. An empty name
// selects info.
func SetLevel(name string) error {
	if name == "" {
		name = "info"
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	level.SetLevel(lvl)
	return nil
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

// Debug logs a debug message.
func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

// Info logs an info message.
func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

// Warn logs a warning message.
func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

// Error logs an error message.
func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
