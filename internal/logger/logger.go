// Package logger provides the process-wide structured logger. It keeps the
// teacher's (pkg/logger) small format-string call API — Init/Debug/Info/
// Warn/Error — but backs it with go.uber.org/zap and
// gopkg.in/natefinch/lumberjack.v2 file rotation, the way
// zfogg-sidechain/backend/internal/logger does, instead of the teacher's
// bare *log.Logger.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.SugaredLogger

func init() {
	// A usable logger before Init() runs, so early startup logs never nil-panic.
	l, _ := zap.NewProduction()
	log = l.Sugar()
}

// Init configures the global logger from levelStr ("debug", "info", "warn",
// "error"; default "info") and logFile (empty disables file rotation; only
// console output is used).
func Init(levelStr, logFile string) {
	level := parseLevel(levelStr)

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(os.Stdout),
			level,
		),
	}

	if logFile != "" {
		jsonConfig := zap.NewProductionEncoderConfig()
		jsonConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    100,
				MaxBackups: 5,
				MaxAge:     7,
				Compress:   true,
			}),
			level,
		))
	}

	log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
}

// Close flushes any buffered log entries.
func Close() {
	_ = log.Sync()
}

func Debug(format string, args ...any) { log.Debugf(format, args...) }
func Info(format string, args ...any)  { log.Infof(format, args...) }
func Warn(format string, args ...any)  { log.Warnf(format, args...) }
func Error(format string, args ...any) { log.Errorf(format, args...) }

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
