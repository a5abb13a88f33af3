// Package logging builds the zap loggers shared by every clipmenu
// binary. Output always goes to stderr so stdout stays free for
// protocol data (the selector's launcher pipe, clipctl's status word).
package logging

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger for the named program at the given level
// ("debug", "info", "warn", "error"; unparseable values fall back to
// info). Encoding switches to a human-readable console format when
// stderr is a terminal, and to JSON otherwise so supervised output
// (systemd, a log file) stays structured.
func New(program string, levelName string) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	encoding := "json"
	if isatty.IsTerminal(os.Stderr.Fd()) {
		encoding = "console"
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       false,
		DisableCaller:     false,
		DisableStacktrace: true,
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.Named(program), nil
}

// Fatal logs msg at error level and terminates the process with status
// 1, matching the daemon's "fatal on startup failure, single-line
// diagnostic" contract.
func Fatal(logger *zap.Logger, msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
	os.Exit(1)
}
