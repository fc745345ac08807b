package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
)

// Loggers splits informational output from errors so they can be routed to
// different sinks (stdout and stderr by default).
type Loggers struct {
	InfoLogger  zerolog.Logger
	ErrorLogger zerolog.Logger
}

type FileConfig struct {
	Path       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

func SetupLogger(level string) (*Loggers, error) {
	return newLoggers(level, os.Stdout, os.Stderr)
}

// SetupFileLogger writes both streams to a rotating file and mirrors errors
// to stderr.
func SetupFileLogger(level string, cfg FileConfig) (*Loggers, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	return newLoggers(level, fileLogger, io.MultiWriter(fileLogger, os.Stderr))
}

// New builds Loggers on arbitrary writers.
func New(level string, infoOut, errOut io.Writer) (*Loggers, error) {
	return newLoggers(level, infoOut, errOut)
}

func newLoggers(level string, infoOut, errOut io.Writer) (*Loggers, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	base := func(out io.Writer) zerolog.Logger {
		return zerolog.New(out).
			Level(lvl).
			With().
			Timestamp().
			Str("service", "adv-service").
			Logger()
	}

	return &Loggers{
		InfoLogger:  base(infoOut),
		ErrorLogger: base(errOut),
	}, nil
}

func parseLevel(level string) (zerolog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return zerolog.InfoLevel, nil
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}
