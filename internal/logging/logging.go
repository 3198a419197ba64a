// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var Log = logrus.New()

type Config struct {
	Level string
	// File is the rotating log file. Empty disables file output.
	File       string
	MaxSizeMB  int
	MaxBackups int
	Compress   bool
	// Stdout also writes entries to standard output. The terminal console
	// leaves it off so log lines never tear the screen.
	Stdout bool
}

// ParseLevel maps a configured level name onto logrus, defaulting to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warning", "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Init points Log at the configured outputs and returns it. When the log
// file's directory cannot be created the file is skipped, Log keeps the
// remaining outputs (or discards) and the error is returned for the caller
// to report.
func Init(cfg Config) (*logrus.Logger, error) {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(ParseLevel(cfg.Level))

	var outs []io.Writer
	if cfg.Stdout {
		outs = append(outs, os.Stdout)
	}
	var fileErr error
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				fileErr = fmt.Errorf("log file %s disabled: %w", cfg.File, err)
			}
		}
		if fileErr == nil {
			outs = append(outs, rotatingFile(cfg))
		}
	}

	switch len(outs) {
	case 0:
		Log.SetOutput(io.Discard)
	case 1:
		Log.SetOutput(outs[0])
	default:
		Log.SetOutput(io.MultiWriter(outs...))
	}
	return Log, fileErr
}

func rotatingFile(cfg Config) *lumberjack.Logger {
	size := cfg.MaxSizeMB
	if size <= 0 {
		size = 5
	}
	return &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    size, // megabytes
		MaxBackups: cfg.MaxBackups,
		MaxAge:     28, // days
		Compress:   cfg.Compress,
	}
}
