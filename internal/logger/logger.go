// Package logger configures the process-wide zerolog logger.
//
// Output can go to the console, to rolling files via lumberjack, or both.
// Every statement also increments a Prometheus counter labelled by level.
package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var ErrServiceNameIsEmpty = errors.New("log service name can not be empty")

// LevelWriter routes warnings and errors to ErrorWriter and everything else to InfoWriter.
type LevelWriter struct {
	InfoWriter  io.Writer
	ErrorWriter io.Writer
}

func (lw *LevelWriter) Write(p []byte) (int, error) {
	return lw.InfoWriter.Write(p)
}

func (lw *LevelWriter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l == zerolog.Disabled {
		return 0, nil
	}
	if l >= zerolog.WarnLevel && l != zerolog.NoLevel {
		return lw.ErrorWriter.Write(p)
	}
	return lw.InfoWriter.Write(p)
}

// Init replaces log.Logger according to cfg. With no output enabled the
// logger writes nowhere, which is what tests usually want.
func Init(cfg Log) error {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("log level %q is not supported: %w", cfg.Level, err)
		}
		level = parsed
	}
	if cfg.ServiceName == "" {
		return ErrServiceNameIsEmpty
	}

	zerolog.SetGlobalLevel(level)

	var writers []io.Writer
	if cfg.Console.Enabled {
		writers = append(writers, NewConsoleWriter(cfg.Console))
	}
	if cfg.File.Enabled {
		w, err := newRollingFileWriter(cfg.File)
		if err != nil {
			return err
		}
		writers = append(writers, w)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Hook(NewPrometheusHook(cfg.ServiceName)).
		With().Timestamp().Str("service", cfg.ServiceName)
	if cfg.ReportCaller {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()

	return nil
}

func NewConsoleWriter(cfg Console) io.Writer {
	if cfg.Pretty {
		return &LevelWriter{
			InfoWriter:  zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: zerolog.TimeFieldFormat},
			ErrorWriter: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: zerolog.TimeFieldFormat},
		}
	}
	return &LevelWriter{InfoWriter: os.Stdout, ErrorWriter: os.Stderr}
}

func newRollingFileWriter(cfg File) (io.Writer, error) {
	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", cfg.Path, err)
	}

	infoName, errorName := cfg.InfoLog, cfg.ErrorLog
	if infoName == "" {
		infoName = "info.log"
	}
	if errorName == "" {
		errorName = "error.log"
	}

	return &LevelWriter{
		InfoWriter: &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Path, infoName),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
		ErrorWriter: &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Path, errorName),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
	}, nil
}
