package sysutil

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures SetupLogging.
type LogOptions struct {
	Level   string
	Pretty  bool      // human-friendly console output
	Console io.Writer // defaults to os.Stdout

	// File receives every event as JSON, rotated by size. Empty disables.
	File string
	// ErrorFile receives only error-and-above events. Empty disables.
	ErrorFile string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	Service string
	Version string
}

// SetupLogging installs the global zerolog logger described by opts and
// returns it together with a function that flushes and closes any file
// sinks. The returned logger is also the zerolog.Ctx fallback.
func SetupLogging(opts LogOptions) (zerolog.Logger, func() error) {
	SetLogLevel(opts.Level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	if opts.Pretty {
		console = zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
			NoColor:    IsTruthy(os.Getenv("NO_COLOR")),
		}
	}

	writers := []io.Writer{console}
	var closers []io.Closer

	if opts.File != "" {
		lj := rotating(opts.File, opts)
		writers = append(writers, lj)
		closers = append(closers, lj)
	}
	if opts.ErrorFile != "" {
		lj := rotating(opts.ErrorFile, opts)
		writers = append(writers, &zerolog.FilteredLevelWriter{
			Writer: zerolog.LevelWriterAdapter{Writer: lj},
			Level:  zerolog.ErrorLevel,
		})
		closers = append(closers, lj)
	}

	ctx := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}
	l := ctx.Logger()

	log.Logger = l
	zerolog.DefaultContextLogger = &l

	return l, func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}
}

func rotating(path string, opts LogOptions) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
}
