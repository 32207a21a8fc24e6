package main

import (
	"context"
	"io"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// newLogger builds console logger writing to w. Colors are used only for terminals.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	noColor := true
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	output := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: time.TimeOnly}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func withLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// loggerFrom returns logger stored in ctx or a disabled one.
func loggerFrom(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
