// Package logging builds the slog logger for a run: coloured console output for headless
// runs and a plain text log file when one is configured.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

const timeFormat = "15:04:05.000"

// Options selects where log output goes.
type Options struct {
	Verbose bool
	// File, when set, receives every record as plain text.
	File string
	// Interactive suppresses console output so it does not corrupt the TUI.
	Interactive bool
	// Console defaults to os.Stderr.
	Console io.Writer
}

// New builds the logger. The returned close function flushes and closes the log file
// and is never nil.
func New(opts Options) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	var handlers []slog.Handler

	if !opts.Interactive {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}

		handlers = append(handlers, tint.NewHandler(console, &tint.Options{
			Level:      level,
			TimeFormat: timeFormat,
			NoColor:    !isTerminal(console),
		}))
	}

	closeFile := func() {}

	if opts.File != "" {
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 - log path comes from configuration
		if err != nil {
			return nil, closeFile, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}

		closeFile = func() { _ = file.Close() }

		handlers = append(handlers, slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.DiscardHandler), closeFile, nil
	case 1:
		return slog.New(handlers[0]), closeFile, nil
	default:
		return slog.New(NewMultiHandler(handlers...)), closeFile, nil
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
