// Package main is the entry point for the worldsync application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/worldsync/internal/config"
	"github.com/joe/worldsync/internal/logging"
	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/session"
	"github.com/joe/worldsync/internal/store"
	"github.com/joe/worldsync/internal/tui"
	pkgerrors "github.com/joe/worldsync/pkg/errors"
)

// Exit codes.
const (
	exitOK = iota
	exitError
	exitUsage
)

var errWorldNotFound = errors.New("world not found")

func main() {
	os.Exit(run())
}

func run() int {
	// Parse configuration
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitUsage
	}

	interactive := !cfg.Headless() && term.IsTerminal(int(os.Stdout.Fd()))

	logger, closeLog, err := logging.New(logging.Options{
		Verbose:     cfg.Verbose,
		File:        cfg.LogFile,
		Interactive: interactive,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = execute(ctx, cfg, logger, interactive)
	if err != nil {
		report(err)

		if errors.Is(err, errWorldNotFound) || session.IsCallerError(err) {
			return exitUsage
		}

		return exitError
	}

	return exitOK
}

func execute(ctx context.Context, cfg *config.Config, logger *slog.Logger, interactive bool) error {
	lock, err := session.AcquireLock(cfg.LocalFolder)
	if err != nil {
		return err //nolint:wrapcheck // lock errors name the folder
	}

	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("failed to release lock", "error", err)
		}
	}()

	local, err := store.OpenFolder(cfg.LocalFolder)
	if err != nil {
		return fmt.Errorf("failed to open local folder: %w", err)
	}
	defer local.Close()

	opts := cfg.StoreOptions()
	opts.Drive.Prompt = os.Stderr

	remote, err := store.Open(ctx, cfg.RemoteLocation, opts)
	if err != nil {
		return fmt.Errorf("failed to open remote %s: %w", cfg.RemoteLocation, err)
	}
	defer remote.Close()

	filter := cfg.Filter()

	sess := session.New(session.Options{
		Local:     local,
		Remote:    remote,
		Filter:    filter,
		Tolerance: cfg.Tolerance,
		Logger:    logger,
	})
	sess.Executor().Progress = func(done, total int64, name string) {
		logger.Debug("transfer progress", "file", name, "bytes", done, "total", total)
	}

	logger.Debug("session ready", "local", local.Name(), "remote", remote.Name(), "patterns", filter.Patterns())

	switch {
	case cfg.List:
		snapshot, err := sess.Scan(ctx)
		if err != nil {
			return err //nolint:wrapcheck // scan errors name the side
		}

		fmt.Print(tui.RenderTable(snapshot))

		return nil

	case cfg.World != "":
		err := syncWorld(ctx, sess, cfg.World, cfg.Direction)
		if !errors.Is(err, errWorldNotFound) || !term.IsTerminal(int(os.Stdout.Fd())) {
			return err
		}

		return pick(ctx, sess, err.Error())

	case interactive:
		return pick(ctx, sess, "")

	default:
		// Not a terminal and nothing to do: behave like --list.
		snapshot, err := sess.Scan(ctx)
		if err != nil {
			return err //nolint:wrapcheck // scan errors name the side
		}

		fmt.Print(tui.RenderTable(snapshot))

		return nil
	}
}

func syncWorld(ctx context.Context, sess *session.Session, name string, dir reconcile.Direction) error {
	snapshot, err := sess.Scan(ctx)
	if err != nil {
		return err //nolint:wrapcheck // scan errors name the side
	}

	world, ok := reconcile.Find(snapshot.Worlds, name)
	if !ok {
		return fmt.Errorf("%w: %q", errWorldNotFound, name)
	}

	results, err := sess.SyncWorld(ctx, world, dir)
	fmt.Print(tui.RenderResults(world.Name, results))

	return err //nolint:wrapcheck // session errors carry the sentinel and file
}

func pick(ctx context.Context, sess *session.Session, notice string) error {
	model := tui.NewModel(ctx, sess, notice)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("picker failed: %w", err)
	}

	return nil
}

func report(err error) {
	enriched := pkgerrors.NewEnricher().Enrich(err, "")
	fmt.Fprintf(os.Stderr, "Error: %v\n", enriched)

	if suggestions := pkgerrors.FormatSuggestions(enriched); suggestions != "" {
		fmt.Fprintf(os.Stderr, "\nSuggestions:\n%s\n", suggestions)
	}
}
