// Package session drives one sync cycle: scan both sides, reconcile, and run the
// transfers the user asks for.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/transfer"
)

// LocalStore is the local side: listable and readable/writable by the executor.
type LocalStore interface {
	catalog.Source
	transfer.LocalSide
}

// RemoteStore is the remote side.
type RemoteStore interface {
	catalog.Source
	transfer.RemoteSide
}

// Options configures a Session.
type Options struct {
	Local     LocalStore
	Remote    RemoteStore
	Filter    catalog.Filter
	Tolerance time.Duration
	Logger    *slog.Logger
}

// Snapshot is the reconciled state of both sides at one point in time.
type Snapshot struct {
	Records []reconcile.SyncRecord
	Worlds  []reconcile.World
	// LocalName and RemoteName describe the sides for display.
	LocalName  string
	RemoteName string
	ScannedAt  time.Time
}

// Session owns the stores of one run. Cycles share nothing but the stores.
type Session struct {
	local     LocalStore
	remote    RemoteStore
	filter    catalog.Filter
	tolerance time.Duration
	logger    *slog.Logger
	executor  *transfer.Executor
}

// New creates a Session. A negative tolerance is treated as zero.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tolerance := max(opts.Tolerance, 0)

	return &Session{
		local:     opts.Local,
		remote:    opts.Remote,
		filter:    opts.Filter,
		tolerance: tolerance,
		logger:    logger,
		executor:  transfer.NewExecutor(opts.Local, opts.Remote, logger),
	}
}

// Executor returns the executor used for transfers, e.g. to attach a progress callback.
func (s *Session) Executor() *transfer.Executor {
	return s.executor
}

// Scan builds both catalogs concurrently and reconciles them once both are complete.
// If either side fails the other scan is cancelled and no snapshot is returned.
func (s *Session) Scan(ctx context.Context) (*Snapshot, error) {
	var local, remote catalog.Catalog

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var err error
		local, err = catalog.Build(groupCtx, s.local, s.filter)

		return err
	})

	group.Go(func() error {
		var err error
		remote, err = catalog.Build(groupCtx, s.remote, s.filter)

		return err
	})

	if err := group.Wait(); err != nil {
		s.logger.Error("scan failed", "error", err)
		return nil, err //nolint:wrapcheck // catalog errors already name the side
	}

	records := reconcile.Reconcile(local, remote, s.tolerance)
	snapshot := &Snapshot{
		Records:    records,
		Worlds:     reconcile.Group(records, s.tolerance),
		LocalName:  s.local.Name(),
		RemoteName: s.remote.Name(),
		ScannedAt:  time.Now(),
	}

	s.logger.Debug("scan complete",
		"local", local.Identities(), "remote", remote.Identities(),
		"records", len(records), "worlds", len(snapshot.Worlds))

	return snapshot, nil
}

// Sync executes a single record.
func (s *Session) Sync(ctx context.Context, record reconcile.SyncRecord, dir reconcile.Direction) (transfer.Result, error) {
	result, err := s.executor.Execute(ctx, record, dir)
	if err != nil {
		s.logger.Error("sync failed", "file", record.Identity, "state", record.State.String(), "error", err)
		return result, err //nolint:wrapcheck // executor errors carry the sentinel and identity
	}

	if result.Action == transfer.ActionNone {
		s.logger.Debug("already in sync", "file", record.Identity)
	}

	return result, nil
}

// SyncWorld moves every file of world in one direction so both sides hold the same
// save. The direction is explicit or, with Auto, implied by the world's state;
// ErrDirectionRequired is returned when that is ambiguous and ErrDirectionMismatch when
// an explicit direction contradicts the state. Each file on the source side is
// transferred whatever its own state and keeps its own modification time, so the next
// scan finds every file in sync. Files only on the destination side are left in place.
// It stops at the first failure and returns the results achieved so far.
func (s *Session) SyncWorld(ctx context.Context, world reconcile.World, dir reconcile.Direction) ([]transfer.Result, error) {
	if world.State == reconcile.InSync {
		s.logger.Info("world already in sync", "world", world.Name)
		return nil, nil
	}

	if !world.State.Allows(dir) {
		if dir == reconcile.Auto {
			return nil, fmt.Errorf("%w: world %s is %s", transfer.ErrDirectionRequired, world.Name, world.State)
		}

		return nil, fmt.Errorf("%w: cannot %s world %s, it is %s", transfer.ErrDirectionMismatch, dir, world.Name, world.State)
	}

	if implied, ok := world.ImpliedDirection(); ok {
		dir = implied
	}

	s.logger.Info("syncing world", "world", world.Name, "direction", dir.String(), "state", world.State.String())

	var results []transfer.Result

	for _, record := range world.Records {
		source := record.Local
		if dir == reconcile.Download {
			source = record.Remote
		}

		if source == nil {
			s.logger.Warn("leaving file only on the destination side", "file", record.Identity, "direction", dir.String())
			continue
		}

		result, err := s.executor.Force(ctx, record, dir)
		if err != nil {
			s.logger.Error("sync failed", "file", record.Identity, "state", record.State.String(), "error", err)
			return results, err //nolint:wrapcheck // executor errors carry the sentinel and identity
		}

		results = append(results, result)
	}

	return results, nil
}

// IsCallerError reports whether err was caused by the requested direction rather than
// by storage.
func IsCallerError(err error) bool {
	return errors.Is(err, transfer.ErrDirectionRequired) || errors.Is(err, transfer.ErrDirectionMismatch)
}
