// Package transfer performs the single upload or download a sync record calls for.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/pkg/fileops"
)

// Exported variables.
var (
	// ErrTransferFailed wraps any storage failure during an upload or download.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrDirectionRequired is returned when a one-sided record is executed with Auto.
	ErrDirectionRequired = errors.New("direction required")
	// ErrDirectionMismatch is returned when the direction contradicts the record's state.
	ErrDirectionMismatch = errors.New("direction does not match sync state")
)

// Action is what an Execute call did.
type Action string

// Actions.
const (
	ActionNone     Action = "none"
	ActionUpload   Action = "upload"
	ActionDownload Action = "download"
)

// Result describes one executed record.
type Result struct {
	Identity string
	Action   Action
	// Location is the handle of the written copy on the destination side.
	Location string
	Bytes    int64
}

// UploadRequest describes one upload to the remote side.
type UploadRequest struct {
	// Name is the identity to store the file under.
	Name string
	// Replace is the location of the existing remote copy, empty when there is none.
	Replace string
	Body    io.Reader
	// Size is the expected length of Body, or -1 when unknown.
	Size int64
	// ModTime becomes the remote copy's modification time.
	ModTime time.Time
}

// LocalSide is the local storage as seen by the executor.
type LocalSide interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	// Write replaces the file called name atomically, stamps it with modTime and
	// returns its location.
	Write(ctx context.Context, name string, body io.Reader, modTime time.Time) (string, error)
}

// RemoteSide is the remote storage as seen by the executor.
type RemoteSide interface {
	Upload(ctx context.Context, req UploadRequest) (string, error)
	Download(ctx context.Context, location string) (io.ReadCloser, error)
}

// Executor moves files between the two sides.
type Executor struct {
	local  LocalSide
	remote RemoteSide
	logger *slog.Logger

	// Progress, when set, is called as bytes flow through a transfer.
	Progress fileops.ProgressCallback
}

// NewExecutor creates an Executor. A nil logger discards log output.
func NewExecutor(local LocalSide, remote RemoteSide, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Executor{local: local, remote: remote, logger: logger}
}

// Execute performs at most one transfer for record. InSync records are a no-op.
// The direction is checked against the state before any I/O happens.
func (e *Executor) Execute(ctx context.Context, record reconcile.SyncRecord, dir reconcile.Direction) (Result, error) {
	result := Result{Identity: record.Identity, Action: ActionNone}

	if record.State == reconcile.InSync {
		return result, nil
	}

	if !record.State.Allows(dir) {
		if dir == reconcile.Auto {
			return result, fmt.Errorf("%w: %s is %s", ErrDirectionRequired, record.Identity, record.State)
		}

		return result, fmt.Errorf("%w: cannot %s %s, it is %s", ErrDirectionMismatch, dir, record.Identity, record.State)
	}

	switch record.State {
	case reconcile.UploadNeeded, reconcile.LocalOnlyNew:
		return e.upload(ctx, record)
	case reconcile.DownloadNeeded, reconcile.RemoteOnlyNew:
		return e.download(ctx, record)
	case reconcile.InSync:
		return result, nil
	default:
		return result, fmt.Errorf("%w: %s has unknown state %s", ErrDirectionMismatch, record.Identity, record.State)
	}
}

// Force moves record in dir whatever its own state, so every file of a world can follow
// the world's direction. dir must be Upload or Download. A record with no copy on the
// source side is left alone and reported with ActionNone.
func (e *Executor) Force(ctx context.Context, record reconcile.SyncRecord, dir reconcile.Direction) (Result, error) {
	result := Result{Identity: record.Identity, Action: ActionNone}

	switch dir {
	case reconcile.Upload:
		if record.Local == nil {
			return result, nil
		}

		return e.upload(ctx, record)
	case reconcile.Download:
		if record.Remote == nil {
			return result, nil
		}

		return e.download(ctx, record)
	case reconcile.Auto:
		return result, fmt.Errorf("%w: %s needs an explicit direction", ErrDirectionRequired, record.Identity)
	default:
		return result, fmt.Errorf("%w: unknown direction %s for %s", ErrDirectionMismatch, dir, record.Identity)
	}
}

func (e *Executor) upload(ctx context.Context, record reconcile.SyncRecord) (Result, error) {
	result := Result{Identity: record.Identity, Action: ActionUpload}
	local := record.Local

	body, err := e.local.Open(ctx, local.Location)
	if err != nil {
		return result, fmt.Errorf("%w: failed to open local %s: %w", ErrTransferFailed, record.Identity, err)
	}
	defer body.Close()

	req := UploadRequest{
		Name:    record.Identity,
		Body:    e.counting(body, local.Size, record.Identity, &result.Bytes),
		Size:    local.Size,
		ModTime: local.ModifiedAt,
	}
	if record.Remote != nil {
		req.Replace = record.Remote.Location
	}

	location, err := e.remote.Upload(ctx, req)
	if err != nil {
		return result, fmt.Errorf("%w: failed to upload %s: %w", ErrTransferFailed, record.Identity, err)
	}

	result.Location = location
	e.logger.Info("uploaded", "file", record.Identity, "bytes", result.Bytes, "location", location)

	return result, nil
}

func (e *Executor) download(ctx context.Context, record reconcile.SyncRecord) (Result, error) {
	result := Result{Identity: record.Identity, Action: ActionDownload}
	remote := record.Remote

	body, err := e.remote.Download(ctx, remote.Location)
	if err != nil {
		return result, fmt.Errorf("%w: failed to download %s: %w", ErrTransferFailed, record.Identity, err)
	}
	defer body.Close()

	location, err := e.local.Write(ctx, record.Identity,
		e.counting(body, remote.Size, record.Identity, &result.Bytes), remote.ModifiedAt)
	if err != nil {
		return result, fmt.Errorf("%w: failed to write local %s: %w", ErrTransferFailed, record.Identity, err)
	}

	result.Location = location
	e.logger.Info("downloaded", "file", record.Identity, "bytes", result.Bytes, "location", location)

	return result, nil
}

func (e *Executor) counting(r io.Reader, total int64, name string, n *int64) io.Reader {
	return &countingReader{r: r, n: n, total: total, name: name, progress: e.Progress}
}

// countingReader tallies bytes read and forwards them to a progress callback.
type countingReader struct {
	r        io.Reader
	n        *int64
	total    int64
	name     string
	progress fileops.ProgressCallback
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		*c.n += int64(n)
		if c.progress != nil {
			c.progress(*c.n, c.total, c.name)
		}
	}

	return n, err //nolint:wrapcheck // io.Reader contract requires returning io.EOF unwrapped
}
