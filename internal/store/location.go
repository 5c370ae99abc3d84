package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/transfer"
)

// Exported variables.
var (
	ErrInvalidLocation = errors.New("invalid remote location")
)

// Kind identifies the backend of a remote location.
type Kind string

// Location kinds.
const (
	KindFolder Kind = "folder"
	KindS3     Kind = "s3"
	KindDrive  Kind = "gdrive"
)

// Location is a parsed --remote value.
type Location struct {
	Kind Kind
	// Path is a directory path or sftp:// URL for KindFolder.
	Path string
	// Bucket and Prefix address KindS3.
	Bucket string
	Prefix string
	// FolderID addresses KindDrive.
	FolderID string
}

// ParseLocation parses gdrive://FOLDER_ID, s3://bucket[/prefix], sftp:// URLs and
// directory paths.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}

	if rest, ok := strings.CutPrefix(raw, "gdrive://"); ok {
		id := strings.Trim(rest, "/")
		if id == "" || strings.Contains(id, "/") {
			return Location{}, fmt.Errorf("%w: %q (want gdrive://FOLDER_ID)", ErrInvalidLocation, raw)
		}

		return Location{Kind: KindDrive, FolderID: id}, nil
	}

	if rest, ok := strings.CutPrefix(raw, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Location{}, fmt.Errorf("%w: %q (want s3://bucket/prefix)", ErrInvalidLocation, raw)
		}

		return Location{Kind: KindS3, Bucket: bucket, Prefix: strings.Trim(prefix, "/")}, nil
	}

	return Location{Kind: KindFolder, Path: raw}, nil
}

func (l Location) String() string {
	switch l.Kind {
	case KindDrive:
		return "gdrive://" + l.FolderID
	case KindS3:
		return "s3://" + l.Bucket + "/" + l.Prefix
	case KindFolder:
		return l.Path
	default:
		return l.Path
	}
}

// Remote is a storage side usable as the remote of a sync.
type Remote interface {
	catalog.Source
	transfer.RemoteSide
	io.Closer
}

// Options carries what the backends need beyond the location itself.
type Options struct {
	S3    S3Config
	Drive DriveAuth
}

// Open connects to the remote described by loc.
func Open(ctx context.Context, loc Location, opts Options) (Remote, error) {
	var (
		remote Remote
		err    error
	)

	switch loc.Kind {
	case KindDrive:
		remote, err = openDrive(ctx, loc, opts.Drive)
	case KindS3:
		remote, err = OpenS3(ctx, loc.Bucket, loc.Prefix, opts.S3)
	case KindFolder:
		remote, err = OpenFolder(loc.Path)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidLocation, loc.Kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", loc, err)
	}

	return remote, nil
}

func openDrive(ctx context.Context, loc Location, auth DriveAuth) (*Drive, error) {
	clientOption, err := auth.ClientOption(ctx)
	if err != nil {
		return nil, err
	}

	return OpenDrive(ctx, loc.FolderID, clientOption)
}
