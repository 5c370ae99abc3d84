package reconcile

import (
	"fmt"
	"strings"
)

// State is the sync state of one identity.
type State int

// Sync states.
const (
	// InSync means both copies exist and their timestamps agree within tolerance.
	InSync State = iota
	// UploadNeeded means the local copy is newer than the remote one.
	UploadNeeded
	// DownloadNeeded means the remote copy is newer than the local one.
	DownloadNeeded
	// LocalOnlyNew means the file exists only locally.
	LocalOnlyNew
	// RemoteOnlyNew means the file exists only remotely.
	RemoteOnlyNew
)

func (s State) String() string {
	switch s {
	case InSync:
		return "in sync"
	case UploadNeeded:
		return "upload needed"
	case DownloadNeeded:
		return "download needed"
	case LocalOnlyNew:
		return "local only"
	case RemoteOnlyNew:
		return "remote only"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Direction is the caller's intent for a transfer.
type Direction int

// Directions.
const (
	// Auto follows the direction implied by the state.
	Auto Direction = iota
	Upload
	Download
)

func (d Direction) String() string {
	switch d {
	case Auto:
		return "auto"
	case Upload:
		return "upload"
	case Download:
		return "download"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// UnmarshalText parses "auto", "upload"/"up" or "download"/"down".
func (d *Direction) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "auto":
		*d = Auto
	case "upload", "up", "u":
		*d = Upload
	case "download", "down", "d":
		*d = Download
	default:
		return fmt.Errorf("invalid direction %q (want auto, upload or download)", string(text)) //nolint:err113 // parse error
	}

	return nil
}

// MarshalText returns the flag form of the direction.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Implied returns the direction a state calls for and whether it is unambiguous.
// InSync implies no transfer; the one-side states need an explicit choice.
func (s State) Implied() (Direction, bool) {
	switch s {
	case UploadNeeded:
		return Upload, true
	case DownloadNeeded:
		return Download, true
	case InSync, LocalOnlyNew, RemoteOnlyNew:
		return Auto, false
	default:
		return Auto, false
	}
}

// Allows reports whether dir is a valid transfer direction for s.
// Auto is allowed only where the state implies a direction.
func (s State) Allows(dir Direction) bool {
	switch s {
	case UploadNeeded:
		return dir == Auto || dir == Upload
	case DownloadNeeded:
		return dir == Auto || dir == Download
	case LocalOnlyNew:
		return dir == Upload
	case RemoteOnlyNew:
		return dir == Download
	case InSync:
		return false
	default:
		return false
	}
}
