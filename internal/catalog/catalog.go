// Package catalog turns a raw file listing from one storage side into a normalized
// mapping from identity to file metadata.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"
)

// Exported variables.
var (
	// ErrSourceUnavailable is returned when a side cannot be enumerated: missing folder,
	// unreachable remote, permission or authorization failure.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// FileEntry is one physical file on one side.
type FileEntry struct {
	// Identity matches a local file to its remote counterpart. Case-sensitive.
	Identity   string
	ModifiedAt time.Time
	Size       int64
	// Location is an opaque handle understood only by the side that produced it
	// (a path, an object key, a Drive file id).
	Location string
	// ModifiedBy is the last modifier reported by the source, if any.
	ModifiedBy string
}

// Source lists the files of one side.
type Source interface {
	// Name describes the side for logs and error messages.
	Name() string
	List(ctx context.Context) ([]FileEntry, error)
}

// Catalog maps identity to the entry for one side.
type Catalog map[string]FileEntry

// Build lists src and returns its catalog. Identities are reduced to base names and
// timestamps are normalized to UTC. Entries rejected by filter are dropped; a nil filter
// keeps everything. When a source reports the same identity twice the newest entry wins,
// and on a tie the first listed one.
//
// Any listing failure is returned wrapped in ErrSourceUnavailable and no catalog is produced.
func Build(ctx context.Context, src Source, filter Filter) (Catalog, error) {
	entries, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %w", ErrSourceUnavailable, src.Name(), err)
	}

	catalog := make(Catalog, len(entries))

	for _, entry := range entries {
		entry.Identity = identity(entry.Identity)
		if entry.Identity == "" {
			continue
		}

		if filter != nil && !filter.ShouldInclude(entry.Identity) {
			continue
		}

		entry.ModifiedAt = entry.ModifiedAt.UTC()

		if existing, ok := catalog[entry.Identity]; ok && !entry.ModifiedAt.After(existing.ModifiedAt) {
			continue
		}

		catalog[entry.Identity] = entry
	}

	return catalog, nil
}

// Identities returns the catalog's identities in ascending order.
func (c Catalog) Identities() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// Lookup returns a pointer to a copy of the entry for id, or nil.
func (c Catalog) Lookup(id string) *FileEntry {
	entry, ok := c[id]
	if !ok {
		return nil
	}

	return &entry
}

func identity(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimRight(name, "/")

	if name == "" {
		return ""
	}

	base := path.Base(name)
	if base == "." || base == "/" {
		return ""
	}

	return base
}
