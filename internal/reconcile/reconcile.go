// Package reconcile pairs the local and remote catalogs by identity and classifies
// each pair from its modification timestamps.
package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/joe/worldsync/internal/catalog"
)

// DefaultTolerance absorbs timestamp precision differences between storage sides.
const DefaultTolerance = time.Second

// SyncRecord is the reconciled view of one identity.
// At least one of Local and Remote is set.
type SyncRecord struct {
	Identity string
	Local    *catalog.FileEntry
	Remote   *catalog.FileEntry
	State    State
}

// ImpliedDirection returns the direction implied by the record's state and whether it
// is unambiguous.
func (r SyncRecord) ImpliedDirection() (Direction, bool) {
	return r.State.Implied()
}

// Classify returns the state for a pair of entries. Either may be nil but not both;
// a pair of nils is reported as InSync since there is nothing to move.
// Negative tolerance is treated as zero.
func Classify(local, remote *catalog.FileEntry, tolerance time.Duration) State {
	if tolerance < 0 {
		tolerance = 0
	}

	switch {
	case local == nil && remote == nil:
		return InSync
	case remote == nil:
		return LocalOnlyNew
	case local == nil:
		return RemoteOnlyNew
	}

	diff := local.ModifiedAt.Sub(remote.ModifiedAt)

	switch {
	case diff > tolerance:
		return UploadNeeded
	case diff < -tolerance:
		return DownloadNeeded
	default:
		return InSync
	}
}

// Reconcile merges two catalogs into one record per identity in their union.
// Records are ordered by identity case-insensitively, ties broken by the exact identity.
func Reconcile(local, remote catalog.Catalog, tolerance time.Duration) []SyncRecord {
	records := make([]SyncRecord, 0, len(local)+len(remote))

	for id := range local {
		records = append(records, newRecord(id, local, remote, tolerance))
	}

	for id := range remote {
		if _, ok := local[id]; ok {
			continue
		}

		records = append(records, newRecord(id, local, remote, tolerance))
	}

	sort.Slice(records, func(i, j int) bool {
		return lessIdentity(records[i].Identity, records[j].Identity)
	})

	return records
}

func newRecord(id string, local, remote catalog.Catalog, tolerance time.Duration) SyncRecord {
	record := SyncRecord{
		Identity: id,
		Local:    local.Lookup(id),
		Remote:   remote.Lookup(id),
	}
	record.State = Classify(record.Local, record.Remote, tolerance)

	return record
}

func lessIdentity(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}

	return a < b
}
