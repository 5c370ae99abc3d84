package reconcile

import (
	"sort"
	"strings"
	"time"

	"github.com/joe/worldsync/internal/catalog"
)

// World is the group of save files sharing a base name, e.g. Meadow.db and Meadow.fwl.
// It is the unit presented to the user and synced together.
type World struct {
	Name    string
	Records []SyncRecord
	// NewestLocal and NewestRemote are the most recently modified entries on each side,
	// nil when the world has no files there.
	NewestLocal  *catalog.FileEntry
	NewestRemote *catalog.FileEntry
	// State compares the newest timestamps of both sides.
	State State
}

// WorldName returns the part of an identity before its first dot.
func WorldName(identity string) string {
	name, _, _ := strings.Cut(identity, ".")
	return name
}

// Group collects records into worlds, ordered like records. Record order inside a world
// is preserved.
func Group(records []SyncRecord, tolerance time.Duration) []World {
	index := make(map[string]int)

	var worlds []World

	for _, record := range records {
		name := WorldName(record.Identity)

		i, ok := index[name]
		if !ok {
			i = len(worlds)
			index[name] = i
			worlds = append(worlds, World{Name: name})
		}

		world := &worlds[i]
		world.Records = append(world.Records, record)
		world.NewestLocal = newer(world.NewestLocal, record.Local)
		world.NewestRemote = newer(world.NewestRemote, record.Remote)
	}

	for i := range worlds {
		worlds[i].State = Classify(worlds[i].NewestLocal, worlds[i].NewestRemote, tolerance)
	}

	sort.SliceStable(worlds, func(i, j int) bool {
		return lessIdentity(worlds[i].Name, worlds[j].Name)
	})

	return worlds
}

// Find returns the world with the given name, matching case-insensitively when there
// is no exact match.
func Find(worlds []World, name string) (World, bool) {
	for _, world := range worlds {
		if world.Name == name {
			return world, true
		}
	}

	for _, world := range worlds {
		if strings.EqualFold(world.Name, name) {
			return world, true
		}
	}

	return World{}, false
}

// ImpliedDirection returns the direction implied by the world's state.
func (w World) ImpliedDirection() (Direction, bool) {
	return w.State.Implied()
}

func newer(current, candidate *catalog.FileEntry) *catalog.FileEntry {
	if candidate == nil {
		return current
	}

	if current == nil || candidate.ModifiedAt.After(current.ModifiedAt) {
		return candidate
	}

	return current
}
