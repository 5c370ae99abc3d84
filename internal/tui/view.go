package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/reconcile"
	pkgerrors "github.com/joe/worldsync/pkg/errors"
)

// View renders the TUI
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle().Render("worldsync"))
	b.WriteString("\n")

	if m.snapshot != nil {
		b.WriteString(subtleStyle().Render(fmt.Sprintf("%s  ⇄  %s", m.snapshot.LocalName, m.snapshot.RemoteName)))
		b.WriteString("\n\n")
		b.WriteString(boxStyle().Render(m.renderWorlds()))
		b.WriteString("\n")
	}

	switch m.phase {
	case phaseScanning:
		b.WriteString(m.spinner.View() + " Scanning local and remote worlds...\n")
	case phaseSyncing:
		b.WriteString(m.spinner.View() + " " + m.status + "\n")
	case phaseBrowsing:
		if m.status != "" {
			b.WriteString(m.status + "\n")
		}

		if m.pending {
			b.WriteString(stateStyle(reconcile.UploadNeeded).Render("u upload") + dimStyle().Render(" · ") +
				stateStyle(reconcile.DownloadNeeded).Render("d download") + "\n")
		}
	}

	if m.err != nil {
		b.WriteString(errorStyle().Render("Error: " + m.err.Error()))
		b.WriteString("\n")

		if suggestions := pkgerrors.FormatSuggestions(m.err); suggestions != "" {
			b.WriteString(dimStyle().Render(suggestions))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) renderWorlds() string {
	worlds := m.Worlds()
	if len(worlds) == 0 {
		return dimStyle().Render("No worlds found on either side.")
	}

	lines := make([]string, 0, len(worlds))

	for i, world := range worlds {
		cursor := "  "
		// Pad before styling; ANSI codes would count towards the width.
		name := fmt.Sprintf("%-20s", world.Name)

		if i == m.cursor {
			cursor = "▸ "
			name = selectedStyle().Render(name)
		}

		lines = append(lines, fmt.Sprintf("%s%s %s  local %s  remote %s",
			cursor,
			name,
			stateStyle(world.State).Render(fmt.Sprintf("%-15s", world.State)),
			describeEntry(world.NewestLocal, m.now()),
			describeEntry(world.NewestRemote, m.now()),
		))
	}

	return strings.Join(lines, "\n")
}

func (m Model) now() time.Time {
	if m.snapshot != nil && !m.snapshot.ScannedAt.IsZero() {
		return m.snapshot.ScannedAt
	}

	return time.Now()
}

// describeEntry renders an entry's age, size and author, or a dash when it is missing.
func describeEntry(entry *catalog.FileEntry, now time.Time) string {
	if entry == nil {
		return dimStyle().Render("-")
	}

	text := fmt.Sprintf("%s (%s)", humanize.RelTime(entry.ModifiedAt, now, "ago", "from now"), humanize.Bytes(uint64(max(entry.Size, 0))))
	if entry.ModifiedBy != "" {
		text += " by " + entry.ModifiedBy
	}

	return text
}

// worldSize sums the sizes of a world's files on one side.
func worldSize(world reconcile.World, local bool) int64 {
	var total int64

	for _, record := range world.Records {
		entry := record.Remote
		if local {
			entry = record.Local
		}

		if entry != nil {
			total += entry.Size
		}
	}

	return total
}
