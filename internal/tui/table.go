package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/session"
	"github.com/joe/worldsync/internal/transfer"
)

const timeLayout = "2006-01-02 15:04:05"

// RenderTable renders a snapshot for non-interactive output: one row per world followed
// by an indented row per file.
func RenderTable(snapshot *session.Snapshot) string {
	if snapshot == nil || len(snapshot.Worlds) == 0 {
		return "No worlds found.\n"
	}

	states := make([]reconcile.State, 0, len(snapshot.Records)+len(snapshot.Worlds))
	rows := make([][]string, 0, cap(states))

	for _, world := range snapshot.Worlds {
		states = append(states, world.State)
		rows = append(rows, []string{
			world.Name,
			world.State.String(),
			stamp(world.NewestLocal),
			humanize.Bytes(uint64(max(worldSize(world, true), 0))),
			stamp(world.NewestRemote),
			humanize.Bytes(uint64(max(worldSize(world, false), 0))),
			author(world.NewestRemote),
		})

		for _, record := range world.Records {
			states = append(states, record.State)
			rows = append(rows, []string{
				"  " + record.Identity,
				record.State.String(),
				stamp(record.Local),
				size(record.Local),
				stamp(record.Remote),
				size(record.Remote),
				author(record.Remote),
			})
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle()).
		Headers("WORLD", "STATE", "LOCAL", "SIZE", "REMOTE", "SIZE", "BY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle()
			}

			if col == 1 && row >= 0 && row < len(states) {
				return cellStyle().Foreground(stateColor(states[row]))
			}

			return cellStyle()
		})

	header := fmt.Sprintf("%s ⇄ %s\n", snapshot.LocalName, snapshot.RemoteName)

	return header + t.Render() + "\n"
}

// RenderResults summarises the transfers of one world.
func RenderResults(world string, results []transfer.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("%s is already in sync.\n", world)
	}

	var b strings.Builder

	var total int64
	for _, result := range results {
		total += result.Bytes
		fmt.Fprintf(&b, "  %-8s %s (%s)\n", result.Action, result.Identity, humanize.Bytes(uint64(max(result.Bytes, 0))))
	}

	return fmt.Sprintf("%s: %d file(s), %s\n", world, len(results), humanize.Bytes(uint64(max(total, 0)))) + b.String()
}

func stamp(entry *catalog.FileEntry) string {
	if entry == nil {
		return "-"
	}

	return entry.ModifiedAt.Local().Format(timeLayout)
}

func size(entry *catalog.FileEntry) string {
	if entry == nil {
		return "-"
	}

	return humanize.Bytes(uint64(max(entry.Size, 0)))
}

func author(entry *catalog.FileEntry) string {
	if entry == nil || entry.ModifiedBy == "" {
		return "-"
	}

	return entry.ModifiedBy
}
