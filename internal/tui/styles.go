package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joe/worldsync/internal/reconcile"
)

// unexported constants.
const (
	accentColorCode    = "62"  // Blue
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	subtleColorCode    = "241" // Medium gray

	// Sync state colours
	inSyncColorCode   = "42"  // Green
	uploadColorCode   = "33"  // Blue
	downloadColorCode = "160" // Red
	oneSideColorCode  = "226" // Yellow
)

func accentColor() lipgloss.Color    { return lipgloss.Color(accentColorCode) }
func dimColor() lipgloss.Color       { return lipgloss.Color(dimColorCode) }
func errorColor() lipgloss.Color     { return lipgloss.Color(errorColorCode) }
func highlightColor() lipgloss.Color { return lipgloss.Color(highlightColorCode) }
func primaryColor() lipgloss.Color   { return lipgloss.Color(primaryColorCode) }
func subtleColor() lipgloss.Color    { return lipgloss.Color(subtleColorCode) }

// stateColor maps a sync state to its colour: green in sync, blue upload, red download,
// yellow when only one side has the world.
func stateColor(state reconcile.State) lipgloss.Color {
	switch state {
	case reconcile.InSync:
		return lipgloss.Color(inSyncColorCode)
	case reconcile.UploadNeeded:
		return lipgloss.Color(uploadColorCode)
	case reconcile.DownloadNeeded:
		return lipgloss.Color(downloadColorCode)
	case reconcile.LocalOnlyNew, reconcile.RemoteOnlyNew:
		return lipgloss.Color(oneSideColorCode)
	default:
		return dimColor()
	}
}

func stateStyle(state reconcile.State) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(stateColor(state))
}

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor()).
		MarginBottom(1)
}

func boxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor()).
		Padding(0, 1)
}

func selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(highlightColor()).
		Bold(true)
}

func dimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(dimColor())
}

func subtleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(subtleColor())
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(errorColor()).
		Bold(true)
}

func headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(highlightColor()).
		Padding(0, 1)
}

func cellStyle() lipgloss.Style {
	return lipgloss.NewStyle().Padding(0, 1)
}
