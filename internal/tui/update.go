package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/transfer"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case scanDoneMsg:
		return m.handleScanDone(msg), nil

	case syncDoneMsg:
		return m.handleSyncDone(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Transfers are not interruptible from the picker; wait for them.
	if m.Busy() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Rescan):
		return m.startScan()
	case key.Matches(msg, m.keys.Sync):
		return m.startSync(reconcile.Auto)
	case key.Matches(msg, m.keys.Upload):
		return m.startSync(reconcile.Upload)
	case key.Matches(msg, m.keys.Download):
		return m.startSync(reconcile.Download)
	}

	return m, nil
}

func (m *Model) move(delta int) {
	worlds := m.Worlds()
	if len(worlds) == 0 {
		return
	}

	m.cursor = (m.cursor + delta + len(worlds)) % len(worlds)
	m.selected = worlds[m.cursor].Name
	m.pending = false
}

func (m Model) startScan() (tea.Model, tea.Cmd) {
	m.phase = phaseScanning

	return m, tea.Batch(m.spinner.Tick, m.scanCmd())
}

func (m Model) startSync(dir reconcile.Direction) (tea.Model, tea.Cmd) {
	world, ok := m.Selected()
	if !ok {
		return m, nil
	}

	if dir == reconcile.Auto {
		if world.State == reconcile.InSync {
			m.status = world.Name + " is already in sync"
			return m, nil
		}

		if _, ok := world.ImpliedDirection(); !ok {
			m.pending = true
			m.status = fmt.Sprintf("%s is %s: press u to upload or d to download", world.Name, world.State)

			return m, nil
		}
	}

	m.phase = phaseSyncing
	m.pending = false
	m.err = nil
	m.status = fmt.Sprintf("Syncing %s...", world.Name)

	return m, tea.Batch(m.spinner.Tick, m.syncCmd(world, dir))
}

func (m Model) handleScanDone(msg scanDoneMsg) Model {
	m.phase = phaseBrowsing

	if msg.err != nil {
		m.err = m.enricher.Enrich(msg.err, "")
		return m
	}

	m.snapshot = msg.snapshot
	m.cursor = 0

	for i, world := range m.Worlds() {
		if world.Name == m.selected {
			m.cursor = i
			break
		}
	}

	if world, ok := m.Selected(); ok {
		m.selected = world.Name
	}

	return m
}

func (m Model) handleSyncDone(msg syncDoneMsg) (tea.Model, tea.Cmd) {
	var moved int64
	for _, result := range msg.results {
		moved += result.Bytes
	}

	label := msg.dir.String()
	if len(msg.results) > 0 {
		label = string(msg.results[0].Action)
	}

	switch {
	case msg.err == nil:
		m.status = fmt.Sprintf("%s: %s %d file(s), %s", msg.world, label, len(msg.results), humanize.Bytes(uint64(max(moved, 0))))
	case errors.Is(msg.err, transfer.ErrDirectionRequired) || errors.Is(msg.err, transfer.ErrDirectionMismatch):
		m.pending = true
		m.status = msg.err.Error()
	default:
		m.status = fmt.Sprintf("%s: %d file(s) synced before the failure", msg.world, len(msg.results))
		m.err = m.enricher.Enrich(msg.err, "")
	}

	// Always rescan so the table reflects what actually happened.
	return m.startScan()
}
