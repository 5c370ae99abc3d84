// Package tui renders the interactive world picker and the headless sync table.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/session"
	"github.com/joe/worldsync/internal/transfer"
	pkgerrors "github.com/joe/worldsync/pkg/errors"
)

// Syncer is the part of a session the picker drives.
type Syncer interface {
	Scan(ctx context.Context) (*session.Snapshot, error)
	SyncWorld(ctx context.Context, world reconcile.World, dir reconcile.Direction) ([]transfer.Result, error)
}

type phase int

const (
	phaseScanning phase = iota
	phaseBrowsing
	phaseSyncing
)

// Model represents the TUI state
type Model struct {
	ctx      context.Context //nolint:containedctx // bubbletea commands need the run's context
	syncer   Syncer
	enricher pkgerrors.Enricher

	snapshot *session.Snapshot
	cursor   int
	// selected keeps the cursor on the same world across rescans.
	selected string

	phase   phase
	status  string
	err     error
	pending bool // the selected world needs u or d

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	width   int
	height  int
}

// scanDoneMsg carries the result of a scan.
type scanDoneMsg struct {
	snapshot *session.Snapshot
	err      error
}

// syncDoneMsg carries the result of syncing one world.
type syncDoneMsg struct {
	world   string
	dir     reconcile.Direction
	results []transfer.Result
	err     error
}

// NewModel creates a new TUI model. notice is shown until the first action, e.g. to
// report that a world named on the command line does not exist.
func NewModel(ctx context.Context, syncer Syncer, notice string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor())

	return Model{
		ctx:      ctx,
		syncer:   syncer,
		enricher: pkgerrors.NewEnricher(),
		phase:    phaseScanning,
		status:   notice,
		spinner:  s,
		help:     help.New(),
		keys:     defaultKeyMap(),
	}
}

// Init starts the spinner and the first scan
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.scanCmd())
}

func (m Model) scanCmd() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.syncer.Scan(m.ctx)
		return scanDoneMsg{snapshot: snapshot, err: err}
	}
}

func (m Model) syncCmd(world reconcile.World, dir reconcile.Direction) tea.Cmd {
	return func() tea.Msg {
		results, err := m.syncer.SyncWorld(m.ctx, world, dir)
		return syncDoneMsg{world: world.Name, dir: dir, results: results, err: err}
	}
}

// Worlds returns the worlds of the latest scan.
func (m Model) Worlds() []reconcile.World {
	if m.snapshot == nil {
		return nil
	}

	return m.snapshot.Worlds
}

// Selected returns the world under the cursor.
func (m Model) Selected() (reconcile.World, bool) {
	worlds := m.Worlds()
	if m.cursor < 0 || m.cursor >= len(worlds) {
		return reconcile.World{}, false
	}

	return worlds[m.cursor], true
}

// Status returns the message shown under the table.
func (m Model) Status() string {
	return m.status
}

// Err returns the last error, enriched with suggestions.
func (m Model) Err() error {
	return m.err
}

// Busy reports whether a scan or transfer is running.
func (m Model) Busy() bool {
	return m.phase != phaseBrowsing
}
