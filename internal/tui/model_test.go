package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joe/worldsync/internal/catalog"
	"github.com/joe/worldsync/internal/reconcile"
	"github.com/joe/worldsync/internal/session"
	"github.com/joe/worldsync/internal/transfer"
	pkgerrors "github.com/joe/worldsync/pkg/errors"
)

var base = time.Date(2021, 8, 14, 18, 0, 0, 0, time.UTC)

type syncCall struct {
	world string
	dir   reconcile.Direction
}

type fakeSyncer struct {
	snapshot *session.Snapshot
	scanErr  error
	results  []transfer.Result
	syncErr  error
	scans    int
	calls    []syncCall
}

func (f *fakeSyncer) Scan(context.Context) (*session.Snapshot, error) {
	f.scans++
	return f.snapshot, f.scanErr
}

func (f *fakeSyncer) SyncWorld(_ context.Context, world reconcile.World, dir reconcile.Direction) ([]transfer.Result, error) {
	f.calls = append(f.calls, syncCall{world: world.Name, dir: dir})
	return f.results, f.syncErr
}

func entry(id string, offset time.Duration) catalog.FileEntry {
	return catalog.FileEntry{Identity: id, ModifiedAt: base.Add(offset), Size: 1024, Location: "/" + id}
}

// fixtureSnapshot holds Forest (upload needed), Meadow (in sync) and Plains (remote only).
func fixtureSnapshot() *session.Snapshot {
	local := catalog.Catalog{
		"Forest.db":  entry("Forest.db", time.Hour),
		"Forest.fwl": entry("Forest.fwl", time.Hour),
		"Meadow.db":  entry("Meadow.db", 0),
	}
	remote := catalog.Catalog{
		"Forest.db": entry("Forest.db", 0),
		"Meadow.db": entry("Meadow.db", 0),
		"Plains.db": entry("Plains.db", 0),
	}

	records := reconcile.Reconcile(local, remote, reconcile.DefaultTolerance)

	return &session.Snapshot{
		Records:    records,
		Worlds:     reconcile.Group(records, reconcile.DefaultTolerance),
		LocalName:  "/worlds_local",
		RemoteName: "s3://saves/valheim",
		ScannedAt:  base.Add(2 * time.Hour),
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// run executes a command and every command it batches, returning the messages that are
// not spinner ticks.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	msg := cmd()

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}

		return out
	}

	if _, tick := msg.(spinner.TickMsg); tick {
		return nil
	}

	return []tea.Msg{msg}
}

var _ = Describe("Model", func() {
	var (
		syncer *fakeSyncer
		model  Model
	)

	browse := func() {
		var msgs []tea.Msg
		for _, msg := range run(model.Init()) {
			if _, ok := msg.(scanDoneMsg); ok {
				msgs = append(msgs, msg)
			}
		}
		Expect(msgs).To(HaveLen(1))
		model, _ = send(model, msgs[0])
	}

	// settle delivers the messages produced by cmd until the model is browsing again.
	var settle func(cmd tea.Cmd)
	settle = func(cmd tea.Cmd) {
		for _, msg := range run(cmd) {
			switch msg.(type) {
			case scanDoneMsg, syncDoneMsg:
				var next tea.Cmd
				model, next = send(model, msg)
				settle(next)
			}
		}
	}

	BeforeEach(func() {
		syncer = &fakeSyncer{snapshot: fixtureSnapshot()}
		model = NewModel(context.Background(), syncer, "")
	})

	Describe("Scanning", func() {
		It("starts busy and scans on init", func() {
			Expect(model.Busy()).To(BeTrue())
			browse()
			Expect(syncer.scans).To(Equal(1))
			Expect(model.Busy()).To(BeFalse())
			Expect(model.Worlds()).To(HaveLen(3))
		})

		It("shows scan failures with suggestions", func() {
			syncer.scanErr = errors.New("dial tcp 10.0.0.2:22: connect: connection refused")
			browse()

			var actionable pkgerrors.ActionableError
			Expect(errors.As(model.Err(), &actionable)).To(BeTrue())
			Expect(actionable.Category()).To(Equal(pkgerrors.CategoryNetwork))
			Expect(model.View()).To(ContainSubstring("connection refused"))
		})

		It("keeps the selected world across rescans", func() {
			browse()
			model, _ = send(model, keyPress("down"))
			model, _ = send(model, keyPress("down"))
			selected, _ := model.Selected()
			Expect(selected.Name).To(Equal("Plains"))

			var cmd tea.Cmd
			model, cmd = send(model, keyPress("r"))
			Expect(model.Busy()).To(BeTrue())
			settle(cmd)
			selected, _ = model.Selected()
			Expect(selected.Name).To(Equal("Plains"))
		})
	})

	Describe("Navigation", func() {
		BeforeEach(browse)

		It("moves the cursor and wraps around", func() {
			first, _ := model.Selected()
			Expect(first.Name).To(Equal("Forest"))

			model, _ = send(model, keyPress("j"))
			second, _ := model.Selected()
			Expect(second.Name).To(Equal("Meadow"))

			model, _ = send(model, keyPress("k"))
			model, _ = send(model, keyPress("up"))
			last, _ := model.Selected()
			Expect(last.Name).To(Equal("Plains"))
		})

		It("quits on q", func() {
			_, cmd := send(model, keyPress("q"))
			Expect(cmd).NotTo(BeNil())
			Expect(cmd()).To(Equal(tea.Quit()))
		})
	})

	Describe("Syncing", func() {
		BeforeEach(browse)

		It("syncs the implied direction on enter and rescans", func() {
			syncer.results = []transfer.Result{
				{Identity: "Forest.db", Action: transfer.ActionUpload, Bytes: 1024},
				{Identity: "Forest.fwl", Action: transfer.ActionUpload, Bytes: 1024},
			}

			var cmd tea.Cmd
			model, cmd = send(model, keyPress("enter"))
			Expect(model.Busy()).To(BeTrue())

			settle(cmd)
			Expect(syncer.calls).To(Equal([]syncCall{{world: "Forest", dir: reconcile.Auto}}))
			Expect(syncer.scans).To(Equal(2))
			Expect(model.Busy()).To(BeFalse())
			Expect(model.Status()).To(ContainSubstring("Forest: upload 2 file(s)"))
		})

		It("does nothing for a world already in sync", func() {
			model, _ = send(model, keyPress("down"))
			var cmd tea.Cmd
			model, cmd = send(model, keyPress("enter"))

			Expect(cmd).To(BeNil())
			Expect(syncer.calls).To(BeEmpty())
			Expect(model.Status()).To(ContainSubstring("Meadow is already in sync"))
		})

		It("asks for a direction when only one side has the world", func() {
			model, _ = send(model, keyPress("up"))
			var cmd tea.Cmd
			model, cmd = send(model, keyPress("enter"))

			Expect(cmd).To(BeNil())
			Expect(syncer.calls).To(BeEmpty())
			Expect(model.Status()).To(ContainSubstring("press u to upload or d to download"))

			model, cmd = send(model, keyPress("d"))
			settle(cmd)
			Expect(syncer.calls).To(Equal([]syncCall{{world: "Plains", dir: reconcile.Download}}))
		})

		It("reports transfer failures and still rescans", func() {
			syncer.syncErr = errors.New("write /worlds_local/.Forest.db.tmp: no space left on device")

			var cmd tea.Cmd
			model, cmd = send(model, keyPress("u"))
			settle(cmd)

			var actionable pkgerrors.ActionableError
			Expect(errors.As(model.Err(), &actionable)).To(BeTrue())
			Expect(actionable.Category()).To(Equal(pkgerrors.CategoryDiskSpace))
			Expect(syncer.scans).To(Equal(2))
			Expect(model.Status()).To(ContainSubstring("0 file(s) synced before the failure"))
		})

		It("ignores keys while a transfer runs", func() {
			var cmd tea.Cmd
			model, cmd = send(model, keyPress("enter"))
			Expect(cmd).NotTo(BeNil())

			model, cmd = send(model, keyPress("d"))
			Expect(cmd).To(BeNil())
			Expect(syncer.calls).To(BeEmpty())
		})
	})

	Describe("Layout", func() {
		It("keeps columns aligned on the highlighted row", func() {
			lipgloss.SetColorProfile(termenv.ANSI256)
			DeferCleanup(lipgloss.SetColorProfile, termenv.Ascii)

			browse()
			lines := strings.Split(model.renderWorlds(), "\n")
			Expect(lines).To(HaveLen(3))
			Expect(lines[0]).To(ContainSubstring("\x1b["))

			columns := make([]int, 0, len(lines))
			for _, line := range lines {
				idx := strings.Index(line, "  local ")
				Expect(idx).To(BeNumerically(">", 0))
				columns = append(columns, lipgloss.Width(line[:idx]))
			}

			Expect(columns).To(HaveEach(columns[0]))
		})
	})

	Describe("View", func() {
		It("renders each world with its state", func() {
			browse()
			view := model.View()

			Expect(view).To(ContainSubstring("/worlds_local"))
			Expect(view).To(ContainSubstring("Forest"))
			Expect(view).To(ContainSubstring("upload needed"))
			Expect(view).To(ContainSubstring("in sync"))
			Expect(view).To(ContainSubstring("remote only"))
		})

		It("shows the start-up notice", func() {
			model = NewModel(context.Background(), syncer, `world "Ashlands" not found`)
			browse()
			Expect(model.View()).To(ContainSubstring(`world "Ashlands" not found`))
		})
	})
})
