// Package tui implements the interactive browser: a modal navigation
// state machine over hub folders, driving the transfer engine and
// rendering through bubbletea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drivenav/drivenav/internal/logging"
	"github.com/drivenav/drivenav/internal/models"
	"github.com/drivenav/drivenav/internal/transfer"
)

// Mode is the active input mode. Exactly one mode is active at a time.
type Mode int

const (
	ModeNormal Mode = iota
	ModeDestination
	ModePicker
	ModeDeleteConfirm
	ModeQuitConfirm
)

const (
	tickInterval  = 250 * time.Millisecond
	blinkInterval = 500 * time.Millisecond
)

// frame is one entry in the folder ancestry stack. An empty id means
// the hub root.
type frame struct {
	id   string
	name string
}

// row is one visible listing entry. The parent marker is synthesized
// during row building from navigation depth; it never comes from the
// hub and handlers branch on isParent, not on id emptiness.
type row struct {
	id       string
	name     string
	isFolder bool
	size     int64
	isParent bool
}

// Messages delivered back into Update. A listing result carries the
// folder it was fetched for, so a slow response cannot clobber a
// folder the user has since navigated away from.
type itemsLoadedMsg struct {
	folderID string
	rows     []row
	err      error
}

type tickMsg time.Time

// Model is the bubbletea model for the browser.
type Model struct {
	hub    transfer.Hub
	engine *transfer.Engine
	logger *logging.Logger
	keys   KeyMap

	mode     Mode
	current  frame
	stack    []frame
	rows     []row
	selected int

	destBuffer    string
	pendingDelete row
	picker        *picker
	exitRequested bool

	status string
	blink  bool

	uploadSnap    transfer.Snapshot
	hasUpload     bool
	downloadSnap  transfer.Snapshot
	hasDownload   bool
	width, height int
}

// NewModel creates a browser rooted at the hub root.
func NewModel(hub transfer.Hub, engine *transfer.Engine, logger *logging.Logger) *Model {
	return &Model{
		hub:     hub,
		engine:  engine,
		logger:  logger,
		keys:    DefaultKeyMap(),
		current: frame{name: "/"},
		status:  "Ready",
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadItems(), tick())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.mode {
		case ModeDestination:
			return m.updateDestination(msg)
		case ModePicker:
			return m.updatePicker(msg)
		case ModeDeleteConfirm:
			return m.updateDeleteConfirm(msg)
		case ModeQuitConfirm:
			return m.updateQuitConfirm(msg)
		default:
			return m.updateNormal(msg)
		}

	case itemsLoadedMsg:
		if msg.folderID != m.current.id {
			// Stale result for a folder no longer shown.
			return m, nil
		}
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.rows = msg.rows
		m.selected = 0
		return m, nil

	case tickMsg:
		return m.updateTick(time.Time(msg))

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

// updateTick runs the per-tick housekeeping: reconcile finished jobs,
// drain progress snapshots, toggle the blink phase, and exit once an
// exit request has no jobs left holding it back.
func (m *Model) updateTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tick()}

	m.blink = now.UnixMilli()/int64(blinkInterval/time.Millisecond)%2 == 0

	for _, res := range m.engine.Reconcile() {
		m.status = statusForResult(res)
		if res.Kind == transfer.KindUpload {
			m.hasUpload = false
			if res.Err == nil {
				cmds = append(cmds, m.loadItems())
			}
		} else {
			m.hasDownload = false
		}
	}

	if job := m.engine.UploadJob(); job != nil {
		if snap, ok := job.Latest(); ok {
			m.uploadSnap = snap
			m.hasUpload = true
		}
	}
	if job := m.engine.DownloadJob(); job != nil {
		if snap, ok := job.Latest(); ok {
			m.downloadSnap = snap
			m.hasDownload = true
		}
	}

	if m.exitRequested && !m.engine.Active() {
		return m, tea.Quit
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)

	case key.Matches(msg, m.keys.Open):
		return m.openSelected()

	case key.Matches(msg, m.keys.Back):
		return m.goBack()

	case key.Matches(msg, m.keys.Download):
		if m.engine.DownloadJob() != nil {
			m.status = "Download already in progress"
			return m, nil
		}
		m.destBuffer = ""
		m.mode = ModeDestination

	case key.Matches(msg, m.keys.Upload):
		if m.engine.UploadJob() != nil {
			m.status = "Upload already in progress"
			return m, nil
		}
		dir, err := os.Getwd()
		if err != nil {
			m.status = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		p, err := newPicker(dir)
		if err != nil {
			m.status = fmt.Sprintf("Error: %v", err)
			return m, nil
		}
		m.picker = p
		m.mode = ModePicker

	case key.Matches(msg, m.keys.Delete):
		sel, ok := m.selectedRow()
		if !ok || sel.isParent {
			m.status = "Cannot delete parent entry"
			return m, nil
		}
		if sel.id == "" {
			m.status = "Missing file id"
			return m, nil
		}
		m.pendingDelete = sel
		m.mode = ModeDeleteConfirm

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadItems()

	case key.Matches(msg, m.keys.Quit):
		if !m.engine.Active() {
			return m, tea.Quit
		}
		m.mode = ModeQuitConfirm
	}
	return m, nil
}

func (m *Model) updateDestination(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeNormal
		m.status = "Cancelled"

	case tea.KeyEnter:
		m.mode = ModeNormal
		m.startDownload(strings.TrimSpace(m.destBuffer))

	case tea.KeyBackspace:
		if len(m.destBuffer) > 0 {
			runes := []rune(m.destBuffer)
			m.destBuffer = string(runes[:len(runes)-1])
		}

	case tea.KeySpace:
		m.destBuffer += " "

	case tea.KeyRunes:
		// Alt- and ctrl-modified input never reaches the buffer.
		if !msg.Alt {
			m.destBuffer += string(msg.Runes)
		}
	}
	return m, nil
}

func (m *Model) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = ModeNormal
		target := m.pendingDelete
		if err := m.hub.Delete(context.Background(), target.id, target.isFolder); err != nil {
			m.status = fmt.Sprintf("Delete failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Deleted %s", target.name)
		return m, m.loadItems()

	case key.Matches(msg, m.keys.Reject), key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.mode = ModeNormal
		m.status = "Cancelled"
	}
	return m, nil
}

func (m *Model) updateQuitConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) {
		m.exitRequested = true
		m.engine.CancelAll()
		m.mode = ModeNormal
		m.status = "Waiting for transfers to stop"
		return m, nil
	}
	m.mode = ModeNormal
	return m, nil
}

// moveSelection moves the highlight with wrap-around.
func (m *Model) moveSelection(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.rows)) % len(m.rows)
}

func (m *Model) selectedRow() (row, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.selected], true
}

// openSelected descends into a folder, ascends on the parent marker,
// and rejects file rows with a status message.
func (m *Model) openSelected() (tea.Model, tea.Cmd) {
	sel, ok := m.selectedRow()
	if !ok {
		return m, nil
	}
	if sel.isParent {
		return m.goBack()
	}
	if !sel.isFolder {
		m.status = "Not a folder"
		return m, nil
	}
	m.stack = append(m.stack, m.current)
	m.current = frame{id: sel.id, name: sel.name}
	return m, m.loadItems()
}

// goBack pops one ancestry frame. At the root it changes nothing.
func (m *Model) goBack() (tea.Model, tea.Cmd) {
	if len(m.stack) == 0 {
		m.status = "Already at root"
		return m, nil
	}
	m.current = m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return m, m.loadItems()
}

// startDownload commits the destination prompt. Start failures flow
// into the status line; the prompt never blocks on them.
func (m *Model) startDownload(dest string) {
	sel, ok := m.selectedRow()
	if !ok {
		m.status = "Missing file id"
		return
	}
	item := models.RemoteFile{ID: sel.id, Name: sel.name, IsFolder: sel.isFolder || sel.isParent}
	if err := m.engine.StartDownload(item, dest); err != nil {
		m.status = startErrorStatus(err)
		return
	}
	m.status = "Download started"
}

// startUpload launches an upload of path into the current folder.
func (m *Model) startUpload(path string) {
	if err := m.engine.StartUpload(path, m.current.id); err != nil {
		m.status = startErrorStatus(err)
		return
	}
	m.status = "Upload started"
}

// loadItems fetches the current folder's children off the interaction
// loop and rebuilds the row list wholesale.
func (m *Model) loadItems() tea.Cmd {
	folderID := m.current.id
	return func() tea.Msg {
		items, err := m.hub.ListFolder(context.Background(), folderID)
		if err != nil {
			return itemsLoadedMsg{folderID: folderID, err: err}
		}
		return itemsLoadedMsg{folderID: folderID, rows: buildRows(items)}
	}
}

// buildRows is the single place listing order is established: folders
// before files, case-insensitive name ascending with fetch order
// breaking ties, and the synthetic parent marker first.
func buildRows(items []models.RemoteFile) []row {
	rows := make([]row, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, row{
			id:       it.ID,
			name:     it.Name,
			isFolder: it.IsFolder,
			size:     it.Size,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].isFolder != rows[j].isFolder {
			return rows[i].isFolder
		}
		return strings.ToLower(rows[i].name) < strings.ToLower(rows[j].name)
	})
	return append([]row{{name: "/..", isFolder: true, isParent: true}}, rows...)
}

// statusForResult translates a reconciled job outcome into the status
// line. Cancellation and integrity failures read differently from
// generic transport errors.
func statusForResult(res transfer.Result) string {
	verb := "Download"
	if res.Kind == transfer.KindUpload {
		verb = "Upload"
	}
	switch {
	case res.Err == nil:
		return verb + " completed"
	case transfer.IsCancelled(res.Err):
		return verb + " cancelled"
	default:
		return fmt.Sprintf("%s failed: %v", verb, res.Err)
	}
}

// startErrorStatus maps synchronous start rejections to status text.
func startErrorStatus(err error) string {
	switch {
	case errors.Is(err, transfer.ErrNotAFile):
		return "Cannot download a folder"
	case errors.Is(err, transfer.ErrMissingID):
		return "Missing file id"
	case errors.Is(err, transfer.ErrUploadActive):
		return "Upload already in progress"
	case errors.Is(err, transfer.ErrDownloadActive):
		return "Download already in progress"
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
