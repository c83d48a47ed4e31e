package tui

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drivenav/drivenav/internal/logging"
	"github.com/drivenav/drivenav/internal/models"
	"github.com/drivenav/drivenav/internal/transfer"
)

// fakeHub serves listings from a map of folder id to children. The
// empty id is the root.
type fakeHub struct {
	mu      sync.Mutex
	items   map[string][]models.RemoteFile
	deleted []string
	listErr error
	delErr  error
}

func (h *fakeHub) ListFolder(ctx context.Context, folderID string) ([]models.RemoteFile, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listErr != nil {
		return nil, h.listErr
	}
	return h.items[folderID], nil
}

func (h *fakeHub) GetFile(ctx context.Context, fileID string) (*models.RemoteFile, error) {
	return nil, errors.New("unexpected GetFile")
}

func (h *fakeHub) Delete(ctx context.Context, fileID string, recursive bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.delErr != nil {
		return h.delErr
	}
	h.deleted = append(h.deleted, fileID)
	return nil
}

func (h *fakeHub) OpenReadStream(ctx context.Context, fileID string) (io.ReadCloser, error) {
	return nil, errors.New("unexpected OpenReadStream")
}

func (h *fakeHub) Upload(ctx context.Context, content io.ReadSeeker, req models.UploadRequest) (*models.RemoteFile, error) {
	return nil, errors.New("unexpected Upload")
}

func (h *fakeHub) CreateFolder(ctx context.Context, req models.FolderRequest) (*models.RemoteFile, error) {
	return nil, errors.New("unexpected CreateFolder")
}

func (h *fakeHub) GenerateIDs(ctx context.Context, count int) ([]string, error) {
	return nil, errors.New("unexpected GenerateIDs")
}

func newTestModel(hub *fakeHub) *Model {
	logger := logging.NewNopLogger()
	return NewModel(hub, transfer.NewEngine(hub, logger), logger)
}

// load runs the model's listing command synchronously and feeds the
// result back through Update.
func load(t *testing.T, m *Model) {
	t.Helper()
	msg := m.loadItems()()
	if _, ok := msg.(itemsLoadedMsg); !ok {
		t.Fatalf("loadItems produced %T", msg)
	}
	m.Update(msg)
}

func press(m *Model, k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		msg = tea.KeyMsg{Type: tea.KeyBackspace}
	case "space":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	_, cmd := m.Update(msg)
	return cmd
}

func rootItems() map[string][]models.RemoteFile {
	return map[string][]models.RemoteFile{
		"": {
			{ID: "file-2", Name: "zebra.txt", Size: 10},
			{ID: "dir-1", Name: "Photos", IsFolder: true},
			{ID: "file-1", Name: "alpha.txt", Size: 5},
			{ID: "dir-2", Name: "docs", IsFolder: true},
		},
		"dir-1": {
			{ID: "file-3", Name: "cat.jpg", Size: 99},
		},
	}
}

func TestBuildRowsOrdering(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	want := []string{"/..", "docs", "Photos", "alpha.txt", "zebra.txt"}
	if len(m.rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(m.rows), len(want))
	}
	for i, name := range want {
		if m.rows[i].name != name {
			t.Errorf("rows[%d].name = %q, want %q", i, m.rows[i].name, name)
		}
	}

	markers := 0
	for _, r := range m.rows {
		if r.isParent {
			markers++
		}
	}
	if markers != 1 || !m.rows[0].isParent {
		t.Errorf("parent marker count = %d at rows[0].isParent = %v", markers, m.rows[0].isParent)
	}
	if m.selected != 0 {
		t.Errorf("selection = %d after load, want 0", m.selected)
	}
}

func TestSelectionWrapAround(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	press(m, "up")
	if m.selected != len(m.rows)-1 {
		t.Errorf("up from 0 wrapped to %d, want %d", m.selected, len(m.rows)-1)
	}
	press(m, "down")
	if m.selected != 0 {
		t.Errorf("down from last wrapped to %d, want 0", m.selected)
	}
}

func TestOpenFolderAndBack(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	// rows: /.., docs, Photos, ... — select Photos.
	m.selected = 2
	cmd := press(m, "enter")
	if m.current.id != "dir-1" || m.current.name != "Photos" {
		t.Fatalf("current = %+v, want Photos", m.current)
	}
	if len(m.stack) != 1 {
		t.Fatalf("stack depth = %d, want 1", len(m.stack))
	}
	if cmd == nil {
		t.Fatal("opening a folder must trigger a reload")
	}
	m.Update(cmd())

	if len(m.rows) != 2 || m.rows[1].name != "cat.jpg" {
		t.Fatalf("child listing = %+v", m.rows)
	}

	cmd = press(m, "left")
	if m.current.id != "" || m.current.name != "/" {
		t.Errorf("current after back = %+v, want root", m.current)
	}
	if len(m.stack) != 0 {
		t.Errorf("stack depth = %d after back, want 0", len(m.stack))
	}
	if cmd == nil {
		t.Fatal("going back must trigger a reload, not reuse a cached list")
	}
	m.Update(cmd())
	if len(m.rows) != 5 {
		t.Errorf("root listing not restored: %d rows", len(m.rows))
	}
}

func TestOpenParentMarkerGoesBack(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	m.selected = 2
	m.Update(press(m, "enter")())

	m.selected = 0 // the parent marker
	if cmd := press(m, "enter"); cmd == nil {
		t.Fatal("opening the marker must reload the parent")
	}
	if m.current.id != "" {
		t.Errorf("current = %+v, want root", m.current)
	}
}

func TestBackAtRoot(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	before := m.current
	if cmd := press(m, "b"); cmd != nil {
		t.Error("back at root must not reload")
	}
	if m.status != "Already at root" {
		t.Errorf("status = %q, want %q", m.status, "Already at root")
	}
	if m.current != before {
		t.Errorf("current changed: %+v", m.current)
	}
}

func TestOpenFileRejected(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	m.selected = 3 // alpha.txt
	if cmd := press(m, "enter"); cmd != nil {
		t.Error("opening a file must not reload")
	}
	if m.status != "Not a folder" {
		t.Errorf("status = %q, want %q", m.status, "Not a folder")
	}
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want normal", m.mode)
	}
}

func TestStaleListingDropped(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	// Capture the root reload, then navigate into Photos before the
	// response lands.
	stale := m.loadItems()
	m.selected = 2
	m.Update(press(m, "enter")())
	child := len(m.rows)

	m.Update(stale())
	if len(m.rows) != child || m.rows[1].name != "cat.jpg" {
		t.Errorf("stale root listing replaced the child rows: %+v", m.rows)
	}
}

func TestStaleListingErrorDropped(t *testing.T) {
	hub := &fakeHub{items: rootItems()}
	m := newTestModel(hub)
	load(t, m)

	hub.mu.Lock()
	hub.listErr = errors.New("slow shard")
	hub.mu.Unlock()
	staleMsg := m.loadItems()()
	hub.mu.Lock()
	hub.listErr = nil
	hub.mu.Unlock()

	m.selected = 2
	m.Update(press(m, "enter")())
	m.status = "Ready"

	m.Update(staleMsg)
	if m.status != "Ready" {
		t.Errorf("status = %q, stale error must not surface", m.status)
	}
}

func TestLoadErrorKeepsRows(t *testing.T) {
	hub := &fakeHub{items: rootItems()}
	m := newTestModel(hub)
	load(t, m)
	rows := len(m.rows)

	hub.mu.Lock()
	hub.listErr = errors.New("hub is down")
	hub.mu.Unlock()

	m.Update(m.loadItems()())
	if !strings.HasPrefix(m.status, "Error:") {
		t.Errorf("status = %q, want an error", m.status)
	}
	if len(m.rows) != rows {
		t.Error("failed reload must keep the previous rows")
	}
}

func TestDestinationPromptEditing(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	m.selected = 3 // alpha.txt
	press(m, "d")
	if m.mode != ModeDestination {
		t.Fatalf("mode = %v, want destination prompt", m.mode)
	}
	if m.destBuffer != "" {
		t.Errorf("buffer not cleared on entry: %q", m.destBuffer)
	}

	for _, k := range []string{"/", "t", "m", "p", "space", "x"} {
		press(m, k)
	}
	if m.destBuffer != "/tmp x" {
		t.Errorf("buffer = %q, want %q", m.destBuffer, "/tmp x")
	}

	press(m, "backspace")
	press(m, "backspace")
	if m.destBuffer != "/tmp" {
		t.Errorf("buffer after backspace = %q, want %q", m.destBuffer, "/tmp")
	}

	press(m, "esc")
	if m.mode != ModeNormal {
		t.Errorf("mode = %v after esc, want normal", m.mode)
	}
	if m.status != "Cancelled" {
		t.Errorf("status = %q, want %q", m.status, "Cancelled")
	}
}

func TestDeleteConfirmFlow(t *testing.T) {
	hub := &fakeHub{items: rootItems()}
	m := newTestModel(hub)
	load(t, m)

	// The parent marker is not a deletable entity.
	m.selected = 0
	press(m, "x")
	if m.mode != ModeNormal || m.status != "Cannot delete parent entry" {
		t.Errorf("mode=%v status=%q after deleting the marker", m.mode, m.status)
	}

	m.selected = 3 // alpha.txt
	press(m, "x")
	if m.mode != ModeDeleteConfirm {
		t.Fatalf("mode = %v, want delete confirm", m.mode)
	}
	if m.pendingDelete.id != "file-1" {
		t.Errorf("pendingDelete = %+v", m.pendingDelete)
	}

	// Declining leaves the hub untouched.
	press(m, "n")
	if m.mode != ModeNormal {
		t.Errorf("mode = %v after decline", m.mode)
	}
	if len(hub.deleted) != 0 {
		t.Errorf("decline still deleted: %v", hub.deleted)
	}

	// Confirming deletes and reloads.
	press(m, "x")
	cmd := press(m, "y")
	if len(hub.deleted) != 1 || hub.deleted[0] != "file-1" {
		t.Errorf("deleted = %v, want [file-1]", hub.deleted)
	}
	if cmd == nil {
		t.Error("successful delete must trigger a reload")
	}
}

func TestDeleteWithoutIDRejected(t *testing.T) {
	hub := &fakeHub{items: map[string][]models.RemoteFile{
		"": {{Name: "phantom.txt"}},
	}}
	m := newTestModel(hub)
	load(t, m)

	m.selected = 1 // phantom.txt, no remote id
	press(m, "x")
	if m.mode != ModeNormal || m.status != "Missing file id" {
		t.Errorf("mode=%v status=%q, want normal mode and missing-id status", m.mode, m.status)
	}
}

func TestDeleteFailureKeepsListing(t *testing.T) {
	hub := &fakeHub{items: rootItems(), delErr: errors.New("forbidden")}
	m := newTestModel(hub)
	load(t, m)

	m.selected = 3
	press(m, "x")
	if cmd := press(m, "y"); cmd != nil {
		t.Error("failed delete must not reload")
	}
	if !strings.HasPrefix(m.status, "Delete failed:") {
		t.Errorf("status = %q", m.status)
	}
}

func TestQuitWithoutJobs(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	cmd := press(m, "q")
	if cmd == nil {
		t.Fatal("quit with no jobs must return a command")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("quit command produced %T, want tea.QuitMsg", msg)
	}
}

func TestDownloadWhileActiveRejected(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	// Occupy the download slot with a job that fails fast; the status
	// gate is checked before the prompt opens.
	if err := m.engine.StartDownload(models.RemoteFile{ID: "file-1"}, ""); err != nil {
		t.Fatalf("StartDownload: %v", err)
	}

	press(m, "d")
	if m.mode != ModeNormal {
		t.Errorf("mode = %v, want normal", m.mode)
	}
	if m.status != "Download already in progress" {
		t.Errorf("status = %q", m.status)
	}

	<-m.engine.DownloadJob().Done()
}

func TestQuitConfirmGating(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	if err := m.engine.StartDownload(models.RemoteFile{ID: "file-1"}, ""); err != nil {
		t.Fatalf("StartDownload: %v", err)
	}

	cmd := press(m, "q")
	if m.mode != ModeQuitConfirm {
		t.Fatalf("mode = %v, want quit confirm", m.mode)
	}
	if cmd != nil {
		t.Error("quit with active jobs must not quit immediately")
	}

	press(m, "y")
	if !m.exitRequested {
		t.Error("confirming quit must request exit")
	}
	if m.mode != ModeNormal {
		t.Errorf("mode = %v after confirm", m.mode)
	}

	job := m.engine.DownloadJob()
	<-job.Done()
}

func TestStartErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"upload slot busy", transfer.ErrUploadActive, "Upload already in progress"},
		{"download slot busy", transfer.ErrDownloadActive, "Download already in progress"},
		{"folder selected", transfer.ErrNotAFile, "Cannot download a folder"},
		{"no id", transfer.ErrMissingID, "Missing file id"},
		{"other", errors.New("hub melted"), "Error: hub melted"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := startErrorStatus(tt.err); got != tt.want {
				t.Errorf("startErrorStatus(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestPickerUploadWithoutSelection(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	p, err := newPicker(t.TempDir())
	if err != nil {
		t.Fatalf("newPicker: %v", err)
	}
	m.picker = p
	m.mode = ModePicker

	// An empty directory leaves only the parent marker highlighted.
	press(m, "u")
	if m.mode != ModePicker {
		t.Errorf("mode = %v, want the picker to stay open", m.mode)
	}
	if m.status != "No selection to upload" {
		t.Errorf("status = %q, want %q", m.status, "No selection to upload")
	}
	if p.note != "No selection to upload" {
		t.Errorf("picker note = %q, want the rejection shown in the overlay", p.note)
	}
}

func TestQuitConfirmDeclined(t *testing.T) {
	m := newTestModel(&fakeHub{items: rootItems()})
	load(t, m)

	if err := m.engine.StartDownload(models.RemoteFile{ID: "file-1"}, ""); err != nil {
		t.Fatalf("StartDownload: %v", err)
	}

	press(m, "q")
	press(m, "n")
	if m.exitRequested {
		t.Error("declining quit must not request exit")
	}
	if m.mode != ModeNormal {
		t.Errorf("mode = %v after decline", m.mode)
	}

	<-m.engine.DownloadJob().Done()
}
