package tui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/drivenav/drivenav/internal/localfs"
)

// picker is the local filesystem browser shown while choosing what to
// upload. Selecting a file marks it as pending; "u" commits either the
// pending selection or the highlighted entry.
type picker struct {
	dir          string
	entries      []localfs.Entry
	selected     int
	selectedPath string
	note         string
}

func newPicker(dir string) (*picker, error) {
	p := &picker{dir: dir}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *picker) load() error {
	entries, err := localfs.List(p.dir)
	if err != nil {
		return err
	}
	p.entries = entries
	p.selected = 0
	return nil
}

func (p *picker) highlighted() (localfs.Entry, bool) {
	if p.selected < 0 || p.selected >= len(p.entries) {
		return localfs.Entry{}, false
	}
	return p.entries[p.selected], true
}

func (p *picker) move(delta int) {
	if len(p.entries) == 0 {
		return
	}
	p.selected = (p.selected + delta + len(p.entries)) % len(p.entries)
}

// ascend moves to the parent directory. At the filesystem root the
// parent is the root itself, so this is a no-op there.
func (p *picker) ascend() error {
	p.dir = filepath.Dir(p.dir)
	return p.load()
}

// descend enters the highlighted entry when it is a directory or the
// parent marker.
func (p *picker) descend() error {
	entry, ok := p.highlighted()
	if !ok || !entry.IsDir {
		return nil
	}
	p.dir = entry.Path
	return p.load()
}

// updatePicker handles keys while the upload picker is open.
func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.picker
	p.note = ""
	switch {
	case key.Matches(msg, m.keys.Up):
		p.move(-1)

	case key.Matches(msg, m.keys.Down):
		p.move(1)

	case key.Matches(msg, m.keys.Back):
		if err := p.ascend(); err != nil {
			m.status = fmt.Sprintf("Error: %v", err)
		}

	case msg.Type == tea.KeyRight:
		if err := p.descend(); err != nil {
			m.status = fmt.Sprintf("Error: %v", err)
		}

	case msg.Type == tea.KeyEnter:
		entry, ok := p.highlighted()
		if !ok {
			return m, nil
		}
		if entry.IsDir {
			if err := p.descend(); err != nil {
				m.status = fmt.Sprintf("Error: %v", err)
			}
			return m, nil
		}
		p.selectedPath = entry.Path

	case key.Matches(msg, m.keys.Upload):
		path := p.selectedPath
		if path == "" {
			entry, ok := p.highlighted()
			if !ok || entry.IsParent {
				p.note = "No selection to upload"
				m.status = "No selection to upload"
				return m, nil
			}
			path = entry.Path
		}
		m.mode = ModeNormal
		m.picker = nil
		m.startUpload(path)

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Quit):
		m.mode = ModeNormal
		m.picker = nil
		m.status = "Cancelled"
	}
	return m, nil
}
