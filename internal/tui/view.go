package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/drivenav/drivenav/internal/transfer"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("213"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	folderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	helpDescStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Folder: " + m.current.name))
	b.WriteString("\n\n")
	b.WriteString(m.renderList())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	switch m.mode {
	case ModePicker:
		return m.centerOverlay(m.renderPicker())
	case ModeDeleteConfirm:
		prompt := fmt.Sprintf("Delete %q? (y/n)", m.pendingDelete.name)
		return m.centerOverlay(overlayStyle.Render(prompt))
	case ModeQuitConfirm:
		prompt := "Transfers are still running.\nQuit and cancel them? (y/n)"
		return m.centerOverlay(overlayStyle.Render(prompt))
	}
	return b.String()
}

func (m *Model) renderList() string {
	if len(m.rows) == 0 {
		return helpDescStyle.Render("  (loading)")
	}
	var b strings.Builder
	for i, r := range m.rows {
		label := r.name
		switch {
		case r.isParent:
			// Marker label already reads as a path.
		case r.isFolder:
			label += "/"
		default:
			label = fmt.Sprintf("%s (%s)", r.name, humanize.Bytes(uint64(r.size)))
		}
		line := "  " + label
		if i == m.selected {
			line = selectedStyle.Render("> " + label)
		} else if r.isFolder {
			line = folderStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var lines []string

	if m.mode == ModeDestination {
		cursor := " "
		if m.blink {
			cursor = "_"
		}
		lines = append(lines, statusStyle.Render(
			"Download to (empty = current directory): "+m.destBuffer+cursor))
	} else {
		lines = append(lines, statusStyle.Render(m.status))
	}

	if m.hasUpload {
		lines = append(lines, progressLine("Uploading", m.uploadSnap))
	}
	if m.hasDownload {
		lines = append(lines, progressLine("Downloading", m.downloadSnap))
	}

	lines = append(lines, m.renderHelp())
	return strings.Join(lines, "\n")
}

// progressLine formats one job's latest snapshot for the footer.
func progressLine(verb string, s transfer.Snapshot) string {
	var b strings.Builder
	b.WriteString(verb)
	if s.CurrentFile != "" {
		b.WriteString(" ")
		b.WriteString(s.CurrentFile)
	}
	if s.TotalBytes > 0 {
		fmt.Fprintf(&b, "  %s / %s",
			humanize.Bytes(uint64(s.CurrentBytes)), humanize.Bytes(uint64(s.TotalBytes)))
	} else if s.CurrentBytes > 0 {
		fmt.Fprintf(&b, "  %s", humanize.Bytes(uint64(s.CurrentBytes)))
	}
	if s.TotalFiles > 1 {
		fmt.Fprintf(&b, "  (%d/%d files)", s.DoneFiles, s.TotalFiles)
	}
	return statusStyle.Render(b.String())
}

func (m *Model) renderHelp() string {
	pairs := [][2]string{
		{"↑/↓", "move"},
		{"enter", "open"},
		{"b", "back"},
		{"d", "download"},
		{"u", "upload"},
		{"x", "delete"},
		{"r", "refresh"},
		{"q", "quit"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, helpKeyStyle.Render(p[0])+" "+helpDescStyle.Render(p[1]))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderPicker() string {
	p := m.picker
	var b strings.Builder
	b.WriteString(headerStyle.Render("Upload from: " + p.dir))
	b.WriteString("\n\n")
	for i, e := range p.entries {
		label := e.Name
		if e.IsDir && !e.IsParent {
			label += "/"
		}
		line := "  " + label
		if i == p.selected {
			line = selectedStyle.Render("> " + label)
		} else if e.IsDir {
			line = folderStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case p.note != "":
		b.WriteString(statusStyle.Render(p.note))
	case p.selectedPath != "" && m.blink:
		b.WriteString(hintStyle.Render("Press u to upload " + p.selectedPath))
	case p.selectedPath != "":
		b.WriteString("Press u to upload " + p.selectedPath)
	default:
		b.WriteString(helpDescStyle.Render("enter select  →/← navigate  u upload  esc cancel"))
	}
	return overlayStyle.Render(b.String())
}

// centerOverlay places content in the middle of the window when the
// size is known, falling back to plain content during startup.
func (m *Model) centerOverlay(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}
