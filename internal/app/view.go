package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"peacock/internal/sanitizer"
	"peacock/internal/types"
)

func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenLogin, screenRegister:
		body = m.formView()
	case screenNotes:
		body = m.notesView()
	case screenDetail:
		body = m.detail.View()
	case screenEditor:
		body = m.editorView()
	}
	if m.confirmDeleteID != "" {
		body = m.confirmView()
	}
	body = lipgloss.NewStyle().Height(m.contentHeight()).MaxHeight(m.contentHeight()).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerLine(),
		body,
		m.statusLine(),
		helpStyle.Render(xansi.Truncate(m.helpText(), m.width, "…")),
		m.toastLine(m.width),
	)
}

func (m *Model) headerLine() string {
	title := headerStyle.Render("peacock")
	if m.profile != nil {
		title += statusStyle.Render("  " + sanitizer.SanitizeLine(m.profile.Name+" <"+m.profile.Email+">"))
	}
	return title + "\n" + dividerStyle.Render(strings.Repeat("─", max(1, m.width)))
}

func (m *Model) statusLine() string {
	var parts []string
	if m.busy() {
		label := "loading"
		switch {
		case m.enrichInFlight > 0:
			label = "AI is thinking"
		case m.submitting:
			label = "signing in"
		}
		parts = append(parts, m.spinner.View()+" "+activityStyle.Render(label))
	}
	if m.screen == screenNotes {
		parts = append(parts, statusStyle.Render(fmt.Sprintf("%d notes", len(m.visible))))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) helpText() string {
	if m.confirmDeleteID != "" {
		return "y delete • n cancel"
	}
	switch m.screen {
	case screenLogin:
		return "tab next • enter submit • ctrl+r register • esc quit"
	case screenRegister:
		return "tab next • enter submit • ctrl+r back to login • esc quit"
	case screenNotes:
		if m.searchFocused {
			return "type to filter • enter/esc done"
		}
		return "↑/↓ move • enter open • / search • n new • e edit • d delete • s/i/t AI • r refresh • L logout • q quit"
	case screenDetail:
		return "s summary • i improve • t tags • c copy note • y copy AI • e edit • d delete • esc back"
	case screenEditor:
		return "tab switch field • ctrl+s save • esc cancel"
	}
	return ""
}

func (m *Model) formView() string {
	heading := "Log in"
	labels := []string{"Email", "Password"}
	inputs := m.loginInputs
	if m.screen == screenRegister {
		heading = "Create an account"
		labels = []string{"Name", "Email", "Password"}
		inputs = m.registerInputs
	}
	lines := []string{labelStyle.Render(heading), ""}
	for i, input := range inputs {
		lines = append(lines, statusStyle.Render(labels[i]), input.View(), "")
	}
	return formFrameStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) notesView() string {
	lines := []string{m.search.View(), ""}
	if len(m.visible) == 0 {
		switch {
		case m.loading:
			lines = append(lines, statusStyle.Render("Loading notes..."))
		case strings.TrimSpace(m.search.Value()) != "":
			lines = append(lines, statusStyle.Render("No notes match your search."))
		default:
			lines = append(lines, statusStyle.Render("No notes yet. Press n to create one."))
		}
		return strings.Join(lines, "\n")
	}
	rows := m.contentHeight() - len(lines)
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(m.visible) && i < start+rows; i++ {
		lines = append(lines, m.noteRow(m.visible[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) noteRow(note *types.Note, selected bool) string {
	date := ""
	if !note.CreatedAt.IsZero() {
		date = note.CreatedAt.Local().Format("Jan 02")
	}
	marker := "  "
	if note.AISummary != "" || note.AIImprovedContent != "" || len(note.Tags) > 0 {
		marker = "✦ "
	}
	text := marker + note.Title
	if len(note.Tags) > 0 {
		text += "  " + tagStyle.Render("#"+strings.Join(note.Tags, " #"))
	}
	width := max(1, m.width-len(date)-2)
	row := xansi.Truncate(text, width, "…")
	pad := max(1, m.width-xansi.StringWidth(row)-len(date))
	line := row + strings.Repeat(" ", pad) + noteDateStyle.Render(date)
	if selected {
		return selectedStyle.Render(xansi.Strip(line))
	}
	return noteTitleStyle.Render(line)
}

func (m *Model) editorView() string {
	heading := "New note"
	if m.editingID != "" {
		heading = "Edit note"
	}
	return formFrameStyle.Render(strings.Join([]string{
		labelStyle.Render(heading),
		statusStyle.Render("Title"),
		m.editorTitle.View(),
		statusStyle.Render("Content"),
		m.editorContent.View(),
	}, "\n"))
}

func (m *Model) confirmView() string {
	title := m.confirmDeleteID
	if note, ok := m.notes.Get(m.confirmDeleteID); ok {
		title = sanitizer.SanitizeLine(note.Title)
	}
	return confirmFrameStyle.Render(fmt.Sprintf("Delete %q?\nThis cannot be undone.", title))
}
