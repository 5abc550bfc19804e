package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"peacock/internal/client"
	"peacock/internal/enrich"
	"peacock/internal/logging"
	"peacock/internal/notes"
	"peacock/internal/sanitizer"
	"peacock/internal/session"
	"peacock/internal/types"
)

const (
	minContentWidth  = 20
	minContentHeight = 6
	chromeLines      = 5
	editorHeight     = 10
)

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenNotes
	screenDetail
	screenEditor
)

type Deps struct {
	Auth     AuthAPI
	Session  SessionAPI
	Notes    NoteAPI
	Enricher EnrichAPI
	Logger   logging.Logger
}

type Model struct {
	auth     AuthAPI
	sessions SessionAPI
	notes    NoteAPI
	enricher EnrichAPI
	logger   logging.Logger
	now      func() time.Time
	copyText func(string) (clipboardMethod, error)

	screen screen
	width  int
	height int

	loginInputs    []textinput.Model
	registerInputs []textinput.Model
	formFocus      int
	submitting     bool

	search        textinput.Model
	searchFocused bool
	visible       []*types.Note
	cursor        int

	editorTitle   textinput.Model
	editorContent textarea.Model
	editorFocus   int
	editingID     string
	editorReturn  screen

	detail   viewport.Model
	detailID string

	confirmDeleteID string

	spinner        spinner.Model
	loading        bool
	enrichInFlight int
	aiText         string

	profile       *types.Profile
	sessionEvents chan session.Event
	unsubscribe   func()

	toastText  string
	toastLevel toastLevel
	toastUntil time.Time
	toastSeq   int
}

// NewModel builds the UI. start is the route session restore chose.
func NewModel(deps Deps, start session.Route) Model {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	m := Model{
		auth:          deps.Auth,
		sessions:      deps.Session,
		notes:         deps.Notes,
		enricher:      deps.Enricher,
		logger:        logger,
		now:           time.Now,
		copyText:      copyTextToClipboard,
		loginInputs:   []textinput.Model{newInput("email", false), newInput("password", true)},
		search:        newInput("search notes", false),
		editorTitle:   newInput("title", false),
		editorContent: newEditorArea(),
		detail:        viewport.New(minContentWidth, minContentHeight),
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(activityStyle)),
		sessionEvents: make(chan session.Event, 4),
		width:         80,
		height:        24,
	}
	m.registerInputs = []textinput.Model{newInput("name", false), newInput("email", false), newInput("password", true)}
	if m.sessions != nil {
		events := m.sessionEvents
		m.unsubscribe = m.sessions.Subscribe(func(event session.Event) {
			select {
			case events <- event:
			default:
			}
		})
	}
	if start == session.RouteNotes {
		m.screen = screenNotes
		m.loading = true
	} else {
		m.showLogin(screenLogin)
	}
	return m
}

func newInput(placeholder string, secret bool) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.CharLimit = 256
	if secret {
		input.EchoMode = textinput.EchoPassword
		input.EchoCharacter = '•'
	}
	return input
}

func newEditorArea() textarea.Model {
	area := textarea.New()
	area.Placeholder = "Write your note..."
	area.ShowLineNumbers = false
	area.CharLimit = 0
	area.SetHeight(editorHeight)
	return area
}

func Run(deps Deps, start session.Route) error {
	model := NewModel(deps, start)
	defer model.Close()
	p := tea.NewProgram(&model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Close drops the session subscription.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForSessionEndCmd(m.sessionEvents), textinput.Blink}
	if m.screen == screenNotes {
		cmds = append(cmds, refreshNotesCmd(m.notes), fetchProfileCmd(m.auth), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.clearToast()
		}
		return m, nil
	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case sessionEndedMsg:
		return m, tea.Batch(m.handleSessionEnded(msg.event), waitForSessionEndCmd(m.sessionEvents))
	case loginMsg:
		return m, m.handleLogin(msg)
	case registerMsg:
		return m, m.handleRegister(msg)
	case profileMsg:
		if msg.err != nil {
			m.logger.Debug("profile_fetch_failed", logging.Err(msg.err))
			return m, nil
		}
		m.profile = msg.profile
		return m, nil
	case notesMsg:
		m.loading = false
		m.syncNotes()
		if msg.err != nil {
			return m, m.errorToast(msg.err, "Failed to fetch notes")
		}
		return m, nil
	case noteMutatedMsg:
		return m, m.handleNoteMutated(msg)
	case enrichMsg:
		return m, m.handleEnrich(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, m.handleKey(msg)
	}
	return m, m.updateFocused(msg)
}

func (m *Model) busy() bool {
	return m.loading || m.submitting || m.enrichInFlight > 0
}

func (m *Model) resize(width, height int) {
	m.width = max(width, minContentWidth)
	m.height = max(height, minContentHeight+chromeLines)
	inputWidth := max(minContentWidth, m.width-6)
	for i := range m.loginInputs {
		m.loginInputs[i].Width = inputWidth
	}
	for i := range m.registerInputs {
		m.registerInputs[i].Width = inputWidth
	}
	m.search.Width = inputWidth
	m.editorTitle.Width = inputWidth
	m.editorContent.SetWidth(inputWidth)
	m.editorContent.SetHeight(max(3, min(editorHeight, m.height-chromeLines-4)))
	m.detail.Width = m.width
	m.detail.Height = m.contentHeight()
	m.renderDetail()
}

func (m *Model) contentHeight() int {
	return max(minContentHeight, m.height-chromeLines)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.confirmDeleteID != "" {
		return m.handleConfirmKey(msg)
	}
	switch m.screen {
	case screenLogin, screenRegister:
		return m.handleFormKey(msg)
	case screenNotes:
		return m.handleNotesKey(msg)
	case screenDetail:
		return m.handleDetailKey(msg)
	case screenEditor:
		return m.handleEditorKey(msg)
	}
	return nil
}

func (m *Model) formInputs() []textinput.Model {
	if m.screen == screenRegister {
		return m.registerInputs
	}
	return m.loginInputs
}

func (m *Model) showLogin(target screen) {
	m.screen = target
	m.formFocus = 0
	m.focusForm()
}

func (m *Model) focusForm() tea.Cmd {
	inputs := m.formInputs()
	var cmd tea.Cmd
	for i := range inputs {
		if i == m.formFocus {
			cmd = inputs[i].Focus()
			continue
		}
		inputs[i].Blur()
	}
	return cmd
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	inputs := m.formInputs()
	switch msg.String() {
	case "esc":
		return tea.Quit
	case "ctrl+r":
		if m.screen == screenLogin {
			m.showLogin(screenRegister)
		} else {
			m.showLogin(screenLogin)
		}
		return textinput.Blink
	case "tab", "down":
		m.formFocus = (m.formFocus + 1) % len(inputs)
		return m.focusForm()
	case "shift+tab", "up":
		m.formFocus = (m.formFocus - 1 + len(inputs)) % len(inputs)
		return m.focusForm()
	case "enter":
		if m.formFocus < len(inputs)-1 {
			m.formFocus++
			return m.focusForm()
		}
		return m.submitForm()
	}
	var cmd tea.Cmd
	inputs[m.formFocus], cmd = inputs[m.formFocus].Update(msg)
	return cmd
}

func (m *Model) submitForm() tea.Cmd {
	if m.submitting {
		return nil
	}
	m.submitting = true
	if m.screen == screenRegister {
		req := types.Registration{
			Name:     m.registerInputs[0].Value(),
			Email:    m.registerInputs[1].Value(),
			Password: m.registerInputs[2].Value(),
		}
		return tea.Batch(registerCmd(m.sessions, m.auth, req), m.spinner.Tick)
	}
	return tea.Batch(loginCmd(m.sessions, m.auth, m.loginInputs[0].Value(), m.loginInputs[1].Value()), m.spinner.Tick)
}

func (m *Model) handleLogin(msg loginMsg) tea.Cmd {
	m.submitting = false
	if msg.err != nil {
		return m.errorToast(msg.err, "Login failed")
	}
	m.loginInputs[1].SetValue("")
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	m.screen = screenNotes
	m.loading = true
	return tea.Batch(
		m.showInfoToast("Login successful!"),
		refreshNotesCmd(m.notes),
		fetchProfileCmd(m.auth),
		m.spinner.Tick,
	)
}

func (m *Model) handleRegister(msg registerMsg) tea.Cmd {
	m.submitting = false
	if msg.err != nil {
		return m.errorToast(msg.err, "Registration failed")
	}
	for i := range m.registerInputs {
		m.registerInputs[i].SetValue("")
	}
	m.loginInputs[0].SetValue(strings.TrimSpace(msg.email))
	m.loginInputs[1].SetValue("")
	m.showLogin(screenLogin)
	m.formFocus = 1
	return tea.Batch(m.focusForm(), m.showInfoToast("Registration successful! Please log in."))
}

func (m *Model) handleSessionEnded(event session.Event) tea.Cmd {
	m.notes.Reset()
	m.enricher.Close()
	m.profile = nil
	m.visible = nil
	m.cursor = 0
	m.detailID = ""
	m.confirmDeleteID = ""
	m.aiText = ""
	m.loading = false
	m.searchFocused = false
	m.search.Blur()
	m.search.SetValue("")
	m.showLogin(screenLogin)
	if event.Reason == session.ReasonLogout {
		return tea.Batch(textinput.Blink, m.showInfoToast(event.Message))
	}
	return tea.Batch(textinput.Blink, m.showWarningToast(event.Message))
}

func (m *Model) handleNotesKey(msg tea.KeyMsg) tea.Cmd {
	if m.searchFocused {
		switch msg.String() {
		case "esc", "enter":
			m.searchFocused = false
			m.search.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.syncNotes()
		return cmd
	}
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "/":
		m.searchFocused = true
		return m.search.Focus()
	case "esc":
		m.search.SetValue("")
		m.syncNotes()
	case "r":
		m.loading = true
		return tea.Batch(refreshNotesCmd(m.notes), m.spinner.Tick)
	case "n":
		return m.openEditor(nil)
	case "e":
		if note := m.selectedNote(); note != nil {
			return m.openEditor(note)
		}
	case "d":
		if note := m.selectedNote(); note != nil {
			m.confirmDeleteID = note.ID
		}
	case "enter":
		if note := m.selectedNote(); note != nil {
			return m.openDetail(note.ID)
		}
	case "s", "i", "t":
		id := ""
		if note := m.selectedNote(); note != nil {
			id = note.ID
		}
		return m.startEnrich(id, kindForKey(msg.String()))
	case "L":
		m.sessions.Logout(context.Background())
	}
	return nil
}

func (m *Model) handleDetailKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "backspace":
		m.closeDetail()
		return nil
	case "e":
		if note, ok := m.notes.Get(m.detailID); ok {
			return m.openEditor(note)
		}
		return nil
	case "d":
		m.confirmDeleteID = m.detailID
		return nil
	case "s", "i", "t":
		return m.startEnrich(m.detailID, kindForKey(msg.String()))
	case "c":
		if note, ok := m.enricher.Viewing(); ok {
			return m.copyWithToast(note.Content, "note copied")
		}
		return nil
	case "y":
		return m.copyWithToast(m.aiText, "AI result copied")
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return cmd
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		id := m.confirmDeleteID
		m.confirmDeleteID = ""
		m.loading = true
		return tea.Batch(deleteNoteCmd(m.notes, id), m.spinner.Tick)
	case "n", "esc":
		m.confirmDeleteID = ""
	}
	return nil
}

func (m *Model) openEditor(note *types.Note) tea.Cmd {
	m.editorReturn = m.screen
	m.screen = screenEditor
	m.editingID = ""
	m.editorTitle.SetValue("")
	m.editorContent.SetValue("")
	if note != nil {
		m.editingID = note.ID
		m.editorTitle.SetValue(note.Title)
		m.editorContent.SetValue(note.Content)
	}
	m.editorFocus = 0
	return m.focusEditor()
}

func (m *Model) focusEditor() tea.Cmd {
	if m.editorFocus == 0 {
		m.editorContent.Blur()
		return m.editorTitle.Focus()
	}
	m.editorTitle.Blur()
	return m.editorContent.Focus()
}

func (m *Model) closeEditor() {
	m.editorTitle.Blur()
	m.editorContent.Blur()
	m.screen = m.editorReturn
	if m.screen == screenDetail && m.detailID == "" {
		m.screen = screenNotes
	}
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.closeEditor()
		return nil
	case "tab", "shift+tab":
		m.editorFocus = 1 - m.editorFocus
		return m.focusEditor()
	case "ctrl+s":
		title, content := m.editorTitle.Value(), m.editorContent.Value()
		m.loading = true
		if m.editingID == "" {
			return tea.Batch(createNoteCmd(m.notes, title, content), m.spinner.Tick)
		}
		return tea.Batch(updateNoteCmd(m.notes, m.editingID, title, content), m.spinner.Tick)
	}
	var cmd tea.Cmd
	if m.editorFocus == 0 {
		m.editorTitle, cmd = m.editorTitle.Update(msg)
	} else {
		m.editorContent, cmd = m.editorContent.Update(msg)
	}
	return cmd
}

func (m *Model) handleNoteMutated(msg noteMutatedMsg) tea.Cmd {
	m.loading = false
	m.syncNotes()
	if msg.err != nil {
		return m.errorToast(msg.err, "Failed to save note")
	}
	switch msg.action {
	case mutationDelete:
		if m.screen == screenDetail {
			m.closeDetail()
		}
	case mutationCreate, mutationUpdate:
		if m.screen == screenEditor {
			m.closeEditor()
		}
	}
	return m.showInfoToast("Note " + string(msg.action))
}

func (m *Model) openDetail(id string) tea.Cmd {
	if _, err := m.enricher.Open(id); err != nil {
		return m.errorToast(err, "Note not found")
	}
	m.detailID = id
	m.screen = screenDetail
	m.detail.GotoTop()
	m.renderDetail()
	return nil
}

func (m *Model) closeDetail() {
	m.enricher.Close()
	m.detailID = ""
	m.screen = screenNotes
}

func (m *Model) renderDetail() {
	if m.detailID == "" {
		return
	}
	note, ok := m.enricher.Viewing()
	if !ok {
		return
	}
	content := renderMarkdown(noteMarkdown(sanitizer.Note(note)), m.width)
	if m.aiText != "" {
		content += "\n\n" + aiResultStyle.Render(sanitizer.SanitizeText(m.aiText))
	}
	m.detail.SetContent(content)
}

func (m *Model) startEnrich(noteID string, kind types.EnrichmentKind) tea.Cmd {
	m.enrichInFlight++
	return tea.Batch(enrichCmd(m.enricher, noteID, kind), m.spinner.Tick)
}

func (m *Model) handleEnrich(msg enrichMsg) tea.Cmd {
	if m.enrichInFlight > 0 {
		m.enrichInFlight--
	}
	if msg.err != nil {
		if errors.Is(msg.err, enrich.ErrEmptyResult) {
			m.aiText = m.enricher.LastText()
			m.renderDetail()
		}
		return m.errorToast(msg.err, "AI request failed")
	}
	m.aiText = msg.result.String()
	m.syncNotes()
	return m.showInfoToast("AI " + string(msg.kind) + " ready")
}

// syncNotes recomputes the visible list from the store and the search term
// and refreshes the detail view when it is open.
func (m *Model) syncNotes() {
	m.visible = notes.Project(sanitizer.Notes(m.notes.Notes()), m.search.Value())
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
	if m.detailID == "" {
		return
	}
	if _, ok := m.notes.Get(m.detailID); !ok {
		m.closeDetail()
		return
	}
	if _, err := m.enricher.Open(m.detailID); err == nil {
		m.renderDetail()
	}
}

func (m *Model) selectedNote() *types.Note {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *Model) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin, screenRegister:
		inputs := m.formInputs()
		inputs[m.formFocus], cmd = inputs[m.formFocus].Update(msg)
	case screenNotes:
		if m.searchFocused {
			m.search, cmd = m.search.Update(msg)
		}
	case screenEditor:
		if m.editorFocus == 0 {
			m.editorTitle, cmd = m.editorTitle.Update(msg)
		} else {
			m.editorContent, cmd = m.editorContent.Update(msg)
		}
	case screenDetail:
		m.detail, cmd = m.detail.Update(msg)
	}
	return cmd
}

// errorToast shows the notice for err. Auth failures are left to the
// session-ended handler so the user sees one notice, not two.
func (m *Model) errorToast(err error, fallback string) tea.Cmd {
	if client.CategoryOf(err) == client.CategoryAuth {
		return nil
	}
	return m.showErrorToast(errorText(err, fallback))
}

func errorText(err error, fallback string) string {
	var apiErr *client.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.UserMessage(fallback)
	case errors.Is(err, enrich.ErrNoSelection):
		return "Select a note first"
	case errors.Is(err, enrich.ErrEmptyContent):
		return "Note content is empty"
	case errors.Is(err, enrich.ErrBusy):
		return "An AI request is already in progress"
	case errors.Is(err, enrich.ErrEmptyResult):
		return noOutputText
	case errors.Is(err, notes.ErrValidation), errors.Is(err, session.ErrValidation):
		return validationText(err)
	default:
		return err.Error()
	}
}

const noOutputText = "No AI output received."

// validationText turns "validation failed: title is required" into
// "Title is required".
func validationText(err error) string {
	_, msg, ok := strings.Cut(err.Error(), ": ")
	if !ok || msg == "" {
		return "Invalid input"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func kindForKey(key string) types.EnrichmentKind {
	switch key {
	case "i":
		return types.EnrichmentImprove
	case "t":
		return types.EnrichmentTags
	default:
		return types.EnrichmentSummary
	}
}
