// Package chat provides the interactive TUI for the MedBot client: a tabbed
// multi-session chat log, the retrieved-case panes, and the composer.
package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"medbot/cmd/medbot/ui"
	"medbot/internal/gateway"
	"medbot/internal/state"
)

// Model is the bubbletea model for the chat interface. All conversation
// state lives in the Store; the model holds only view components and
// process-wide display state (status indicator, composer phase).
type Model struct {
	store  *state.Store
	client gateway.Client
	log    *zap.Logger
	styles ui.Styles

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	// sending is the composer state machine: idle (false) or sending
	// (true). While sending, submissions are blocked so only one chat
	// request is in flight at a time.
	sending bool

	statusLevel gateway.Level
	statusLabel string

	pollEvery time.Duration
}

// Messages for tea updates.
type (
	// statusMsg carries the outcome of a readiness poll.
	statusMsg struct {
		level gateway.Level
		label string
	}

	// chatResultMsg carries a settled chat exchange back to the session
	// that initiated it.
	chatResultMsg struct {
		sessionID string
		reply     string
		matches   []state.CaseRecord
		err       error
	}

	pollTickMsg time.Time
)

// New builds the chat model around an opened store and gateway client.
func New(store *state.Store, client gateway.Client, styles ui.Styles, log *zap.Logger, pollEvery time.Duration) Model {
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Describe your symptoms... (Enter sends, Alt+Enter for a newline)"
	ta.Prompt = "│ "
	ta.CharLimit = 4096
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StatusNeutral

	vp := viewport.New(80, 20)

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(78))
	} else {
		renderer, _ = glamour.NewTermRenderer(glamour.WithStylePath("light"), glamour.WithWordWrap(78))
	}

	m := Model{
		store:       store,
		client:      client,
		log:         log,
		styles:      styles,
		textarea:    ta,
		viewport:    vp,
		spinner:     sp,
		renderer:    renderer,
		statusLevel: gateway.LevelNeutral,
		statusLabel: "Connecting...",
		pollEvery:   pollEvery,
	}
	m.syncViewport()
	return m
}

// Init starts the input blink, the spinner, and the readiness poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.checkStatus(),
		m.pollTick(),
	)
}

// checkStatus polls the backend once and maps the outcome to a status
// display. Transport failures become the backend-unavailable display.
func (m Model) checkStatus() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		sr, err := client.Status(context.Background())
		if err != nil {
			level, label := gateway.UnavailableDisplay()
			return statusMsg{level: level, label: label}
		}
		level, label := sr.Display()
		return statusMsg{level: level, label: label}
	}
}

// submitChat sends one user message. The originating session id travels
// with the result so a reply lands in the right tab even if the user
// switched tabs while the request was in flight.
func (m Model) submitChat(sessionID, text string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		resp, err := client.Chat(context.Background(), text)
		if err != nil {
			return chatResultMsg{sessionID: sessionID, err: err}
		}
		return chatResultMsg{sessionID: sessionID, reply: resp.Response, matches: resp.Matches}
	}
}

func (m Model) pollTick() tea.Cmd {
	return tea.Tick(m.pollEvery, func(t time.Time) tea.Msg {
		return pollTickMsg(t)
	})
}

// syncViewport re-projects the active session's ledger into the chat
// viewport and scrolls to the latest turn.
func (m *Model) syncViewport() {
	sess := m.store.ActiveSession()
	m.viewport.SetContent(renderChatLog(sess.Messages, m.safeRenderMarkdown, m.styles))
	m.viewport.GotoBottom()
}

// safeRenderMarkdown renders bot replies as markdown with panic recovery;
// glamour can choke on pathological input.
func (m Model) safeRenderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()
	if m.renderer != nil && content != "" {
		if rendered, err := m.renderer.Render(content); err == nil {
			return rendered
		}
	}
	return content
}
