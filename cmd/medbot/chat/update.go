package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"medbot/internal/gateway"
	"medbot/internal/state"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		m.syncViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.sending {
			return m, cmd
		}
		return m, nil

	case statusMsg:
		// A poll landing mid-send must not clobber the busy indicator.
		if !m.sending {
			m.statusLevel = msg.level
			m.statusLabel = msg.label
		}
		return m, nil

	case pollTickMsg:
		return m, tea.Batch(m.checkStatus(), m.pollTick())

	case chatResultMsg:
		return m.handleChatResult(msg)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyCtrlN:
			m.store.CreateSession("")
			m.syncViewport()
			return m, nil

		case tea.KeyCtrlW:
			m.store.DeleteSession(m.store.ActiveSession().ID)
			m.syncViewport()
			return m, nil

		case tea.KeyTab:
			m.cycleTab(1)
			return m, nil

		case tea.KeyShiftTab:
			m.cycleTab(-1)
			return m, nil

		case tea.KeyUp:
			if msg.Alt {
				m.moveCaseSelection(-1)
				return m, nil
			}

		case tea.KeyDown:
			if msg.Alt {
				m.moveCaseSelection(1)
				return m, nil
			}

		case tea.KeyEnter:
			// Alt+Enter inserts a newline; plain Enter submits unless a
			// request is already in flight.
			if !msg.Alt {
				if m.sending {
					return m, nil
				}
				return m.handleSubmit()
			}
		}
	}

	m.textarea, taCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// handleSubmit runs the composer's idle -> sending transition. Blank input
// is rejected before any state change.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.textarea.Value())
	if text == "" {
		return m, nil
	}

	sess := m.store.ActiveSession()
	m.store.AppendMessage(sess, state.KindUser, text)
	m.textarea.Reset()

	m.sending = true
	m.statusLevel = gateway.LevelNeutral
	m.statusLabel = "Generating response..."
	m.syncViewport()

	m.log.Debug("chat submitted", zap.String("session", sess.ID), zap.Int("chars", len(text)))
	return m, tea.Batch(m.spinner.Tick, m.submitChat(sess.ID, text))
}

// handleChatResult folds a settled exchange back into the originating
// session and returns the composer to idle. Success appends the reply and
// replaces the case matches; failure appends a system turn with the error.
func (m Model) handleChatResult(msg chatResultMsg) (tea.Model, tea.Cmd) {
	m.sending = false

	sess := m.store.Session(msg.sessionID)
	if sess == nil {
		// Tab deleted while the request was in flight; nothing to fold
		// the result into.
		m.statusLevel = gateway.LevelNeutral
		m.statusLabel = "Ready."
		return m, nil
	}

	if msg.err != nil {
		m.store.AppendMessage(sess, state.KindSystem, "Error: "+msg.err.Error())
		m.statusLevel = gateway.LevelBad
		m.statusLabel = "Request failed."
		m.log.Warn("chat request failed", zap.String("session", msg.sessionID), zap.Error(msg.err))
	} else {
		m.store.AppendMessage(sess, state.KindBot, msg.reply)
		m.store.ReplaceMatches(sess, msg.matches)
		m.statusLevel = gateway.LevelGood
		m.statusLabel = "Ready."
	}

	m.syncViewport()
	return m, nil
}

// cycleTab selects the next or previous tab in strip order.
func (m *Model) cycleTab(delta int) {
	tabs := m.store.Tabs()
	if len(tabs) < 2 {
		return
	}
	idx := 0
	for i, t := range tabs {
		if t.ID == m.store.State().ActiveTabID {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(tabs)) % len(tabs)
	m.store.SelectSession(tabs[idx].ID)
	m.syncViewport()
}

// moveCaseSelection shifts the highlighted case; out-of-range moves are
// no-ops inside the store.
func (m *Model) moveCaseSelection(delta int) {
	sess := m.store.ActiveSession()
	m.store.SelectCase(sess, sess.ActiveCaseIndex+delta)
}

// layout sizes the viewport and composer to the terminal.
func (m *Model) layout() {
	caseW := m.casePaneWidth()
	chatW := m.width - caseW - 2
	if chatW < 20 {
		chatW = 20
	}
	m.textarea.SetWidth(m.width - 4)

	// header + tab strip + composer border box + footer
	chrome := 1 + 1 + m.textarea.Height() + 2 + 1
	vpH := m.height - chrome
	if vpH < 3 {
		vpH = 3
	}
	m.viewport.Width = chatW
	m.viewport.Height = vpH
}

func (m Model) casePaneWidth() int {
	w := m.width * 2 / 5
	if w < 30 {
		w = 30
	}
	if w > 60 {
		w = 60
	}
	return w
}
