package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"medbot/cmd/medbot/ui"
	"medbot/internal/gateway"
	"medbot/internal/state"
)

// noCasesText is shown in the case panes when a session has no matches.
const noCasesText = "No matched cases."

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	sess := m.store.ActiveSession()

	header := m.renderHeader()
	tabs := renderTabStrip(m.store.Tabs(), m.store.State().ActiveTabID, m.styles, m.width)

	caseW := m.casePaneWidth()
	caseH := m.viewport.Height
	casePane := renderCasePane(sess, m.styles, caseW, caseH)
	chatPane := m.viewport.View()
	main := lipgloss.JoinHorizontal(lipgloss.Top, chatPane, "  ", casePane)

	composer := m.styles.Composer.Render(m.textarea.View())
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, main, composer, footer)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render(" MedBot Assistant ")

	var status string
	if m.sending {
		status = lipgloss.JoinHorizontal(lipgloss.Center,
			m.spinner.View(), " ", m.styles.StatusNeutral.Render(m.statusLabel))
	} else {
		status = m.styles.Badge.Render(statusStyle(m.styles, m.statusLevel).Render(m.statusLabel))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)
}

func (m Model) renderFooter() string {
	hotkeys := "Enter: send | Ctrl+N: new tab | Ctrl+W: close tab | Tab: switch | Alt+Up/Down: case | Ctrl+C: quit"
	return m.styles.Muted.Render(hotkeys)
}

// statusStyle picks the style for a status level.
func statusStyle(st ui.Styles, level gateway.Level) lipgloss.Style {
	switch level {
	case gateway.LevelGood:
		return st.StatusGood
	case gateway.LevelBad:
		return st.StatusBad
	default:
		return st.StatusNeutral
	}
}

// renderTabStrip renders one entry per session in tab order, highlighting
// the active tab. Pure function of its inputs.
func renderTabStrip(tabs []*state.Session, activeID string, st ui.Styles, width int) string {
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		label := t.Title
		if r := []rune(label); len(r) > 18 {
			label = string(r[:18]) + "…"
		}
		if t.ID == activeID {
			parts = append(parts, st.TabActive.Render(label))
		} else {
			parts = append(parts, st.TabInactive.Render(label))
		}
	}
	strip := strings.Join(parts, " ")
	if width > 0 {
		strip = lipgloss.NewStyle().MaxWidth(width).Render(strip)
	}
	return strip
}

// renderChatLog renders the active session's turns in order, tagged by
// kind. renderMarkdown formats bot replies; user and system turns are
// plain text.
func renderChatLog(msgs []state.Message, renderMarkdown func(string) string, st ui.Styles) string {
	var sb strings.Builder
	for _, msg := range msgs {
		switch msg.Kind {
		case state.KindUser:
			sb.WriteString(st.UserLabel.Render("You") + "\n")
			sb.WriteString(msg.Text)
			sb.WriteString("\n\n")
		case state.KindSystem:
			sb.WriteString(st.SystemText.Render(msg.Text))
			sb.WriteString("\n\n")
		default: // bot
			sb.WriteString(st.BotLabel.Render("MedBot") + "\n")
			sb.WriteString(renderMarkdown(msg.Text))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderCasePane stacks the case list above the case detail.
func renderCasePane(sess *state.Session, st ui.Styles, width, height int) string {
	innerW := width - 4
	if innerW < 10 {
		innerW = 10
	}
	listH := height / 3
	if listH < 3 {
		listH = 3
	}
	detailH := height - listH - 4
	if detailH < 3 {
		detailH = 3
	}

	list := renderCaseList(sess.Matches, sess.ActiveCaseIndex, st, innerW, listH)
	detail := renderCaseDetail(sess, st, innerW)

	listPane := st.Pane.Width(width - 2).Height(listH).Render(
		st.PaneTitle.Render("Matched Cases") + "\n" + list)
	detailPane := st.Pane.Width(width - 2).Height(detailH).Render(
		st.PaneTitle.Render("Selected Case Details") + "\n" + detail)

	return lipgloss.JoinVertical(lipgloss.Left, listPane, detailPane)
}

// renderCaseList shows one line per record: score, encounter, complaint.
// The entry at activeIdx is highlighted.
func renderCaseList(matches []state.CaseRecord, activeIdx int, st ui.Styles, width, height int) string {
	if len(matches) == 0 {
		return st.Muted.Render(noCasesText)
	}

	lines := make([]string, 0, len(matches))
	for i, c := range matches {
		line := fmt.Sprintf("%v  %s  %s", c.Score, c.EncounterLabel(), c.ComplaintLabel())
		if r := []rune(line); width > 1 && len(r) > width {
			line = string(r[:width-1]) + "…"
		}
		if i == activeIdx {
			lines = append(lines, st.CaseSelected.Render(line))
		} else {
			lines = append(lines, st.CaseItem.Render(line))
		}
	}
	if height > 0 && len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// renderCaseDetail shows the highlighted record, or the first record if the
// index is momentarily invalid. Missing optional fields render as their
// fixed placeholders.
func renderCaseDetail(sess *state.Session, st ui.Styles, width int) string {
	c, ok := sess.ActiveCase()
	if !ok {
		return st.Muted.Render(noCasesText)
	}

	var sb strings.Builder
	field := func(name, value string) {
		sb.WriteString(st.DetailField.Render(name+":") + " " + value + "\n")
	}
	field("Score", fmt.Sprintf("%v", c.Score))
	field("Encounter ID", c.EncounterLabel())
	field("Chief Complaint", c.ComplaintLabel())
	field("Final Diagnosis", c.DiagnosisLabel())
	sb.WriteString("\n")
	sb.WriteString(wrapText(c.SummaryLabel(), width))

	if excerpt := c.Excerpt(); excerpt != "" {
		sb.WriteString("\n\n")
		sb.WriteString(st.Muted.Render("Source excerpt"))
		sb.WriteString("\n")
		sb.WriteString(wrapText(excerpt, width))
	}
	return sb.String()
}

// wrapText does simple word wrapping for pane content.
func wrapText(text string, width int) string {
	if width < 10 {
		width = 10
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	var sb strings.Builder
	lineLen := 0
	for i, w := range words {
		wl := len([]rune(w))
		if i > 0 {
			if lineLen+1+wl > width {
				sb.WriteString("\n")
				lineLen = 0
			} else {
				sb.WriteString(" ")
				lineLen++
			}
		}
		sb.WriteString(w)
		lineLen += wl
	}
	return sb.String()
}
