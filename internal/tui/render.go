package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/blef/internal/game"
)

const sidebarWidth = 28

// View renders the screen.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	footer := m.renderFooter()
	footerHeight := lipgloss.Height(footer)

	paneHeight := max(m.height-footerHeight-2, 1)
	logWidth := max(m.width-sidebarWidth-4, 1)

	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	logPane := paneStyle.Width(logWidth).Height(paneHeight).Render(m.logViewport.View())
	sidebar := paneStyle.Width(sidebarWidth).Height(paneHeight).Render(m.renderSidebar())

	top := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, top, footer)
}

func (m *Model) renderSidebar() string {
	if m.view == nil {
		return m.renderLobby()
	}
	v := m.view
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", HeaderStyle.Render(string(v.Status)))
	if v.Status != game.StatusNotStarted {
		fmt.Fprintf(&b, "Round %d, max %d cards\n", v.RoundNumber, v.MaxCards)
	}
	b.WriteString("\n")

	for _, p := range v.Players {
		name := p.Nickname
		if p.Nickname == v.AdminNickname {
			name += " *"
		}
		line := fmt.Sprintf("%-18s %2d", name, p.CardCount)
		switch {
		case v.Status == game.StatusRunning && p.CardCount == 0:
			line = "  " + EliminatedStyle.Render(line)
		case p.Nickname == v.CurrentPlayer:
			line = CurrentPlayerStyle.Render("> " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	if n := len(v.History); n > 0 {
		last := v.History[n-1]
		fmt.Fprintf(&b, "\nLast claim\n%s\n", ClaimStyle.Render(game.ActionName(last.ActionID)))
	}
	for _, h := range v.Hands {
		fmt.Fprintf(&b, "\n%s\n%s\n", h.Nickname, renderCards(h.Cards))
	}
	return b.String()
}

func (m *Model) renderLobby() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("Public games") + "\n\n")
	if len(m.lobby) == 0 {
		b.WriteString(InfoStyle.Render("none"))
		return b.String()
	}
	for _, s := range m.lobby {
		fmt.Fprintf(&b, "%s\n  %s, %d players\n", shortID(s.GameID), s.Status, len(s.Players))
	}
	return b.String()
}

func (m *Model) renderFooter() string {
	var lines []string
	if m.opts.Play != nil {
		lines = append(lines, m.input.View())
	}
	if m.status != "" {
		lines = append(lines, m.status)
	}
	lines = append(lines, InfoStyle.Render("pgup/pgdown scroll, esc quits"))
	return strings.Join(lines, "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
