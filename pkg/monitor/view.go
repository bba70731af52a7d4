package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/leadvault/internal/output"
)

// View renders the dashboard: a status bar, the record table, and the
// trailing event log.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.statusBar())
	b.WriteString("\n\n")

	b.WriteString(panelTitleStyle.Render("Lead Queue"))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.Table.View()))
	b.WriteString("\n\n")

	b.WriteString(panelTitleStyle.Render("Events"))
	b.WriteString("\n")
	b.WriteString(m.eventLog())
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(offlineStyle.Render(fmt.Sprintf("error: %v", m.Err)))
		b.WriteString("\n")
	}

	if m.UpdateNotice != "" {
		b.WriteString(timestampStyle.Render(m.UpdateNotice))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("q quit · r refresh · s sync now · j/k navigate"))
	return b.String()
}

func (m Model) statusBar() string {
	stats, err := m.Engine.Stats()
	if err != nil {
		return offlineStyle.Render(fmt.Sprintf("stats unavailable: %v", err))
	}

	conn := offlineStyle.Render("● offline")
	if stats.Online {
		conn = onlineStyle.Render("● online")
	}

	timing := fmt.Sprintf("tick %s", stats.Interval)
	if stats.Idle {
		timing = "idle"
	}

	parts := []string{
		titleStyle.Render("leadvault"),
		conn,
		fmt.Sprintf("pending %d", stats.Pending),
		fmt.Sprintf("synced %d", stats.Synced),
		fmt.Sprintf("failed %d", stats.FailedPermanent),
		subtleStyle.Render(timing),
	}
	if !m.LastRefresh.IsZero() {
		parts = append(parts, timestampStyle.Render("refreshed "+output.FormatTimeAgo(m.LastRefresh)))
	}
	if stats.Pending > 0 && stats.Online {
		parts = append(parts, m.Spinner.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(parts, "  "))
}

func (m Model) eventLog() string {
	if len(m.Events) == 0 {
		return subtleStyle.Render("  no events yet")
	}
	shown := m.Events
	if len(shown) > 6 {
		shown = shown[len(shown)-6:]
	}
	var b strings.Builder
	for i := len(shown) - 1; i >= 0; i-- {
		e := shown[i]
		line := fmt.Sprintf("  %s %s", timestampStyle.Render(e.At.Format("15:04:05")), eventLabel(e.Kind))
		if e.Count > 0 {
			line += subtleStyle.Render(fmt.Sprintf(" ×%d", e.Count))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
