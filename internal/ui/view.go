package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"warp-tui/internal/logging"
	"warp-tui/internal/vpn"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	statusPanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#FFFFFF")).
				Padding(1).
				MarginRight(1)

	detailsPanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#FFFFFF")).
				Padding(1)

	outputPanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Bold(true).
			Padding(1, 2)

	errorTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#007ACC"))

	disabledStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	pickerTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#BD93F9")).
				Padding(0, 1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#BD93F9"))

	activePanelBorder = lipgloss.Color("#007ACC")
)

const (
	colorGreen  = lipgloss.Color("#28A745")
	colorRed    = lipgloss.Color("#DC3545")
	colorYellow = lipgloss.Color("#FFC107")
	colorGray   = lipgloss.Color("#6C757D")
)

func statusColor(s vpn.Status) lipgloss.Color {
	switch s {
	case vpn.StatusConnected:
		return colorGreen
	case vpn.StatusDisconnected, vpn.StatusError:
		return colorRed
	case vpn.StatusConnecting, vpn.StatusDisconnecting:
		return colorYellow
	default:
		return colorGray
	}
}

func statusStyle(s vpn.Status) lipgloss.Style {
	style := badgeStyle.Background(statusColor(s))
	if s == vpn.StatusConnecting || s == vpn.StatusDisconnecting {
		style = style.Foreground(lipgloss.Color("#212529"))
	}
	return style
}

func statusIcon(s vpn.Status) string {
	switch s {
	case vpn.StatusConnected:
		return "🟢"
	case vpn.StatusDisconnected:
		return "🔴"
	case vpn.StatusConnecting, vpn.StatusDisconnecting:
		return "🟡"
	case vpn.StatusError:
		return "❌"
	default:
		return "⚪"
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	leftWidth := m.terminalWidth/2 - 2
	rightWidth := m.terminalWidth - leftWidth - 6
	topHeight := 11
	bottomHeight := m.terminalHeight - topHeight - 8
	if bottomHeight < 3 {
		bottomHeight = 3
	}

	left := m.buildStatusPanel(leftWidth, topHeight)
	var right string
	if m.picker != nil {
		right = detailsPanelStyle.
			Width(rightWidth).
			Height(topHeight).
			BorderForeground(activePanelBorder).
			Render(m.picker.View())
	} else {
		right = m.buildDetailsPanel(rightWidth, topHeight)
	}

	var legend string
	if m.picker != nil {
		legend = m.help.View(pickerKeys(m.keys))
	} else {
		legend = m.help.View(m.keys)
	}

	title := "☁  Cloudflare WARP"
	if m.version != "" {
		title += "  " + helpStyle.Render(m.version)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.buildOutputPanel(m.terminalWidth-4, bottomHeight),
		legend,
	)
}

func (m Model) buildStatusPanel(width, height int) string {
	var content strings.Builder
	conn := m.state.Connection

	content.WriteString(statusStyle(conn.Status).Render(statusIcon(conn.Status) + " " + conn.Status.String()))
	content.WriteString("\n")

	if conn.Detail != "" {
		detail := truncate(conn.Detail, width-4)
		if conn.Status == vpn.StatusError {
			detail = errorTextStyle.Render(detail)
		}
		content.WriteString("\n" + detail + "\n")
	}

	if m.state.InFlight {
		content.WriteString("\n" + m.spinner.View() + " working")
		if m.state.Pending != ActionNone {
			content.WriteString(fmt.Sprintf(" (next: %s)", m.state.Pending))
		}
		content.WriteString("\n")
	}

	if m.message != "" {
		content.WriteString("\n" + truncate(m.message, width-4) + "\n")
	}

	return statusPanelStyle.Width(width).Height(height).Render(content.String())
}

func (m Model) buildDetailsPanel(width, height int) string {
	var content strings.Builder
	conn := m.state.Connection

	row := func(label, value string) {
		content.WriteString(fmt.Sprintf("%-13s %s\n", label+":", truncate(value, width-18)))
	}

	content.WriteString(selectedStyle.Render("Details") + "\n\n")
	row("Mode", conn.Mode.String())
	if conn.AccountType != "" {
		row("Account", conn.AccountType)
	}
	if conn.WarpEnabled || conn.GatewayEnabled {
		row("WARP", yesNo(conn.WarpEnabled))
		row("Gateway", yesNo(conn.GatewayEnabled))
	}
	if conn.UpdatedAt.IsZero() {
		row("Updated", "never")
	} else {
		row("Updated", humanize.Time(conn.UpdatedAt))
	}
	row("Refresh", m.state.Interval.String())
	if m.skippedTicks > 0 {
		row("Skipped", fmt.Sprintf("%d ticks", m.skippedTicks))
	}
	if n := logging.Dropped(); n > 0 {
		row("Dropped", fmt.Sprintf("%d log lines", n))
	}

	return detailsPanelStyle.Width(width).Height(height).Render(content.String())
}

func (m Model) buildOutputPanel(width, height int) string {
	var content strings.Builder

	content.WriteString("📊 Activity Log\n")

	visible := height - 1
	if visible < 1 {
		visible = 1
	}

	if len(m.activity) == 0 {
		content.WriteString(disabledStyle.Render("No activity yet."))
	} else {
		start := len(m.activity) - visible
		if start < 0 {
			start = 0
		}
		lines := make([]string, 0, visible)
		for _, entry := range m.activity[start:] {
			lines = append(lines, "• "+truncate(strings.TrimSpace(entry), width-6))
		}
		content.WriteString(strings.Join(lines, "\n"))
	}

	return outputPanelStyle.Width(width).Height(height).Render(content.String())
}

func truncate(s string, width int) string {
	if width < 4 {
		width = 4
	}
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "…")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
