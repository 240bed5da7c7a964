package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"warp-tui/internal/vpn"
)

// ModePicker is a small list browser over the WARP operation modes.
type ModePicker struct {
	modes         []vpn.Mode
	current       vpn.Mode
	selectedIndex int
}

func NewModePicker(current vpn.Mode) *ModePicker {
	p := &ModePicker{
		modes:   vpn.Modes,
		current: current,
	}
	for i, mode := range p.modes {
		if mode == current {
			p.selectedIndex = i
		}
	}
	return p
}

func (p *ModePicker) Update(msg tea.KeyMsg, keys KeyMap) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.selectedIndex > 0 {
			p.selectedIndex--
		}
	case key.Matches(msg, keys.Down):
		if p.selectedIndex < len(p.modes)-1 {
			p.selectedIndex++
		}
	case msg.String() == "home":
		p.selectedIndex = 0
	case msg.String() == "end":
		p.selectedIndex = len(p.modes) - 1
	}
}

func (p *ModePicker) Selected() vpn.Mode {
	if len(p.modes) == 0 {
		return vpn.ModeUnknown
	}
	return p.modes[p.selectedIndex]
}

func (p *ModePicker) View() string {
	var s strings.Builder

	s.WriteString(pickerTitleStyle.Render("Operation Mode"))
	s.WriteString("\n\n")

	for i, mode := range p.modes {
		cursor := "  "
		if i == p.selectedIndex {
			cursor = "→ "
		}
		line := fmt.Sprintf("%s%-10s %s", cursor, mode, disabledStyle.Render(string(mode)))
		if mode == p.current {
			line += " (current)"
		}
		if i == p.selectedIndex {
			line = selectedStyle.Render(line)
		}
		s.WriteString(line + "\n")
	}
	return s.String()
}
