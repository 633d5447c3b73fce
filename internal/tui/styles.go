// Package tui provides the Bubble Tea terminal interface for browsing and
// curating the prompt catalog.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// palette is a set of colors for one terminal background.
type palette struct {
	primary lipgloss.Color
	accent  lipgloss.Color
	text    lipgloss.Color
	muted   lipgloss.Color
	dim     lipgloss.Color
	border  lipgloss.Color
	success lipgloss.Color
	danger  lipgloss.Color
}

var (
	darkPalette = palette{
		primary: lipgloss.Color("86"),
		accent:  lipgloss.Color("229"),
		text:    lipgloss.Color("252"),
		muted:   lipgloss.Color("244"),
		dim:     lipgloss.Color("240"),
		border:  lipgloss.Color("238"),
		success: lipgloss.Color("10"),
		danger:  lipgloss.Color("9"),
	}
	lightPalette = palette{
		primary: lipgloss.Color("25"),
		accent:  lipgloss.Color("130"),
		text:    lipgloss.Color("235"),
		muted:   lipgloss.Color("242"),
		dim:     lipgloss.Color("247"),
		border:  lipgloss.Color("250"),
		success: lipgloss.Color("28"),
		danger:  lipgloss.Color("160"),
	}
)

// Styles holds every lipgloss style the interface renders with.
type Styles struct {
	Header   lipgloss.Style
	Group    lipgloss.Style
	Normal   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Label    lipgloss.Style
	Tag      lipgloss.Style
	Status   lipgloss.Style
	Error    lipgloss.Style
	Pane     lipgloss.Style
	Modal    lipgloss.Style
}

// NewStyles builds styles for theme, one of "dark", "light" or "auto".
func NewStyles(theme string) Styles {
	p := darkPalette
	switch theme {
	case "light":
		p = lightPalette
	case "auto":
		if !lipgloss.HasDarkBackground() {
			p = lightPalette
		}
	}

	return Styles{
		Header:   lipgloss.NewStyle().Foreground(p.primary).Bold(true),
		Group:    lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		Normal:   lipgloss.NewStyle().Foreground(p.text),
		Selected: lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(p.muted),
		Label:    lipgloss.NewStyle().Foreground(p.primary),
		Tag:      lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		Status:   lipgloss.NewStyle().Foreground(p.success),
		Error:    lipgloss.NewStyle().Foreground(p.danger).Bold(true),
		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		Modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(0, 1),
	}
}
