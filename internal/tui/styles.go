package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// WOFA brand orange
const wofaOrange = "#F4A435"

// WOFA ASCII art (filled block style)
var wofaArt = []string{
	"    ██╗    ██╗ ██████╗ ███████╗ █████╗ ",
	"    ██║    ██║██╔═══██╗██╔════╝██╔══██╗",
	"    ██║ █╗ ██║██║   ██║█████╗  ███████║",
	"    ██║███╗██║██║   ██║██╔══╝  ██╔══██║",
	"    ╚███╔███╔╝╚██████╔╝██║     ██║  ██║",
	"     ╚══╝╚══╝  ╚═════╝ ╚═╝     ╚═╝  ╚═╝",
}

// Styles contains all lipgloss styles for the controller.
type Styles struct {
	Banner    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Tips      lipgloss.Style
	Error     lipgloss.Style
	Notice    lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(wofaOrange)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(wofaOrange)),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Tips:      lipgloss.NewStyle().Foreground(lipgloss.Color("255")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Notice:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("250")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		StatusBar: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(wofaOrange)),
	}
}

// RenderBanner returns the WOFA ASCII art banner as a styled string.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range wofaArt {
		_, _ = b.WriteString(s.Banner.Render(line))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}

// welcomeTips are shown under the banner on the first run only.
var welcomeTips = []string{
	"Tips for getting started:",
	"  • Ask questions naturally - WOFA teaches step by step",
	"  • /courses lists courses, /course and /lesson pick one",
	"  • /image attaches a picture, /listen asks by voice",
	"  • Use /help to see every command",
}

// RenderWelcomeTips returns the styled getting-started tips.
func (s Styles) RenderWelcomeTips() string {
	var b strings.Builder
	for _, tip := range welcomeTips {
		_, _ = b.WriteString(s.Tips.Render(tip))
		_, _ = b.WriteString("\n")
	}
	return b.String()
}
