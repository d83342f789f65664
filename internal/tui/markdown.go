package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer converts Markdown answers to styled terminal output.
// The renderer is cached and only recreated when the width changes.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	theme    string // "dark", "light" or "" for terminal auto-detection
}

// newMarkdownRenderer creates a renderer for the given width and theme.
// Returns nil on initialization failure; callers fall back to plain text.
func newMarkdownRenderer(width int, theme string) *markdownRenderer {
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(themeOption(theme), glamour.WithWordWrap(width))
	if err != nil {
		return nil
	}

	return &markdownRenderer{renderer: r, width: width, theme: theme}
}

func themeOption(theme string) glamour.TermRendererOption {
	switch theme {
	case "dark", "light":
		return glamour.WithStandardStyle(theme)
	default:
		return glamour.WithAutoStyle()
	}
}

// UpdateWidth recreates the renderer only if the width actually changed.
// Returns true if the renderer was updated.
func (m *markdownRenderer) UpdateWidth(width int) bool {
	if m == nil || width <= 0 || m.width == width {
		return false
	}

	r, err := glamour.NewTermRenderer(themeOption(m.theme), glamour.WithWordWrap(width))
	if err != nil {
		// Keep the existing renderer on error
		return false
	}

	m.renderer = r
	m.width = width
	return true
}

// Render converts Markdown to styled terminal output.
// Returns the original text if rendering fails.
func (m *markdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	return strings.TrimSuffix(rendered, "\n")
}
