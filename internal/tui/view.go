package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/wofa-ai/wofa/internal/session"
)

// View implements tea.Model.
// Uses AltScreen with a viewport for the scrollable transcript.
func (c *Controller) View() tea.View {
	c.viewBuf.Reset()

	// Viewport (scrollable transcript)
	_, _ = c.viewBuf.WriteString(c.viewport.View())
	_, _ = c.viewBuf.WriteString("\n")

	// Separator line above input
	_, _ = c.viewBuf.WriteString(c.renderSeparator())
	_, _ = c.viewBuf.WriteString("\n")

	// Transient notice (attachment confirmations, usage hints)
	if c.notice != "" {
		_, _ = c.viewBuf.WriteString(c.styles.Notice.Render(c.notice))
		_, _ = c.viewBuf.WriteString("\n")
	}

	// Input prompt - always shown, typing is allowed in every state
	_, _ = c.viewBuf.WriteString(c.styles.Prompt.Render("> "))
	_, _ = c.viewBuf.WriteString(c.input.View())
	_, _ = c.viewBuf.WriteString("\n")

	// Separator line below input
	_, _ = c.viewBuf.WriteString(c.renderSeparator())
	_, _ = c.viewBuf.WriteString("\n")

	// Status bar: course context plus keyboard shortcuts
	_, _ = c.viewBuf.WriteString(c.renderStatusBar())

	v := tea.NewView(c.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the transcript from messages and
// state. Called whenever messages, the reveal, or the state change.
func (c *Controller) rebuildViewportContent() {
	var b strings.Builder

	// Banner, plus getting-started tips on the first ever run
	_, _ = b.WriteString(c.styles.RenderBanner())
	_, _ = b.WriteString("\n")
	if !c.welcomed {
		_, _ = b.WriteString(c.styles.RenderWelcomeTips())
		_, _ = b.WriteString("\n")
	}

	// Messages (already bounded by addMessage)
	for i, msg := range c.messages {
		switch msg.Role {
		case session.RoleUser:
			_, _ = b.WriteString(c.styles.User.Render("You> "))
			_, _ = b.WriteString(msg.Text)
		case session.RoleAssistant:
			_, _ = b.WriteString(c.styles.Assistant.Render("WOFA> "))
			if c.revealingAt(i) {
				// Markdown waits for the reveal to finish; partial
				// fences would render garbage.
				_, _ = b.WriteString(msg.Text)
			} else {
				_, _ = b.WriteString(c.markdown.Render(msg.Text))
			}
		case session.RoleSystem:
			_, _ = b.WriteString(c.styles.System.Render(msg.Text))
		case session.RoleError:
			_, _ = b.WriteString(c.styles.Error.Render(msg.Text))
		}
		for _, img := range msg.Images {
			_, _ = b.WriteString("\n")
			if strings.HasPrefix(img, "data:") {
				_, _ = b.WriteString(c.styles.System.Render("  [image attached]"))
			} else {
				_, _ = b.WriteString(c.styles.System.Render("  [image: " + img + "]"))
			}
		}
		_, _ = b.WriteString("\n\n")
	}

	// Thinking indicator
	if c.state == StateThinking {
		_, _ = b.WriteString(c.spinner.View())
		_, _ = b.WriteString(" Thinking...\n\n")
	}

	c.viewport.SetContent(b.String())
}

// revealingAt reports whether the message at index i is mid-reveal.
func (c *Controller) revealingAt(i int) bool {
	return c.state == StateRevealing && c.task != nil && i == len(c.messages)-1
}

// renderSeparator returns a horizontal line separator.
func (c *Controller) renderSeparator() string {
	width := c.width
	if width <= 0 {
		width = 80
	}
	return c.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar returns the course context and state-appropriate
// keyboard shortcuts.
func (c *Controller) renderStatusBar() string {
	var bindings []key.Binding
	switch c.state {
	case StateInput:
		bindings = []key.Binding{
			c.keys.Submit, c.keys.NewLine, c.keys.History,
			c.keys.Cancel, c.keys.Quit, c.keys.ScrollUp,
		}
	case StateThinking:
		bindings = []key.Binding{
			c.keys.EscCancel, c.keys.Cancel,
			c.keys.ScrollUp, c.keys.ScrollDown,
		}
	case StateRevealing:
		bindings = []key.Binding{
			c.keys.EscSkip, c.keys.Cancel,
			c.keys.ScrollUp, c.keys.ScrollDown,
		}
	}

	help := c.help.ShortHelpView(bindings)
	ctx := c.renderContext()
	if ctx == "" {
		return help
	}
	return c.styles.StatusBar.Render(ctx) + "  " + help
}

// renderContext summarizes the active course and lesson.
func (c *Controller) renderContext() string {
	course := c.sess.Course()
	if course == "" {
		return ""
	}
	if lesson := c.sess.Lesson(); lesson != "" {
		return course + " › " + lesson
	}
	return course
}
