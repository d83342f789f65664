package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/wofa-ai/wofa/internal/attach"
	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/compose"
	"github.com/wofa-ai/wofa/internal/session"
	"github.com/wofa-ai/wofa/internal/store"
	"github.com/wofa-ai/wofa/internal/voice"
)

// Slash command constants.
const (
	cmdHelp    = "/help"
	cmdClear   = "/clear"
	cmdCourses = "/courses"
	cmdCourse  = "/course"
	cmdLesson  = "/lesson"
	cmdImage   = "/image"
	cmdSpeak   = "/speak"
	cmdStop    = "/stop"
	cmdListen  = "/listen"
	cmdHistory = "/history"
	cmdTheme   = "/theme"
	cmdLogout  = "/logout"
	cmdExit    = "/exit"
	cmdQuit    = "/quit"
)

const helpText = `Commands:
  /courses           list available courses
  /course <n>        select a course (loads its lessons)
  /lesson <n>        select a lesson and start it
  /image <path>      attach an image to your next question
  /speak             read the last answer aloud
  /stop              stop speech playback
  /listen            ask by voice
  /history           show recent exchanges
  /theme dark|light  switch the markdown theme
  /clear             restart the conversation
  /logout            forget the stored credential
  /exit              quit
Shortcuts:
  Enter: send   Shift+Enter: newline   Esc: cancel/skip
  Ctrl+C: cancel/clear   Ctrl+D: exit   Up/Down: input history`

// keyMap holds key bindings for help bar display.
type keyMap struct {
	Submit     key.Binding
	NewLine    key.Binding
	History    key.Binding
	Cancel     key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	EscCancel  key.Binding
	EscSkip    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		NewLine:    key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("s+enter", "newline")),
		History:    key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Cancel:     key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		EscCancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		EscSkip:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "skip")),
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (c *Controller) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return c.handleCtrlC()
		case 'd':
			return c, c.cleanup()
		}
	}

	switch k.Code {
	case tea.KeyEnter:
		if c.state == StateInput {
			// Enter submits, Shift+Enter falls through as a newline
			if k.Mod&tea.ModShift == 0 {
				return c.handleSubmit()
			}
		}

	case tea.KeyUp:
		// Up at first line navigates history, otherwise goes to textarea
		if c.state == StateInput && c.input.Line() == 0 {
			return c.navigateHistory(-1)
		}

	case tea.KeyDown:
		// Down at last line navigates history, otherwise goes to textarea
		if c.state == StateInput && c.input.Line() == c.input.LineCount()-1 {
			return c.navigateHistory(1)
		}

	case tea.KeyEscape:
		switch c.state {
		case StateThinking:
			c.cancelTurn()
			return c, nil
		case StateRevealing:
			c.skipReveal()
			return c, c.input.Focus()
		}

	case tea.KeyPgUp:
		c.viewport.PageUp()
		return c, nil

	case tea.KeyPgDown:
		c.viewport.PageDown()
		return c, nil
	}

	// Typing is always allowed; the next question can be prepared while
	// WOFA is still answering.
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c *Controller) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()

	// Double Ctrl+C within 1 second = quit
	if now.Sub(c.lastCtrlC) < time.Second {
		return c, c.cleanup()
	}
	c.lastCtrlC = now

	switch c.state {
	case StateInput:
		c.input.Reset()
		c.notice = ""
		return c, nil

	case StateThinking:
		c.cancelTurn()
		return c, nil

	case StateRevealing:
		c.skipReveal()
		return c, c.input.Focus()
	}

	return c, nil
}

func (c *Controller) handleSubmit() (tea.Model, tea.Cmd) {
	query := strings.TrimSpace(c.input.Value())

	if strings.HasPrefix(query, "/") {
		return c.handleSlashCommand(query)
	}
	return c.submitText(query)
}

// submitText wraps typed or transcribed text into a turn together with
// any pending image attachment.
func (c *Controller) submitText(text string) (tea.Model, tea.Cmd) {
	return c.submitTurn(session.Turn{Text: text, Image: c.sess.PendingImage()})
}

// submitTurn starts one question/answer exchange. The user's entry is
// echoed into the transcript before dispatch, never after.
func (c *Controller) submitTurn(turn session.Turn) (tea.Model, tea.Cmd) {
	// One exchange at a time: a new turn waits until the previous
	// answer has settled and finished revealing. Voice captures can
	// land here in any state.
	if c.state != StateInput {
		c.notice = "Wait for the current reply to finish."
		return c, nil
	}

	// An empty submit without any course context has nothing to ask.
	if turn.Empty() && c.sess.Course() == "" {
		c.notice = "Type a question, attach an image, or pick a course first."
		return c, nil
	}

	if !c.sess.BeginSend() {
		c.logger.Warn("submit ignored: request already in flight")
		return c, nil
	}

	q := compose.Compose(turn, c.sess)

	display := strings.TrimSpace(turn.Text)
	var images []string
	if turn.Image != "" {
		images = []string{turn.Image}
		if display == "" {
			display = imagePlaceholder
		}
	}
	if display == "" {
		// Canned course/lesson prompts show what is actually asked.
		display = q.Text
	}
	c.addMessage(session.Message{Role: session.RoleUser, Text: display, Images: images})

	if t := strings.TrimSpace(turn.Text); t != "" {
		c.history = append(c.history, t)
		if len(c.history) > maxHistory {
			c.history = c.history[len(c.history)-maxHistory:]
		}
		c.historyIdx = len(c.history)
	}

	c.input.Reset()
	c.notice = ""
	c.state = StateThinking
	c.pendingQ = q.Text

	ctx, cancel := context.WithCancel(c.ctx)
	c.turnCancel = cancel

	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, tea.Batch(
		c.spinner.Tick,
		c.dispatchCmd(ctx, q, c.sess.Token(), c.epoch),
	)
}

//nolint:gocyclo // One case per command
func (c *Controller) handleSlashCommand(raw string) (tea.Model, tea.Cmd) {
	c.input.Reset()
	c.notice = ""

	name, arg, _ := strings.Cut(raw, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case cmdHelp:
		c.addMessage(session.Message{Role: session.RoleSystem, Text: helpText})

	case cmdClear:
		c.clear()
		return c, nil

	case cmdCourses:
		c.state = StateThinking
		return c, tea.Batch(c.spinner.Tick, c.coursesCmd())

	case cmdCourse:
		return c.selectCourse(arg)

	case cmdLesson:
		return c.selectLesson(arg)

	case cmdImage:
		c.attachImage(arg)

	case cmdSpeak:
		c.speakLast()

	case cmdStop:
		c.voice.Stop()

	case cmdListen:
		return c.beginListen()

	case cmdHistory:
		c.showHistory()

	case cmdTheme:
		c.setTheme(arg)

	case cmdLogout:
		c.logout()

	case cmdExit, cmdQuit:
		return c, c.cleanup()

	default:
		c.addMessage(session.Message{Role: session.RoleError, Text: "Unknown command: " + name})
	}

	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, nil
}

// selectCourse resolves arg against the cached catalog, persists the
// choice and loads the course's lessons.
func (c *Controller) selectCourse(arg string) (tea.Model, tea.Cmd) {
	if arg == "" {
		c.notice = "Usage: /course <number|title>"
		return c, nil
	}
	if len(c.lastCourses) == 0 {
		c.notice = "Run /courses first to list what is available."
		return c, nil
	}

	course, ok := findCourse(c.lastCourses, arg)
	if !ok {
		c.notice = fmt.Sprintf("No course matches %q.", arg)
		return c, nil
	}

	c.sess.SetContext(course.Title, "")
	c.lastLessons = nil
	if err := c.store.Set(c.ctx, store.KeyActiveCourse, course.Title); err != nil {
		c.logger.Warn("failed to persist course choice", "error", err)
	}
	if err := c.store.Delete(c.ctx, store.KeyActiveLesson); err != nil {
		c.logger.Warn("failed to drop stored lesson", "error", err)
	}

	c.state = StateThinking
	return c, tea.Batch(c.spinner.Tick, c.lessonsCmd(course))
}

// selectLesson resolves arg against the loaded lesson list and starts
// the lesson by submitting its teaching prompt.
func (c *Controller) selectLesson(arg string) (tea.Model, tea.Cmd) {
	if arg == "" {
		c.notice = "Usage: /lesson <number|title>"
		return c, nil
	}
	if len(c.lastLessons) == 0 {
		c.notice = "Select a course first (/courses, then /course <n>)."
		return c, nil
	}

	lesson, ok := findLesson(c.lastLessons, arg)
	if !ok {
		c.notice = fmt.Sprintf("No lesson matches %q.", arg)
		return c, nil
	}

	c.sess.SetContext(c.sess.Course(), lesson.Title)
	if err := c.store.Set(c.ctx, store.KeyActiveLesson, lesson.Title); err != nil {
		c.logger.Warn("failed to persist lesson choice", "error", err)
	}

	// Selecting a lesson starts it right away.
	return c.submitTurn(session.Turn{})
}

// findCourse matches by 1-based list position or case-insensitive title.
func findCourse(courses []backend.Course, arg string) (backend.Course, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(courses) {
			return courses[n-1], true
		}
		return backend.Course{}, false
	}
	for _, course := range courses {
		if strings.EqualFold(course.Title, arg) {
			return course, true
		}
	}
	return backend.Course{}, false
}

func findLesson(lessons []backend.Lesson, arg string) (backend.Lesson, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(lessons) {
			return lessons[n-1], true
		}
		return backend.Lesson{}, false
	}
	for _, lesson := range lessons {
		if strings.EqualFold(lesson.Title, arg) {
			return lesson, true
		}
	}
	return backend.Lesson{}, false
}

// attachImage stages an image file for the next question.
func (c *Controller) attachImage(path string) {
	if path == "" {
		c.notice = "Usage: /image <path>"
		return
	}

	dataURL, err := attach.EncodeFile(path)
	if err != nil {
		c.logger.Warn("image attach failed", "path", path, "error", err)
		c.notice = "Could not attach image: " + err.Error()
		return
	}

	c.sess.AttachImage(dataURL)
	c.notice = fmt.Sprintf("📷 %s attached. It is sent with your next question.", filepath.Base(path))
}

// speakLast reads the most recent answer aloud.
func (c *Controller) speakLast() {
	switch err := c.voice.Speak(c.sess.LastAnswer()); {
	case errors.Is(err, voice.ErrNothingToRead):
		c.notice = "No AI answer to read yet."
	case errors.Is(err, voice.ErrUnsupported):
		c.notice = "Speech playback is not available on this system."
	case err != nil:
		c.logger.Warn("speech playback failed", "error", err)
		c.notice = "Speech playback failed: " + err.Error()
	}
}

// beginListen starts one voice capture.
func (c *Controller) beginListen() (tea.Model, tea.Cmd) {
	if !c.voice.CanListen() {
		c.notice = "Voice input is not available on this system."
		return c, nil
	}
	c.notice = "🎙 Listening..."
	return c, c.captureCmd()
}

// showHistory lists recent recorded exchanges.
func (c *Controller) showHistory() {
	turns, err := c.store.RecentTurns(c.ctx, 10)
	if err != nil {
		c.logger.Warn("failed to load history", "error", err)
		c.notice = "Could not load history."
		return
	}
	if len(turns) == 0 {
		c.addMessage(session.Message{Role: session.RoleSystem, Text: "No recorded exchanges yet."})
		return
	}

	var b strings.Builder
	b.WriteString("Recent exchanges:\n")
	for _, turn := range turns {
		fmt.Fprintf(&b, "  • %s\n    %s\n", truncate(turn.Question, 70), truncate(turn.Answer, 70))
	}
	c.addMessage(session.Message{Role: session.RoleSystem, Text: strings.TrimRight(b.String(), "\n")})
}

// setTheme switches the markdown theme and persists the choice.
func (c *Controller) setTheme(arg string) {
	if arg != "dark" && arg != "light" {
		c.notice = "Usage: /theme dark|light"
		return
	}
	c.markdown = newMarkdownRenderer(c.width, arg)
	if err := c.store.Set(c.ctx, store.KeyTheme, arg); err != nil {
		c.logger.Warn("failed to persist theme", "error", err)
	}
	c.notice = "Theme set to " + arg + "."
}

// logout forgets the credential and every persisted session key.
func (c *Controller) logout() {
	c.forceLogout()
	c.addMessage(session.Message{Role: session.RoleSystem, Text: "Logged out."})
}

// truncate shortens s to at most n runes for list display.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

func (c *Controller) navigateHistory(delta int) (tea.Model, tea.Cmd) {
	if len(c.history) == 0 {
		return c, nil
	}

	c.historyIdx += delta

	if c.historyIdx < 0 {
		c.historyIdx = 0
	}
	if c.historyIdx > len(c.history) {
		c.historyIdx = len(c.history)
	}

	if c.historyIdx == len(c.history) {
		c.input.SetValue("")
	} else {
		c.input.SetValue(c.history[c.historyIdx])
		c.input.CursorEnd()
	}

	return c, nil
}
