package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/wofa-ai/wofa/internal/attach"
	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/reveal"
	"github.com/wofa-ai/wofa/internal/session"
	"github.com/wofa-ai/wofa/internal/voice"
)

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires type switch on all message types
func (c *Controller) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return c.handleKey(msg)

	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height

		// Viewport height: total - input - separators - help
		inputHeight := c.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		c.viewport.SetWidth(msg.Width)
		c.viewport.SetHeight(vpHeight)
		c.input.SetWidth(msg.Width - 4) // Room for "> " prompt
		c.help.SetWidth(msg.Width)
		c.markdown.UpdateWidth(msg.Width)

		c.rebuildViewportContent()
		return c, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		c.viewport, cmd = c.viewport.Update(msg)
		return c, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		c.spinner, cmd = c.spinner.Update(msg)
		if c.state == StateThinking {
			c.rebuildViewportContent()
		}
		return c, cmd

	case answerMsg:
		return c.handleAnswer(msg)

	case answerErrMsg:
		return c.handleAnswerErr(msg)

	case revealTickMsg:
		return c.handleRevealTick(msg)

	case captureMsg:
		return c.handleCapture(msg)

	case coursesMsg:
		return c.handleCourses(msg)

	case lessonsMsg:
		return c.handleLessons(msg)
	}

	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

// handleAnswer settles a successful turn: the pending image is consumed,
// the exchange is recorded, and the answer reveal starts.
func (c *Controller) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != c.epoch {
		// clear and cancelTurn already released the sending mirror
		// for abandoned epochs; touching it here would free the
		// current epoch's in-flight turn.
		c.logger.Debug("dropping settlement from cleared conversation", "epoch", msg.epoch)
		return c, nil
	}
	c.sess.EndSend()
	c.turnCancel = nil

	c.sess.ConsumeImage()
	if err := c.store.RecordTurn(c.ctx, c.pendingQ, msg.result.Answer, c.sess.Course(), c.sess.Lesson()); err != nil {
		// History is best-effort; the answer still renders.
		c.logger.Warn("failed to record exchange", "error", err)
	}
	c.pendingQ = ""

	return c.startReveal(session.RoleAssistant, msg.result.Answer, c.saveImages(msg.result.Images))
}

// saveImages writes answer images under the data directory and returns
// their paths. A failed write keeps the raw data URL so the transcript
// still shows the image arrived.
func (c *Controller) saveImages(dataURLs []string) []string {
	if len(dataURLs) == 0 {
		return nil
	}
	dir := filepath.Join(c.cfg.DataDir, "images")
	out := make([]string, 0, len(dataURLs))
	for _, u := range dataURLs {
		path, err := attach.SaveDataURL(dir, u)
		if err != nil {
			c.logger.Warn("failed to save answer image", "error", err)
			out = append(out, u)
			continue
		}
		out = append(out, path)
	}
	return out
}

// handleAnswerErr settles a failed turn. Failures surface in the
// transcript and reveal exactly like answers, so the voice bridge can
// read them back.
func (c *Controller) handleAnswerErr(msg answerErrMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != c.epoch {
		c.logger.Debug("dropping failure from cleared conversation", "epoch", msg.epoch)
		return c, nil
	}
	c.sess.EndSend()
	c.turnCancel = nil
	c.pendingQ = ""

	var rejected *backend.RejectedError
	switch {
	case errors.Is(msg.err, backend.ErrBusy):
		// Unreachable through normal use; Enter only submits in StateInput.
		c.logger.Warn("submit raced an in-flight request")
		c.state = StateInput
		return c, c.input.Focus()

	case errors.Is(msg.err, backend.ErrUnauthorized):
		c.forceLogout()
		return c.startReveal(session.RoleError, expiredText, nil)

	case errors.As(msg.err, &rejected):
		text := rejected.Message
		if text == "" {
			text = fmt.Sprintf("WOFA AI rejected the request (status %d).", rejected.Status)
		}
		return c.startReveal(session.RoleError, text, nil)

	case errors.Is(msg.err, backend.ErrUnreachable):
		return c.startReveal(session.RoleError, unreachableText, nil)

	default:
		// Raw errors are logged, never shown.
		c.logger.Error("dispatch failed", "error", msg.err)
		return c.startReveal(session.RoleError, "Something went wrong. Please try again.", nil)
	}
}

// forceLogout invalidates the credential in memory and every persisted
// session key, the 401 equivalent of an explicit logout.
func (c *Controller) forceLogout() {
	c.sess.ClearToken()
	if err := c.store.Clear(c.ctx); err != nil {
		c.logger.Warn("failed to clear persisted session", "error", err)
	}
}

// startReveal appends a transcript entry and begins revealing text into
// it one rune per tick. A zero delay renders the full text at once.
// Images attach on completion, after the text has fully revealed.
func (c *Controller) startReveal(role, text string, images []string) (tea.Model, tea.Cmd) {
	c.addMessage(session.Message{Role: role})

	delay := c.stepDelay()
	if delay == 0 {
		return c.finishReveal(text, images)
	}

	c.task = reveal.New(text, images, delay)
	c.state = StateRevealing
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, revealTickCmd(delay, c.epoch)
}

// handleRevealTick advances the reveal by one rune.
func (c *Controller) handleRevealTick(msg revealTickMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != c.epoch || c.state != StateRevealing || c.task == nil {
		return c, nil
	}

	prefix, done := c.task.Step()
	c.messages[len(c.messages)-1].Text = prefix
	if done {
		return c.finishReveal(c.task.Text(), c.task.Images())
	}
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, revealTickCmd(c.task.Delay(), c.epoch)
}

// finishReveal publishes the final text and returns to input. The text
// becomes the session's last answer, which /speak reads back.
func (c *Controller) finishReveal(final string, images []string) (tea.Model, tea.Cmd) {
	c.messages[len(c.messages)-1].Text = final
	c.messages[len(c.messages)-1].Images = images
	c.sess.SetLastAnswer(final)
	c.task = nil
	c.state = StateInput
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, c.input.Focus()
}

// skipReveal completes an in-progress reveal immediately.
func (c *Controller) skipReveal() {
	if c.task == nil {
		return
	}
	final := c.task.Text()
	images := c.task.Images()
	c.task.Cancel()
	c.task = nil
	c.messages[len(c.messages)-1].Text = final
	c.messages[len(c.messages)-1].Images = images
	c.sess.SetLastAnswer(final)
	c.state = StateInput
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
}

// cancelTurn abandons an in-flight request. The epoch bump makes the
// eventual settlement a no-op.
func (c *Controller) cancelTurn() {
	c.epoch++
	if c.turnCancel != nil {
		c.turnCancel()
		c.turnCancel = nil
	}
	c.sess.EndSend()
	c.pendingQ = ""
	c.state = StateInput
	c.addMessage(session.Message{Role: session.RoleSystem, Text: "(Canceled)"})
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
}

// handleCapture settles a voice capture. A non-empty transcript is
// submitted immediately, exactly as if it had been typed.
func (c *Controller) handleCapture(msg captureMsg) (tea.Model, tea.Cmd) {
	c.notice = ""
	switch {
	case errors.Is(msg.err, voice.ErrUnsupported):
		c.notice = "Voice input is not available on this system."
	case msg.err != nil:
		c.logger.Warn("voice capture failed", "error", msg.err)
		c.notice = "Voice input failed: " + msg.err.Error()
	case msg.text == "":
		c.notice = "Heard nothing. Try again closer to the microphone."
	default:
		return c.submitText(msg.text)
	}
	return c, nil
}

// handleCourses settles a catalog fetch and renders the numbered list
// that /course N selects from.
func (c *Controller) handleCourses(msg coursesMsg) (tea.Model, tea.Cmd) {
	c.state = StateInput
	if msg.err != nil {
		return c.catalogFailure("courses", msg.err)
	}

	c.lastCourses = msg.courses
	if len(msg.courses) == 0 {
		c.addMessage(session.Message{Role: session.RoleSystem, Text: "No courses are available yet."})
		c.rebuildViewportContent()
		c.viewport.GotoBottom()
		return c, c.input.Focus()
	}

	var b strings.Builder
	b.WriteString("Courses:\n")
	for i, course := range msg.courses {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, course.Title)
	}
	b.WriteString("Use /course <number> to select one.")
	c.addMessage(session.Message{Role: session.RoleSystem, Text: b.String()})
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, c.input.Focus()
}

// handleLessons settles a lesson fetch for the selected course.
func (c *Controller) handleLessons(msg lessonsMsg) (tea.Model, tea.Cmd) {
	c.state = StateInput
	if msg.err != nil {
		return c.catalogFailure("lessons", msg.err)
	}

	c.lastLessons = msg.lessons
	if len(msg.lessons) == 0 {
		c.addMessage(session.Message{Role: session.RoleSystem,
			Text: fmt.Sprintf("The course %q has no lessons yet.", msg.course)})
		c.rebuildViewportContent()
		c.viewport.GotoBottom()
		return c, c.input.Focus()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Lessons in %s:\n", msg.course)
	for i, lesson := range msg.lessons {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, lesson.Title)
	}
	b.WriteString("Use /lesson <number> to start one.")
	c.addMessage(session.Message{Role: session.RoleSystem, Text: b.String()})
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, c.input.Focus()
}

// catalogFailure reports a failed catalog fetch in the transcript.
func (c *Controller) catalogFailure(what string, err error) (tea.Model, tea.Cmd) {
	c.logger.Warn("catalog fetch failed", "what", what, "error", err)
	var text string
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		c.forceLogout()
		text = expiredText
	case errors.Is(err, backend.ErrUnreachable):
		text = unreachableText
	default:
		text = fmt.Sprintf("Could not load %s. Please try again.", what)
	}
	c.addMessage(session.Message{Role: session.RoleError, Text: text})
	c.rebuildViewportContent()
	c.viewport.GotoBottom()
	return c, c.input.Focus()
}
