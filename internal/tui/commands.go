package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/compose"
)

// Messages produced by background commands. Settlement and reveal
// messages carry the epoch they were issued under; the handlers drop
// anything from an earlier epoch.

type answerMsg struct {
	epoch  int
	result backend.AnswerResult
}

type answerErrMsg struct {
	epoch int
	err   error
}

type revealTickMsg struct {
	epoch int
}

type captureMsg struct {
	text string
	err  error
}

type coursesMsg struct {
	courses []backend.Course
	err     error
}

type lessonsMsg struct {
	course  string // course title the lessons belong to
	lessons []backend.Lesson
	err     error
}

// dispatchCmd issues one chat request off the event loop. The dispatcher
// guarantees at most one request is outstanding; the result settles back
// onto the loop as exactly one answerMsg or answerErrMsg.
func (c *Controller) dispatchCmd(ctx context.Context, q compose.Question, token string, epoch int) tea.Cmd {
	return func() tea.Msg {
		result, err := c.dispatcher.Send(ctx, q, token)
		if err != nil {
			return answerErrMsg{epoch: epoch, err: err}
		}
		return answerMsg{epoch: epoch, result: result}
	}
}

// revealTickCmd schedules the next reveal step.
func revealTickCmd(delay time.Duration, epoch int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return revealTickMsg{epoch: epoch}
	})
}

// captureCmd runs one voice capture. Blocks until the recognizer
// returns; the transcript is auto-submitted by the handler.
func (c *Controller) captureCmd() tea.Cmd {
	return func() tea.Msg {
		text, err := c.voice.Listen(c.ctx)
		return captureMsg{text: text, err: err}
	}
}

// coursesCmd fetches the course catalog.
func (c *Controller) coursesCmd() tea.Cmd {
	return func() tea.Msg {
		courses, err := c.client.Courses(c.ctx)
		return coursesMsg{courses: courses, err: err}
	}
}

// lessonsCmd fetches the lessons of one course.
func (c *Controller) lessonsCmd(course backend.Course) tea.Cmd {
	return func() tea.Msg {
		lessons, err := c.client.Lessons(c.ctx, course.ID)
		return lessonsMsg{course: course.Title, lessons: lessons, err: err}
	}
}
