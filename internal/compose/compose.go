// Package compose derives the effective question for a turn.
//
// Compose is a total, pure function: it never fails and never returns an
// empty question. Precedence is a product contract - stored course and
// lesson context must never override explicit user input.
package compose

import (
	"fmt"
	"strings"

	"github.com/wofa-ai/wofa/internal/session"
)

// Canned prompts used when the user supplies no text.
const (
	// ImagePrompt asks the tutor to explain an uploaded image.
	ImagePrompt = "Please explain the uploaded image step by step in simple terms."

	// FallbackPrompt is the generic teaching request when no context exists.
	FallbackPrompt = "Teach me something valuable for a beginner student."
)

// Question is the composed payload sent to the backend. Derived value,
// never stored.
type Question struct {
	Text   string
	Image  string // data URL, "" if none
	Course string // "" if none
	Lesson string // "" if none
}

// Compose derives the effective question from a turn and the session's
// stored course/lesson context. First match wins:
//
//  1. Typed text is used verbatim.
//  2. An attached image with no text asks for an image explanation.
//  3. Course and lesson selected: teach that lesson from beginner level.
//  4. Course only: teach that topic from the basics.
//  5. Otherwise the generic fallback prompt.
func Compose(turn session.Turn, sess *session.Session) Question {
	q := Question{
		Image:  turn.Image,
		Course: sess.Course(),
		Lesson: sess.Lesson(),
	}

	switch {
	case strings.TrimSpace(turn.Text) != "":
		q.Text = turn.Text

	case turn.Image != "":
		q.Text = ImagePrompt

	case q.Course != "" && q.Lesson != "":
		q.Text = fmt.Sprintf(
			"Teach me the lesson %q from the course %q. Start from beginner level and include examples and exercises.",
			q.Lesson, q.Course)

	case q.Course != "":
		q.Text = fmt.Sprintf("Teach me the topic %q starting from the basics.", q.Course)

	default:
		q.Text = FallbackPrompt
	}

	return q
}
