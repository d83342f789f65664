package compose

import (
	"strings"
	"testing"

	"github.com/wofa-ai/wofa/internal/session"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

func TestCompose_UserTextWinsVerbatim(t *testing.T) {
	// Explicit text must win regardless of any other state.
	sessions := []*session.Session{
		session.New("", "", ""),
		session.New("tok", "Entrepreneurship", "What is Entrepreneurship?"),
	}
	turns := []session.Turn{
		{Text: "What is compound interest?"},
		{Text: "What is compound interest?", Image: testImage},
	}

	for _, sess := range sessions {
		for _, turn := range turns {
			q := Compose(turn, sess)
			if q.Text != turn.Text {
				t.Errorf("Compose(%+v) text = %q, want verbatim %q", turn, q.Text, turn.Text)
			}
		}
	}
}

func TestCompose_ImageWithoutText(t *testing.T) {
	sess := session.New("", "Entrepreneurship", "What is Entrepreneurship?")
	q := Compose(session.Turn{Image: testImage}, sess)

	if q.Text != ImagePrompt {
		t.Errorf("expected image prompt, got %q", q.Text)
	}
	if q.Image != testImage {
		t.Errorf("image should be carried through, got %q", q.Image)
	}
}

func TestCompose_CourseAndLesson(t *testing.T) {
	sess := session.New("", "Entrepreneurship", "What is Entrepreneurship?")
	q := Compose(session.Turn{}, sess)

	if !strings.Contains(q.Text, "Entrepreneurship") ||
		!strings.Contains(q.Text, "What is Entrepreneurship?") {
		t.Errorf("composed question should name course and lesson, got %q", q.Text)
	}
	if !strings.Contains(q.Text, "beginner") {
		t.Errorf("composed question should ask for beginner level, got %q", q.Text)
	}
	if q.Course != "Entrepreneurship" || q.Lesson != "What is Entrepreneurship?" {
		t.Errorf("context fields not carried: %+v", q)
	}
}

func TestCompose_CourseOnly(t *testing.T) {
	sess := session.New("", "Marketing", "")
	q := Compose(session.Turn{}, sess)

	if !strings.Contains(q.Text, "Marketing") || !strings.Contains(q.Text, "basics") {
		t.Errorf("course-only prompt should teach the topic from the basics, got %q", q.Text)
	}
}

func TestCompose_GenericFallback(t *testing.T) {
	q := Compose(session.Turn{}, session.New("", "", ""))

	if q.Text != FallbackPrompt {
		t.Errorf("expected fallback prompt, got %q", q.Text)
	}
	if q.Text == "" {
		t.Fatal("Compose must never return an empty question")
	}
}

func TestCompose_NeverEmpty(t *testing.T) {
	turns := []session.Turn{
		{},
		{Text: "   "},
		{Image: testImage},
		{Text: "hello"},
	}
	contexts := [][2]string{{"", ""}, {"Course", ""}, {"Course", "Lesson"}}

	for _, turn := range turns {
		for _, c := range contexts {
			q := Compose(turn, session.New("", c[0], c[1]))
			if strings.TrimSpace(q.Text) == "" {
				t.Errorf("Compose(%+v, ctx=%v) returned empty text", turn, c)
			}
		}
	}
}
