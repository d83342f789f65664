// Package session defines the in-memory state of one tutoring chat session.
//
// Exactly one Session exists per process. It is owned by the controller
// (internal/tui); every other component receives read access or derived
// values and never mutates it.
//
// Thread Safety: Not thread-safe - the Bubble Tea event loop serializes
// all access.
package session

import "strings"

// Message roles used in the transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleError     = "error"
)

// Session holds the mutable state of the active chat session.
type Session struct {
	token   string
	course  string
	lesson  string
	pending string // attached image as data URL, consumed by next successful turn

	sending    bool
	lastAnswer string
}

// New creates a Session with the given credential and course context.
// Any field may be empty.
func New(token, course, lesson string) *Session {
	return &Session{token: token, course: course, lesson: lesson}
}

// Token returns the bearer credential, or "" if not logged in.
func (s *Session) Token() string { return s.token }

// ClearToken drops the credential. Called on logout and on a 401.
func (s *Session) ClearToken() { s.token = "" }

// Course returns the active course title, or "".
func (s *Session) Course() string { return s.course }

// Lesson returns the active lesson title, or "".
func (s *Session) Lesson() string { return s.lesson }

// SetContext updates the active course and lesson.
func (s *Session) SetContext(course, lesson string) {
	s.course = course
	s.lesson = lesson
}

// PendingImage returns the attached image data URL, or "".
func (s *Session) PendingImage() string { return s.pending }

// AttachImage replaces the pending image.
func (s *Session) AttachImage(dataURL string) { s.pending = dataURL }

// ConsumeImage clears the pending image and returns what was attached.
// Called exactly once a successful response has consumed it.
func (s *Session) ConsumeImage() string {
	img := s.pending
	s.pending = ""
	return img
}

// Sending reports whether a dispatch is in flight.
func (s *Session) Sending() bool { return s.sending }

// BeginSend marks a dispatch in flight. Returns false if one already is,
// in which case the caller must not issue a request.
func (s *Session) BeginSend() bool {
	if s.sending {
		return false
	}
	s.sending = true
	return true
}

// EndSend marks the in-flight dispatch as settled (success or failure).
func (s *Session) EndSend() { s.sending = false }

// LastAnswer returns the text of the most recently fully-revealed
// assistant message, or "" if none has been rendered yet.
func (s *Session) LastAnswer() string { return s.lastAnswer }

// SetLastAnswer publishes the final text of a completed reveal.
func (s *Session) SetLastAnswer(text string) { s.lastAnswer = text }

// Reset clears per-conversation state (pending image, last answer) but
// keeps the credential and course context. Called by chat-clear.
func (s *Session) Reset() {
	s.pending = ""
	s.lastAnswer = ""
}

// Turn is one user-initiated submission: typed text and/or an attached
// image. Created per submit action and consumed immediately.
type Turn struct {
	Text  string
	Image string // data URL, "" if none
}

// Empty reports whether the turn carries neither text nor an image.
func (t Turn) Empty() bool {
	return strings.TrimSpace(t.Text) == "" && t.Image == ""
}

// Message is one transcript entry. The transcript is append-only: a
// message is never mutated after its reveal completes.
type Message struct {
	Role   string
	Text   string
	Images []string // ordered attachment references (paths or data URLs)
}
