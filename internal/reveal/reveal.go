// Package reveal implements the timed, incremental disclosure of an
// assistant answer.
//
// The reveal is a pacing effect carried over from the web client, not a
// performance optimization: text is exposed rune by rune at a fixed
// step delay so the transcript updates visibly instead of appearing
// atomically. A Task is steppable and cancellable; it owns no timers,
// so the caller decides how steps are scheduled (the TUI uses Bubble
// Tea tick messages, the one-shot command uses Run).
//
// Tasks never fail. Cancellation stops further steps and leaves the
// partial prefix in place; there is no rollback.
package reveal

import (
	"context"
	"time"
)

// DefaultStepDelay is the per-rune delay matching the web client's
// typing animation.
const DefaultStepDelay = 12 * time.Millisecond

// Task is one in-progress reveal. Not safe for concurrent use: a task
// belongs to a single event loop or goroutine.
type Task struct {
	runes     []rune
	images    []string
	pos       int
	delay     time.Duration
	cancelled bool
}

// New creates a reveal task for text and its attached images.
// A non-positive delay disables pacing (every step is immediate).
func New(text string, images []string, delay time.Duration) *Task {
	return &Task{
		runes:  []rune(text),
		images: images,
		delay:  delay,
	}
}

// Step advances the reveal by one rune and returns the new prefix.
// Prefix lengths are strictly increasing across calls until done.
// Stepping a finished or cancelled task is a no-op.
func (t *Task) Step() (prefix string, done bool) {
	if t.cancelled || t.pos >= len(t.runes) {
		return string(t.runes[:t.pos]), true
	}
	t.pos++
	return string(t.runes[:t.pos]), t.pos >= len(t.runes)
}

// Prefix returns the currently revealed prefix.
func (t *Task) Prefix() string { return string(t.runes[:t.pos]) }

// Text returns the full text being revealed.
func (t *Task) Text() string { return string(t.runes) }

// Images returns the attachments to append once the text is fully
// revealed. Callers must not mutate the returned slice.
func (t *Task) Images() []string { return t.images }

// Delay returns the per-step delay.
func (t *Task) Delay() time.Duration { return t.delay }

// Done reports whether the reveal has run to completion or been
// cancelled.
func (t *Task) Done() bool { return t.cancelled || t.pos >= len(t.runes) }

// Cancel stops the reveal. The prefix revealed so far stays as is.
func (t *Task) Cancel() { t.cancelled = true }

// Cancelled reports whether Cancel was called before completion.
func (t *Task) Cancelled() bool { return t.cancelled }

// Run drives the task to completion (or cancellation) in a blocking
// loop, calling publish after every step. Used by the one-shot command;
// the interactive UI schedules steps itself.
//
// Context cancellation behaves like Cancel: the loop stops and the
// partial prefix stands.
func (t *Task) Run(ctx context.Context, publish func(prefix string)) {
	for !t.Done() {
		if ctx.Err() != nil {
			t.Cancel()
			return
		}

		prefix, _ := t.Step()
		publish(prefix)

		if t.delay > 0 && !t.Done() {
			timer := time.NewTimer(t.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				t.Cancel()
				return
			case <-timer.C:
			}
		}
	}
}
