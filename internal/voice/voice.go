// Package voice arbitrates speech input and output behind a capability
// interface.
//
// Hosts without a speech engine degrade to ErrUnsupported instead of
// crashing; tests substitute a fake Engine. The Bridge owns two
// independent state machines: playback (idle/speaking, a new Speak
// preempts the current utterance) and capture (idle/listening,
// strictly exclusive). Neither touches chat state.
package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/wofa-ai/wofa/internal/log"
)

// Sentinel errors for voice operations. Checked with errors.Is().
var (
	// ErrUnsupported indicates the host offers no matching speech capability.
	ErrUnsupported = errors.New("speech not supported in this environment")

	// ErrAlreadyListening indicates a capture was started while one is active.
	ErrAlreadyListening = errors.New("already listening")

	// ErrNothingToRead indicates Speak was called with no text. Surfaced
	// to the user as a prompt, never a silent failure.
	ErrNothingToRead = errors.New("nothing to read")
)

// Engine is the low-level speech capability. Both methods block until
// the operation finishes or ctx is cancelled.
type Engine interface {
	// CanSpeak reports whether text-to-speech is available.
	CanSpeak() bool

	// CanListen reports whether speech-to-text is available.
	CanListen() bool

	// Speak voices text. Cancelling ctx cuts the utterance short.
	Speak(ctx context.Context, text string) error

	// Listen captures one utterance and returns its transcript.
	Listen(ctx context.Context) (string, error)
}

// Bridge arbitrates access to an Engine.
type Bridge struct {
	engine Engine
	logger log.Logger

	mu          sync.Mutex
	speakCancel context.CancelFunc

	listenMu  sync.Mutex
	listening bool
}

// NewBridge wraps an engine. Engine must not be nil; use NewNopEngine
// for hosts with no speech support.
func NewBridge(engine Engine, logger log.Logger) *Bridge {
	return &Bridge{engine: engine, logger: logger}
}

// CanSpeak reports whether playback is available.
func (b *Bridge) CanSpeak() bool { return b.engine.CanSpeak() }

// CanListen reports whether capture is available.
func (b *Bridge) CanListen() bool { return b.engine.CanListen() }

// Speak starts voicing text, preempting any in-progress utterance.
// It returns once the utterance has started; playback itself runs in
// the background. Empty text is ErrNothingToRead, a missing engine is
// ErrUnsupported.
func (b *Bridge) Speak(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrNothingToRead
	}
	if !b.engine.CanSpeak() {
		return ErrUnsupported
	}

	b.mu.Lock()
	if b.speakCancel != nil {
		b.speakCancel() // speaking -> idle before the new utterance
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.speakCancel = cancel
	b.mu.Unlock()

	go func() {
		defer cancel()
		if err := b.engine.Speak(ctx, text); err != nil && !errors.Is(err, context.Canceled) {
			b.logger.Warn("speech playback failed", "error", err)
		}
	}()

	return nil
}

// Stop forces playback to idle. Safe to call when nothing is speaking.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.speakCancel != nil {
		b.speakCancel()
		b.speakCancel = nil
	}
}

// Listen captures one utterance and returns its transcript. Blocks
// until the engine delivers a transcript or an error; callers run it
// off the event loop. A second Listen while one is active fails fast
// with ErrAlreadyListening - capture never queues.
func (b *Bridge) Listen(ctx context.Context) (string, error) {
	if !b.engine.CanListen() {
		return "", ErrUnsupported
	}

	b.listenMu.Lock()
	if b.listening {
		b.listenMu.Unlock()
		return "", ErrAlreadyListening
	}
	b.listening = true
	b.listenMu.Unlock()

	defer func() {
		b.listenMu.Lock()
		b.listening = false
		b.listenMu.Unlock()
	}()

	transcript, err := b.engine.Listen(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(transcript), nil
}

// Listening reports whether a capture is active.
func (b *Bridge) Listening() bool {
	b.listenMu.Lock()
	defer b.listenMu.Unlock()
	return b.listening
}
