package voice

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/wofa-ai/wofa/internal/config"
)

// speakers are the text-to-speech commands probed, in order, when no
// speak command is configured.
var speakers = []string{"say", "espeak-ng", "espeak"}

// CommandEngine drives external speech commands: a synthesizer taking
// the utterance as its final argument, and an optional recognizer that
// prints one transcript on stdout and exits.
type CommandEngine struct {
	speakCmd  string
	listenCmd string
	rate      int
	voice     string
}

// NewCommandEngine builds an engine from configuration, probing PATH
// for a known synthesizer when none is configured. Capabilities that
// resolve to no command are simply absent; the bridge reports them as
// unsupported rather than failing.
func NewCommandEngine(cfg config.SpeechConfig) *CommandEngine {
	speak := strings.TrimSpace(cfg.SpeakCommand)
	if speak == "" {
		for _, candidate := range speakers {
			if _, err := exec.LookPath(candidate); err == nil {
				speak = candidate
				break
			}
		}
	}

	return &CommandEngine{
		speakCmd:  speak,
		listenCmd: strings.TrimSpace(cfg.ListenCommand),
		rate:      cfg.Rate,
		voice:     cfg.Voice,
	}
}

// CanSpeak implements Engine.
func (e *CommandEngine) CanSpeak() bool { return e.speakCmd != "" }

// CanListen implements Engine.
func (e *CommandEngine) CanListen() bool { return e.listenCmd != "" }

// Speak implements Engine by running the synthesizer to completion.
func (e *CommandEngine) Speak(ctx context.Context, text string) error {
	if e.speakCmd == "" {
		return ErrUnsupported
	}

	args := e.speakArgs()
	args = append(args, text)

	cmd := exec.CommandContext(ctx, e.speakCmd, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err() // cut short by Stop or a newer utterance
		}
		return fmt.Errorf("running %s: %w", e.speakCmd, err)
	}
	return nil
}

// speakArgs maps rate and voice onto the flags of known synthesizers.
// Unknown commands get no flags; they still receive the text argument.
func (e *CommandEngine) speakArgs() []string {
	var args []string
	base := e.speakCmd
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}

	switch base {
	case "say": // macOS
		if e.rate > 0 {
			args = append(args, "-r", strconv.Itoa(e.rate))
		}
		if e.voice != "" {
			args = append(args, "-v", e.voice)
		}
	case "espeak", "espeak-ng":
		if e.rate > 0 {
			args = append(args, "-s", strconv.Itoa(e.rate))
		}
		if e.voice != "" {
			args = append(args, "-v", e.voice)
		}
	}
	return args
}

// Listen implements Engine by running the recognizer and reading one
// transcript from its stdout.
func (e *CommandEngine) Listen(ctx context.Context) (string, error) {
	if e.listenCmd == "" {
		return "", ErrUnsupported
	}

	fields := strings.Fields(e.listenCmd)
	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("running %s: %w", fields[0], err)
	}

	return out.String(), nil
}

// NopEngine is the degraded engine for hosts with no speech support.
// Every capability reports false; operations fail with ErrUnsupported.
type NopEngine struct{}

// NewNopEngine returns the unsupported engine.
func NewNopEngine() *NopEngine { return &NopEngine{} }

// CanSpeak implements Engine.
func (*NopEngine) CanSpeak() bool { return false }

// CanListen implements Engine.
func (*NopEngine) CanListen() bool { return false }

// Speak implements Engine.
func (*NopEngine) Speak(context.Context, string) error { return ErrUnsupported }

// Listen implements Engine.
func (*NopEngine) Listen(context.Context) (string, error) { return "", ErrUnsupported }
