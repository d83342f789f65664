// Package tui provides the Bubble Tea terminal interface for WOFA.
//
// The Controller owns the session state machine: it composes questions,
// hands them to the dispatcher, reveals answers character by character
// and routes voice commands. All session mutations happen on the Bubble
// Tea event loop; background work communicates through messages only.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/config"
	"github.com/wofa-ai/wofa/internal/log"
	"github.com/wofa-ai/wofa/internal/reveal"
	"github.com/wofa-ai/wofa/internal/session"
	"github.com/wofa-ai/wofa/internal/store"
	"github.com/wofa-ai/wofa/internal/voice"
)

// State represents the controller state machine.
type State int

// Controller states.
const (
	StateInput     State = iota // Awaiting user input
	StateThinking               // Request in flight
	StateRevealing              // Answer reveal in progress
)

// Memory bounds to prevent unbounded growth.
const (
	maxMessages = 100 // Maximum transcript entries kept
	maxHistory  = 100 // Maximum input history entries
)

// Greeting is the assistant message shown on startup and after a clear.
const Greeting = "Hello 👋 I'm WOFA AI. Select a course and lesson to begin."

// unreachableText is shown when the backend gives no response at all.
const unreachableText = "❌ Unable to connect to WOFA AI."

// expiredText is shown when the backend rejects the credential.
const expiredText = "Your session has expired. Run 'wofa login' to sign in again."

// imagePlaceholder stands in for user turns that carry only an image.
const imagePlaceholder = "📷 Image uploaded"

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Above and below input
	helpLines      = 1 // Help bar height
	promptLines    = 1 // Prompt prefix line
	minViewport    = 3 // Minimum viewport height
)

// Deps carries the controller's collaborators. All fields except Logger
// are required.
type Deps struct {
	Session    *session.Session
	Dispatcher *backend.Dispatcher
	Client     *backend.Client
	Voice      *voice.Bridge
	Store      *store.Store
	Config     *config.Config
	Logger     log.Logger

	// Theme is the persisted markdown theme ("dark", "light" or "").
	Theme string

	// Welcomed suppresses the getting-started tips on repeat runs.
	Welcomed bool
}

// Controller is the Bubble Tea model for the WOFA chat session.
type Controller struct {
	// Input (textarea for multi-line support, Shift+Enter for newline)
	input      textarea.Model
	history    []string
	historyIdx int

	// State
	state     State
	lastCtrlC time.Time
	notice    string // transient alert line above the input, "" when clear
	welcomed  bool

	// Output
	spinner  spinner.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	messages []session.Message

	// Scrollable transcript viewport
	viewport viewport.Model

	// Help bar for keyboard shortcuts
	help help.Model
	keys keyMap

	// Turn lifecycle. The epoch is bumped by clear(); settlement and
	// reveal messages from an earlier epoch are dropped so a cleared
	// conversation can never resurrect a stale answer.
	epoch      int
	task       *reveal.Task
	turnCancel context.CancelFunc
	pendingQ   string // composed question text of the in-flight turn

	// Catalog cache for /course and /lesson index selection
	lastCourses []backend.Course
	lastLessons []backend.Lesson

	// Dependencies
	sess       *session.Session
	dispatcher *backend.Dispatcher
	client     *backend.Client
	voice      *voice.Bridge
	store      *store.Store
	cfg        *config.Config
	logger     log.Logger
	ctx        context.Context
	ctxCancel  context.CancelFunc // For canceling all operations on exit

	// Dimensions
	width  int
	height int

	// Styles
	styles Styles

	// Markdown rendering (nil = graceful degradation to plain text)
	markdown *markdownRenderer
}

// addMessage appends a transcript entry and enforces maxMessages.
func (c *Controller) addMessage(msg session.Message) {
	c.messages = append(c.messages, msg)
	if len(c.messages) > maxMessages {
		c.messages = c.messages[len(c.messages)-maxMessages:]
	}
}

// New creates a Controller for an interactive chat session.
// Returns an error if a required dependency is nil.
//
// ctx MUST be the same context passed to tea.WithContext() so that
// cancellation behaves consistently.
func New(ctx context.Context, deps Deps) (*Controller, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if deps.Session == nil {
		return nil, errors.New("tui.New: session is required")
	}
	if deps.Dispatcher == nil {
		return nil, errors.New("tui.New: dispatcher is required")
	}
	if deps.Client == nil {
		return nil, errors.New("tui.New: client is required")
	}
	if deps.Voice == nil {
		return nil, errors.New("tui.New: voice bridge is required")
	}
	if deps.Store == nil {
		return nil, errors.New("tui.New: store is required")
	}
	if deps.Config == nil {
		return nil, errors.New("tui.New: config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	// Cancellable context for cleanup on exit
	ctx, cancel := context.WithCancel(ctx)

	// Enter submits, Shift+Enter adds a newline
	ta := textarea.New()
	ta.Placeholder = "Ask WOFA anything..."
	ta.SetHeight(1)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Viewport key handling is disabled — keys are routed explicitly in
	// handleKey to avoid conflicts with the textarea and history.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	c := &Controller{
		sess:       deps.Session,
		dispatcher: deps.Dispatcher,
		client:     deps.Client,
		voice:      deps.Voice,
		store:      deps.Store,
		cfg:        deps.Config,
		logger:     logger,
		ctx:        ctx,
		ctxCancel:  cancel,
		input:      ta,
		spinner:    sp,
		viewport:   vp,
		help:       help.New(),
		keys:       newKeyMap(),
		styles:     DefaultStyles(),
		history:    make([]string, 0, maxHistory),
		markdown:   newMarkdownRenderer(80, deps.Theme),
		welcomed:   deps.Welcomed,
		width:      80, // Until WindowSizeMsg arrives
	}
	c.addMessage(session.Message{Role: session.RoleAssistant, Text: Greeting})
	return c, nil
}

// Init implements tea.Model.
func (c *Controller) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		c.spinner.Tick,
		c.input.Focus(),
	)
}

// stepDelay returns the per-rune reveal delay from configuration.
// Zero disables the typing effect and reveals answers at once.
func (c *Controller) stepDelay() time.Duration {
	if c.cfg.TypingDelayMS <= 0 {
		return 0
	}
	return time.Duration(c.cfg.TypingDelayMS) * time.Millisecond
}

// clear resets the conversation: any in-flight turn is abandoned, the
// reveal is cancelled, speech stops, and the transcript restarts from
// the greeting. Credential and course context survive.
func (c *Controller) clear() {
	c.epoch++
	if c.turnCancel != nil {
		c.turnCancel()
		c.turnCancel = nil
	}
	if c.task != nil {
		c.task.Cancel()
		c.task = nil
	}
	c.voice.Stop()
	c.sess.Reset()
	c.sess.EndSend()
	c.state = StateInput
	c.notice = ""
	c.messages = nil
	c.addMessage(session.Message{Role: session.RoleAssistant, Text: Greeting})
	c.rebuildViewportContent()
	c.viewport.GotoTop()
}

// cleanup cancels all background work and returns the quit command.
func (c *Controller) cleanup() tea.Cmd {
	if c.ctxCancel != nil {
		c.ctxCancel()
		c.ctxCancel = nil
	}
	if c.turnCancel != nil {
		c.turnCancel()
		c.turnCancel = nil
	}
	c.voice.Stop()
	return tea.Quit
}
