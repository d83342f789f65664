package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/wofa-ai/wofa/internal/backend"
	"github.com/wofa-ai/wofa/internal/config"
	"github.com/wofa-ai/wofa/internal/log"
	"github.com/wofa-ai/wofa/internal/session"
	"github.com/wofa-ai/wofa/internal/store"
	"github.com/wofa-ai/wofa/internal/voice"
)

// newTestController builds a Controller with real collaborators: a
// throwaway store, a client pointed at an unroutable address and the
// unsupported voice engine. Commands returned by handlers are not
// executed unless a test runs them explicitly, so no requests leave
// the process.
func newTestController(t *testing.T) *Controller {
	t.Helper()

	logger := log.NewNop()
	cfg := &config.Config{
		APIBaseURL:        "http://127.0.0.1:1/api",
		RequestTimeoutSec: 1,
		RequestsPerMinute: 600,
		TypingDelayMS:     0, // Reveals complete synchronously
		DataDir:           t.TempDir(),
	}

	st, err := store.Open(t.TempDir(), logger)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	client := backend.NewClient(cfg, logger)
	c, err := New(context.Background(), Deps{
		Session:    session.New("test-token", "", ""),
		Dispatcher: backend.NewDispatcher(client, logger),
		Client:     client,
		Voice:      voice.NewBridge(voice.NewNopEngine(), logger),
		Store:      st,
		Config:     cfg,
		Logger:     logger,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.cleanup() })
	return c
}

// lastMessage returns the newest transcript entry.
func lastMessage(t *testing.T, c *Controller) session.Message {
	t.Helper()
	if len(c.messages) == 0 {
		t.Fatal("transcript is empty")
	}
	return c.messages[len(c.messages)-1]
}

func TestNew_RequiresDeps(t *testing.T) {
	logger := log.NewNop()
	cfg := &config.Config{APIBaseURL: "http://127.0.0.1:1", RequestTimeoutSec: 1, RequestsPerMinute: 60}
	client := backend.NewClient(cfg, logger)
	sess := session.New("", "", "")
	bridge := voice.NewBridge(voice.NewNopEngine(), logger)

	tests := []struct {
		name string
		deps Deps
	}{
		{"nil session", Deps{Dispatcher: backend.NewDispatcher(client, logger), Client: client, Voice: bridge, Config: cfg}},
		{"nil dispatcher", Deps{Session: sess, Client: client, Voice: bridge, Config: cfg}},
		{"nil client", Deps{Session: sess, Dispatcher: backend.NewDispatcher(client, logger), Voice: bridge, Config: cfg}},
		{"nil voice", Deps{Session: sess, Dispatcher: backend.NewDispatcher(client, logger), Client: client, Config: cfg}},
		{"nil config", Deps{Session: sess, Dispatcher: backend.NewDispatcher(client, logger), Client: client, Voice: bridge}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.deps); err == nil {
				t.Error("expected error for missing dependency")
			}
		})
	}
}

func TestController_GreetingSeeded(t *testing.T) {
	c := newTestController(t)

	if len(c.messages) != 1 {
		t.Fatalf("expected 1 seeded message, got %d", len(c.messages))
	}
	if c.messages[0].Role != session.RoleAssistant || c.messages[0].Text != Greeting {
		t.Errorf("unexpected greeting: %+v", c.messages[0])
	}
}

func TestController_EmptySubmitWithoutContext(t *testing.T) {
	c := newTestController(t)

	model, cmd := c.handleSubmit()
	result := model.(*Controller)

	if cmd != nil {
		t.Error("empty submit must not issue a command")
	}
	if result.state != StateInput {
		t.Error("empty submit must stay in StateInput")
	}
	if result.notice == "" {
		t.Error("empty submit should set a notice")
	}
	if len(result.messages) != 1 {
		t.Error("empty submit must not touch the transcript")
	}
	if result.sess.Sending() {
		t.Error("empty submit must not mark a dispatch in flight")
	}
}

func TestController_SubmitEchoesUserBeforeDispatch(t *testing.T) {
	c := newTestController(t)
	c.input.SetValue("what is a fraction?")

	model, cmd := c.handleSubmit()
	result := model.(*Controller)

	if cmd == nil {
		t.Fatal("submit should return the dispatch command")
	}
	if result.state != StateThinking {
		t.Errorf("state = %v, want StateThinking", result.state)
	}
	msg := lastMessage(t, result)
	if msg.Role != session.RoleUser || msg.Text != "what is a fraction?" {
		t.Errorf("user echo = %+v", msg)
	}
	if !result.sess.Sending() {
		t.Error("dispatch must be marked in flight")
	}
	if len(result.history) != 1 || result.history[0] != "what is a fraction?" {
		t.Errorf("history = %v", result.history)
	}
	if result.input.Value() != "" {
		t.Error("input should be cleared after submit")
	}
}

func TestController_EmptySubmitWithCourseSendsCannedPrompt(t *testing.T) {
	c := newTestController(t)
	c.sess.SetContext("Algebra", "")

	model, cmd := c.handleSubmit()
	result := model.(*Controller)

	if cmd == nil {
		t.Fatal("submit with course context should dispatch")
	}
	msg := lastMessage(t, result)
	if msg.Role != session.RoleUser || !strings.Contains(msg.Text, "Algebra") {
		t.Errorf("canned prompt echo = %+v", msg)
	}
	if len(result.history) != 0 {
		t.Error("canned prompts must not enter the input history")
	}
}

func TestController_AnswerSettlesAndReveals(t *testing.T) {
	c := newTestController(t)
	c.sess.BeginSend()
	c.state = StateThinking
	c.pendingQ = "what is a fraction?"

	model, _ := c.Update(answerMsg{epoch: c.epoch, result: backend.AnswerResult{Answer: "A part of a whole."}})
	result := model.(*Controller)

	if result.state != StateInput {
		t.Errorf("state = %v, want StateInput after instant reveal", result.state)
	}
	msg := lastMessage(t, result)
	if msg.Role != session.RoleAssistant || msg.Text != "A part of a whole." {
		t.Errorf("answer = %+v", msg)
	}
	if result.sess.LastAnswer() != "A part of a whole." {
		t.Errorf("LastAnswer = %q", result.sess.LastAnswer())
	}
	if result.sess.Sending() {
		t.Error("settlement must release the sending flag")
	}

	turns, err := result.store.RecentTurns(context.Background(), 5)
	if err != nil {
		t.Fatalf("RecentTurns: %v", err)
	}
	if len(turns) != 1 || turns[0].Question != "what is a fraction?" {
		t.Errorf("recorded turns = %+v", turns)
	}
}

func TestController_AnswerImagesSavedToDisk(t *testing.T) {
	c := newTestController(t)
	c.sess.BeginSend()
	c.state = StateThinking

	result := backend.AnswerResult{
		Answer: "See the diagram.",
		Images: []string{"data:image/png;base64,aGVsbG8="},
	}
	model, _ := c.Update(answerMsg{epoch: c.epoch, result: result})
	ctrl := model.(*Controller)

	msg := lastMessage(t, ctrl)
	if len(msg.Images) != 1 {
		t.Fatalf("images = %v, want one saved path", msg.Images)
	}
	path := msg.Images[0]
	if strings.HasPrefix(path, "data:") {
		t.Fatalf("image %q is still a data URL, want a file path", path)
	}
	if !strings.HasPrefix(path, c.cfg.DataDir) {
		t.Errorf("image %q saved outside the data directory %q", path, c.cfg.DataDir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved image: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("saved payload = %q", data)
	}
}

func TestController_ImagesAttachAfterReveal(t *testing.T) {
	c := newTestController(t)
	c.cfg.TypingDelayMS = 20
	images := []string{"/tmp/diagram.png"}

	model, _ := c.startReveal(session.RoleAssistant, "ab", images)
	result := model.(*Controller)
	if got := lastMessage(t, result).Images; got != nil {
		t.Fatalf("images = %v, must wait for the reveal to finish", got)
	}

	model, _ = result.Update(revealTickMsg{epoch: result.epoch})
	result = model.(*Controller)
	if got := lastMessage(t, result).Images; got != nil {
		t.Fatalf("images = %v attached mid-reveal", got)
	}

	model, _ = result.Update(revealTickMsg{epoch: result.epoch})
	result = model.(*Controller)
	if got := lastMessage(t, result).Images; len(got) != 1 {
		t.Errorf("images = %v, want attached on completion", got)
	}
}

func TestController_SkipRevealAttachesImages(t *testing.T) {
	c := newTestController(t)
	c.cfg.TypingDelayMS = 20

	model, _ := c.startReveal(session.RoleAssistant, "hello", []string{"/tmp/diagram.png"})
	result := model.(*Controller)

	result.skipReveal()

	msg := lastMessage(t, result)
	if msg.Text != "hello" || len(msg.Images) != 1 {
		t.Errorf("skipped reveal = %+v, want full text with images", msg)
	}
}

func TestController_StaleSettlementDropped(t *testing.T) {
	c := newTestController(t)
	c.sess.BeginSend()
	c.state = StateThinking
	c.clear() // bumps the epoch

	model, _ := c.Update(answerMsg{epoch: 0, result: backend.AnswerResult{Answer: "stale"}})
	result := model.(*Controller)

	if len(result.messages) != 1 || result.messages[0].Text != Greeting {
		t.Errorf("stale settlement must not touch the transcript: %+v", result.messages)
	}
	if result.sess.Sending() {
		t.Error("clear already released the sending flag; it must stay released")
	}
}

func TestController_StaleSettlementKeepsNextTurnInFlight(t *testing.T) {
	c := newTestController(t)

	// Turn A is abandoned by clear, turn B is dispatched, then A's
	// settlement finally arrives. It must not release B's sending
	// mirror or disturb B's thinking state.
	c.sess.BeginSend()
	c.state = StateThinking
	c.clear()

	c.sess.BeginSend()
	c.state = StateThinking

	model, _ := c.Update(answerMsg{epoch: 0, result: backend.AnswerResult{Answer: "late"}})
	result := model.(*Controller)

	if !result.sess.Sending() {
		t.Error("stale settlement released the sending flag of the in-flight turn")
	}
	if result.state != StateThinking {
		t.Errorf("state = %v, want StateThinking while the live turn is pending", result.state)
	}

	model, _ = result.Update(answerErrMsg{epoch: 0, err: backend.ErrUnreachable})
	result = model.(*Controller)
	if !result.sess.Sending() {
		t.Error("stale failure released the sending flag of the in-flight turn")
	}
}

func TestController_RevealStepwise(t *testing.T) {
	c := newTestController(t)
	c.cfg.TypingDelayMS = 20

	model, cmd := c.startReveal(session.RoleAssistant, "abc", nil)
	result := model.(*Controller)
	if result.state != StateRevealing || cmd == nil {
		t.Fatal("reveal should be in progress with a tick scheduled")
	}

	want := []string{"a", "ab", "abc"}
	for i, prefix := range want {
		model, _ = result.Update(revealTickMsg{epoch: result.epoch})
		result = model.(*Controller)
		if got := lastMessage(t, result).Text; got != prefix {
			t.Fatalf("step %d: text = %q, want %q", i, got, prefix)
		}
	}

	if result.state != StateInput {
		t.Error("reveal should finish back in StateInput")
	}
	if result.sess.LastAnswer() != "abc" {
		t.Errorf("LastAnswer = %q", result.sess.LastAnswer())
	}
}

func TestController_SkipRevealShowsFullText(t *testing.T) {
	c := newTestController(t)
	c.cfg.TypingDelayMS = 20

	model, _ := c.startReveal(session.RoleAssistant, "hello world", nil)
	result := model.(*Controller)

	result.skipReveal()

	if result.state != StateInput {
		t.Error("skip should return to StateInput")
	}
	if got := lastMessage(t, result).Text; got != "hello world" {
		t.Errorf("text = %q, want full answer", got)
	}
	if result.sess.LastAnswer() != "hello world" {
		t.Errorf("LastAnswer = %q", result.sess.LastAnswer())
	}
}

func TestController_FailureMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantText string
	}{
		{"rejected with message", &backend.RejectedError{Status: 422, Message: "Question too long."}, "Question too long."},
		{"rejected without message", &backend.RejectedError{Status: 500}, "status 500"},
		{"unreachable", backend.ErrUnreachable, unreachableText},
		{"unknown", errors.New("boom"), "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t)
			c.sess.BeginSend()
			c.state = StateThinking

			model, _ := c.Update(answerErrMsg{epoch: c.epoch, err: tt.err})
			result := model.(*Controller)

			msg := lastMessage(t, result)
			if msg.Role != session.RoleError {
				t.Errorf("role = %q, want error", msg.Role)
			}
			if !strings.Contains(msg.Text, tt.wantText) {
				t.Errorf("text = %q, want substring %q", msg.Text, tt.wantText)
			}
			if result.sess.LastAnswer() != msg.Text {
				t.Error("failure text should be readable via /speak")
			}
			if result.sess.Sending() {
				t.Error("failure must release the sending flag")
			}
		})
	}
}

func TestController_UnauthorizedForcesLogout(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	if err := c.store.Set(ctx, store.KeyToken, "test-token"); err != nil {
		t.Fatal(err)
	}
	c.sess.BeginSend()
	c.state = StateThinking

	model, _ := c.Update(answerErrMsg{epoch: c.epoch, err: backend.ErrUnauthorized})
	result := model.(*Controller)

	if result.sess.Token() != "" {
		t.Error("401 must clear the in-memory token")
	}
	if _, err := result.store.Get(ctx, store.KeyToken); !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("stored token should be deleted, got err = %v", err)
	}
	if msg := lastMessage(t, result); msg.Text != expiredText {
		t.Errorf("message = %q", msg.Text)
	}
}

func TestController_CancelTurn(t *testing.T) {
	c := newTestController(t)
	c.sess.BeginSend()
	c.state = StateThinking
	cancelled := false
	c.turnCancel = func() { cancelled = true }
	before := c.epoch

	c.cancelTurn()

	if !cancelled {
		t.Error("cancelTurn should cancel the request context")
	}
	if c.epoch != before+1 {
		t.Error("cancelTurn should bump the epoch")
	}
	if c.state != StateInput {
		t.Error("cancelTurn should return to StateInput")
	}
	if c.sess.Sending() {
		t.Error("cancelTurn should release the sending flag")
	}
	if msg := lastMessage(t, c); msg.Role != session.RoleSystem || msg.Text != "(Canceled)" {
		t.Errorf("message = %+v", msg)
	}
}

func TestController_ClearRestartsConversation(t *testing.T) {
	c := newTestController(t)
	c.sess.SetContext("Algebra", "Fractions")
	c.sess.AttachImage("data:image/png;base64,AAAA")
	c.sess.SetLastAnswer("old answer")
	c.addMessage(session.Message{Role: session.RoleUser, Text: "hi"})
	c.addMessage(session.Message{Role: session.RoleAssistant, Text: "hello"})

	c.clear()

	if len(c.messages) != 1 || c.messages[0].Text != Greeting {
		t.Errorf("transcript after clear = %+v", c.messages)
	}
	if c.sess.PendingImage() != "" || c.sess.LastAnswer() != "" {
		t.Error("clear must drop the pending image and last answer")
	}
	if c.sess.Token() == "" {
		t.Error("clear must keep the credential")
	}
	if c.sess.Course() != "Algebra" || c.sess.Lesson() != "Fractions" {
		t.Error("clear must keep the course context")
	}
}

func TestController_SlashCommands(t *testing.T) {
	tests := []struct {
		name       string
		cmd        string
		wantRole   string // "" = no transcript entry
		wantNotice bool
	}{
		{"help", "/help", session.RoleSystem, false},
		{"logout", "/logout", session.RoleSystem, false},
		{"unknown", "/wat", session.RoleError, false},
		{"image no arg", "/image", "", true},
		{"course before courses", "/course 1", "", true},
		{"lesson before course", "/lesson 1", "", true},
		{"theme bad arg", "/theme sepia", "", true},
		{"speak with nothing", "/speak", "", true},
		{"listen unsupported", "/listen", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t)

			model, _ := c.handleSlashCommand(tt.cmd)
			result := model.(*Controller)

			if tt.wantRole != "" {
				msg := lastMessage(t, result)
				if msg.Role != tt.wantRole {
					t.Errorf("role = %q, want %q", msg.Role, tt.wantRole)
				}
			} else if len(result.messages) != 1 {
				t.Errorf("expected no transcript entry, got %+v", result.messages)
			}
			if tt.wantNotice && result.notice == "" {
				t.Error("expected a notice")
			}
		})
	}
}

func TestController_LogoutDropsToken(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	if err := c.store.Set(ctx, store.KeyToken, "test-token"); err != nil {
		t.Fatal(err)
	}

	model, _ := c.handleSlashCommand("/logout")
	result := model.(*Controller)

	if result.sess.Token() != "" {
		t.Error("logout must clear the in-memory token")
	}
	if _, err := result.store.Get(ctx, store.KeyToken); !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("stored token should be gone, got err = %v", err)
	}
}

func TestController_SelectCourse(t *testing.T) {
	c := newTestController(t)
	c.lastCourses = []backend.Course{
		{ID: "c1", Title: "Algebra"},
		{ID: "c2", Title: "Geometry"},
	}

	model, cmd := c.selectCourse("2")
	result := model.(*Controller)

	if cmd == nil {
		t.Fatal("selecting a course should load its lessons")
	}
	if result.sess.Course() != "Geometry" || result.sess.Lesson() != "" {
		t.Errorf("context = %q/%q", result.sess.Course(), result.sess.Lesson())
	}
	if result.state != StateThinking {
		t.Error("lesson fetch should show the thinking indicator")
	}
	if got := result.store.GetDefault(context.Background(), store.KeyActiveCourse, ""); got != "Geometry" {
		t.Errorf("persisted course = %q", got)
	}
}

func TestController_SelectCourseByTitle(t *testing.T) {
	c := newTestController(t)
	c.lastCourses = []backend.Course{{ID: "c1", Title: "Algebra"}}

	model, cmd := c.selectCourse("algebra")
	result := model.(*Controller)

	if cmd == nil || result.sess.Course() != "Algebra" {
		t.Errorf("course = %q", result.sess.Course())
	}
}

func TestController_SelectLessonStartsIt(t *testing.T) {
	c := newTestController(t)
	c.sess.SetContext("Algebra", "")
	c.lastLessons = []backend.Lesson{{ID: "l1", Title: "Fractions"}}

	model, cmd := c.selectLesson("1")
	result := model.(*Controller)

	if cmd == nil {
		t.Fatal("selecting a lesson should dispatch its teaching prompt")
	}
	if result.sess.Lesson() != "Fractions" {
		t.Errorf("lesson = %q", result.sess.Lesson())
	}
	if result.state != StateThinking {
		t.Error("lesson start should dispatch immediately")
	}
	msg := lastMessage(t, result)
	if msg.Role != session.RoleUser || !strings.Contains(msg.Text, "Fractions") {
		t.Errorf("echoed prompt = %+v", msg)
	}
	if got := result.store.GetDefault(context.Background(), store.KeyActiveLesson, ""); got != "Fractions" {
		t.Errorf("persisted lesson = %q", got)
	}
}

func TestController_HandleCoursesCachesCatalog(t *testing.T) {
	c := newTestController(t)
	c.state = StateThinking

	model, _ := c.Update(coursesMsg{courses: []backend.Course{
		{ID: "c1", Title: "Algebra"},
		{ID: "c2", Title: "Geometry"},
	}})
	result := model.(*Controller)

	if result.state != StateInput {
		t.Error("catalog settlement should return to StateInput")
	}
	if len(result.lastCourses) != 2 {
		t.Errorf("cached courses = %d", len(result.lastCourses))
	}
	msg := lastMessage(t, result)
	if msg.Role != session.RoleSystem || !strings.Contains(msg.Text, "1. Algebra") {
		t.Errorf("course list = %+v", msg)
	}
}

func TestController_CaptureAutoSubmits(t *testing.T) {
	c := newTestController(t)

	model, cmd := c.Update(captureMsg{text: "explain photosynthesis"})
	result := model.(*Controller)

	if cmd == nil {
		t.Fatal("a transcript should be submitted like typed text")
	}
	msg := lastMessage(t, result)
	if msg.Role != session.RoleUser || msg.Text != "explain photosynthesis" {
		t.Errorf("echo = %+v", msg)
	}
	if result.state != StateThinking {
		t.Error("capture submit should dispatch")
	}
}

func TestController_CaptureWhileRevealingDoesNotDispatch(t *testing.T) {
	c := newTestController(t)
	c.cfg.TypingDelayMS = 20

	// A capture that settles mid-reveal must not start a second
	// exchange; the running reveal keeps its task and its message.
	model, _ := c.startReveal(session.RoleAssistant, "first answer", nil)
	result := model.(*Controller)
	model, _ = result.Update(revealTickMsg{epoch: result.epoch})
	result = model.(*Controller)
	partial := lastMessage(t, result).Text

	model, cmd := result.Update(captureMsg{text: "explain photosynthesis"})
	result = model.(*Controller)

	if cmd != nil {
		t.Fatal("capture during a reveal must not dispatch")
	}
	if result.state != StateRevealing || result.task == nil {
		t.Error("the running reveal must keep going")
	}
	if got := lastMessage(t, result).Text; got != partial {
		t.Errorf("transcript tail = %q, want untouched partial %q", got, partial)
	}
	if result.sess.Sending() {
		t.Error("a refused submit must not take the sending flag")
	}
	if result.notice == "" {
		t.Error("the refused submit should tell the user to wait")
	}
}

func TestController_SubmitRefusedWhileThinking(t *testing.T) {
	c := newTestController(t)
	c.sess.BeginSend()
	c.state = StateThinking

	model, cmd := c.submitText("another question")
	result := model.(*Controller)

	if cmd != nil {
		t.Error("submit during a pending turn must not dispatch")
	}
	if result.state != StateThinking {
		t.Errorf("state = %v, want StateThinking", result.state)
	}
	if !result.sess.Sending() {
		t.Error("the in-flight turn must keep the sending flag")
	}
}

func TestController_CaptureFailures(t *testing.T) {
	tests := []struct {
		name string
		msg  captureMsg
	}{
		{"unsupported", captureMsg{err: voice.ErrUnsupported}},
		{"empty transcript", captureMsg{}},
		{"other error", captureMsg{err: errors.New("mic busy")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t)

			model, cmd := c.Update(tt.msg)
			result := model.(*Controller)

			if cmd != nil {
				t.Error("failed capture must not dispatch")
			}
			if result.notice == "" {
				t.Error("failed capture should set a notice")
			}
		})
	}
}

func TestController_ImageOnlyTurnShowsPlaceholder(t *testing.T) {
	c := newTestController(t)
	c.sess.AttachImage("data:image/png;base64,AAAA")

	model, cmd := c.handleSubmit()
	result := model.(*Controller)

	if cmd == nil {
		t.Fatal("image-only submit should dispatch")
	}
	msg := lastMessage(t, result)
	if msg.Text != imagePlaceholder {
		t.Errorf("echo = %q, want placeholder", msg.Text)
	}
	if len(msg.Images) != 1 {
		t.Error("echo should carry the attachment")
	}
	// The image stays pending until the turn succeeds.
	if result.sess.PendingImage() == "" {
		t.Error("pending image must survive until settlement")
	}
}

func TestController_HistoryNavigation(t *testing.T) {
	c := newTestController(t)
	c.history = []string{"first", "second", "third"}
	c.historyIdx = 3

	tests := []struct {
		delta    int
		expected string
	}{
		{-1, "third"},
		{-1, "second"},
		{-1, "first"},
		{-1, "first"}, // Stays at first
		{1, "second"},
		{1, "third"},
		{1, ""}, // Past end = empty
		{1, ""}, // Stays empty
	}

	for i, tt := range tests {
		model, _ := c.navigateHistory(tt.delta)
		c = model.(*Controller)
		if c.input.Value() != tt.expected {
			t.Errorf("step %d: got %q, want %q", i, c.input.Value(), tt.expected)
		}
	}
}

func TestController_AddMessageBounds(t *testing.T) {
	c := newTestController(t)

	for range maxMessages + 50 {
		c.addMessage(session.Message{Role: session.RoleUser, Text: "x"})
	}

	if len(c.messages) != maxMessages {
		t.Errorf("message count = %d, want %d", len(c.messages), maxMessages)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is far too long", 10, "this is f…"},
		{"line\nbreaks", 20, "line breaks"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestController_View(t *testing.T) {
	c := newTestController(t)
	c.rebuildViewportContent()

	view := c.View()
	if view.Content == nil {
		t.Error("view content should not be nil")
	}
}

func TestMarkdownRenderer(t *testing.T) {
	t.Run("renders markdown", func(t *testing.T) {
		mr := newMarkdownRenderer(80, "dark")
		if mr == nil {
			t.Fatal("failed to create markdown renderer")
		}
		if mr.Render("**bold**") == "" {
			t.Error("render should produce output")
		}
	})

	t.Run("nil renderer returns original", func(t *testing.T) {
		var mr *markdownRenderer
		if got := mr.Render("test"); got != "test" {
			t.Errorf("got %q, want original text", got)
		}
	})

	t.Run("UpdateWidth keeps theme", func(t *testing.T) {
		mr := newMarkdownRenderer(80, "light")
		if !mr.UpdateWidth(120) {
			t.Error("UpdateWidth should report a change")
		}
		if mr.width != 120 || mr.theme != "light" {
			t.Errorf("width = %d, theme = %q", mr.width, mr.theme)
		}
	})

	t.Run("UpdateWidth no-op for same width", func(t *testing.T) {
		mr := newMarkdownRenderer(80, "")
		if mr.UpdateWidth(80) {
			t.Error("UpdateWidth should be a no-op for the same width")
		}
	})
}
