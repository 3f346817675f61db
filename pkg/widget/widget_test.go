package widget

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourvia/tourchat/pkg/chat"
	"github.com/tourvia/tourchat/pkg/config"
	"github.com/tourvia/tourchat/pkg/reveal"
	"github.com/tourvia/tourchat/pkg/session"
	"github.com/tourvia/tourchat/pkg/storage"
)

type fakeSender struct {
	mu          sync.Mutex
	reply       *chat.Reply
	err         error
	calls       int
	block       chan struct{}
	lastMessage string
	lastSession string
}

func (f *fakeSender) Send(ctx context.Context, message, sessionID string) (*chat.Reply, error) {
	f.mu.Lock()
	f.calls++
	f.lastMessage = message
	f.lastSession = sessionID
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeScheduler mirrors the manual scheduler used in the reveal tests.
type fakeScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *fakeScheduler) AfterFunc(d time.Duration, fn func()) reveal.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	return noopTimer{}
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func (s *fakeScheduler) fireAll() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.mu.Unlock()
			return
		}
		fn := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()
		fn()
	}
}

func testCfg() config.WidgetConfig {
	return config.WidgetConfig{
		Title:             "Tourvia",
		WelcomeMessage:    "Hi there! I'm the Tourvia travel assistant. Ask me about tours, destinations, or group bookings.",
		ApologyMessage:    "Sorry, I'm having trouble connecting right now. Please try again in a moment.",
		WideThreshold:     768,
		ChunkDelayMs:      250,
		PreDelayMs:        100,
		ScrollDelayMs:     50,
		MinFeedbackLength: 50,
	}
}

func newTestWidget(sender Sender) (*Widget, *fakeScheduler, *session.Manager, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	sess := session.NewManager(store)
	sched := &fakeScheduler{}
	w := New(testCfg(), sender, sess, sched)
	return w, sched, sess, store
}

func TestSendRejectsEmptyInput(t *testing.T) {
	sender := &fakeSender{}
	w, _, _, _ := newTestWidget(sender)

	assert.False(t, w.Send(context.Background(), ""))
	assert.False(t, w.Send(context.Background(), "   \t\n"))
	assert.Equal(t, 0, sender.callCount(), "no network call for empty input")
	assert.Empty(t, w.Messages())
}

func TestSendHappyPath(t *testing.T) {
	sender := &fakeSender{reply: &chat.Reply{
		Message:   "Hello! Happy to help you plan your trip around the islands.",
		SessionID: "s1",
		Language:  "en",
		Context:   json.RawMessage(`{"topic":"general"}`),
	}}
	w, _, sess, store := newTestWidget(sender)
	w.SetWidth(400) // narrow: reveal completes immediately

	localID := sess.ID()
	require.True(t, w.Send(context.Background(), "Hi"))

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hi", msgs[0].Content)
	assert.Equal(t, chat.RoleBot, msgs[1].Role)
	assert.Equal(t, sender.reply.Message, msgs[1].Content)

	assert.Equal(t, "Hi", sender.lastMessage)
	assert.Equal(t, localID, sender.lastSession)

	// Server-issued session id adopted in memory and in the store.
	assert.Equal(t, "s1", sess.ID())
	stored, _ := store.Get(session.IDKey)
	assert.Equal(t, "s1", stored)

	// Context cached verbatim.
	ctxStored, ok := store.Get(session.ContextKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"topic":"general"}`, ctxStored)

	assert.False(t, w.Typing())

	st, ok := w.RevealState(msgs[1].ID)
	require.True(t, ok)
	assert.True(t, st.Complete)
}

func TestSendTrimsInput(t *testing.T) {
	sender := &fakeSender{reply: &chat.Reply{Message: "ok"}}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	require.True(t, w.Send(context.Background(), "  Which tours run today?  "))
	assert.Equal(t, "Which tours run today?", sender.lastMessage)
	assert.Equal(t, "Which tours run today?", w.Messages()[0].Content)
}

func TestSendFailureAppendsApology(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	require.True(t, w.Send(context.Background(), "Hi"))

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleBot, msgs[1].Role)
	assert.Equal(t, testCfg().ApologyMessage, msgs[1].Content)
	assert.False(t, w.Typing(), "typing flag clears when the request settles")
}

func TestSendWhileInFlightIsNoOp(t *testing.T) {
	sender := &fakeSender{
		reply: &chat.Reply{Message: "done"},
		block: make(chan struct{}),
	}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	done := make(chan bool)
	go func() {
		done <- w.Send(context.Background(), "first")
	}()

	require.Eventually(t, w.Typing, time.Second, time.Millisecond)

	assert.False(t, w.Send(context.Background(), "second"), "send during in-flight request is a no-op")
	assert.Equal(t, 1, sender.callCount())

	close(sender.block)
	assert.True(t, <-done)

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.False(t, w.Typing())

	// The latch is free again.
	assert.True(t, w.Send(context.Background(), "third"))
}

func TestToggleShellAndWelcome(t *testing.T) {
	sender := &fakeSender{}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	assert.Equal(t, Minimized, w.State())

	assert.Equal(t, Expanded, w.Toggle())
	msgs := w.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.RoleBot, msgs[0].Role)
	assert.Equal(t, testCfg().WelcomeMessage, msgs[0].Content)

	assert.Equal(t, Minimized, w.Toggle())
	assert.Equal(t, Expanded, w.Toggle())
	assert.Len(t, w.Messages(), 1, "welcome synthesized only on first expand")
}

func TestFeedbackIdempotent(t *testing.T) {
	sender := &fakeSender{reply: &chat.Reply{
		Message: "The sunset cruise departs from the old harbour at 6pm daily.",
	}}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	require.True(t, w.Send(context.Background(), "When does the cruise leave?"))
	botID := w.Messages()[1].ID
	require.True(t, w.FeedbackEligible(botID))

	assert.True(t, w.SubmitFeedback(botID, chat.FeedbackPositive))
	assert.False(t, w.SubmitFeedback(botID, chat.FeedbackNegative))

	fb, ok := w.FeedbackFor(botID)
	require.True(t, ok)
	assert.Equal(t, chat.FeedbackPositive, fb.Polarity)
}

func TestFeedbackEligibility(t *testing.T) {
	longReply := "We run three different volcano hikes, each with pickup included. " + strings.Repeat("More detail. ", 5)

	t.Run("user messages never eligible", func(t *testing.T) {
		sender := &fakeSender{reply: &chat.Reply{Message: longReply}}
		w, _, _, _ := newTestWidget(sender)
		w.SetWidth(400)
		w.Send(context.Background(), "Tell me about hikes")
		assert.False(t, w.FeedbackEligible(w.Messages()[0].ID))
	})

	t.Run("welcome not eligible", func(t *testing.T) {
		w, _, _, _ := newTestWidget(&fakeSender{})
		w.SetWidth(400)
		w.Toggle()
		assert.False(t, w.FeedbackEligible(w.Messages()[0].ID))
	})

	t.Run("apology not eligible", func(t *testing.T) {
		sender := &fakeSender{err: errors.New("down")}
		w, _, _, _ := newTestWidget(sender)
		w.SetWidth(400)
		w.Send(context.Background(), "Hi")
		assert.False(t, w.FeedbackEligible(w.Messages()[1].ID))
	})

	t.Run("short replies not eligible", func(t *testing.T) {
		sender := &fakeSender{reply: &chat.Reply{Message: "Yes, daily at 9am."}}
		w, _, _, _ := newTestWidget(sender)
		w.SetWidth(400)
		w.Send(context.Background(), "Daily departures?")
		assert.False(t, w.FeedbackEligible(w.Messages()[1].ID))
	})

	t.Run("eligible only once reveal completes", func(t *testing.T) {
		sender := &fakeSender{reply: &chat.Reply{Message: longReply}}
		w, sched, _, _ := newTestWidget(sender)
		w.SetWidth(1024) // wide: chunked reveal driven by the scheduler

		w.Send(context.Background(), "Tell me about hikes")
		botID := w.Messages()[1].ID

		assert.False(t, w.FeedbackEligible(botID), "not eligible mid-reveal")
		sched.fireAll()
		assert.True(t, w.FeedbackEligible(botID))
	})

	t.Run("unknown id not eligible", func(t *testing.T) {
		w, _, _, _ := newTestWidget(&fakeSender{})
		assert.False(t, w.FeedbackEligible("missing"))
	})
}

func TestTypingFlagDuringSend(t *testing.T) {
	sender := &fakeSender{
		reply: &chat.Reply{Message: "ok"},
		block: make(chan struct{}),
	}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	done := make(chan struct{})
	go func() {
		w.Send(context.Background(), "Hi")
		close(done)
	}()

	require.Eventually(t, w.Typing, time.Second, time.Millisecond)
	close(sender.block)
	<-done
	assert.False(t, w.Typing())
}

func TestOnChangeNotifications(t *testing.T) {
	sender := &fakeSender{reply: &chat.Reply{Message: "ok"}}
	w, _, _, _ := newTestWidget(sender)
	w.SetWidth(400)

	var mu sync.Mutex
	count := 0
	w.OnChange(func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	w.Toggle()
	w.Send(context.Background(), "Hi")

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, count, 0)
}
