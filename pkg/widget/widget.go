// Package widget is the headless core of the chat widget: shell state,
// transcript, typing latch, reveal orchestration, and feedback. Surfaces
// (terminal, web) render its state and forward user actions; all
// conversational behavior lives here.
package widget

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/tourvia/tourchat/pkg/chat"
	"github.com/tourvia/tourchat/pkg/config"
	"github.com/tourvia/tourchat/pkg/logger"
	"github.com/tourvia/tourchat/pkg/reveal"
	"github.com/tourvia/tourchat/pkg/session"
)

// ShellState is the widget's presentation state. There are exactly two and
// the widget toggles between them for the life of the page.
type ShellState int

const (
	Minimized ShellState = iota
	Expanded
)

// Sender abstracts the chat API client.
type Sender interface {
	Send(ctx context.Context, message, sessionID string) (*chat.Reply, error)
}

// Widget owns all conversational state.
type Widget struct {
	cfg      config.WidgetConfig
	client   Sender
	session  *session.Manager
	msgs     *chat.Transcript
	feedback *chat.FeedbackStore
	animator *reveal.Animator
	sched    reveal.Scheduler

	mu     sync.Mutex
	state  ShellState
	typing bool
	opened bool
	width  int

	onChange func()
	onScroll func()
}

// New wires a widget from its collaborators. sched drives both the reveal
// animation and the post-step scroll delay.
func New(cfg config.WidgetConfig, client Sender, sess *session.Manager, sched reveal.Scheduler) *Widget {
	w := &Widget{
		cfg:      cfg,
		client:   client,
		session:  sess,
		msgs:     chat.NewTranscript(),
		feedback: chat.NewFeedbackStore(),
		sched:    sched,
		state:    Minimized,
		width:    cfg.WideThreshold,
	}
	w.animator = reveal.NewAnimator(sched, reveal.Options{
		WideThreshold: cfg.WideThreshold,
		ChunkDelay:    time.Duration(cfg.ChunkDelayMs) * time.Millisecond,
		PreDelay:      time.Duration(cfg.PreDelayMs) * time.Millisecond,
	}, w.revealStep)
	return w
}

// OnChange registers a callback fired after any state change. Surfaces use
// it to re-render.
func (w *Widget) OnChange(fn func()) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// OnScroll registers a callback fired shortly after each reveal step so the
// newest content stays in view during animation.
func (w *Widget) OnScroll(fn func()) {
	w.mu.Lock()
	w.onScroll = fn
	w.mu.Unlock()
}

// SetWidth records the current viewport width, which selects the reveal
// strategy for subsequently appended bot messages.
func (w *Widget) SetWidth(width int) {
	w.mu.Lock()
	w.width = width
	w.mu.Unlock()
}

// State returns the shell state.
func (w *Widget) State() ShellState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Typing reports whether a request is in flight.
func (w *Widget) Typing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.typing
}

// Messages returns a transcript snapshot.
func (w *Widget) Messages() []chat.Message {
	return w.msgs.Messages()
}

// RevealState returns the reveal progress for a message, if an animation was
// started for it.
func (w *Widget) RevealState(messageID string) (reveal.State, bool) {
	return w.animator.Get(messageID)
}

// Toggle flips the shell between minimized and expanded. The first expansion
// synthesizes the welcome message locally and starts its reveal.
func (w *Widget) Toggle() ShellState {
	w.mu.Lock()
	if w.state == Minimized {
		w.state = Expanded
	} else {
		w.state = Minimized
	}
	st := w.state
	firstOpen := st == Expanded && !w.opened
	if firstOpen {
		w.opened = true
	}
	w.mu.Unlock()

	if firstOpen {
		w.appendBot(w.cfg.WelcomeMessage)
	}
	w.notifyChange()
	return st
}

// Send handles one user turn. Empty or whitespace-only input is rejected, as
// is any send while a request is in flight; both return false without side
// effects. Otherwise the user message is appended immediately, the typing
// latch is held for the duration of the single network call, and the bot
// reply (or the canned apology on any failure) is appended and revealed.
// There is no retry and no cancellation.
func (w *Widget) Send(ctx context.Context, input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return false
	}

	w.mu.Lock()
	if w.typing {
		w.mu.Unlock()
		return false
	}
	w.typing = true
	w.mu.Unlock()

	w.msgs.Append(chat.NewMessage(chat.RoleUser, trimmed))
	w.notifyChange()

	reply, err := w.client.Send(ctx, trimmed, w.session.ID())
	if err != nil {
		logger.ErrorCF("widget", fmt.Sprintf("Chat request failed: %v", err), nil)
		w.settle(w.cfg.ApologyMessage)
		return true
	}

	w.session.Adopt(reply.SessionID)
	if err := w.session.SaveContext(reply.Context); err != nil {
		logger.WarnCF("widget", fmt.Sprintf("Discarding malformed context: %v", err), nil)
	}
	w.settle(reply.Message)
	return true
}

// settle appends the bot's (or canned) reply, clears the typing latch, and
// starts the reveal.
func (w *Widget) settle(content string) {
	w.mu.Lock()
	w.typing = false
	w.mu.Unlock()
	w.appendBot(content)
	w.notifyChange()
}

func (w *Widget) appendBot(content string) {
	msg := w.msgs.Append(chat.NewMessage(chat.RoleBot, content))
	w.mu.Lock()
	width := w.width
	w.mu.Unlock()
	w.animator.Start(msg.ID, msg.Content, width)
}

// SubmitFeedback records a thumbs rating for a bot message. Only the first
// submission per message is kept; repeats are no-ops. Ratings stay local;
// forwarding them to the booking backend is a future hook.
func (w *Widget) SubmitFeedback(messageID string, polarity chat.Polarity) bool {
	msg, ok := w.msgs.Get(messageID)
	if !ok || msg.Role != chat.RoleBot {
		return false
	}
	recorded := w.feedback.Submit(messageID, polarity)
	if recorded {
		w.notifyChange()
	}
	return recorded
}

// FeedbackFor returns the stored rating for a message, if any.
func (w *Widget) FeedbackFor(messageID string) (chat.Feedback, bool) {
	return w.feedback.Get(messageID)
}

// FeedbackEligible reports whether feedback controls are offered for a
// message: bot-authored, reveal complete, not the welcome or apology text,
// and long enough to be worth rating.
func (w *Widget) FeedbackEligible(messageID string) bool {
	msg, ok := w.msgs.Get(messageID)
	if !ok || msg.Role != chat.RoleBot {
		return false
	}
	if !w.animator.Complete(messageID) {
		return false
	}
	if msg.Content == w.cfg.WelcomeMessage || msg.Content == w.cfg.ApologyMessage {
		return false
	}
	return utf8.RuneCountInString(msg.Content) >= w.cfg.MinFeedbackLength
}

func (w *Widget) revealStep(st reveal.State) {
	w.notifyChange()

	w.mu.Lock()
	scroll := w.onScroll
	delay := time.Duration(w.cfg.ScrollDelayMs) * time.Millisecond
	w.mu.Unlock()
	if scroll != nil {
		w.sched.AfterFunc(delay, scroll)
	}
}

func (w *Widget) notifyChange() {
	w.mu.Lock()
	fn := w.onChange
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}
