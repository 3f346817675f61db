// Package reveal implements the staged "typing" reveal of bot messages as an
// explicit state machine: text is split into 1-3 equal chunks and increasing
// prefixes become visible on a timer.
package reveal

import (
	"fmt"
	"sync"
	"time"

	"github.com/tourvia/tourchat/pkg/logger"
)

// Length thresholds (in characters) selecting how many chunks a message is
// split into.
const (
	oneChunkBelow  = 100
	twoChunksBelow = 300
	maxChunks      = 3
)

// ChunkCount returns how many chunks a message of the given character length
// is revealed in.
func ChunkCount(length int) int {
	switch {
	case length < oneChunkBelow:
		return 1
	case length < twoChunksBelow:
		return 2
	default:
		return maxChunks
	}
}

// State is the reveal progress of one message. Complete transitions
// false -> true exactly once and never reverts.
type State struct {
	MessageID    string `json:"message_id"`
	Text         string `json:"text"`
	VisibleChars int    `json:"visible_chars"`
	ChunkIndex   int    `json:"chunk_index"`
	TotalChunks  int    `json:"total_chunks"`
	Complete     bool   `json:"complete"`
	FadeIn       bool   `json:"fade_in"`
}

// VisibleText returns the currently revealed prefix.
func (s State) VisibleText() string {
	runes := []rune(s.Text)
	if s.VisibleChars >= len(runes) {
		return s.Text
	}
	return string(runes[:s.VisibleChars])
}

// Options configures the animator. Zero values fall back to the widget's
// stock timings.
type Options struct {
	WideThreshold int
	ChunkDelay    time.Duration
	PreDelay      time.Duration
}

func (o Options) withDefaults() Options {
	if o.WideThreshold <= 0 {
		o.WideThreshold = 768
	}
	if o.ChunkDelay <= 0 {
		o.ChunkDelay = 250 * time.Millisecond
	}
	if o.PreDelay <= 0 {
		o.PreDelay = 100 * time.Millisecond
	}
	return o
}

// Animator owns at most one reveal State per message id and drives chunked
// reveals through the scheduler.
type Animator struct {
	mu     sync.RWMutex
	states map[string]*State
	sched  Scheduler
	opts   Options
	onStep func(State)
}

// NewAnimator creates an animator. onStep is invoked with a snapshot after
// every reveal step (including the immediate one of the simple strategy); it
// may be nil.
func NewAnimator(sched Scheduler, opts Options, onStep func(State)) *Animator {
	return &Animator{
		states: make(map[string]*State),
		sched:  sched,
		opts:   opts.withDefaults(),
		onStep: onStep,
	}
}

// Get returns the reveal state for a message id.
func (a *Animator) Get(messageID string) (State, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st, ok := a.states[messageID]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// Complete reports whether the message's reveal has finished. Messages with
// no animation state render as plain blocks and report false.
func (a *Animator) Complete(messageID string) bool {
	st, ok := a.Get(messageID)
	return ok && st.Complete
}

// Start begins revealing a message. Viewport width selects the strategy:
// below the wide threshold the text is shown whole and complete immediately;
// otherwise it is revealed chunk by chunk, one step per chunk delay after an
// initial pre-delay. Any panic during setup is recovered and logged, and
// Start returns nil; the message then renders as a static block with no
// animation state.
func (a *Animator) Start(messageID, text string, width int) (st *State) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("reveal", fmt.Sprintf("Animation setup failed: %v", r),
				map[string]interface{}{"message_id": messageID})
			a.mu.Lock()
			delete(a.states, messageID)
			a.mu.Unlock()
			st = nil
		}
	}()

	total := len([]rune(text))

	if width < a.opts.WideThreshold {
		return a.startSimple(messageID, text, total)
	}
	return a.startChunked(messageID, text, total)
}

func (a *Animator) startSimple(messageID, text string, total int) *State {
	st := &State{
		MessageID:    messageID,
		Text:         text,
		VisibleChars: total,
		ChunkIndex:   0,
		TotalChunks:  1,
		Complete:     true,
		FadeIn:       false,
	}
	a.mu.Lock()
	a.states[messageID] = st
	snapshot := *st
	a.mu.Unlock()

	a.notify(snapshot)
	return st
}

func (a *Animator) startChunked(messageID, text string, total int) *State {
	chunks := ChunkCount(total)
	chunkSize := (total + chunks - 1) / chunks // ceil

	st := &State{
		MessageID:    messageID,
		Text:         text,
		VisibleChars: 0,
		ChunkIndex:   0,
		TotalChunks:  chunks,
		Complete:     total == 0,
		FadeIn:       true,
	}
	a.mu.Lock()
	a.states[messageID] = st
	a.mu.Unlock()

	if total == 0 {
		a.notify(*st)
		return st
	}

	a.sched.AfterFunc(a.opts.PreDelay, func() {
		a.step(messageID, 0, chunkSize, total)
	})
	return st
}

// step reveals chunk index i and schedules the next one. A tick for a state
// that no longer exists is inert.
func (a *Animator) step(messageID string, i, chunkSize, total int) {
	a.mu.Lock()
	st, ok := a.states[messageID]
	if !ok {
		a.mu.Unlock()
		return
	}

	visible := (i + 1) * chunkSize
	if visible > total {
		visible = total
	}
	st.ChunkIndex = i
	st.VisibleChars = visible
	if visible == total {
		st.Complete = true
	}
	snapshot := *st
	a.mu.Unlock()

	a.notify(snapshot)

	if !snapshot.Complete {
		a.sched.AfterFunc(a.opts.ChunkDelay, func() {
			a.step(messageID, i+1, chunkSize, total)
		})
	}
}

func (a *Animator) notify(st State) {
	if a.onStep != nil {
		a.onStep(st)
	}
}
