package chat

import "sync"

// Polarity is a thumbs-up or thumbs-down rating.
type Polarity string

const (
	FeedbackPositive Polarity = "positive"
	FeedbackNegative Polarity = "negative"
)

// Feedback is a visitor's rating of one bot message.
type Feedback struct {
	Polarity  Polarity `json:"polarity"`
	Submitted bool     `json:"submitted"`
}

// FeedbackStore records at most one rating per message id. Ratings live in
// memory only and are never transmitted; sending them to the backend is a
// future hook.
type FeedbackStore struct {
	mu      sync.RWMutex
	entries map[string]Feedback
}

func NewFeedbackStore() *FeedbackStore {
	return &FeedbackStore{entries: make(map[string]Feedback)}
}

// Submit records feedback for a message id. The first write wins; repeat
// submissions for the same id are no-ops. Returns whether the rating was
// recorded by this call.
func (s *FeedbackStore) Submit(messageID string, polarity Polarity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[messageID]; exists {
		return false
	}
	s.entries[messageID] = Feedback{Polarity: polarity, Submitted: true}
	return true
}

// Get returns the recorded feedback for a message id, if any.
func (s *FeedbackStore) Get(messageID string) (Feedback, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fb, ok := s.entries[messageID]
	return fb, ok
}
