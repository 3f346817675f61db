package widget

import (
	"fmt"
	"sync"

	"github.com/tourvia/tourchat/pkg/logger"
)

// RenderBoundary isolates render failures: it runs a render function,
// recovers any panic, and from then on yields a fixed fallback until Reset
// is called externally. No partial recovery, no state preservation.
type RenderBoundary struct {
	mu       sync.Mutex
	fallback string
	tripped  bool
}

func NewRenderBoundary(fallback string) *RenderBoundary {
	return &RenderBoundary{fallback: fallback}
}

// Render returns render()'s output, or the fallback once the boundary has
// tripped.
func (b *RenderBoundary) Render(render func() string) (out string) {
	b.mu.Lock()
	tripped := b.tripped
	b.mu.Unlock()
	if tripped {
		return b.fallback
	}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("widget", fmt.Sprintf("Render failed: %v", r), nil)
			b.mu.Lock()
			b.tripped = true
			b.mu.Unlock()
			out = b.fallback
		}
	}()
	return render()
}

// Fallback returns the fixed replacement content.
func (b *RenderBoundary) Fallback() string {
	return b.fallback
}

// Tripped reports whether a render failure occurred.
func (b *RenderBoundary) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tripped
}

// Reset clears the boundary so rendering is attempted again.
func (b *RenderBoundary) Reset() {
	b.mu.Lock()
	b.tripped = false
	b.mu.Unlock()
}
