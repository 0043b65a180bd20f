package reader

import (
	"context"
	"sync"
	"time"

	"github.com/smartreader/reader/pkg/log"
)

// ProgressStore persists reading positions, fire-and-forget.
type ProgressStore interface {
	SetProgress(ctx context.Context, bookID string, chapterIndex int, scrollOffset float64) error
}

// DefaultProgressDebounce coalesces a burst of scroll events into one
// delayed write.
const DefaultProgressDebounce = 1500 * time.Millisecond

// DebouncedProgressWriter buffers position updates and writes only the
// most recent one after a quiet period, so continuous scrolling does not
// amplify into a write per event. Flush forces the pending write out
// immediately, for leaving the reader view.
type DebouncedProgressWriter struct {
	store  ProgressStore
	bookID string
	delay  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	chapter int
	offset  float64
}

func NewDebouncedProgressWriter(store ProgressStore, bookID string, delay time.Duration) *DebouncedProgressWriter {
	if delay <= 0 {
		delay = DefaultProgressDebounce
	}
	return &DebouncedProgressWriter{
		store:  store,
		bookID: bookID,
		delay:  delay,
	}
}

// Update records the latest position and (re)arms the delayed write.
func (w *DebouncedProgressWriter) Update(chapterIndex int, scrollOffset float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.chapter = chapterIndex
	w.offset = scrollOffset
	w.pending = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.Flush)
}

// Flush writes the pending position now, if any. Safe to call at any time.
func (w *DebouncedProgressWriter) Flush() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	chapter, offset := w.chapter, w.offset
	w.mu.Unlock()

	if err := w.store.SetProgress(context.Background(), w.bookID, chapter, offset); err != nil {
		// best effort: the session stays correct even if the bookmark lags
		log.Warn("Failed to persist reading progress: %v", err)
	}
}

// Stop drops any pending write without persisting it.
func (w *DebouncedProgressWriter) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = false
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
