package reader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smartreader/reader/internal/book"
	"github.com/smartreader/reader/internal/narrate"
	"github.com/smartreader/reader/internal/scheduler"
	"github.com/smartreader/reader/pkg/log"
)

// Mode is the playback session state.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeTranslating Mode = "translating"
	ModeReading     Mode = "reading"
)

// ErrSessionActive rejects a start while another session runs. The UI keeps
// start controls disabled during a session, so callers treat this as a
// no-op.
var ErrSessionActive = errors.New("playback session already running")

// Narrator speaks one block of text and blocks until done or stopped.
// Implemented by narrate.Pipeline.
type Narrator interface {
	Speak(ctx context.Context, req narrate.Request) error
	Stop()
}

// ReadingMarker is the presentation hook for the "now reading" highlight.
type ReadingMarker interface {
	MarkReading(index int)
	ClearReading(index int)
}

// NarrationOptions carry the user's voice settings into a read-all session.
type NarrationOptions struct {
	Provider       narrate.Provider
	Gender         narrate.Gender
	Rate           float64
	PreferEnhanced bool
}

const defaultStepDelay = 250 * time.Millisecond

// Controller runs the chapter-wide workflows: translate everything from
// the current position, or translate and read aloud paragraph by
// paragraph. One session at a time; both workflows walk paragraphs
// strictly in document order and never overlap translation or narration
// across paragraphs.
type Controller struct {
	model       *book.Model
	sched       *scheduler.Scheduler
	narrator    Narrator
	source      Pane
	translation Pane
	marker      ReadingMarker
	targetLang  string
	stepDelay   time.Duration

	mu     sync.Mutex
	mode   Mode
	cancel context.CancelFunc
}

type ControllerOption func(*Controller)

func WithStepDelay(d time.Duration) ControllerOption {
	return func(c *Controller) { c.stepDelay = d }
}

func WithReadingMarker(m ReadingMarker) ControllerOption {
	return func(c *Controller) { c.marker = m }
}

func NewController(
	model *book.Model,
	sched *scheduler.Scheduler,
	narrator Narrator,
	source, translation Pane,
	targetLang string,
	opts ...ControllerOption,
) *Controller {
	c := &Controller{
		model:       model,
		sched:       sched,
		narrator:    narrator,
		source:      source,
		translation: translation,
		targetLang:  targetLang,
		stepDelay:   defaultStepDelay,
		mode:        ModeIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Stop cancels the active session, if any, and silences narration. Always
// safe to call; chapter navigation must call it before loading the next
// chapter.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	if c.narrator != nil {
		c.narrator.Stop()
	}
}

// TranslateAll translates every untranslated text paragraph from the first
// paragraph at-or-after the current scroll position to the chapter's end,
// in order, scrolling each into view. Blocks until done or cancelled.
func (c *Controller) TranslateAll(ctx context.Context) error {
	sessCtx, err := c.begin(ctx, ModeTranslating)
	if err != nil {
		return err
	}
	defer c.end()

	for i := c.startIndex(); i < c.model.Len(); i++ {
		if sessCtx.Err() != nil {
			return nil
		}
		p, ok := c.model.Paragraph(i)
		if !ok || !p.Translatable() {
			continue
		}
		if p.State != book.StateTranslated {
			if _, err := c.sched.TranslateNow(sessCtx, i); err != nil {
				// local failure: the paragraph shows its error marker,
				// the batch moves on
				log.Warn("Translate-all: paragraph %d failed: %v", i, err)
				continue
			}
		}
		c.scrollIntoView(i)
		c.pause(sessCtx)
	}
	return nil
}

// ReadAll narrates the chapter from the current position: per paragraph it
// ensures the translation, marks it as being read, scrolls it into view,
// speaks it to completion, then moves on. Narration failures are silent;
// cancellation stops at the next boundary.
func (c *Controller) ReadAll(ctx context.Context, opts NarrationOptions) error {
	sessCtx, err := c.begin(ctx, ModeReading)
	if err != nil {
		return err
	}
	defer c.end()

	for i := c.startIndex(); i < c.model.Len(); i++ {
		if sessCtx.Err() != nil {
			return nil
		}
		p, ok := c.model.Paragraph(i)
		if !ok || !p.Translatable() {
			continue
		}

		text, err := c.sched.TranslateNow(sessCtx, i)
		if err != nil {
			log.Warn("Read-all: translation of paragraph %d failed: %v", i, err)
			continue
		}
		if text == "" {
			continue
		}

		if c.marker != nil {
			c.marker.MarkReading(i)
		}
		c.scrollIntoView(i)

		// narration is the suspension point: the loop holds here until
		// the paragraph resolves or Stop releases it
		if err := c.narrator.Speak(sessCtx, narrate.Request{
			Text:           text,
			Lang:           c.targetLang,
			Provider:       opts.Provider,
			Gender:         opts.Gender,
			Rate:           opts.Rate,
			PreferEnhanced: opts.PreferEnhanced,
		}); err != nil {
			log.Warn("Read-all: narration of paragraph %d failed: %v", i, err)
		}

		if c.marker != nil {
			c.marker.ClearReading(i)
		}
		c.pause(sessCtx)
	}
	return nil
}

func (c *Controller) begin(ctx context.Context, mode Mode) (context.Context, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeIdle {
		return nil, ErrSessionActive
	}
	sessCtx, cancel := context.WithCancel(ctx)
	c.mode = mode
	c.cancel = cancel
	return sessCtx, nil
}

func (c *Controller) end() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mode = ModeIdle
	c.mu.Unlock()
}

// startIndex is the first paragraph at-or-after the canonical (source
// pane) scroll position.
func (c *Controller) startIndex() int {
	if c.source == nil {
		return 0
	}
	return firstIndexAtOrAfter(c.source, c.source.ScrollTop())
}

// scrollIntoView aligns both panes on the paragraph being worked on.
func (c *Controller) scrollIntoView(index int) {
	for _, pane := range []Pane{c.translation, c.source} {
		if pane == nil || index >= pane.ItemCount() {
			continue
		}
		if offset, ok := clampScroll(pane, pane.ItemTop(index)); ok {
			pane.SetScrollTop(offset)
		}
	}
}

// pause lets the UI settle between paragraphs.
func (c *Controller) pause(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.stepDelay):
	}
}
