package reader

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartreader/reader/internal/book"
	"github.com/smartreader/reader/internal/narrate"
	"github.com/smartreader/reader/internal/scheduler"
)

type stubCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func (c *stubCache) GetTranslation(_ context.Context, text, src, tgt string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[src+":"+tgt+":"+text]
	return v, ok
}

func (c *stubCache) PutTranslation(_ context.Context, text, src, tgt, translated string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	c.entries[src+":"+tgt+":"+text] = translated
	return nil
}

type stubBackend struct {
	mu    sync.Mutex
	calls []string
}

func (b *stubBackend) Translate(_ context.Context, text, _, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, text)
	return "«" + text + "»", nil
}

func (b *stubBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type stubNarrator struct {
	mu      sync.Mutex
	spoken  []string
	blockOn chan struct{}
	stops   int
}

func (n *stubNarrator) Speak(ctx context.Context, req narrate.Request) error {
	n.mu.Lock()
	n.spoken = append(n.spoken, req.Text)
	block := n.blockOn
	n.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	return nil
}

func (n *stubNarrator) Stop() {
	n.mu.Lock()
	n.stops++
	n.mu.Unlock()
}

func (n *stubNarrator) spokenTexts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.spoken...)
}

type stubMarker struct {
	mu     sync.Mutex
	events []string
}

func (m *stubMarker) MarkReading(index int) {
	m.mu.Lock()
	m.events = append(m.events, "mark")
	m.mu.Unlock()
}

func (m *stubMarker) ClearReading(index int) {
	m.mu.Lock()
	m.events = append(m.events, "clear")
	m.mu.Unlock()
}

func newTestController(t *testing.T, texts ...string) (*Controller, *book.Model, *stubBackend, *stubNarrator, *fakePane) {
	t.Helper()

	model := book.NewModel()
	seeds := make([]book.Seed, len(texts))
	heights := make([]float64, len(texts))
	for i, txt := range texts {
		seeds[i] = book.Seed{Text: txt}
		heights[i] = 100
	}
	model.LoadChapter(0, seeds)

	backend := &stubBackend{}
	sched := scheduler.New(model, &stubCache{}, backend, "en", "ru")
	narrator := &stubNarrator{}
	source := newFakePane(300, heights...)
	translation := newFakePane(300, heights...)

	c := NewController(model, sched, narrator, source, translation, "ru",
		WithStepDelay(time.Millisecond))
	return c, model, backend, narrator, source
}

func TestController_TranslateAll_FromCurrentPosition(t *testing.T) {
	t.Parallel()

	c, model, backend, _, source := newTestController(t, "p0", "p1", "p2", "p3", "p4")
	source.scrollTop = 250 // inside paragraph 2

	require.NoError(t, c.TranslateAll(context.Background()))

	assert.Equal(t, []string{"p2", "p3", "p4"}, backend.calls)
	for i := 2; i < 5; i++ {
		p, _ := model.Paragraph(i)
		assert.Equal(t, book.StateTranslated, p.State)
	}
	p, _ := model.Paragraph(0)
	assert.Equal(t, book.StateUntranslated, p.State)
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestController_TranslateAll_SkipsAlreadyTranslated(t *testing.T) {
	t.Parallel()

	c, model, backend, _, _ := newTestController(t, "p0", "p1", "p2")
	epoch := model.Epoch()
	model.MarkPending(epoch, 1)
	model.MarkTranslated(epoch, 1, "готово")

	require.NoError(t, c.TranslateAll(context.Background()))

	assert.Equal(t, []string{"p0", "p2"}, backend.calls, "no duplicate network call for p1")
}

func TestController_ReadAll_SequentialNarration(t *testing.T) {
	t.Parallel()

	c, model, _, narrator, _ := newTestController(t, "p0", "p1")
	marker := &stubMarker{}
	c.marker = marker

	require.NoError(t, c.ReadAll(context.Background(), NarrationOptions{}))

	assert.Equal(t, []string{"«p0»", "«p1»"}, narrator.spokenTexts())
	assert.Equal(t, []string{"mark", "clear", "mark", "clear"}, marker.events)
	p, _ := model.Paragraph(0)
	assert.Equal(t, book.StateTranslated, p.State)
}

func TestController_ReadAll_SkipsImages(t *testing.T) {
	t.Parallel()

	model := book.NewModel()
	model.LoadChapter(0, []book.Seed{
		{Text: "before"},
		{ImageURL: "img/a.png"},
		{Text: "after"},
	})
	backend := &stubBackend{}
	sched := scheduler.New(model, &stubCache{}, backend, "en", "ru")
	narrator := &stubNarrator{}
	c := NewController(model, sched, narrator,
		newFakePane(300, 100, 100, 100), newFakePane(300, 100, 100, 100), "ru",
		WithStepDelay(time.Millisecond))

	require.NoError(t, c.ReadAll(context.Background(), NarrationOptions{}))
	assert.Equal(t, []string{"«before»", "«after»"}, narrator.spokenTexts())
}

func TestController_SecondStartIsRejected(t *testing.T) {
	t.Parallel()

	c, _, _, narrator, _ := newTestController(t, "p0", "p1", "p2")
	narrator.blockOn = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- c.ReadAll(context.Background(), NarrationOptions{}) }()

	require.Eventually(t, func() bool { return c.Mode() == ModeReading }, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.TranslateAll(context.Background()), ErrSessionActive)
	assert.ErrorIs(t, c.ReadAll(context.Background(), NarrationOptions{}), ErrSessionActive)

	close(narrator.blockOn)
	require.NoError(t, <-done)
	assert.Equal(t, ModeIdle, c.Mode())
}

func TestController_StopCancelsSession(t *testing.T) {
	t.Parallel()

	c, _, _, narrator, _ := newTestController(t, "p0", "p1", "p2")
	narrator.blockOn = make(chan struct{}) // narration stalls on p0

	done := make(chan error, 1)
	go func() { done <- c.ReadAll(context.Background(), NarrationOptions{}) }()

	require.Eventually(t, func() bool { return c.Mode() == ModeReading }, time.Second, time.Millisecond)
	c.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("ReadAll did not return after Stop")
	}

	narrator.mu.Lock()
	defer narrator.mu.Unlock()
	assert.GreaterOrEqual(t, narrator.stops, 1, "stop forces the narrator to halt")
	assert.Len(t, narrator.spoken, 1, "the loop stopped at the boundary after p0")
}

func TestController_StopWhenIdleIsSafe(t *testing.T) {
	t.Parallel()

	c, _, _, _, _ := newTestController(t, "p0")
	c.Stop()
	c.Stop()
	assert.Equal(t, ModeIdle, c.Mode())
}
