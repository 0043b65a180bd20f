package narrate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote records played chunks and can fail selected ones.
type fakeRemote struct {
	mu      sync.Mutex
	played  []string
	failFor map[string]bool
	blockOn chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{failFor: make(map[string]bool)}
}

func (r *fakeRemote) Play(ctx context.Context, text, _ string, _ float64) error {
	r.mu.Lock()
	r.played = append(r.played, text)
	fail := r.failFor[text]
	block := r.blockOn
	r.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return errors.New("synthesis failed")
	}
	return ctx.Err()
}

// fakeEngine completes every utterance immediately unless told to hang.
type fakeEngine struct {
	mu       sync.Mutex
	spoken   []string
	voices   []Voice
	speaking bool
	hang     bool
	pauses   int
	resumes  int
	cancels  int
	done     func(error)
}

func (e *fakeEngine) Speak(u Utterance) error {
	e.mu.Lock()
	e.spoken = append(e.spoken, u.Text)
	hang := e.hang
	e.speaking = true
	e.done = u.Done
	e.mu.Unlock()

	if !hang {
		e.mu.Lock()
		e.speaking = false
		e.mu.Unlock()
		u.Done(nil)
	}
	return nil
}

func (e *fakeEngine) Cancel() {
	e.mu.Lock()
	e.cancels++
	e.speaking = false
	e.mu.Unlock()
}

func (e *fakeEngine) Pause()  { e.mu.Lock(); e.pauses++; e.mu.Unlock() }
func (e *fakeEngine) Resume() { e.mu.Lock(); e.resumes++; e.mu.Unlock() }

func (e *fakeEngine) Speaking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speaking
}

func (e *fakeEngine) Voices() []Voice {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.voices
}

func (e *fakeEngine) spokenTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.spoken...)
}

func TestPipeline_ChunkedFallbackSequencing(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.failFor["Second one."] = true
	engine := &fakeEngine{}
	p := NewPipeline(remote, engine, DefaultPolicy())

	err := p.Speak(context.Background(), Request{
		Text: "First one. Second one. Third one.",
		Lang: "en",
	})
	require.NoError(t, err, "session resolves despite the failed chunk")

	remote.mu.Lock()
	played := append([]string(nil), remote.played...)
	remote.mu.Unlock()

	// chunk1(remote) -> chunk2(device fallback) -> chunk3(remote)
	assert.Equal(t, []string{"First one.", "Second one.", "Third one."}, played)
	assert.Equal(t, []string{"Second one."}, engine.spokenTexts())
}

func TestPipeline_DeviceMode_SingleUtterance(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{voices: []Voice{{Name: "Dmitry", Lang: "ru-RU"}}}
	p := NewPipeline(newFakeRemote(), engine, DefaultPolicy())

	err := p.Speak(context.Background(), Request{
		Text:     "Первое предложение. Второе предложение.",
		Lang:     "ru",
		Provider: ProviderDevice,
		Gender:   GenderMale,
	})
	require.NoError(t, err)
	require.Len(t, engine.spokenTexts(), 1, "device mode speaks the full text as one utterance")
}

func TestPipeline_DeviceNudgeWhileSpeaking(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{hang: true}
	p := NewPipeline(newFakeRemote(), engine, DefaultPolicy(),
		WithNudgeInterval(10*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		done <- p.Speak(context.Background(), Request{
			Text:     "endless text",
			Provider: ProviderDevice,
			Lang:     "en",
		})
	}()

	require.Eventually(t, func() bool {
		engine.mu.Lock()
		defer engine.mu.Unlock()
		return engine.pauses >= 2 && engine.resumes >= 2
	}, time.Second, 5*time.Millisecond, "engine gets pause/resume nudges while speaking")

	// engine finally reports completion
	engine.mu.Lock()
	engine.speaking = false
	cb := engine.done
	engine.mu.Unlock()
	cb(nil)

	require.NoError(t, <-done)
}

func TestPipeline_StopReleasesWaiter(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.blockOn = make(chan struct{}) // never closed: playback stalls
	engine := &fakeEngine{}
	p := NewPipeline(remote, engine, Policy{PerChunkTimeout: time.Minute})

	done := make(chan error, 1)
	go func() {
		done <- p.Speak(context.Background(), Request{Text: "Hello there.", Lang: "en"})
	}()

	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return len(remote.played) == 1
	}, time.Second, time.Millisecond)

	p.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err, "stopped narration resolves, it does not fail")
	case <-time.After(time.Second):
		t.Fatal("Speak did not return after Stop")
	}
}

func TestPipeline_StopIdempotentWhenIdle(t *testing.T) {
	t.Parallel()

	p := NewPipeline(newFakeRemote(), &fakeEngine{}, DefaultPolicy())
	p.Stop()
	p.Stop()
}

func TestPipeline_NewSpeakPreemptsPrevious(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.blockOn = make(chan struct{})
	p := NewPipeline(remote, &fakeEngine{}, Policy{PerChunkTimeout: time.Minute})

	first := make(chan error, 1)
	go func() {
		first <- p.Speak(context.Background(), Request{Text: "Old text.", Lang: "en"})
	}()

	require.Eventually(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return len(remote.played) == 1
	}, time.Second, time.Millisecond)

	// second narration preempts the stalled first one
	remote.mu.Lock()
	remote.blockOn = nil
	remote.mu.Unlock()

	require.NoError(t, p.Speak(context.Background(), Request{Text: "New text.", Lang: "en"}))
	require.NoError(t, <-first)
}

func TestPipeline_ChunkTimeoutTriggersFallback(t *testing.T) {
	t.Parallel()

	remote := newFakeRemote()
	remote.blockOn = make(chan struct{}) // remote never answers
	engine := &fakeEngine{}
	p := NewPipeline(remote, engine, Policy{PerChunkTimeout: 20 * time.Millisecond})

	err := p.Speak(context.Background(), Request{Text: "Slow chunk.", Lang: "en"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Slow chunk."}, engine.spokenTexts(), "timed-out chunk is spoken by the device backend")
}
