package narrate

import (
	"context"
	"sync"
	"time"

	"github.com/smartreader/reader/pkg/log"
)

// Policy is the explicit fallback table for chunked narration: which
// backend speaks first, which one covers a failed chunk, and how long a
// single chunk may take before it counts as failed.
type Policy struct {
	Primary         Provider
	Fallback        Provider
	PerChunkTimeout time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Primary:         ProviderRemote,
		Fallback:        ProviderDevice,
		PerChunkTimeout: 5 * time.Second,
	}
}

// Request asks for one block of text to be spoken aloud.
type Request struct {
	Text           string
	Lang           string
	Provider       Provider
	Gender         Gender
	Rate           float64
	PreferEnhanced bool
}

const defaultNudgeInterval = 10 * time.Second

// session is one narration in flight. Tracking it by identity lets Stop
// and preemption cancel exactly the active one.
type session struct {
	cancel context.CancelFunc
}

// Pipeline speaks text through the configured backends. At most one
// narration is in flight globally; starting a new one preempts the
// previous one, and Stop halts everything synchronously.
type Pipeline struct {
	remote   RemoteSpeech
	engine   SpeechEngine
	policy   Policy
	profiles VoiceProfiles

	chunkCeiling  int
	nudgeInterval time.Duration

	mu      sync.Mutex
	current *session
}

type Option func(*Pipeline)

func WithChunkCeiling(n int) Option {
	return func(p *Pipeline) { p.chunkCeiling = n }
}

func WithNudgeInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.nudgeInterval = d }
}

func WithProfiles(profiles VoiceProfiles) Option {
	return func(p *Pipeline) { p.profiles = profiles }
}

func NewPipeline(remote RemoteSpeech, engine SpeechEngine, policy Policy, opts ...Option) *Pipeline {
	p := &Pipeline{
		remote:        remote,
		engine:        engine,
		policy:        policy,
		profiles:      DefaultVoiceProfiles(),
		chunkCeiling:  DefaultChunkCeiling,
		nudgeInterval: defaultNudgeInterval,
	}
	if p.policy.PerChunkTimeout <= 0 {
		p.policy.PerChunkTimeout = DefaultPolicy().PerChunkTimeout
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Speak narrates req.Text and blocks until narration completes or is
// stopped. A Stop (or a new Speak) releases the caller with a nil error.
// Backend failures inside a chunked session fall back per the policy and
// never abort the remaining chunks.
func (p *Pipeline) Speak(ctx context.Context, req Request) error {
	if req.Text == "" {
		return nil
	}
	if req.Rate <= 0 {
		req.Rate = 1.0
	}
	lang := NormalizeLang(req.Lang)

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &session{cancel: cancel}
	p.begin(s)
	defer p.end(s)

	var err error
	if req.Provider == ProviderDevice {
		err = p.speakDevice(sessionCtx, req.Text, lang, req)
	} else {
		err = p.speakChunked(sessionCtx, req.Text, lang, req)
	}
	if sessionCtx.Err() != nil {
		// stopped or preempted: the caller is released, not failed
		return nil
	}
	return err
}

// Stop halts any in-flight narration: remote playback, the device
// utterance and its nudge timer. Idempotent and safe when nothing plays.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.current != nil {
		p.current.cancel()
		p.current = nil
	}
	p.mu.Unlock()

	if p.engine != nil {
		p.engine.Cancel()
	}
}

// begin registers the new session, preempting any previous one.
func (p *Pipeline) begin(s *session) {
	p.mu.Lock()
	prev := p.current
	p.current = s
	p.mu.Unlock()

	if prev != nil {
		prev.cancel()
		if p.engine != nil {
			p.engine.Cancel()
		}
	}
}

func (p *Pipeline) end(s *session) {
	s.cancel()
	p.mu.Lock()
	if p.current == s {
		p.current = nil
	}
	p.mu.Unlock()
}

// speakChunked plays sentence chunks sequentially through the primary
// backend, falling back per chunk. A single failure never silences the
// rest of the text.
func (p *Pipeline) speakChunked(ctx context.Context, text, lang string, req Request) error {
	for _, chunk := range Chunks(text, p.chunkCeiling) {
		if ctx.Err() != nil {
			return nil
		}
		if err := p.speakChunkPrimary(ctx, chunk, lang, req.Rate); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn("Remote speech failed for chunk, falling back to device: %v", err)
			if fbErr := p.speakDevice(ctx, chunk, lang, req); fbErr != nil {
				// fallback failure is swallowed, the sequence continues
				log.Warn("Device fallback failed for chunk: %v", fbErr)
			}
		}
	}
	return nil
}

func (p *Pipeline) speakChunkPrimary(ctx context.Context, chunk, lang string, rate float64) error {
	chunkCtx, cancel := context.WithTimeout(ctx, p.policy.PerChunkTimeout)
	defer cancel()
	return p.remote.Play(chunkCtx, chunk, lang, rate)
}

// speakDevice hands text to the on-device engine as one utterance and waits
// for its completion callback. Some platforms silently halt long
// utterances, so the engine is nudged (pause/resume) while it reports
// speaking.
func (p *Pipeline) speakDevice(ctx context.Context, text, lang string, req Request) error {
	if p.engine == nil {
		return nil
	}

	voice := SelectVoice(p.engine.Voices(), lang, req.Gender, req.PreferEnhanced, p.profiles)

	done := make(chan error, 1)
	err := p.engine.Speak(Utterance{
		Text:  text,
		Lang:  lang,
		Voice: voice,
		Rate:  req.Rate,
		Done:  func(err error) { done <- err },
	})
	if err != nil {
		return err
	}

	nudge := time.NewTicker(p.nudgeInterval)
	defer nudge.Stop()

	for {
		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			p.engine.Cancel()
			return nil
		case <-nudge.C:
			if !p.engine.Speaking() {
				return nil
			}
			p.engine.Pause()
			p.engine.Resume()
		}
	}
}
