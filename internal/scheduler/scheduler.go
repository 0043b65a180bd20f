package scheduler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/smartreader/reader/internal/book"
	"github.com/smartreader/reader/internal/translate"
	"github.com/smartreader/reader/pkg/log"
)

// TranslationCache is the persistent cache the scheduler consults before
// going to the network. Get treats storage errors as misses; Put failures
// are the scheduler's to swallow.
type TranslationCache interface {
	GetTranslation(ctx context.Context, text, sourceLang, targetLang string) (string, bool)
	PutTranslation(ctx context.Context, text, sourceLang, targetLang, translated string) error
}

// Scheduler decides when a paragraph acquires its translation. Visibility
// events drive the lazy path; TranslateNow is the explicit path used by
// paragraph clicks and the playback workflows.
type Scheduler struct {
	model   *book.Model
	cache   TranslationCache
	backend translate.Translator

	mu         sync.RWMutex
	sourceLang string
	targetLang string

	group singleflight.Group
	wg    sync.WaitGroup
}

func New(model *book.Model, cache TranslationCache, backend translate.Translator, sourceLang, targetLang string) *Scheduler {
	return &Scheduler{
		model:      model,
		cache:      cache,
		backend:    backend,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

// SetLanguages switches the translation pair. In-flight resolutions keep
// the pair they started with.
func (s *Scheduler) SetLanguages(sourceLang, targetLang string) {
	s.mu.Lock()
	s.sourceLang = sourceLang
	s.targetLang = targetLang
	s.mu.Unlock()
}

func (s *Scheduler) languages() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sourceLang, s.targetLang
}

// OnVisible is the visibility observer callback. Pending and Translated
// paragraphs are ignored to avoid duplicate work. Failed ones retry here:
// the observer only reports hidden-to-visible transitions, so a retry
// needs the user to scroll away and back.
func (s *Scheduler) OnVisible(indexes []int) {
	epoch := s.model.Epoch()
	for _, index := range indexes {
		p, ok := s.model.Paragraph(index)
		if !ok || (p.State != book.StateUntranslated && p.State != book.StateFailed) {
			continue
		}
		if !s.model.MarkPending(epoch, index) {
			continue
		}
		s.wg.Add(1)
		go func(index int, text string) {
			defer s.wg.Done()
			// A paragraph scrolled out of view does not cancel the
			// request; resolutions are cheap and usually still wanted.
			s.resolve(context.Background(), epoch, index, text)
		}(index, p.Source)
	}
}

// TranslateNow translates one paragraph immediately, bypassing the
// visibility gate. Idempotent: an already-Translated paragraph returns its
// text, an image returns empty, and a Pending one joins the in-flight
// resolution instead of issuing a second request.
func (s *Scheduler) TranslateNow(ctx context.Context, index int) (string, error) {
	epoch := s.model.Epoch()
	p, ok := s.model.Paragraph(index)
	if !ok {
		return "", fmt.Errorf("paragraph %d out of range", index)
	}
	if !p.Translatable() {
		return "", nil
	}
	if p.State == book.StateTranslated {
		return p.Translated, nil
	}

	s.model.MarkPending(epoch, index)
	return s.resolve(ctx, epoch, index, p.Source)
}

// resolve runs the cache→network path and applies the result to the model.
// The singleflight key collapses concurrent resolutions of identical text
// into one backend call.
func (s *Scheduler) resolve(ctx context.Context, epoch uint64, index int, text string) (string, error) {
	sourceLang, targetLang := s.languages()
	key := sourceLang + "|" + targetLang + "|" + text

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if cached, ok := s.cache.GetTranslation(ctx, text, sourceLang, targetLang); ok {
			return cached, nil
		}
		translated, err := s.backend.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			return "", err
		}
		if putErr := s.cache.PutTranslation(ctx, text, sourceLang, targetLang, translated); putErr != nil {
			// Persistence is best effort; the session stays correct.
			log.Warn("Failed to cache translation: %v", putErr)
		}
		return translated, nil
	})
	if err != nil {
		s.model.MarkFailed(epoch, index)
		return "", err
	}

	translated := v.(string)
	// The chapter may have been replaced while the request was in flight;
	// a stale epoch makes this a no-op.
	s.model.MarkTranslated(epoch, index, translated)
	return translated, nil
}

// Wait blocks until all lazily started resolutions have settled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
