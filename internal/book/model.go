package book

import "sync"

// Model is the source of truth for per-paragraph translation state within
// the active chapter. Exactly one chapter's paragraph list exists at a time;
// loading a chapter discards the previous list wholesale.
//
// Every load bumps an epoch token. Mutating operations take the epoch the
// caller observed at trigger time and are dropped when it no longer matches,
// so a translation resolving after a chapter switch cannot touch the newly
// loaded chapter even if the same index exists in both.
type Model struct {
	mu         sync.RWMutex
	chapter    int
	epoch      uint64
	paragraphs []Paragraph
}

func NewModel() *Model {
	return &Model{chapter: -1}
}

// LoadChapter replaces the active paragraph sequence and returns the new
// epoch token. All text paragraphs start Untranslated; image markers are
// Skipped and never scheduled.
func (m *Model) LoadChapter(chapterIndex int, seeds []Seed) uint64 {
	paragraphs := make([]Paragraph, len(seeds))
	for i, seed := range seeds {
		p := Paragraph{Index: i}
		if seed.ImageURL != "" {
			p.Kind = KindImage
			p.ImageURL = seed.ImageURL
			p.State = StateSkipped
		} else {
			p.Kind = KindText
			p.Source = seed.Text
			p.State = StateUntranslated
		}
		paragraphs[i] = p
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chapter = chapterIndex
	m.epoch++
	m.paragraphs = paragraphs
	return m.epoch
}

// Epoch returns the token of the currently loaded chapter.
func (m *Model) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// ChapterIndex returns the index of the currently loaded chapter, -1 before
// the first load.
func (m *Model) ChapterIndex() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chapter
}

func (m *Model) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.paragraphs)
}

// Paragraph returns a snapshot of the paragraph at index.
func (m *Model) Paragraph(index int) (Paragraph, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.paragraphs) {
		return Paragraph{}, false
	}
	return m.paragraphs[index], true
}

// Snapshot returns a copy of all paragraphs in order.
func (m *Model) Snapshot() []Paragraph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ret := make([]Paragraph, len(m.paragraphs))
	copy(ret, m.paragraphs)
	return ret
}

// MarkPending transitions a paragraph to Pending. Allowed from Untranslated
// and from Failed (renewed visibility or an explicit click retries a failed
// paragraph). Pending, Translated and Skipped paragraphs are left alone.
func (m *Model) MarkPending(epoch uint64, index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.paragraphAtLocked(epoch, index)
	if p == nil {
		return false
	}
	if p.State != StateUntranslated && p.State != StateFailed {
		return false
	}
	p.State = StatePending
	return true
}

// MarkTranslated records the resolved translation. Re-invoking on an already
// Translated paragraph is a no-op, so a duplicate resolution arriving late
// cannot replace the text the user is looking at.
func (m *Model) MarkTranslated(epoch uint64, index int, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.paragraphAtLocked(epoch, index)
	if p == nil {
		return false
	}
	if p.State == StateTranslated || p.State == StateSkipped {
		return false
	}
	p.Translated = text
	p.State = StateTranslated
	return true
}

// MarkFailed transitions a Pending paragraph to Failed.
func (m *Model) MarkFailed(epoch uint64, index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.paragraphAtLocked(epoch, index)
	if p == nil {
		return false
	}
	if p.State != StatePending {
		return false
	}
	p.State = StateFailed
	return true
}

// paragraphAtLocked resolves the mutable paragraph for a mark operation,
// rejecting stale epochs and out-of-range indexes.
func (m *Model) paragraphAtLocked(epoch uint64, index int) *Paragraph {
	if epoch != m.epoch {
		return nil
	}
	if index < 0 || index >= len(m.paragraphs) {
		return nil
	}
	return &m.paragraphs[index]
}
