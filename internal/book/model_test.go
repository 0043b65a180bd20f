package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func textSeeds(texts ...string) []Seed {
	seeds := make([]Seed, len(texts))
	for i, t := range texts {
		seeds[i] = Seed{Text: t}
	}
	return seeds
}

func TestModel_LoadChapter_ResetsState(t *testing.T) {
	t.Parallel()

	m := NewModel()
	epoch := m.LoadChapter(0, textSeeds("one", "two"))
	require.True(t, m.MarkPending(epoch, 0))
	require.True(t, m.MarkTranslated(epoch, 0, "раз"))

	epoch2 := m.LoadChapter(1, textSeeds("one", "two", "three"))
	require.NotEqual(t, epoch, epoch2)

	p, ok := m.Paragraph(0)
	require.True(t, ok)
	assert.Equal(t, StateUntranslated, p.State)
	assert.Empty(t, p.Translated)
	assert.Equal(t, 1, m.ChapterIndex())
}

func TestModel_ImageParagraphsAreSkipped(t *testing.T) {
	t.Parallel()

	m := NewModel()
	epoch := m.LoadChapter(0, []Seed{{Text: "hello"}, {ImageURL: "images/cover.png"}})

	p, ok := m.Paragraph(1)
	require.True(t, ok)
	assert.Equal(t, KindImage, p.Kind)
	assert.Equal(t, StateSkipped, p.State)
	assert.False(t, p.Translatable())

	// images never enter the translation state machine
	assert.False(t, m.MarkPending(epoch, 1))
	assert.False(t, m.MarkTranslated(epoch, 1, "x"))
}

func TestModel_TransitionLegality(t *testing.T) {
	t.Parallel()

	m := NewModel()
	epoch := m.LoadChapter(0, textSeeds("hello"))

	// Untranslated -> Pending -> Translated
	require.True(t, m.MarkPending(epoch, 0))
	assert.False(t, m.MarkPending(epoch, 0), "pending is not re-entered")
	require.True(t, m.MarkTranslated(epoch, 0, "привет"))

	// Translated is terminal: duplicate resolution is a no-op
	assert.False(t, m.MarkTranslated(epoch, 0, "другое"))
	p, _ := m.Paragraph(0)
	assert.Equal(t, "привет", p.Translated)
	assert.False(t, m.MarkFailed(epoch, 0))
	assert.False(t, m.MarkPending(epoch, 0))
}

func TestModel_FailedAllowsRetry(t *testing.T) {
	t.Parallel()

	m := NewModel()
	epoch := m.LoadChapter(0, textSeeds("hello"))

	require.True(t, m.MarkPending(epoch, 0))
	require.True(t, m.MarkFailed(epoch, 0))

	// Failed -> Pending is the only re-entry path
	require.True(t, m.MarkPending(epoch, 0))
	require.True(t, m.MarkTranslated(epoch, 0, "привет"))
}

func TestModel_StaleEpochIsRejected(t *testing.T) {
	t.Parallel()

	m := NewModel()
	stale := m.LoadChapter(0, textSeeds("a", "b", "c"))
	require.True(t, m.MarkPending(stale, 1))

	m.LoadChapter(1, textSeeds("x", "y", "z"))

	// a late resolution from the discarded chapter must not touch index 1
	assert.False(t, m.MarkTranslated(stale, 1, "stale"))
	p, _ := m.Paragraph(1)
	assert.Equal(t, StateUntranslated, p.State)
	assert.Empty(t, p.Translated)
}

func TestModel_OutOfRangeIndex(t *testing.T) {
	t.Parallel()

	m := NewModel()
	epoch := m.LoadChapter(0, textSeeds("a"))

	assert.False(t, m.MarkPending(epoch, 5))
	assert.False(t, m.MarkPending(epoch, -1))
	_, ok := m.Paragraph(5)
	assert.False(t, ok)
}
