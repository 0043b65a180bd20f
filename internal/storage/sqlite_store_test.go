package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "reader.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_TranslationCacheRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	_, ok := store.GetTranslation(ctx, "Hello", "en", "ru")
	require.False(t, ok)

	require.NoError(t, store.PutTranslation(ctx, "Hello", "en", "ru", "Привет"))

	got, ok := store.GetTranslation(ctx, "Hello", "en", "ru")
	require.True(t, ok)
	assert.Equal(t, "Привет", got)
}

func TestSQLiteStore_CacheKeyNormalization(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutTranslation(ctx, "  Hello ", "en", "ru", "Привет"))

	// surrounding whitespace is stripped from the key
	got, ok := store.GetTranslation(ctx, "Hello", "en", "ru")
	require.True(t, ok)
	assert.Equal(t, "Привет", got)

	// casing is preserved: different entry
	_, ok = store.GetTranslation(ctx, "hello", "en", "ru")
	assert.False(t, ok)

	// language pair is part of the key
	_, ok = store.GetTranslation(ctx, "Hello", "en", "de")
	assert.False(t, ok)
}

func TestSQLiteStore_CacheEmptyTextIsIgnored(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutTranslation(ctx, "   ", "en", "ru", "x"))
	_, ok := store.GetTranslation(ctx, "   ", "en", "ru")
	assert.False(t, ok)
}

func TestSQLiteStore_LibraryRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	rec := BookRecord{
		ID:      "book-1",
		Title:   "Die Verwandlung",
		Format:  "epub",
		Data:    []byte{0x50, 0x4b, 0x03, 0x04},
		AddedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.SaveBook(ctx, rec))

	got, ok, err := store.GetBook(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Data, got.Data)

	list, err := store.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Data, "list omits blobs")
}

func TestSQLiteStore_ProgressRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBook(ctx, BookRecord{ID: "book-1", Title: "t", Format: "fb2", Data: []byte("x")}))

	_, ok, err := store.GetProgress(ctx, "book-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetProgress(ctx, "book-1", 2, 1340.5))
	require.NoError(t, store.SetProgress(ctx, "book-1", 3, 10))

	p, ok, err := store.GetProgress(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, p.ChapterIndex)
	assert.Equal(t, 10.0, p.ScrollOffset)

	book, ok, err := store.GetBook(ctx, "book-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, book.LastReadAt.IsZero())
}

func TestSQLiteStore_DeleteBookRemovesProgress(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveBook(ctx, BookRecord{ID: "book-1", Title: "t", Format: "txt", Data: []byte("x")}))
	require.NoError(t, store.SetProgress(ctx, "book-1", 1, 5))
	require.NoError(t, store.DeleteBook(ctx, "book-1"))

	_, ok, err := store.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.GetProgress(ctx, "book-1")
	require.NoError(t, err)
	assert.False(t, ok)
}
