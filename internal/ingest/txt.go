package ingest

import (
	"path/filepath"
	"strings"

	"github.com/smartreader/reader/internal/book"
)

// textBook presents a plain-text file as a single chapter.
type textBook struct {
	title string
	seeds []book.Seed
}

// OpenText never fails: any byte sequence is a valid text book.
func OpenText(filename string, data []byte) Book {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return &textBook{
		title: name,
		seeds: SeedsFromText(string(data)),
	}
}

func (b *textBook) Title() string    { return b.title }
func (b *textBook) Language() string { return "" }

func (b *textBook) Chapters() []ChapterInfo {
	return []ChapterInfo{{Index: 0, Title: b.title}}
}

func (b *textBook) ChapterParagraphs(index int) ([]book.Seed, error) {
	if index != 0 {
		return nil, ErrParse
	}
	return b.seeds, nil
}
