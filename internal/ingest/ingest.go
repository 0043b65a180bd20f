// Package ingest turns book files into flat, ordered chapter sequences of
// paragraph seeds. Formats: EPUB, FB2, plain text, and ZIP archives
// containing any of those.
package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/smartreader/reader/internal/book"
)

var (
	// ErrParse marks a malformed document. Terminal for the open action.
	ErrParse = errors.New("document parse failure")
	// ErrUnsupportedFormat marks a file type the reader does not handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ChapterInfo is a chapter's place in the book's navigation.
type ChapterInfo struct {
	Index int
	Title string
}

// Book is an opened document. Chapter content is extracted on demand so a
// large book costs only its table of contents up front.
type Book interface {
	Title() string
	// Language is the document's declared language code, empty when the
	// format carries none.
	Language() string
	Chapters() []ChapterInfo
	// ChapterParagraphs extracts one chapter's paragraph seeds.
	ChapterParagraphs(index int) ([]book.Seed, error)
}

// Open parses data according to the file extension.
func Open(filename string, data []byte) (Book, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".epub":
		return OpenEPUB(filename, data)
	case ".fb2":
		return OpenFB2(filename, data)
	case ".txt":
		return OpenText(filename, data), nil
	case ".zip":
		return OpenZip(filename, data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
}

// ErrorParagraph is the single pseudo-paragraph shown in place of chapter
// content when extraction fails; the reader never crashes on a bad chapter.
func ErrorParagraph(err error) []book.Seed {
	return []book.Seed{{Text: fmt.Sprintf("Failed to load chapter: %v", err)}}
}

const imageMarkerPrefix = "[IMG:"

// SeedsFromText splits a plain-text blob into paragraph seeds on blank
// lines. A line of the form [IMG:url] becomes an image seed.
func SeedsFromText(text string) []book.Seed {
	blocks := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	seeds := make([]book.Seed, 0, len(blocks))
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, imageMarkerPrefix) && strings.HasSuffix(block, "]") && !strings.Contains(block, "\n") {
			url := strings.TrimSuffix(strings.TrimPrefix(block, imageMarkerPrefix), "]")
			if url != "" {
				seeds = append(seeds, book.Seed{ImageURL: url})
				continue
			}
		}
		seeds = append(seeds, book.Seed{Text: block})
	}
	return seeds
}
