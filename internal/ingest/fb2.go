package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/smartreader/reader/internal/book"
)

// fb2Book holds pre-split chapters; FB2 files are small enough to walk
// eagerly, unlike EPUB archives.
type fb2Book struct {
	title    string
	lang     string
	chapters []fb2Chapter
}

type fb2Chapter struct {
	title string
	seeds []book.Seed
}

// OpenFB2 parses a FictionBook 2 document. Top-level body sections become
// chapters; embedded binaries referenced by images are inlined as data URLs.
func OpenFB2(filename string, data []byte) (Book, error) {
	binaries, err := fb2Binaries(data)
	if err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	b := &fb2Book{}
	var (
		cur          *fb2Chapter
		buf          strings.Builder
		sectionDepth int
		inBody       bool
		bodyCount    int
		inTitleInfo  bool
		textTarget   *string
		inTitle      bool
	)
	flush := func() {
		text := collapseSpace(buf.String())
		buf.Reset()
		if text == "" || cur == nil {
			return
		}
		if inTitle && cur.title == "" {
			cur.title = text
			return
		}
		cur.seeds = append(cur.seeds, book.Seed{Text: text})
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch strings.ToLower(t.Name.Local) {
			case "title-info":
				inTitleInfo = true
			case "book-title":
				if inTitleInfo {
					textTarget = &b.title
				}
			case "lang":
				if inTitleInfo {
					textTarget = &b.lang
				}
			case "body":
				bodyCount++
				// Second and later bodies hold notes and comments.
				inBody = bodyCount == 1
			case "section":
				if !inBody {
					continue
				}
				sectionDepth++
				if sectionDepth == 1 {
					b.chapters = append(b.chapters, fb2Chapter{})
					cur = &b.chapters[len(b.chapters)-1]
				}
			case "title":
				if inBody && cur != nil {
					inTitle = true
				}
			case "p", "v", "subtitle", "text-author":
				if inBody {
					flush()
				}
			case "image":
				if !inBody || cur == nil {
					continue
				}
				flush()
				if url := fb2ImageURL(t, binaries); url != "" {
					cur.seeds = append(cur.seeds, book.Seed{ImageURL: url})
				}
			}
		case xml.EndElement:
			switch strings.ToLower(t.Name.Local) {
			case "title-info":
				inTitleInfo = false
			case "book-title", "lang":
				textTarget = nil
			case "body":
				inBody = false
			case "section":
				if inBody && sectionDepth > 0 {
					sectionDepth--
				}
			case "title":
				if inBody {
					flush()
					inTitle = false
				}
			case "p", "v", "subtitle", "text-author":
				if inBody {
					flush()
				}
			}
		case xml.CharData:
			if textTarget != nil {
				*textTarget += string(t)
			} else if inBody && cur != nil {
				buf.Write(t)
			}
		}
	}

	b.title = strings.TrimSpace(b.title)
	b.lang = strings.TrimSpace(b.lang)
	if b.title == "" {
		b.title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	if len(b.chapters) == 0 {
		return nil, fmt.Errorf("%w: no sections in body", ErrParse)
	}
	for i := range b.chapters {
		if b.chapters[i].title == "" {
			b.chapters[i].title = fmt.Sprintf("Chapter %d", i+1)
		}
	}
	return b, nil
}

// fb2Binaries collects <binary id=... content-type=...> elements, whose
// character data is already base64.
func fb2Binaries(data []byte) (map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false

	binaries := make(map[string]string)
	var (
		id        string
		mediaType string
		body      strings.Builder
		inBinary  bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if strings.ToLower(t.Name.Local) != "binary" {
				continue
			}
			inBinary = true
			id, mediaType = "", "image/jpeg"
			body.Reset()
			for _, attr := range t.Attr {
				switch strings.ToLower(attr.Name.Local) {
				case "id":
					id = attr.Value
				case "content-type":
					mediaType = attr.Value
				}
			}
		case xml.EndElement:
			if inBinary && strings.ToLower(t.Name.Local) == "binary" {
				if id != "" {
					b64 := strings.Map(dropSpace, body.String())
					binaries[id] = "data:" + mediaType + ";base64," + b64
				}
				inBinary = false
			}
		case xml.CharData:
			if inBinary {
				body.Write(t)
			}
		}
	}
	return binaries, nil
}

func fb2ImageURL(el xml.StartElement, binaries map[string]string) string {
	href := imageHref(el)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "#") {
		return binaries[strings.TrimPrefix(href, "#")]
	}
	return href
}

func dropSpace(r rune) rune {
	switch r {
	case ' ', '\t', '\n', '\r':
		return -1
	}
	return r
}

func (b *fb2Book) Title() string    { return b.title }
func (b *fb2Book) Language() string { return b.lang }

func (b *fb2Book) Chapters() []ChapterInfo {
	infos := make([]ChapterInfo, len(b.chapters))
	for i, ch := range b.chapters {
		infos[i] = ChapterInfo{Index: i, Title: ch.title}
	}
	return infos
}

func (b *fb2Book) ChapterParagraphs(index int) ([]book.Seed, error) {
	if index < 0 || index >= len(b.chapters) {
		return nil, fmt.Errorf("%w: chapter %d out of range", ErrParse, index)
	}
	return b.chapters[index].seeds, nil
}
