package ingest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/smartreader/reader/internal/book"
)

// blockElements end the paragraph being accumulated.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "hr": true, "tr": true, "table": true, "section": true,
}

// skippedElements contribute no visible text.
var skippedElements = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
}

// extractMarkupSeeds walks an (X)HTML chapter document and flattens it into
// paragraph seeds. Block-level boundaries split paragraphs, inline markup is
// dropped, and <img>/<image> elements become image seeds via resolveImage.
// The decoder runs in lenient mode so real-world EPUB markup parses.
func extractMarkupSeeds(data []byte, resolveImage func(href string) string) ([]book.Seed, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var (
		seeds []book.Seed
		buf   strings.Builder
		skip  int
	)
	flush := func() {
		text := collapseSpace(buf.String())
		buf.Reset()
		if text != "" {
			seeds = append(seeds, book.Seed{Text: text})
		}
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
			name := strings.ToLower(t.Name.Local)
			if skippedElements[name] {
				skip++
				continue
			}
			if skip > 0 {
				continue
			}
			if blockElements[name] {
				flush()
			}
			if name == "img" || name == "image" {
				flush()
				if href := imageHref(t); href != "" {
					if url := resolveImage(href); url != "" {
						seeds = append(seeds, book.Seed{ImageURL: url})
					}
				}
			}
		case xml.EndElement:
			name := strings.ToLower(t.Name.Local)
			if skippedElements[name] {
				if skip > 0 {
					skip--
				}
				continue
			}
			if skip == 0 && blockElements[name] {
				flush()
			}
		case xml.CharData:
			if skip == 0 {
				buf.Write(t)
			}
		}
	}
	flush()
	return seeds, nil
}

// imageHref pulls the image reference from src, href, or xlink:href.
func imageHref(el xml.StartElement) string {
	for _, attr := range el.Attr {
		switch strings.ToLower(attr.Name.Local) {
		case "src", "href":
			return strings.TrimSpace(attr.Value)
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
