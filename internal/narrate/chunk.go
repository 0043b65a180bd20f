package narrate

import (
	"strings"
	"unicode"
)

// DefaultChunkCeiling is the remote backend's request-size limit. Chunks
// above this are split further on whitespace.
const DefaultChunkCeiling = 180

// Chunks splits narration text into sentence-like pieces for sequential
// remote synthesis. Boundaries are sentence-terminal punctuation; a piece
// still longer than ceiling is re-split on whitespace into sub-chunks not
// exceeding it.
func Chunks(text string, ceiling int) []string {
	if ceiling <= 0 {
		ceiling = DefaultChunkCeiling
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	out := make([]string, 0, len(sentences))
	for _, sentence := range sentences {
		if len([]rune(sentence)) <= ceiling {
			out = append(out, sentence)
			continue
		}
		out = append(out, splitOnWhitespace(sentence, ceiling)...)
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

// splitSentences cuts after runs of sentence-terminal punctuation, keeping
// the punctuation with the preceding sentence.
func splitSentences(text string) []string {
	var (
		out     []string
		current []rune
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current = append(current, r)
		if !isTerminal(r) {
			continue
		}
		// swallow the rest of the punctuation run ("?!", "...")
		for i+1 < len(runes) && isTerminal(runes[i+1]) {
			i++
			current = append(current, runes[i])
		}
		if s := strings.TrimSpace(string(current)); s != "" {
			out = append(out, s)
		}
		current = current[:0]
	}
	if s := strings.TrimSpace(string(current)); s != "" {
		out = append(out, s)
	}
	return out
}

// splitOnWhitespace packs words into pieces of at most ceiling runes. A
// single word longer than the ceiling is hard-cut.
func splitOnWhitespace(text string, ceiling int) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	var (
		out     []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			out = append(out, string(current))
			current = current[:0]
		}
	}
	for _, word := range words {
		wr := []rune(word)
		for len(wr) > ceiling {
			flush()
			out = append(out, string(wr[:ceiling]))
			wr = wr[ceiling:]
		}
		if len(current) > 0 && len(current)+1+len(wr) > ceiling {
			flush()
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, wr...)
	}
	flush()
	return out
}
