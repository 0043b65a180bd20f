package book

// Kind distinguishes translatable text from embedded image markers.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
)

// State is the translation state of a single paragraph.
type State string

const (
	StateUntranslated State = "untranslated"
	StatePending      State = "pending"
	StateTranslated   State = "translated"
	StateFailed       State = "failed"
	// StateSkipped marks paragraphs that never get translated (images).
	StateSkipped State = "skipped"
)

// Seed is one paragraph as produced by document ingestion: either a text
// block or an image reference, never both.
type Seed struct {
	Text     string
	ImageURL string
}

// Paragraph is one unit of chapter content with its translation state.
// Identity is the position index within the currently loaded chapter.
type Paragraph struct {
	Index      int
	Kind       Kind
	Source     string
	ImageURL   string
	Translated string
	State      State
}

// Translatable reports whether the paragraph participates in translation
// and narration at all.
func (p Paragraph) Translatable() bool {
	return p.Kind == KindText
}
