package translate

import (
	"context"
	"errors"
)

// Failure classes a caller can branch on. Everything the backends return
// wraps one of these.
var (
	// ErrNetwork covers unreachable or erroring remote backends.
	ErrNetwork = errors.New("network failure")
	// ErrTimeout marks a bounded wait that was exceeded.
	ErrTimeout = errors.New("request timed out")
	// ErrBadResponse marks a reply the client could not decode.
	ErrBadResponse = errors.New("malformed backend response")
)

// Translator resolves a single text block into the target language.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Phonetics is the pronunciation data for a single word. Either field may
// be empty; an all-empty value is a normal "nothing known" result.
type Phonetics struct {
	IPA             string
	Transliteration string
}

// PhoneticsProvider looks up pronunciation for a single word.
type PhoneticsProvider interface {
	Lookup(ctx context.Context, word, lang string) (Phonetics, error)
}
