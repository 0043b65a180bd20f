package translate

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage guesses the language of a text sample and returns its
// BCP 47 tag. Used when a book does not declare its language.
func DetectLanguage(text string) (language.Tag, bool) {
	if text == "" {
		return language.Und, false
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return language.Und, false
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return language.Und, false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
