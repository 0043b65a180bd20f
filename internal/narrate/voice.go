package narrate

import "strings"

// Gender preference for voice selection.
type Gender string

const (
	GenderMale   Gender = "m"
	GenderFemale Gender = "f"
)

// Voice describes one voice the on-device engine offers. Enhanced marks
// the platform's higher-quality tier.
type Voice struct {
	Name     string
	Lang     string
	Enhanced bool
}

// GenderKeywords are per-language voice-name keywords used to pick a voice
// matching the requested gender.
type GenderKeywords struct {
	Male   []string `yaml:"male"`
	Female []string `yaml:"female"`
}

// VoiceProfiles maps a two-letter language code to its keyword lists.
type VoiceProfiles map[string]GenderKeywords

// DefaultVoiceProfiles covers the languages the reader ships with. A
// settings file may override or extend it.
func DefaultVoiceProfiles() VoiceProfiles {
	return VoiceProfiles{
		"ru": {
			Male:   []string{"Dmitry", "Pavel", "Ivan", "Male", "Rus"},
			Female: []string{"Svetlana", "Alina", "Tatyana", "Female", "Milena"},
		},
		"en": {
			Male:   []string{"Guy", "Stefan", "Christopher", "Male"},
			Female: []string{"Aria", "Jenny", "Michelle", "Female", "Google US"},
		},
		"de": {
			Male:   []string{"Conrad", "Stefan", "Male"},
			Female: []string{"Katja", "Marlene", "Female"},
		},
	}
}

// langCode reduces a locale to its two-letter code ("en-US" → "en").
func langCode(lang string) string {
	return strings.ToLower(strings.SplitN(lang, "-", 2)[0])
}

// NormalizeLang widens a bare language code to the locale the speech
// engines expect.
func NormalizeLang(lang string) string {
	switch lang {
	case "en":
		return "en-US"
	case "de":
		return "de-DE"
	case "ru":
		return "ru-RU"
	}
	return lang
}

// SelectVoice picks the best available voice for a locale and gender
// preference: locale match first, then the enhanced tier when requested and
// available, then a keyword match for the gender, else the first candidate.
// Returns nil when no voice matches the locale at all, which means the
// engine default is used.
func SelectVoice(voices []Voice, lang string, gender Gender, preferEnhanced bool, profiles VoiceProfiles) *Voice {
	code := langCode(lang)

	candidates := make([]Voice, 0, len(voices))
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Lang), code) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	if preferEnhanced {
		enhanced := make([]Voice, 0, len(candidates))
		for _, v := range candidates {
			if v.Enhanced {
				enhanced = append(enhanced, v)
			}
		}
		if len(enhanced) > 0 {
			candidates = enhanced
		}
	}

	var keywords []string
	if profile, ok := profiles[code]; ok {
		if gender == GenderMale {
			keywords = profile.Male
		} else {
			keywords = profile.Female
		}
	}
	for _, v := range candidates {
		for _, k := range keywords {
			if strings.Contains(v.Name, k) {
				match := v
				return &match
			}
		}
	}

	first := candidates[0]
	return &first
}
