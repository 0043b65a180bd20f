package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultDictionaryEndpoint serves per-word pronunciation entries.
	DefaultDictionaryEndpoint = "https://api.dictionaryapi.dev/api/v2/entries"

	defaultPhoneticsTimeout = 5 * time.Second
)

// PhoneticsClient resolves word pronunciation. English goes through the
// dictionary API; German is covered by rule tables; other languages return
// an empty result without a lookup.
type PhoneticsClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewPhoneticsClient(endpoint string, timeout time.Duration) *PhoneticsClient {
	if endpoint == "" {
		endpoint = DefaultDictionaryEndpoint
	}
	if timeout <= 0 {
		timeout = defaultPhoneticsTimeout
	}
	return &PhoneticsClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ PhoneticsProvider = (*PhoneticsClient)(nil)

// Lookup returns pronunciation data for one word. A word the backend does
// not know (404) is a normal empty result, not an error.
func (c *PhoneticsClient) Lookup(ctx context.Context, word, lang string) (Phonetics, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return Phonetics{}, nil
	}

	code := strings.ToLower(strings.SplitN(lang, "-", 2)[0])
	switch code {
	case "de":
		return Phonetics{
			IPA:             germanIPA(word),
			Transliteration: transliterateGerman(word),
		}, nil
	case "en":
		// resolved below
	default:
		// The dictionary backend rarely has non-English data.
		return Phonetics{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s/%s", c.endpoint, code, url.PathEscape(word)), nil)
	if err != nil {
		return Phonetics{}, fmt.Errorf("build phonetics request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Phonetics{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Phonetics{Transliteration: transliterateEnglish(word)}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Phonetics{}, fmt.Errorf("%w: dictionary backend returned status %d", ErrNetwork, resp.StatusCode)
	}

	var entries []struct {
		Phonetic  string `json:"phonetic"`
		Phonetics []struct {
			Text string `json:"text"`
		} `json:"phonetics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return Phonetics{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	ret := Phonetics{Transliteration: transliterateEnglish(word)}
	if len(entries) > 0 {
		ret.IPA = entries[0].Phonetic
		if ret.IPA == "" {
			for _, p := range entries[0].Phonetics {
				if p.Text != "" {
					ret.IPA = p.Text
					break
				}
			}
		}
	}
	return ret, nil
}

// replacement tables are ordered: digraphs must win over single letters.

var germanIPARules = [][2]string{
	{"sch", "ʃ"}, {"ch", "ç"}, {"ei", "aɪ"}, {"ie", "iː"}, {"eu", "ɔʏ"},
	{"äu", "ɔʏ"}, {"au", "aʊ"}, {"ä", "ɛ"}, {"ö", "ø"}, {"ü", "y"},
	{"ß", "s"}, {"v", "f"}, {"w", "v"}, {"z", "ts"}, {"sp", "ʃp"}, {"st", "ʃt"},
}

var germanCyrillicRules = [][2]string{
	{"sch", "ш"}, {"ch", "х"}, {"ei", "ай"}, {"ie", "i"}, {"eu", "ой"},
	{"äu", "ой"}, {"au", "ау"}, {"ä", "э"}, {"ö", "ё"}, {"ü", "ю"},
	{"ß", "сс"}, {"j", "й"}, {"v", "ф"}, {"w", "в"}, {"z", "ц"},
	{"sp", "шп"}, {"st", "шт"}, {"h", "х"},
}

var englishCyrillicRules = [][2]string{
	{"sh", "ш"}, {"ch", "ч"}, {"th", "з"}, {"ph", "ф"}, {"oo", "у"},
	{"ee", "и"}, {"ea", "и"}, {"ck", "к"}, {"qu", "кв"},
	{"a", "а"}, {"b", "б"}, {"c", "к"}, {"d", "д"}, {"e", "е"}, {"f", "ф"},
	{"g", "г"}, {"h", "х"}, {"i", "и"}, {"j", "дж"}, {"k", "к"}, {"l", "л"},
	{"m", "м"}, {"n", "н"}, {"o", "о"}, {"p", "п"}, {"r", "р"}, {"s", "с"},
	{"t", "т"}, {"u", "ю"}, {"v", "в"}, {"w", "в"}, {"x", "кс"}, {"y", "й"},
	{"z", "з"},
}

func applyRules(s string, rules [][2]string) string {
	for _, rule := range rules {
		s = strings.ReplaceAll(s, rule[0], rule[1])
	}
	return s
}

func germanIPA(word string) string {
	return "[" + applyRules(strings.ToLower(word), germanIPARules) + "]"
}

func transliterateGerman(word string) string {
	return applyRules(strings.ToLower(word), germanCyrillicRules)
}

func transliterateEnglish(word string) string {
	return applyRules(strings.ToLower(word), englishCyrillicRules)
}
