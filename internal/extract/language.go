package extract

import (
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// UndeterminedLanguage is the tag used when no language can be detected.
const UndeterminedLanguage = "und"

// LanguageDetector guesses the language of a line of text.
// Implementations never fail: an unknown language yields UndeterminedLanguage.
type LanguageDetector interface {
	Detect(text string) string
}

// WhatlangDetector detects languages with whatlanggo trigram models.
type WhatlangDetector struct{}

// Detect returns the ISO 639-1 code of text, or "und".
func (WhatlangDetector) Detect(text string) (code string) {
	defer func() {
		if recover() != nil {
			code = UndeterminedLanguage
		}
	}()
	if !strings.ContainsFunc(text, unicode.IsLetter) {
		return UndeterminedLanguage
	}
	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Lang < 0 {
		return UndeterminedLanguage
	}
	if code = info.Lang.Iso6391(); code == "" {
		return UndeterminedLanguage
	}
	return code
}
