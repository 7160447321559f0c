package tokenizer

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// lexicalWordRegex matches ASCII words with an optional inner apostrophe ("don't").
var lexicalWordRegex = regexp.MustCompile(`[A-Za-z0-9]+(?:'[A-Za-z0-9]+)?`)

// rerankWordRegex also accepts Latin-1 letters and typographic apostrophes.
var rerankWordRegex = regexp.MustCompile(`[A-Za-zÀ-ÖØ-öø-ÿ0-9’']+`)

// whitespaceRegex matches runs of whitespace.
var whitespaceRegex = regexp.MustCompile(`\s+`)

// StopWords are dropped by the lexical tokenizer.
var StopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {}, "on": {},
	"for": {}, "with": {}, "by": {}, "from": {}, "at": {}, "is": {}, "are": {}, "be": {},
	"was": {}, "were": {}, "that": {}, "this": {}, "it": {}, "as": {}, "into": {}, "over": {},
	"across": {}, "about": {}, "we": {}, "you": {}, "your": {}, "our": {}, "their": {}, "not": {},
}

// deepStopWords extends StopWords with tokens that carry no domain signal.
var deepStopWords = func() map[string]struct{} {
	m := make(map[string]struct{}, len(StopWords)+1)
	for w := range StopWords {
		m[w] = struct{}{}
	}
	m["pdf"] = struct{}{}
	return m
}()

// Tokenize lowercases text and returns its alphanumeric words longer than
// one character, without stop words. It is the tokenizer of the BM25 pass.
func Tokenize(text string) []string {
	words := lexicalWordRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if len(w) <= 1 {
			continue
		}
		if _, stop := StopWords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// RerankTokens returns lowercase words (Latin-1 letters allowed) longer than
// one character, with surrounding apostrophes removed. Stop words are kept.
func RerankTokens(text string) []string {
	words := rerankWordRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		t := strings.Trim(strings.ToLower(w), "'")
		if t == "" {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// DeepTokens NFKC-normalises text and returns lowercase words without stop
// words (including "pdf"), apostrophes trimmed.
func DeepTokens(text string) []string {
	words := rerankWordRegex.FindAllString(norm.NFKC.String(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		low := strings.ToLower(w)
		if utf8.RuneCountInString(w) <= 1 {
			continue
		}
		if _, stop := deepStopWords[low]; stop {
			continue
		}
		tokens = append(tokens, strings.Trim(low, "’'"))
	}
	return tokens
}

// CollapseSpace replaces runs of whitespace with one space and trims the ends.
func CollapseSpace(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// Norm is the comparison key for header/footer and title matching: NFKC,
// collapsed whitespace, lowercase, and leading/trailing punctuation removed.
func Norm(text string) string {
	text = CollapseSpace(norm.NFKC.String(text))
	return strings.Trim(strings.ToLower(text), "-–—:;,.")
}

// Set returns the sorted distinct tokens.
func Set(tokens []string) []string {
	out := slices.Clone(tokens)
	slices.Sort(out)
	return slices.Compact(out)
}

// Jaccard returns |A∩B| / |A∪B| over the distinct tokens of a and b, or 0
// when either side is empty.
func Jaccard(a, b []string) float64 {
	sa, sb := Set(a), Set(b)
	return JaccardSorted(sa, sb)
}

// JaccardSorted is Jaccard for inputs that are already sorted and distinct.
func JaccardSorted(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
