package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	dateRegex          = regexp.MustCompile(`\b\d{1,2}\s+[A-Z]{3,}\s+\d{4}\b`)
	dotLeaderRegex     = regexp.MustCompile(`\.{4,}`)
	numericFieldRegex  = regexp.MustCompile(`\b\d+\.`)
	numberOnlyRegex    = regexp.MustCompile(`^\d+(\.\d+)?$`)
	bulletNumberRegex  = regexp.MustCompile(`^\s*\d+\)`)
	sectionAnyRegex    = regexp.MustCompile(`\b\d+(\.\d+)+\s`)
	allCapsRegex       = regexp.MustCompile(`^[A-Z0-9 ()&/.\-]{4,}$`)
	whitespaceRunRegex = regexp.MustCompile(`\s{2,}`)
)

// formTokens are words that mark a line as a form field rather than a title.
var formTokens = map[string]struct{}{
	"name": {}, "designation": {}, "signature": {}, "date": {}, "service": {}, "pay": {},
	"si": {}, "npa": {}, "hometown": {}, "home": {}, "town": {}, "wife": {}, "husband": {},
	"whether": {}, "entitled": {}, "block": {}, "place": {}, "amount": {}, "rs": {},
	"s.no": {}, "sno": {}, "age": {}, "relationship": {}, "fare": {}, "bus": {}, "rail": {},
	"ticket": {}, "advance": {},
}

// LooksLikeDate reports whether s contains a "12 MARCH 2024" style date.
func LooksLikeDate(s string) bool { return dateRegex.MatchString(s) }

// HasSectionNumber reports whether s contains a dotted section number
// followed by whitespace anywhere ("see 3.2 Results").
func HasSectionNumber(s string) bool { return sectionAnyRegex.MatchString(s) }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// collapseCharStutter removes doubled standalone characters produced by
// overprinted text: "R R eport" becomes "Report", "T T itle" becomes "Title".
func collapseCharStutter(s string) string {
	runes := []rune(s)
	var out []rune
	for i := 0; i < len(runes); {
		r := runes[i]
		standalone := i == 0 || unicode.IsSpace(runes[i-1])
		if standalone && isWordRune(r) {
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j > i+1 && j < len(runes) && runes[j] == r {
				k := j + 1
				if k < len(runes) && isWordRune(runes[k]) {
					k++
				}
				out = append(out, r)
				i = k
				continue
			}
		}
		out = append(out, r)
		i++
	}
	return string(out)
}

// collapseWordRepeats replaces runs of a repeated word (2+ characters,
// case-insensitive) separated by whitespace with its first occurrence.
func collapseWordRepeats(s string) string {
	runes := []rune(s)
	var out strings.Builder
	i := 0
	for i < len(runes) {
		if !isWordRune(runes[i]) || (i > 0 && isWordRune(runes[i-1])) {
			out.WriteRune(runes[i])
			i++
			continue
		}
		end := i
		for end < len(runes) && isWordRune(runes[end]) {
			end++
		}
		word := string(runes[i:end])
		out.WriteString(word)
		i = end
		if utf8.RuneCountInString(word) < 2 {
			continue
		}
		for {
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j == i {
				break
			}
			k := j
			for k < len(runes) && isWordRune(runes[k]) {
				k++
			}
			if k == j || !strings.EqualFold(string(runes[j:k]), word) {
				break
			}
			i = k
		}
	}
	return out.String()
}

// ScrubLine removes character stutter and repeated words from a title line
// until it stops changing, and collapses runs of whitespace.
func ScrubLine(text string) string {
	for {
		prev := text
		text = collapseCharStutter(text)
		text = collapseWordRepeats(text)
		text = whitespaceRunRegex.ReplaceAllString(text, " ")
		if text == prev {
			break
		}
	}
	return strings.TrimSpace(text)
}

// upperRatio is the share of uppercase runes among all runes of s.
func upperRatio(s string) float64 {
	n, upper := 0, 0
	for _, r := range s {
		n++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return float64(upper) / float64(max(1, n))
}

// letterCapsRatio is the share of uppercase letters among letters of s.
func letterCapsRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return float64(upper) / float64(max(1, letters))
}

// isTitleCaseLike reports whether s reads like a heading: mostly capitals, or
// most words starting with a capital, and no closing period.
func isTitleCaseLike(s string) bool {
	txt := strings.TrimSpace(s)
	if txt == "" || strings.HasSuffix(txt, ".") {
		return false
	}
	words := strings.Fields(txt)
	if letterCapsRatio(txt) >= 0.85 {
		return true
	}
	startsUpper := 0
	for _, w := range words {
		for _, r := range w {
			if unicode.IsLetter(r) {
				if unicode.IsUpper(r) {
					startsUpper++
				}
				break
			}
		}
	}
	return float64(startsUpper)/float64(len(words)) >= 0.60
}

// looksLikeFormLine reports whether s is a form field label.
func looksLikeFormLine(s string) bool {
	low := strings.ToLower(strings.TrimSpace(s))
	if strings.HasSuffix(low, ":") {
		return true
	}
	for _, w := range strings.Fields(low) {
		w = strings.Trim(w, ",;:()[]\"'")
		if _, ok := formTokens[w]; ok {
			return true
		}
		if _, ok := formTokens[strings.TrimSuffix(w, ".")]; ok {
			return true
		}
	}
	for i := 1; i <= 20; i++ {
		if strings.HasPrefix(low, strconv.Itoa(i)+".") {
			return true
		}
	}
	return false
}

// dedupTokens joins the tokens of lines, keeping the first occurrence of each
// token (case-insensitive) and dropping single-character tokens.
func dedupTokens(lines []string) string {
	seen := make(map[string]struct{})
	var kept []string
	for _, ln := range lines {
		for _, tok := range strings.Fields(ln) {
			low := strings.ToLower(tok)
			if _, dup := seen[low]; dup || utf8.RuneCountInString(tok) <= 1 {
				continue
			}
			seen[low] = struct{}{}
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

// startsLower reports whether the first letter of s is lowercase.
func startsLower(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.IsLower(r)
		}
	}
	return false
}

// ShortenAfterColon keeps the label part of "Label: long explanation ..."
// lines with more than five words.
func ShortenAfterColon(text string) string {
	if idx := strings.Index(text, ":"); idx >= 0 && len(strings.Fields(text)) > 5 {
		return text[:idx+1]
	}
	return text
}
