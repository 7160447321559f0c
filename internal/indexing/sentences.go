package indexing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

// Sentence length window and per-document cap used when no configuration
// is given.
const (
	DefaultMinSentenceChars = 25
	DefaultMaxSentenceChars = 600
	DefaultMaxSentences     = 400
)

// SplitSentences collapses whitespace in text and splits it after ".", "!"
// or "?" when the next word starts with an ASCII capital, a digit or "(".
// Fragments shorter than minChars or longer than maxChars are dropped.
func SplitSentences(text string, minChars, maxChars int) []string {
	text = tokenizer.CollapseSpace(text)
	sentences := make([]string, 0, 8)
	if text == "" {
		return sentences
	}

	keep := func(s string) {
		s = strings.TrimSpace(s)
		if n := utf8.RuneCountInString(s); n >= minChars && n <= maxChars {
			sentences = append(sentences, s)
		}
	}

	start := 0
	for i := 0; i+2 < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		if text[i+1] != ' ' || !startsSentence(text[i+2]) {
			continue
		}
		keep(text[start : i+1])
		start = i + 2
	}
	keep(text[start:])
	return sentences
}

func startsSentence(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '('
}

// FallbackPageSections builds one H2 section per page from raw page text,
// used when structuring fails or yields no sections.
func FallbackPageSections(stem string, pageTexts []string) []model.Section {
	sections := make([]model.Section, 0, len(pageTexts))
	for i, text := range pageTexts {
		page := i + 1
		sections = append(sections, model.Section{
			SectionID: fmt.Sprintf("%s-p%d", stem, page),
			Title:     fmt.Sprintf("Page %d", page),
			Level:     model.LevelH2,
			Page:      page,
			Y:         0,
			Text:      text,
		})
	}
	return sections
}

// BuildSentences splits every section body and numbers the sentences
// across the document, keeping at most limit of them.
func BuildSentences(sections []model.Section, minChars, maxChars, limit int) []model.SentenceRecord {
	records := make([]model.SentenceRecord, 0, min(limit, 64))
	for _, sec := range sections {
		for _, sent := range SplitSentences(sec.Text, minChars, maxChars) {
			if len(records) >= limit {
				return records
			}
			records = append(records, model.SentenceRecord{
				SentID:    fmt.Sprintf("s%d", len(records)),
				SectionID: sec.SectionID,
				Page:      sec.Page,
				Y:         sec.Y,
				Text:      sent,
			})
		}
	}
	return records
}
