package search

import (
	"strings"

	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

const defaultSnippetChars = 600

// Snippet builds a short excerpt around sentence center of a document:
// the sentences center-1 through center+2 that belong to sectionID, or the
// first three sentences of the section when none do. Whitespace is
// collapsed and text longer than maxChars is cut at a word boundary and
// ended with an ellipsis.
func Snippet(sents []model.SentenceRecord, sectionID string, center, maxChars int) string {
	var picks []string
	for i := center - 1; i <= center+2; i++ {
		if i < 0 || i >= len(sents) || sents[i].SectionID != sectionID {
			continue
		}
		if t := strings.TrimSpace(sents[i].Text); t != "" {
			picks = append(picks, t)
		}
	}
	if len(picks) == 0 {
		for _, s := range sents {
			if s.SectionID != sectionID {
				continue
			}
			picks = append(picks, s.Text)
			if len(picks) == 3 {
				break
			}
		}
	}

	snippet := tokenizer.CollapseSpace(strings.Join(picks, " "))
	if maxChars <= 0 {
		maxChars = defaultSnippetChars
	}
	r := []rune(snippet)
	if len(r) <= maxChars {
		return snippet
	}
	cut := string(r[:max(maxChars-3, 0)])
	if i := strings.LastIndex(cut, " "); i >= 0 {
		cut = cut[:i]
	}
	return cut + "…"
}
