package indexing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gcbaptista/prism/model"
)

func benchmarkSections(n int) []model.Section {
	body := strings.Repeat("The quarterly review covered revenue, hiring and travel policy. ", 20)
	sections := make([]model.Section, n)
	for i := range sections {
		sections[i] = model.Section{SectionID: fmt.Sprintf("sec%04d", i), Page: i + 1, Text: body}
	}
	return sections
}

func BenchmarkSplitSentences(b *testing.B) {
	text := benchmarkSections(1)[0].Text
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SplitSentences(text, DefaultMinSentenceChars, DefaultMaxSentenceChars)
	}
}

func BenchmarkBuildSentences(b *testing.B) {
	sections := benchmarkSections(50)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		BuildSentences(sections, DefaultMinSentenceChars, DefaultMaxSentenceChars, DefaultMaxSentences)
	}
}
