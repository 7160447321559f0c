package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/prism/model"
)

func span(text string, page int, top, size float64) model.Span {
	return model.Span{
		Text:     text,
		Page:     page,
		BBox:     model.BBox{Left: 72, Top: top, Right: 400, Bottom: top + size},
		FontSize: size,
	}
}

func TestSections_SinglePageExample(t *testing.T) {
	intro := span("1. Introduction", 1, 100, 18).WithLevel("H1")
	methods := span("2. Methods", 1, 300, 18).WithLevel("H1")
	lines := []model.Span{intro, span("Background text line.", 1, 130, 11), methods}

	sections := Sections([]model.Span{methods, intro}, lines, 1)
	require.Len(t, sections, 2)

	assert.Equal(t, "sec0000-p1-100", sections[0].SectionID)
	assert.Equal(t, "1. Introduction", sections[0].Title)
	assert.Equal(t, "Background text line.", sections[0].Text)

	assert.Equal(t, "sec0001-p1-300", sections[1].SectionID)
	assert.Equal(t, 300.0, sections[1].Y)
	assert.Empty(t, sections[1].Text, "the heading line itself is not part of its body")
}

func TestSections_SpanPagesWithoutOverlap(t *testing.T) {
	h1 := span("Overview", 1, 80, 20).WithLevel("H1")
	h2 := span("Details", 2, 400, 16)
	h3 := span("Appendix", 3, 100, 16).WithLevel("H2")

	lines := []model.Span{
		h1, h2, h3,
		span("Running   text on page one.", 1, 120, 10),
		span("More   page one text.", 1, 700, 10),
		span("Page two before the next heading.", 2, 200, 10),
		span("Page two after the heading.", 2, 450, 10),
		span("Page three preamble.", 3, 60, 10),
		span("Appendix body.", 3, 200, 10),
		span("Last page text.", 4, 50, 10),
	}

	sections := Sections([]model.Span{h3, h1, h2}, lines, 4)
	require.Len(t, sections, 3)

	assert.Equal(t, "Running text on page one. More page one text. Page two before the next heading.", sections[0].Text)
	assert.Equal(t, "Page two after the heading. Page three preamble.", sections[1].Text)
	assert.Equal(t, "H3", sections[1].Level, "unlevelled headings default to H3")
	assert.Equal(t, "Appendix body. Last page text.", sections[2].Text)

	for i := 1; i < len(sections); i++ {
		prev, cur := sections[i-1], sections[i]
		assert.True(t, prev.Page < cur.Page || (prev.Page == cur.Page && prev.Y < cur.Y), "sections are ordered")
	}

	seen := make(map[string]int)
	for _, s := range sections {
		for _, part := range strings.SplitAfter(s.Text, ".") {
			if p := strings.TrimSpace(part); p != "" {
				seen[p]++
			}
		}
	}
	for text, n := range seen {
		assert.Equal(t, 1, n, "%q appears in more than one section", text)
	}
}

func TestSections_NoHeadings(t *testing.T) {
	sections := Sections(nil, []model.Span{span("Text", 1, 10, 10)}, 1)
	assert.NotNil(t, sections)
	assert.Empty(t, sections)
}
