// Package assemble turns heading spans and page lines into bounded sections.
package assemble

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gcbaptista/prism/model"
)

// boundary is the position where a section starts (its heading top) or
// where the previous one stops.
type boundary struct {
	page int
	top  float64
}

// SectionID formats the stable identifier of the i-th section.
func SectionID(i, page int, top float64) string {
	return fmt.Sprintf("sec%04d-p%d-%d", i, page, int(top))
}

// Sections builds one section per heading. A section's body holds the lines
// below its heading and above the next heading, possibly spanning pages;
// the last section runs to the end of the document. Neither input slice is
// modified.
func Sections(headings, lines []model.Span, pageCount int) []model.Section {
	heads := slices.Clone(headings)
	slices.SortStableFunc(heads, model.Compare)

	byPage := make(map[int][]model.Span)
	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, model.Compare)
	for _, ln := range sorted {
		byPage[ln.Page] = append(byPage[ln.Page], ln)
	}

	sections := make([]model.Section, 0, len(heads))
	for i, h := range heads {
		end := boundary{page: pageCount + 1}
		if i+1 < len(heads) {
			end = boundary{page: heads[i+1].Page, top: heads[i+1].BBox.Top}
		}

		level := h.Level
		if level == "" {
			level = model.LevelH3
		}
		sections = append(sections, model.Section{
			SectionID: SectionID(i, h.Page, h.BBox.Top),
			Title:     strings.TrimSpace(h.Text),
			Level:     level,
			Page:      h.Page,
			Y:         h.BBox.Top,
			Text:      body(h, end, byPage, pageCount),
		})
	}
	return sections
}

// body collects the text between the bottom of heading h and end.
func body(h model.Span, end boundary, byPage map[int][]model.Span, pageCount int) string {
	var texts []string
	for page := h.Page; page <= min(end.page, pageCount); page++ {
		for _, ln := range byPage[page] {
			top := ln.BBox.Top
			var inside bool
			switch {
			case page == h.Page && page == end.page:
				inside = top >= h.BBox.Bottom && top < end.top
			case page == h.Page:
				inside = top >= h.BBox.Bottom
			case page == end.page:
				inside = top < end.top
			default:
				inside = true
			}
			if inside {
				if t := strings.TrimSpace(ln.Text); t != "" {
					texts = append(texts, t)
				}
			}
		}
	}
	return strings.Join(strings.Fields(strings.Join(texts, " ")), " ")
}
