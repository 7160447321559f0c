package structure

import (
	"slices"
	"strings"

	"github.com/gcbaptista/prism/model"
)

// LogicalPage maps a physical page to the page reported in outlines:
// 0 for single-page documents, otherwise page-1 but never below 1.
func LogicalPage(page, pageCount int) int {
	if pageCount == 1 {
		return 0
	}
	return max(1, page-1)
}

// BuildOutline converts heading spans into outline entries in reading order.
func BuildOutline(headings []model.Span, pageCount int) []model.OutlineEntry {
	sorted := slices.Clone(headings)
	slices.SortStableFunc(sorted, model.Compare)

	entries := make([]model.OutlineEntry, 0, len(sorted))
	for _, h := range sorted {
		level := h.Level
		if level == "" {
			level = model.LevelH3
		}
		entries = append(entries, model.OutlineEntry{
			Level: level,
			Text:  strings.TrimSpace(h.Text),
			Page:  LogicalPage(h.Page, pageCount),
		})
	}
	return entries
}
