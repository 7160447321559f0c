package model

import "strings"

// PageHeight is the nominal page height (US Letter, in points) used to
// normalise vertical positions.
const PageHeight = 792.0

// BBox is a rectangle in page coordinates with the origin at the top-left
// corner of the page.
type BBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Union returns the smallest box containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		Left:   min(b.Left, o.Left),
		Top:    min(b.Top, o.Top),
		Right:  max(b.Right, o.Right),
		Bottom: max(b.Bottom, o.Bottom),
	}
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Bottom - b.Top
}

// Span is one positioned line (or line fragment) of extracted text.
// Spans are values: operations that change a span return a new one.
type Span struct {
	Text     string  `json:"text"`
	Page     int     `json:"page"`
	BBox     BBox    `json:"bbox"`
	FontSize float64 `json:"fontSize"`
	FontName string  `json:"fontName"`
	Bold     bool    `json:"bold"`
	Italic   bool    `json:"italic"`
	Lang     string  `json:"lang"`
	Level    string  `json:"level,omitempty"`
}

// WithText returns a copy of the span carrying text t.
func (s Span) WithText(t string) Span {
	s.Text = t
	return s
}

// WithLevel returns a copy of the span tagged with heading level lvl.
func (s Span) WithLevel(lvl string) Span {
	s.Level = lvl
	return s
}

// Extend returns s merged with next: texts joined by a single space, boxes
// unioned and the larger font size kept.
func (s Span) Extend(next Span) Span {
	s.Text = s.Text + " " + next.Text
	s.BBox = s.BBox.Union(next.BBox)
	s.FontSize = max(s.FontSize, next.FontSize)
	return s
}

// Words returns the whitespace separated words of the span text.
func (s Span) Words() []string {
	return strings.Fields(s.Text)
}

// Less orders spans by page, then top, then left.
func Less(a, b Span) bool {
	if a.Page != b.Page {
		return a.Page < b.Page
	}
	if a.BBox.Top != b.BBox.Top {
		return a.BBox.Top < b.BBox.Top
	}
	return a.BBox.Left < b.BBox.Left
}

// Compare is the three-way form of Less, usable with slices.SortStableFunc.
func Compare(a, b Span) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}

// PageCount returns the highest page number among spans.
func PageCount(spans []Span) int {
	n := 0
	for _, s := range spans {
		n = max(n, s.Page)
	}
	return n
}
