// Package classify detects the document title and heading spans.
package classify

import (
	"math"
	"sort"
	"strings"

	"github.com/gcbaptista/prism/model"
)

const (
	// DefaultTitleTopLimit bounds the page-1 area searched for the title.
	DefaultTitleTopLimit = 420.0
	titleMaxGap          = 240.0
	titleMaxContinuation = 2
)

// DetectTitle returns the document title built from the largest spans at the
// top of page 1, plus up to two title-like continuation lines.
func DetectTitle(spans []model.Span, topLimit float64) string {
	if topLimit <= 0 {
		topLimit = DefaultTitleTopLimit
	}

	var p1 []model.Span
	for _, s := range spans {
		if s.Page == 1 && s.BBox.Top < topLimit {
			p1 = append(p1, s)
		}
	}
	if len(p1) == 0 {
		return ""
	}
	sort.SliceStable(p1, func(i, j int) bool { return p1[i].BBox.Top < p1[j].BBox.Top })

	maxSize := p1[0].FontSize
	for _, s := range p1[1:] {
		maxSize = math.Max(maxSize, s.FontSize)
	}

	var lines []string
	for _, s := range p1 {
		if math.Abs(s.FontSize-maxSize) >= 0.5 {
			break
		}
		lines = append(lines, ScrubLine(s.Text))
	}

	baseY := p1[0].BBox.Top
	added := 0
	for _, s := range p1[len(lines):] {
		if s.BBox.Top-baseY > titleMaxGap || added == titleMaxContinuation {
			break
		}
		txt := strings.TrimSpace(s.Text)
		if isTitleContinuation(txt, s.FontSize, maxSize) {
			lines = append(lines, ScrubLine(txt))
			added++
			continue
		}
		if s.FontSize < 0.45*maxSize {
			break
		}
	}

	clean := strings.TrimSpace(dedupTokens(lines))
	if len(clean) <= 8 {
		clean = strings.TrimSpace(strings.Join(lines, " "))
	}
	return clean
}

func isTitleContinuation(txt string, size, maxSize float64) bool {
	words := len(strings.Fields(txt))
	return size >= 0.5*maxSize &&
		!numericFieldRegex.MatchString(txt) &&
		!LooksLikeDate(txt) &&
		isTitleCaseLike(txt) &&
		!looksLikeFormLine(txt) &&
		words >= 4 && words <= 30
}
