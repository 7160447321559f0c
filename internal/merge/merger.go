// Package merge joins raw text spans into logical lines.
package merge

import (
	"math"
	"regexp"
	"strings"

	"github.com/gcbaptista/prism/model"
)

// The thresholds below are tuned empirically; changing them changes outlines.
const (
	sameBaselineDelta = 2.0
	maxHorizontalGap  = 40.0
	sameFontDelta     = 0.6
	lineStepFactor    = 1.8
	defaultFontSize   = 12.0
)

var (
	// sectionNumberRegex matches a span that is only a section number ("2.1").
	sectionNumberRegex = regexp.MustCompile(`^\d+(\.\d+)+\s?$`)
	// sectionPrefixRegex matches a section number followed by heading text.
	sectionPrefixRegex = regexp.MustCompile(`^\d+(\.\d+)+\s`)
)

// SectionPrefix returns the leading section number of text ("3.2"), or "".
func SectionPrefix(text string) string {
	return strings.TrimSpace(sectionPrefixRegex.FindString(text))
}

// IsSectionNumber reports whether text consists of a section number only.
func IsSectionNumber(text string) bool {
	return sectionNumberRegex.MatchString(strings.TrimSpace(text))
}

// ShouldMerge decides whether next continues the buffered line buf.
// Both spans are assumed to be on the same page.
func ShouldMerge(buf, next model.Span) bool {
	if IsSectionNumber(buf.Text) && SectionPrefix(next.Text) == "" {
		return true
	}

	bp, np := SectionPrefix(buf.Text), SectionPrefix(next.Text)
	if bp != "" && np != "" && bp != np {
		return false
	}

	dy := next.BBox.Top - buf.BBox.Top
	sameBaseline := math.Abs(dy) < sameBaselineDelta
	gapOK := next.BBox.Left-buf.BBox.Right < maxHorizontalGap

	font := buf.FontSize
	if font == 0 {
		font = defaultFontSize
	}
	sameFont := math.Abs(next.FontSize-buf.FontSize) < sameFontDelta
	nextLine := dy > 0 && dy <= font*lineStepFactor

	return (sameBaseline && gapOK) || (sameFont && nextLine)
}

// Merge walks spans in reading order and joins each span into the buffered
// line when ShouldMerge allows it. A page change always flushes the buffer.
// The input is not modified.
func Merge(spans []model.Span) []model.Span {
	if len(spans) == 0 {
		return nil
	}
	merged := make([]model.Span, 0, len(spans))
	buf := spans[0]
	for _, next := range spans[1:] {
		if next.Page == buf.Page && ShouldMerge(buf, next) {
			buf = buf.Extend(next)
			continue
		}
		merged = append(merged, buf)
		buf = next
	}
	return append(merged, buf)
}
