package classify

import (
	"math"
	"strings"
	"unicode"

	"github.com/gcbaptista/prism/model"
)

// FeatureCount is the width of a heading feature vector.
const FeatureCount = 6

// FeatureVector holds, in order: font-size z-score, bold, italic, vertical
// position as a share of the page height, uppercase ratio, and whether the
// line starts with a number.
type FeatureVector [FeatureCount]float64

// Features computes one feature vector per span. The font-size z-score is
// relative to all spans given.
func Features(spans []model.Span) []FeatureVector {
	if len(spans) == 0 {
		return nil
	}

	var mean float64
	for _, s := range spans {
		mean += s.FontSize
	}
	mean /= float64(len(spans))
	var variance float64
	for _, s := range spans {
		variance += (s.FontSize - mean) * (s.FontSize - mean)
	}
	std := math.Sqrt(variance / float64(len(spans)))

	out := make([]FeatureVector, len(spans))
	for i, s := range spans {
		out[i] = FeatureVector{
			(s.FontSize - mean) / (std + 1e-6),
			boolFeature(s.Bold),
			boolFeature(s.Italic),
			s.BBox.Top / model.PageHeight,
			upperRatio(s.Text),
			boolFeature(startsWithNumber(s.Text)),
		}
	}
	return out
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// startsWithNumber looks at the first word of the first eight runes and
// reports whether it is a number such as "3", "3." or "3.2.1".
func startsWithNumber(text string) bool {
	head := []rune(strings.TrimLeftFunc(text, unicode.IsSpace))
	if len(head) > 8 {
		head = head[:8]
	}
	first, _, _ := strings.Cut(string(head), " ")
	first = strings.ReplaceAll(strings.TrimRight(first, "."), ".", "")
	if first == "" {
		return false
	}
	for _, r := range first {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
