package classify

import (
	"strings"

	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

// FilterOptions tunes the header/footer stopset.
type FilterOptions struct {
	// StopsetRatio is the share of pages a line must repeat on to be dropped.
	StopsetRatio float64
	// StopsetMinRepeats is the floor for the repeat cutoff.
	StopsetMinRepeats int
}

// DefaultFilterOptions returns the stock stopset tuning.
func DefaultFilterOptions() FilterOptions {
	return FilterOptions{StopsetRatio: 0.4, StopsetMinRepeats: 2}
}

// Stopset returns the normalised lines repeated often enough across the
// document to be treated as running headers or footers.
func Stopset(spans []model.Span, pageCount int, opts FilterOptions) map[string]struct{} {
	cutoff := max(opts.StopsetMinRepeats, int(float64(pageCount)*opts.StopsetRatio))
	counts := make(map[string]int)
	for _, s := range spans {
		counts[tokenizer.Norm(s.Text)]++
	}
	stop := make(map[string]struct{})
	for txt, n := range counts {
		if txt != "" && n >= cutoff {
			stop[txt] = struct{}{}
		}
	}
	return stop
}

// FilterSpans drops spans that cannot be headings: page-1 text of multi-page
// documents, the title, running headers, dates, leaders, bare numbers,
// bulleted items and prose. Spans are returned as new values; the input
// slice is never modified.
func FilterSpans(spans []model.Span, title string, pageCount int, opts FilterOptions) []model.Span {
	stop := Stopset(spans, pageCount, opts)
	titleNorm := tokenizer.Norm(title)
	kept := make([]model.Span, 0, len(spans))

	for _, s := range spans {
		txt := s.Text
		trimmed := strings.TrimSpace(txt)
		n := tokenizer.Norm(txt)

		if pageCount > 1 && s.Page == 1 {
			continue
		}
		if _, ok := stop[n]; ok || n == titleNorm {
			continue
		}
		if LooksLikeDate(txt) || dotLeaderRegex.MatchString(txt) ||
			numberOnlyRegex.MatchString(trimmed) || bulletNumberRegex.MatchString(txt) {
			continue
		}

		if loc := sectionAnyRegex.FindStringIndex(txt); loc != nil {
			if loc[0] > 0 {
				kept = append(kept, splitTail(s, loc[0]))
			} else {
				kept = append(kept, s.WithText(ShortenAfterColon(txt)))
			}
			continue
		}

		if pageCount == 1 {
			if strings.HasSuffix(trimmed, ":") {
				continue
			}
			if allCapsRegex.MatchString(trimmed) || strings.HasSuffix(trimmed, "!") {
				kept = append(kept, s)
				continue
			}
		}

		tokens := len(strings.Fields(txt))
		switch {
		case startsLower(txt) && tokens >= 6:
			continue
		case strings.HasSuffix(trimmed, ".") && tokens > 8:
			continue
		case tokens > 18:
			continue
		}

		kept = append(kept, s.WithText(ShortenAfterColon(txt)))
	}
	return kept
}

// splitTail returns a new span holding the text of s from byte offset at,
// with its left edge moved proportionally.
func splitTail(s model.Span, at int) model.Span {
	head := []rune(s.Text[:at])
	total := len([]rune(s.Text))
	tail := s.WithText(ShortenAfterColon(strings.TrimLeft(s.Text[at:], " \t\n\r")))
	if total > 0 {
		width := s.BBox.Right - s.BBox.Left
		tail.BBox.Left += width * float64(len(head)) / float64(total)
	}
	return tail
}
