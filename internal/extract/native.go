package extract

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/gcbaptista/prism/model"
)

// Glyph is one positioned run of text as drawn by the content stream,
// in PDF user space (origin bottom-left, y = baseline).
type Glyph struct {
	Font     string
	FontSize float64
	X, Y, W  float64
	S        string
}

const (
	baselineTolerance = 1.0
	ascentRatio       = 0.8
	descentRatio      = 0.2
)

// pageHeight returns the MediaBox height of p, looking at the parent page
// tree node when the page does not carry its own box.
func pageHeight(p pdf.Page) float64 {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return model.PageHeight
}

// pageGlyphs reads the text runs of p. Broken content streams make the pdf
// package panic, so the panic is turned into an error.
func pageGlyphs(p pdf.Page) (glyphs []Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading content stream: %v", r)
		}
	}()
	for _, t := range p.Content().Text {
		if t.S == "" {
			continue
		}
		glyphs = append(glyphs, Glyph{Font: t.Font, FontSize: t.FontSize, X: t.X, Y: t.Y, W: t.W, S: t.S})
	}
	return glyphs, nil
}

// pagePlainText returns the plain text of p.
func pagePlainText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading content stream: %v", r)
		}
	}()
	return p.GetPlainText(nil)
}

func isBold(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}

func isItalic(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "italic") || strings.Contains(f, "oblique")
}

// lineBuckets numbers the distinct baselines of glyphs from the top of the
// page down. A baseline within baselineTolerance of the first baseline of the
// current line joins that line.
func lineBuckets(glyphs []Glyph) map[float64]int {
	ys := make([]float64, 0, len(glyphs))
	for _, g := range glyphs {
		ys = append(ys, g.Y)
	}
	slices.Sort(ys)
	ys = slices.Compact(ys)

	buckets := make(map[float64]int, len(ys))
	line := -1
	var anchor float64
	for i := len(ys) - 1; i >= 0; i-- {
		if line < 0 || anchor-ys[i] > baselineTolerance {
			line++
			anchor = ys[i]
		}
		buckets[ys[i]] = line
	}
	return buckets
}

// GlyphSpans groups glyphs into spans: glyphs on the same baseline that share
// a font and size and sit close together form one span. Coordinates are
// flipped to a top-left origin using height.
func GlyphSpans(glyphs []Glyph, page int, height float64, lang LanguageDetector) []model.Span {
	if len(glyphs) == 0 {
		return nil
	}
	line := lineBuckets(glyphs)
	sorted := slices.Clone(glyphs)
	slices.SortStableFunc(sorted, func(a, b Glyph) int {
		if c := line[a.Y] - line[b.Y]; c != 0 {
			return c
		}
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return 0
	})

	var spans []model.Span
	var sb strings.Builder
	var cur Glyph
	var left, right float64

	flush := func() {
		text := strings.TrimSpace(sb.String())
		sb.Reset()
		if text == "" {
			return
		}
		size := cur.FontSize
		spans = append(spans, model.Span{
			Text: text,
			Page: page,
			BBox: model.BBox{
				Left:   left,
				Top:    height - cur.Y - ascentRatio*size,
				Right:  right,
				Bottom: height - cur.Y + descentRatio*size,
			},
			FontSize: size,
			FontName: cur.Font,
			Bold:     isBold(cur.Font),
			Italic:   isItalic(cur.Font),
			Lang:     lang.Detect(text),
		})
	}

	for i, g := range sorted {
		if i > 0 {
			sameLine := line[g.Y] == line[cur.Y]
			sameFont := g.Font == cur.Font && math.Abs(g.FontSize-cur.FontSize) < 0.5
			gap := g.X - right
			if !sameLine || !sameFont || gap > 3*max(cur.FontSize, 1) {
				flush()
			} else if gap > 0.25*max(cur.FontSize, 1) && !strings.HasSuffix(sb.String(), " ") && !strings.HasPrefix(g.S, " ") {
				sb.WriteByte(' ')
			}
		}
		if sb.Len() == 0 {
			cur = g
			left = g.X
		}
		sb.WriteString(g.S)
		right = g.X + g.W
	}
	flush()
	return spans
}
