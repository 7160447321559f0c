package classify

import (
	"sort"
	"strings"

	"github.com/gcbaptista/prism/model"
)

var inviteKeys = []string{"for:", "date:", "time:", "rsvp:", "address:"}

// IsInviteForm reports whether page 1 reads like an invitation form, i.e. at
// least two lines start with an invite field label. Callers only apply this
// to single-page documents.
func IsInviteForm(spans []model.Span) bool {
	hits := 0
	for _, s := range spans {
		if s.Page != 1 {
			continue
		}
		low := strings.ToLower(strings.TrimSpace(s.Text))
		for _, key := range inviteKeys {
			if strings.HasPrefix(low, key) {
				hits++
				break
			}
		}
	}
	return hits >= 2
}

// PickCalloutHeading returns the loudest short line in the lower part of
// page 1 ("HOPE TO SEE YOU THERE!"), tagged H1. Ties on font size go to the
// line lower on the page.
func PickCalloutHeading(spans []model.Span) (model.Span, bool) {
	var best model.Span
	found := false
	for _, s := range spans {
		if s.Page != 1 {
			continue
		}
		yMid := (s.BBox.Top + s.BBox.Bottom) / 2
		if yMid/model.PageHeight < 0.60 {
			continue
		}
		txt := strings.TrimSpace(s.Text)
		low := strings.ToLower(txt)
		if strings.Contains(low, "www.") || strings.Contains(low, ".com") {
			continue
		}
		if len(strings.Fields(s.Text)) > 8 {
			continue
		}
		if !strings.HasSuffix(txt, "!") && upperRatio(s.Text) < 0.6 {
			continue
		}
		if !found || s.FontSize > best.FontSize ||
			(s.FontSize == best.FontSize && s.BBox.Top > best.BBox.Top) {
			best, found = s, true
		}
	}
	if !found {
		return model.Span{}, false
	}
	return best.WithLevel(model.LevelH1), true
}

// FlyerHeadings tags the two largest spans H1 and H2 and returns them in
// reading order.
func FlyerHeadings(spans []model.Span) []model.Span {
	if len(spans) == 0 {
		return []model.Span{}
	}
	bySize := append([]model.Span(nil), spans...)
	sort.SliceStable(bySize, func(i, j int) bool { return bySize[i].FontSize > bySize[j].FontSize })

	levels := []string{model.LevelH1, model.LevelH2}
	top := make([]model.Span, 0, 2)
	for i := 0; i < len(bySize) && i < len(levels); i++ {
		top = append(top, bySize[i].WithLevel(levels[i]))
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].BBox.Top != top[j].BBox.Top {
			return top[i].BBox.Top < top[j].BBox.Top
		}
		return top[i].BBox.Left < top[j].BBox.Left
	})
	return top
}
