package search

import (
	"regexp"
	"strings"

	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

// Persona domains recognised by deep reweighting.
const (
	DomainHRForms  = "hr_forms"
	DomainTravel   = "travel"
	DomainFoodMenu = "food_menu"
	DomainGeneric  = "generic"
)

type domainRule struct {
	domain  string
	pattern *regexp.Regexp
}

// domainRules are tried in order; keywords match at word starts.
var domainRules = []domainRule{
	{DomainHRForms, regexp.MustCompile(`\b(?:hr|human resource|onboard|form|e-sign|signature|compliance|fillable)`)},
	{DomainTravel, regexp.MustCompile(`\b(?:travel|trip|itinerary|tour|friends|college|nightlife|beach|cuisine)`)},
	{DomainFoodMenu, regexp.MustCompile(`\b(?:food|menu|buffet|dinner|vegetarian|gluten-free|gluten free|vegan)`)},
}

// lexicons weight the tokens that signal relevance for each domain.
var lexicons = map[string]map[string]float64{
	DomainGeneric: {},
	DomainTravel: {
		"city": 0.8, "guide": 1.2, "coast": 1.4, "beach": 1.6, "island": 1.2,
		"nightlife": 1.7, "entertainment": 1.3, "bar": 1.2, "club": 1.2,
		"cuisine": 1.2, "culinary": 1.4, "restaurant": 1.0, "wine": 1.0,
		"packing": 1.4, "tips": 1.2,
	},
	DomainHRForms: {
		"form": 1.8, "fillable": 2.2, "fill": 1.6, "sign": 1.6, "signature": 1.8,
		"request": 1.4, "send": 1.2, "create": 1.2, "convert": 1.2, "export": 1.0,
		"field": 1.4, "checkbox": 1.0, "radio": 0.8, "interactive": 1.4,
		"onboarding": 1.6, "compliance": 1.6,
	},
	DomainFoodMenu: {
		"vegetarian": 2.4, "vegan": 1.8, "gluten-free": 2.6, "glutenfree": 2.6,
		"buffet": 1.8, "dinner": 1.6, "mains": 1.4, "sides": 1.4,
		"tofu": 1.2, "paneer": 1.2, "chickpea": 1.4, "lentil": 1.4, "quinoa": 1.6,
		"salad": 1.2, "lasagna": 1.6, "sushi": 1.8,
	},
}

type phraseBoost struct {
	pattern *regexp.Regexp
	weight  float64
}

var phraseBoosts = map[string][]phraseBoost{
	DomainTravel: {
		{regexp.MustCompile(`(?i)\bnightlife (and|&)? entertainment\b`), 5.5},
		{regexp.MustCompile(`(?i)\bculinary experiences\b`), 5.0},
		{regexp.MustCompile(`(?i)\bpacking tips?\b`), 3.0},
	},
	DomainHRForms: {
		{regexp.MustCompile(`(?i)\bfill (and|&)? sign\b`), 5.0},
		{regexp.MustCompile(`(?i)\brequest e-?signatures?\b`), 4.5},
		{regexp.MustCompile(`(?i)\bconvert .* to pdf\b`), 3.8},
	},
	DomainFoodMenu: {
		{regexp.MustCompile(`(?i)\bvegetarian\b`), 5.0},
		{regexp.MustCompile(`(?i)\bgluten[- ]?free\b`), 6.0},
		{regexp.MustCompile(`(?i)\bbuffet(-style)?\b`), 3.0},
	},
}

const (
	deepBaseWeight  = 0.70
	deepTitleWeight = 2.6
	deepBodyWeight  = 0.9
	maxBodyTokenHit = 12
)

// PickDomain classifies a persona and task into a lexicon domain.
func PickDomain(persona, task string) string {
	s := strings.ToLower(persona + " " + task)
	for _, rule := range domainRules {
		if rule.pattern.MatchString(s) {
			return rule.domain
		}
	}
	return DomainGeneric
}

// queryWeights combines the persona and task tokens (weight 1) with the
// domain lexicon, keeping the larger weight per token.
func queryWeights(persona, task, domain string) map[string]float64 {
	w := make(map[string]float64)
	for _, t := range tokenizer.DeepTokens(persona + " " + task) {
		w[t] = max(w[t], 1.0)
	}
	for t, wt := range lexicons[domain] {
		w[t] = max(w[t], wt)
	}
	if v, ok := w["gluten-free"]; ok {
		w["glutenfree"] = max(w["glutenfree"], v)
	}
	return w
}

func keywordScore(tokens []string, weights map[string]float64) float64 {
	var s float64
	for _, t := range tokens {
		s += weights[t]
	}
	return s
}

func pagePrior(page int) float64 {
	if page >= 1 && page <= 3 {
		return 0.3
	}
	return 0.1
}

// deepReweight rescores hits with the domain lexicon, phrase patterns and a
// page-position prior, attaching a WhyDeep explanation to each.
func (s *Service) deepReweight(hits []model.Hit, persona, task string) []model.Hit {
	if len(hits) == 0 {
		return hits
	}
	domain := PickDomain(persona, task)
	weights := queryWeights(persona, task, domain)

	for i := range hits {
		h := &hits[i]
		base := h.Score
		body := truncateRunes(s.sentences.SectionText(h.DocID, h.SectionID, s.deepChars()), s.deepChars())

		tTokens := tokenizer.DeepTokens(h.SectionTitle)
		bTokens := tokenizer.DeepTokens(body)

		titleBoost := deepTitleWeight * keywordScore(tTokens, weights)
		bodyBoost := deepBodyWeight * keywordScore(bTokens, weights)
		phrase := 0.0
		for _, pb := range phraseBoosts[domain] {
			if pb.pattern.MatchString(h.SectionTitle) || pb.pattern.MatchString(body) {
				phrase += pb.weight
			}
		}
		prior := pagePrior(h.Page)
		final := deepBaseWeight*base + titleBoost + bodyBoost + phrase + prior

		titleHits := make([]string, 0, len(tTokens))
		for _, t := range tTokens {
			if _, ok := weights[t]; ok {
				titleHits = append(titleHits, t)
			}
		}
		bodyHits := []string{}
		for _, t := range tokenizer.Set(bTokens) { // sorted
			if _, ok := weights[t]; ok {
				bodyHits = append(bodyHits, t)
			}
		}
		if len(bodyHits) > maxBodyTokenHit {
			bodyHits = bodyHits[:maxBodyTokenHit]
		}

		h.Score = final
		h.WhyDeep = &model.WhyDeep{
			Domain:           domain,
			TitleTokensHit:   titleHits,
			BodyTokensHitTop: bodyHits,
			TitleBoost:       round(titleBoost, 4),
			BodyBoost:        round(bodyBoost, 4),
			PhraseBonus:      round(phrase, 4),
			PagePrior:        round(prior, 4),
			OldScore:         round(base, 4),
			NewScore:         round(final, 4),
		}
	}
	sortByScore(hits)
	return hits
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
