package search

import (
	"math"
	"strings"

	"github.com/gcbaptista/prism/internal/tokenizer"
	"github.com/gcbaptista/prism/model"
)

// phraseKeywords earn a small bonus when they appear in both the query and
// the hit text.
var phraseKeywords = []string{
	"azure", "tts", "text to speech", "environment", "env",
	"variable", "variables", "credentials", "endpoint", "key",
}

const phraseKeywordBonus = 0.05

// personaReweight adds token-overlap similarity between the query, persona
// and task and each hit's title, snippet and section body to its score.
func (s *Service) personaReweight(hits []model.Hit, query, persona, task string) []model.Hit {
	qTokens := tokenizer.RerankTokens(strings.Join([]string{query, persona, task}, " "))
	if len(qTokens) == 0 {
		return hits
	}
	qSet := tokenizer.Set(qTokens)
	qJoined := joinTokens(qTokens)

	for i := range hits {
		h := &hits[i]
		tTok := tokenizer.RerankTokens(h.SectionTitle)
		sTok := tokenizer.RerankTokens(h.Snippet)
		bTok := tokenizer.RerankTokens(s.sentences.SectionText(h.DocID, h.SectionID, s.sectionChars()))

		titleSim := tokenizer.JaccardSorted(tokenizer.Set(tTok), qSet)
		snippetSim := tokenizer.JaccardSorted(tokenizer.Set(sTok), qSet)
		bodySim := tokenizer.JaccardSorted(tokenizer.Set(bTok), qSet)

		textJoined := joinTokens(append(append(append([]string{}, tTok...), sTok...), bTok...))
		bonus := 0.0
		for _, kw := range phraseKeywords {
			if strings.Contains(qJoined, " "+kw+" ") && strings.Contains(textJoined, " "+kw+" ") {
				bonus += phraseKeywordBonus
			}
		}

		h.Score = h.Score + 0.25*titleSim + 0.20*snippetSim + 0.15*bodySim + bonus
		h.Why = &model.Why{
			TitleSim:    round(titleSim, 3),
			SnippetSim:  round(snippetSim, 3),
			BodySim:     round(bodySim, 3),
			PhraseBonus: round(bonus, 3),
		}
	}
	sortByScore(hits)
	return hits
}

// joinTokens joins tokens with single spaces and pads both ends so whole
// tokens and phrases can be matched with " kw ".
func joinTokens(tokens []string) string {
	return " " + strings.Join(tokens, " ") + " "
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
