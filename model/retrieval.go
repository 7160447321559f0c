package model

// SentenceRecord is one indexed sentence. Records are immutable once written.
type SentenceRecord struct {
	SentID    string  `json:"sentId"`
	SectionID string  `json:"sectionId"`
	Page      int     `json:"page"`
	Y         float64 `json:"y"`
	Text      string  `json:"text"`
}

// VectorRecord is a mapping row tying a vector id to its sentence.
// One row per SentenceRecord; rows are only ever appended.
type VectorRecord struct {
	VecID        int     `json:"vecId"`
	DocID        string  `json:"docId"`
	DocTitle     string  `json:"docTitle"`
	DocOrigName  string  `json:"docOrigName"`
	SectionID    string  `json:"sectionId"`
	SectionTitle string  `json:"sectionTitle"`
	SentIdx      int     `json:"sentIdx"`
	Page         int     `json:"page"`
	Y            float64 `json:"y"`
}

// SearchQuery is the input of a retrieval request.
type SearchQuery struct {
	Query     string   `json:"query"`
	K         int      `json:"k"`
	DocFilter []string `json:"docIds,omitempty"`
	Persona   string   `json:"persona,omitempty"`
	Task      string   `json:"task,omitempty"`
	Deep      bool     `json:"deep"`
}

// Why explains the lightweight persona reweighting of a hit.
type Why struct {
	TitleSim    float64 `json:"titleSim"`
	SnippetSim  float64 `json:"snippetSim"`
	BodySim     float64 `json:"bodySim"`
	PhraseBonus float64 `json:"phraseBonus"`
}

// WhyDeep explains the domain reweighting of a hit.
type WhyDeep struct {
	Domain           string   `json:"domain"`
	TitleTokensHit   []string `json:"titleTokensHit"`
	BodyTokensHitTop []string `json:"bodyTokensHitTop"`
	TitleBoost       float64  `json:"titleBoost"`
	BodyBoost        float64  `json:"bodyBoost"`
	PhraseBonus      float64  `json:"phraseBonus"`
	PagePrior        float64  `json:"pagePrior"`
	OldScore         float64  `json:"oldScore"`
	NewScore         float64  `json:"newScore"`
}

// Hit is a retrieval candidate. Hits are created per query and never persisted.
type Hit struct {
	DocID        string   `json:"docId"`
	DocTitle     string   `json:"docTitle"`
	DocOrigName  string   `json:"docOrigName"`
	SectionID    string   `json:"sectionId"`
	SectionTitle string   `json:"sectionTitle"`
	SentIdx      int      `json:"-"`
	Page         int      `json:"page"`
	Y            float64  `json:"y"`
	VecScore     float64  `json:"-"`
	LexScore     float64  `json:"-"`
	FusedScore   float64  `json:"-"`
	Score        float64  `json:"score"`
	Snippet      string   `json:"snippet"`
	Tokens       []string `json:"-"`
	Why          *Why     `json:"why,omitempty"`
	WhyDeep      *WhyDeep `json:"whyDeep,omitempty"`
}
