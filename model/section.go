package model

// Heading levels.
const (
	LevelH1 = "H1"
	LevelH2 = "H2"
	LevelH3 = "H3"
)

// Section is the body of text between one heading and the next.
type Section struct {
	SectionID string  `json:"sectionId"`
	Title     string  `json:"title"`
	Level     string  `json:"level"`
	Page      int     `json:"page"`
	Y         float64 `json:"y"`
	Text      string  `json:"text"`
}

// OutlineEntry is one heading in a document outline. Page is the logical
// page: 0 for single-page documents, otherwise physical page - 1 (min 1).
type OutlineEntry struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the structural summary produced for every document.
type Outline struct {
	Title   string         `json:"title"`
	Outline []OutlineEntry `json:"outline"`
}

// SectionsMeta is the per-document section metadata persisted by the indexer.
type SectionsMeta struct {
	DocID    string    `json:"docId"`
	Title    string    `json:"title"`
	OrigName string    `json:"origName"`
	Sections []Section `json:"sections"`
}

// SentencesMeta is the per-document sentence metadata persisted by the indexer.
type SentencesMeta struct {
	DocID     string           `json:"docId"`
	Sentences []SentenceRecord `json:"sentences"`
}
