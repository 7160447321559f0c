package index

// PostingEntry records one document of the corpus containing a term, how
// often the term appears there and at which token positions.
type PostingEntry struct {
	DocID     uint32 // Position of the document in the corpus
	Score     float64
	Positions []int
}

// PostingList is a slice of PostingEntry ordered by DocID.
type PostingList []PostingEntry
