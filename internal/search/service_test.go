package search

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/prism/config"
	"github.com/gcbaptista/prism/internal/embedding"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/model"
	"github.com/gcbaptista/prism/store"
)

// --- Test Helpers ---

type fakeVectors struct {
	scored   []store.ScoredID
	rows     map[int]model.VectorRecord
	err      error
	lastTopK int
}

func (f *fakeVectors) Search(_ context.Context, _ []float32, topK int) ([]store.ScoredID, error) {
	f.lastTopK = topK
	if f.err != nil {
		return nil, f.err
	}
	out := append([]store.ScoredID(nil), f.scored...)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func (f *fakeVectors) Resolve(ids []int) ([]model.VectorRecord, error) {
	rows := make([]model.VectorRecord, 0, len(ids))
	for _, id := range ids {
		if row, ok := f.rows[id]; ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

type fixture struct {
	service   *Service
	vectors   *fakeVectors
	blocklist *store.BlocklistStore
}

func setupSearchService(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	meta, err := store.NewMetadataStore(filepath.Join(dir, "meta"), 16)
	require.NoError(t, err)
	require.NoError(t, meta.SaveSentences(model.SentencesMeta{DocID: "travel", Sentences: []model.SentenceRecord{
		{SentID: "s0", SectionID: "t-night", Page: 1, Text: "Nightlife and entertainment options abound in the old port district."},
		{SentID: "s1", SectionID: "t-night", Page: 1, Text: "Bars and clubs stay open late along the waterfront every weekend."},
		{SentID: "s2", SectionID: "t-pack", Page: 4, Text: "Packing tips for a coastal trip include light layers and sandals."},
		{SentID: "s3", SectionID: "t-pack", Page: 4, Text: "Remember to bring sunscreen and a reusable water bottle to the beach."},
	}}))
	require.NoError(t, meta.SaveSentences(model.SentencesMeta{DocID: "food", Sentences: []model.SentenceRecord{
		{SentID: "s0", SectionID: "f-veg", Page: 2, Text: "The vegetarian buffet offers lentil curry and quinoa salad every night."},
		{SentID: "s1", SectionID: "f-veg", Page: 2, Text: "Gluten-free options are labelled clearly on each dinner menu card."},
	}}))
	require.NoError(t, meta.SaveSentences(model.SentencesMeta{DocID: "hr", Sentences: []model.SentenceRecord{
		{SentID: "s0", SectionID: "h-forms", Page: 1, Text: "Create fillable forms and request e-signatures from new employees."},
	}}))

	row := func(id int, doc, sec, title string, sentIdx, page int) model.VectorRecord {
		return model.VectorRecord{VecID: id, DocID: doc, DocTitle: strings.ToUpper(doc), SectionID: sec, SectionTitle: title, SentIdx: sentIdx, Page: page}
	}
	vectors := &fakeVectors{
		scored: []store.ScoredID{
			{VecID: 0, Score: 0.9}, {VecID: 1, Score: 0.85}, {VecID: 2, Score: 0.8},
			{VecID: 3, Score: 0.7}, {VecID: 4, Score: 0.6}, {VecID: 5, Score: 0.5},
		},
		rows: map[int]model.VectorRecord{
			0: row(0, "travel", "t-night", "Nightlife and Entertainment", 0, 1),
			1: row(1, "travel", "t-night", "Nightlife and Entertainment", 1, 1),
			2: row(2, "food", "f-veg", "Vegetarian Buffet", 0, 2),
			3: row(3, "travel", "t-pack", "Packing Tips", 2, 4),
			4: row(4, "hr", "h-forms", "", 0, 1),
			5: row(5, "food", "f-veg", "Vegetarian Buffet", 1, 2),
		},
	}
	blocklist := store.NewBlocklistStore(filepath.Join(dir, "blocklist.json"), nil, logger.NewNop())

	svc, err := NewService(config.Default().Search, embedding.NewHashingEmbedder(16), vectors, meta, blocklist, logger.NewNop())
	require.NoError(t, err)
	return &fixture{service: svc, vectors: vectors, blocklist: blocklist}
}

func sectionIDs(hits []model.Hit) []string {
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.SectionID
	}
	return ids
}

// --- Test Cases ---

func TestNewService(t *testing.T) {
	_, err := NewService(config.SearchConfig{}, nil, &fakeVectors{}, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewService(config.SearchConfig{}, embedding.NewHashingEmbedder(4), nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestSearch_AtMostKNeverPadded(t *testing.T) {
	f := setupSearchService(t)
	ctx := context.Background()

	hits, err := f.service.Search(ctx, model.SearchQuery{Query: "nightlife in the port", K: 2})
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, 50, f.vectors.lastTopK)

	hits, err = f.service.Search(ctx, model.SearchQuery{Query: "nightlife in the port", K: 10})
	require.NoError(t, err)
	assert.Len(t, hits, 4, "one hit per section, never padded to k")
	assert.Equal(t, 100, f.vectors.lastTopK)
	assert.ElementsMatch(t, []string{"t-night", "f-veg", "t-pack", "h-forms"}, sectionIDs(hits))

	hits, err = f.service.Search(ctx, model.SearchQuery{Query: "nightlife", K: 0})
	require.NoError(t, err)
	assert.Len(t, hits, 1, "k below one is clamped")
}

func TestSearch_CollapsesToBestSentence(t *testing.T) {
	f := setupSearchService(t)
	hits, err := f.service.Search(context.Background(), model.SearchQuery{Query: "nightlife", K: 10})
	require.NoError(t, err)

	for _, h := range hits {
		switch h.SectionID {
		case "t-night":
			assert.Equal(t, 0, h.SentIdx)
			assert.Equal(t, 0.9, h.VecScore)
			assert.Equal(t, "Nightlife and entertainment options abound in the old port district. Bars and clubs stay open late along the waterfront every weekend.", h.Snippet)
		case "h-forms":
			assert.Equal(t, "h-forms", h.SectionTitle, "missing section title falls back to the id")
		}
		assert.Nil(t, h.Why)
		assert.Nil(t, h.WhyDeep)
	}
}

func TestSearch_BlocklistAndFilter(t *testing.T) {
	f := setupSearchService(t)
	ctx := context.Background()

	_, err := f.blocklist.Add("food")
	require.NoError(t, err)
	hits, err := f.service.Search(ctx, model.SearchQuery{Query: "vegetarian buffet", K: 10})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		assert.NotEqual(t, "food", h.DocID)
	}

	hits, err = f.service.Search(ctx, model.SearchQuery{Query: "forms", K: 10, DocFilter: []string{"hr"}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "hr", hits[0].DocID)

	hits, err = f.service.Search(ctx, model.SearchQuery{Query: "forms", K: 10, DocFilter: []string{"food"}})
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits, "only blocked documents left")
}

func TestSearch_Errors(t *testing.T) {
	f := setupSearchService(t)

	_, err := f.service.Search(context.Background(), model.SearchQuery{Query: "   ", K: 3})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	f.vectors.err = errors.ErrIndexNotReady
	_, err = f.service.Search(context.Background(), model.SearchQuery{Query: "anything", K: 3})
	assert.ErrorIs(t, err, errors.ErrIndexNotReady)
}

func TestSearch_Deterministic(t *testing.T) {
	f := setupSearchService(t)
	q := model.SearchQuery{Query: "coastal trip tips", K: 4, Persona: "Travel planner", Task: "Plan a trip"}

	first, err := f.service.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := f.service.Search(context.Background(), q)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSearch_PersonaReweight(t *testing.T) {
	f := setupSearchService(t)
	hits, err := f.service.Search(context.Background(), model.SearchQuery{
		Query: "buffet", K: 4, Persona: "vegetarian",
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	for _, h := range hits {
		require.NotNil(t, h.Why)
		assert.Nil(t, h.WhyDeep, "deep stage only runs when requested")
	}
	assert.Equal(t, "f-veg", hits[0].SectionID)
	assert.Equal(t, 1.0, hits[0].Why.TitleSim)
	assert.Greater(t, hits[0].Score, hits[0].FusedScore)
}

func TestSearch_DeepReweight(t *testing.T) {
	f := setupSearchService(t)
	hits, err := f.service.Search(context.Background(), model.SearchQuery{
		Query: "evening plans", K: 4, Persona: "Travel planner", Task: "Plan a trip for college friends", Deep: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	top := hits[0]
	assert.Equal(t, "t-night", top.SectionID)
	require.NotNil(t, top.WhyDeep)
	assert.Equal(t, DomainTravel, top.WhyDeep.Domain)
	assert.Equal(t, []string{"nightlife", "entertainment"}, top.WhyDeep.TitleTokensHit)
	assert.Equal(t, 5.5, top.WhyDeep.PhraseBonus)
	assert.Equal(t, 0.3, top.WhyDeep.PagePrior)
	assert.InDelta(t, 7.8, top.WhyDeep.TitleBoost, 1e-9)

	for _, h := range hits {
		require.NotNil(t, h.WhyDeep)
		if h.SectionID == "t-pack" {
			assert.Equal(t, 0.1, h.WhyDeep.PagePrior)
		}
	}

	// deep without persona or task is ignored
	plain, err := f.service.Search(context.Background(), model.SearchQuery{Query: "evening plans", K: 4, Deep: true})
	require.NoError(t, err)
	for _, h := range plain {
		assert.Nil(t, h.WhyDeep)
	}
}

func TestFuse_DocumentPenalty(t *testing.T) {
	f := setupSearchService(t)
	hits := []model.Hit{
		{DocID: "a", SectionID: "none-1", VecScore: 1.0},
		{DocID: "a", SectionID: "none-2", VecScore: 0.6},
		{DocID: "b", SectionID: "none-3", VecScore: 0.5},
		{DocID: "c", SectionID: "none-4", VecScore: 0.0},
	}
	pool := f.service.fuse(hits, "query", 40)

	// no section text: lexical scores are constant and normalise to one
	assert.Equal(t, []string{"none-1", "none-3", "none-2", "none-4"}, sectionIDs(pool))
	assert.InDelta(t, 1.0, pool[0].FusedScore, 1e-9)
	assert.InDelta(t, 0.65*0.5+0.35, pool[1].FusedScore, 1e-9)
	assert.InDelta(t, 0.65*0.6+0.35-0.15, pool[2].FusedScore, 1e-9)

	short := f.service.fuse([]model.Hit{
		{DocID: "x", SectionID: "b", VecScore: 0.5},
		{DocID: "y", SectionID: "a", VecScore: 0.5},
	}, "query", 1)
	require.Len(t, short, 1)
	assert.Equal(t, "x", short[0].DocID, "equal scores order by document id")
}

func TestMinMax(t *testing.T) {
	assert.Empty(t, minMax(nil))
	assert.Equal(t, []float64{1, 1}, minMax([]float64{3, 3}))

	got := minMax([]float64{1, 2, 3})
	require.Len(t, got, 3)
	assert.InDelta(t, 0.0, got[0], 1e-9)
	assert.InDelta(t, 0.5, got[1], 1e-9)
	assert.InDelta(t, 1.0, got[2], 1e-9)
}

func TestMMR_FollowsObjective(t *testing.T) {
	pool := []model.Hit{
		{SectionID: "a", Score: 1.0, Tokens: []string{"alpha", "beta", "gamma"}},
		{SectionID: "a-dup", Score: 0.95, Tokens: []string{"alpha", "beta", "gamma"}},
		{SectionID: "c", Score: 0.8, Tokens: []string{"delta", "omega"}},
	}

	got := mmr(pool, 2, defaultLambda)
	// a-dup: 0.78*0.95 - 0.22*3*1 = 0.081, c: 0.78*0.8 = 0.624
	assert.Equal(t, []string{"a", "c"}, sectionIDs(got))

	all := mmr(pool, 5, defaultLambda)
	assert.Equal(t, []string{"a", "c", "a-dup"}, sectionIDs(all))
	assert.Len(t, pool, 3, "input pool is not modified")

	ties := mmr([]model.Hit{
		{SectionID: "first", Score: 0.5},
		{SectionID: "second", Score: 0.5},
	}, 1, defaultLambda)
	assert.Equal(t, []string{"first"}, sectionIDs(ties))

	assert.Empty(t, mmr(nil, 3, defaultLambda))
}

func TestSnippet(t *testing.T) {
	sents := []model.SentenceRecord{
		{SectionID: "x", Text: "Before."},
		{SectionID: "s", Text: "One."},
		{SectionID: "s", Text: "  Two \n words. "},
		{SectionID: "s", Text: "Three."},
		{SectionID: "s", Text: "Four."},
		{SectionID: "s", Text: "Five."},
	}

	assert.Equal(t, "One. Two words. Three. Four.", Snippet(sents, "s", 2, 600))
	assert.Equal(t, "One. Two words.", Snippet(sents, "s", 0, 600), "window is clipped to the section")
	assert.Equal(t, "One. Two words. Three.", Snippet(sents, "s", 99, 600), "falls back to the first three sentences")
	assert.Equal(t, "", Snippet(sents, "missing", 0, 600))

	long := []model.SentenceRecord{{SectionID: "s", Text: strings.Repeat("word ", 200)}}
	got := Snippet(long, "s", 0, 600)
	assert.True(t, strings.HasSuffix(got, "word…"))
	assert.LessOrEqual(t, len([]rune(got)), 598)
}

func TestPickDomain(t *testing.T) {
	tests := []struct {
		persona, task, want string
	}{
		{"HR professional", "Create onboarding forms", DomainHRForms},
		{"Travel Planner", "Plan a trip of 4 days", DomainTravel},
		{"Food Contractor", "Prepare a vegetarian buffet-style dinner menu", DomainFoodMenu},
		{"Analyst", "three quarterly reports", DomainGeneric},
		{"College student", "fill in the forms", DomainHRForms},
	}
	for _, tt := range tests {
		t.Run(tt.persona, func(t *testing.T) {
			assert.Equal(t, tt.want, PickDomain(tt.persona, tt.task))
		})
	}
}

func TestQueryWeights(t *testing.T) {
	w := queryWeights("Food contractor", "gluten-free dinner", DomainFoodMenu)
	assert.Equal(t, 1.0, w["contractor"])
	assert.Equal(t, 1.6, w["dinner"], "lexicon weight wins over 1.0")
	assert.Equal(t, 2.6, w["glutenfree"])
	assert.Equal(t, 1.0, w["gluten"])
}

func TestSearch_BlankDocFilterIsIgnored(t *testing.T) {
	f := setupSearchService(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		docFilter []string
		wantDocs  []string
	}{
		{name: "no filter", docFilter: nil, wantDocs: []string{"travel", "travel", "hr", "food"}},
		{name: "whitespace only", docFilter: []string{" "}, wantDocs: []string{"travel", "travel", "hr", "food"}},
		{name: "empty id", docFilter: []string{""}, wantDocs: []string{"travel", "travel", "hr", "food"}},
		{name: "blank and real id", docFilter: []string{"", "hr"}, wantDocs: []string{"hr"}},
		{name: "padded id", docFilter: []string{"  hr "}, wantDocs: []string{"hr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := f.service.Search(ctx, model.SearchQuery{Query: "nightlife in the port", K: 10, DocFilter: tt.docFilter})
			require.NoError(t, err)
			docs := make([]string, len(hits))
			for i, h := range hits {
				docs[i] = h.DocID
			}
			assert.ElementsMatch(t, tt.wantDocs, docs)
		})
	}
}

func TestDocFilterSet(t *testing.T) {
	assert.Nil(t, docFilterSet(nil))
	assert.Nil(t, docFilterSet([]string{"", "  ", "\t"}))
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, docFilterSet([]string{" a", "", "b", "a"}))
}
