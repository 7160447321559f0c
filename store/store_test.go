package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/model"
)

func newVectorStore(t *testing.T, dir string) *VectorStore {
	t.Helper()
	vs, err := NewVectorStore(dir, logger.NewNop())
	require.NoError(t, err)
	return vs
}

func rowsFor(docID string, n int) []model.VectorRecord {
	rows := make([]model.VectorRecord, n)
	for i := range rows {
		rows[i] = model.VectorRecord{DocID: docID, SectionID: "sec", SentIdx: i, Page: 1}
	}
	return rows
}

func TestVectorStore_EmptyIndexNotReady(t *testing.T) {
	vs := newVectorStore(t, t.TempDir())

	_, err := vs.Search(context.Background(), []float32{1, 0}, 5)
	assert.ErrorIs(t, err, errors.ErrIndexNotReady)

	ids, err := vs.Add(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = vs.Search(context.Background(), []float32{1, 0}, 5)
	assert.ErrorIs(t, err, errors.ErrIndexNotReady, "empty add does not create an index")
}

func TestVectorStore_AddSearchResolve(t *testing.T) {
	vs := newVectorStore(t, t.TempDir())
	ctx := context.Background()

	ids, err := vs.Add(ctx, [][]float32{{1, 0, 0}, {0, 2, 0}}, rowsFor("a", 2))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, ids)

	ids, err = vs.Add(ctx, [][]float32{{0, 0, 3}, {1, 1, 0}}, rowsFor("b", 2))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids, "ids continue from the committed count")

	hits, err := vs.Search(ctx, []float32{0, 5, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].VecID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6, "vectors are normalised")
	assert.Equal(t, 3, hits[1].VecID)

	all, err := vs.Search(ctx, []float32{1, 0, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, all, 4, "topK larger than the index returns everything")

	rows, err := vs.Resolve([]int{3, 0, 42})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].DocID)
	assert.Equal(t, 3, rows[0].VecID)
	assert.Equal(t, "a", rows[1].DocID)

	m, err := vs.Manifest()
	require.NoError(t, err)
	assert.Equal(t, 4, m.Count)
	assert.Equal(t, 3, m.Dimensions)
	assert.Equal(t, int64(2), m.Version)
}

func TestVectorStore_RejectsDimensionMismatch(t *testing.T) {
	vs := newVectorStore(t, t.TempDir())
	ctx := context.Background()

	_, err := vs.Add(ctx, [][]float32{{1, 0}}, rowsFor("a", 1))
	require.NoError(t, err)

	_, err = vs.Add(ctx, [][]float32{{1, 0, 0}}, rowsFor("b", 1))
	assert.Error(t, err)

	_, err = vs.Add(ctx, [][]float32{{1, 0}}, rowsFor("b", 2))
	assert.Error(t, err, "vector and row counts must match")

	_, err = vs.Search(ctx, []float32{1, 0, 0}, 1)
	assert.Error(t, err)
}

func TestVectorStore_ReloadsAfterExternalWrite(t *testing.T) {
	dir := t.TempDir()
	reader := newVectorStore(t, dir)
	writer := newVectorStore(t, dir)
	ctx := context.Background()

	_, err := writer.Add(ctx, [][]float32{{1, 0}}, rowsFor("a", 1))
	require.NoError(t, err)

	hits, err := reader.Search(ctx, []float32{0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)

	_, err = writer.Add(ctx, [][]float32{{0, 1}}, rowsFor("b", 1))
	require.NoError(t, err)

	hits, err = reader.Search(ctx, []float32{0, 1}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 2, "reader picks up the newer manifest version")
	assert.Equal(t, 1, hits[0].VecID)
}

func TestVectorStore_DiscardsUncommittedTail(t *testing.T) {
	dir := t.TempDir()
	vs := newVectorStore(t, dir)
	ctx := context.Background()

	_, err := vs.Add(ctx, [][]float32{{1, 0}}, rowsFor("a", 1))
	require.NoError(t, err)

	// simulate a crash between append and manifest commit
	f, err := os.OpenFile(filepath.Join(dir, vectorsFile), os.O_APPEND|os.O_WRONLY, 0640)
	require.NoError(t, err)
	_, err = f.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	require.NoError(t, f.Close())
	f, err = os.OpenFile(filepath.Join(dir, mappingFile), os.O_APPEND|os.O_WRONLY, 0640)
	require.NoError(t, err)
	_, err = f.WriteString("{\"vecId\":1,\"docId\":\"ghost\"}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ids, err := vs.Add(ctx, [][]float32{{0, 1}}, rowsFor("b", 1))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, ids)

	rows, err := vs.Resolve([]int{0, 1})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1].DocID)

	info, err := os.Stat(filepath.Join(dir, vectorsFile))
	require.NoError(t, err)
	assert.Equal(t, int64(2*2*4), info.Size())
}

func TestVectorStore_ConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	// Two handles stand in for two processes sharing the data directory.
	handles := []*VectorStore{newVectorStore(t, dir), newVectorStore(t, dir)}
	ctx := context.Background()

	const addsPerHandle = 20
	const rowsPerAdd = 2

	var wg sync.WaitGroup
	errs := make(chan error, len(handles)*addsPerHandle)
	for h, vs := range handles {
		for i := 0; i < addsPerHandle; i++ {
			wg.Add(1)
			go func(vs *VectorStore, docID string) {
				defer wg.Done()
				ids, err := vs.Add(ctx, [][]float32{{1, 0}, {0, 1}}, rowsFor(docID, rowsPerAdd))
				if err == nil && (len(ids) != rowsPerAdd || ids[1] != ids[0]+1) {
					err = fmt.Errorf("%s: non-consecutive ids %v", docID, ids)
				}
				errs <- err
			}(vs, fmt.Sprintf("doc-%d-%d", h, i))
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	total := len(handles) * addsPerHandle * rowsPerAdd
	for _, vs := range handles {
		m, err := vs.Manifest()
		require.NoError(t, err)
		assert.Equal(t, total, m.Count)
	}

	info, err := os.Stat(filepath.Join(dir, vectorsFile))
	require.NoError(t, err)
	assert.Equal(t, int64(total*2*4), info.Size())

	f, err := os.Open(filepath.Join(dir, mappingFile))
	require.NoError(t, err)
	defer f.Close()

	perDoc := map[string][]int{}
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		var row model.VectorRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		assert.Equal(t, line, row.VecID, "vector ids follow file order")
		perDoc[row.DocID] = append(perDoc[row.DocID], row.SentIdx)
		line++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, total, line)
	assert.Len(t, perDoc, len(handles)*addsPerHandle)
	for docID, sentIdx := range perDoc {
		assert.Equal(t, []int{0, 1}, sentIdx, "rows of %s were interleaved", docID)
	}

	rows, err := handles[0].Resolve([]int{0, total - 1})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestMetadataStore(t *testing.T) {
	ms, err := NewMetadataStore(t.TempDir(), 4)
	require.NoError(t, err)

	_, err = ms.Sections("missing")
	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)
	_, err = ms.Outline("missing")
	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)

	sents, err := ms.Sentences("missing")
	require.NoError(t, err)
	assert.Empty(t, sents)
	assert.NotNil(t, sents)

	require.NoError(t, ms.SaveSections(model.SectionsMeta{
		DocID: "doc1", Title: "Report", OrigName: "report.pdf",
		Sections: []model.Section{{SectionID: "s1", Title: "Intro", Level: "H1", Page: 1}},
	}))
	require.NoError(t, ms.SaveOutline("doc1", model.Outline{Title: "Report", Outline: []model.OutlineEntry{{Level: "H1", Text: "Intro", Page: 0}}}))

	meta, err := ms.Sections("doc1")
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", meta.OrigName)
	outline, err := ms.Outline("doc1")
	require.NoError(t, err)
	assert.Equal(t, "Intro", outline.Outline[0].Text)

	ids, err := ms.DocumentIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"doc1"}, ids)
}

func TestMetadataStore_SentencesAndSectionText(t *testing.T) {
	ms, err := NewMetadataStore(t.TempDir(), 4)
	require.NoError(t, err)

	require.NoError(t, ms.SaveSentences(model.SentencesMeta{DocID: "doc1", Sentences: []model.SentenceRecord{
		{SentID: "s0", SectionID: "a", Text: "First sentence of section a."},
		{SentID: "s1", SectionID: "b", Text: "Only sentence of section b."},
		{SentID: "s2", SectionID: "a", Text: "  Second sentence of section a.  "},
		{SentID: "s3", SectionID: "a", Text: "Third sentence of section a."},
	}}))

	assert.Equal(t, "First sentence of section a. Second sentence of section a. Third sentence of section a.",
		ms.SectionText("doc1", "a", 1400))
	assert.Equal(t, "First sentence of section a. Second sentence of section a.",
		ms.SectionText("doc1", "a", 30), "stops once the budget is reached")
	assert.Equal(t, "", ms.SectionText("doc1", "zzz", 1400))

	// a rewrite must not be hidden by the cache
	require.NoError(t, ms.SaveSentences(model.SentencesMeta{DocID: "doc1", Sentences: []model.SentenceRecord{
		{SentID: "s0", SectionID: "a", Text: "Replaced."},
	}}))
	assert.Equal(t, "Replaced.", ms.SectionText("doc1", "a", 1400))
}

func TestBlocklistStore(t *testing.T) {
	t.Setenv(BlocklistEnvVar, " env1 ,,env2")
	path := filepath.Join(t.TempDir(), "blocklist.json")
	bs := NewBlocklistStore(path, []string{"cfg"}, logger.NewNop())

	assert.Empty(t, bs.List())
	assert.Equal(t, map[string]struct{}{"cfg": {}, "env1": {}, "env2": {}}, bs.Blocked())

	ids, err := bs.Add("zeta", "alpha", "zeta")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, ids)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"docIds":["alpha","zeta"]}`, string(data))

	ids, err = bs.Remove("zeta", "unknown")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, ids)
	assert.Contains(t, bs.Blocked(), "alpha")

	require.NoError(t, bs.Clear())
	assert.Empty(t, bs.List())
	assert.Len(t, bs.Blocked(), 3, "fixed ids survive a clear")
}

func TestBlocklistStore_FileFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"wrapped", `{"docIds": ["b", "a"]}`, []string{"a", "b"}},
		{"bare list", `["x", " y "]`, []string{"x", "y"}},
		{"malformed", `{not json`, []string{}},
		{"wrong shape", `{"docIds": 3}`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "blocklist.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			bs := NewBlocklistStore(path, nil, logger.NewNop())
			got := bs.List()
			if got == nil {
				got = []string{}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
