package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/prism/internal/embedding"
	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/indexing"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/structure"
	testutil "github.com/gcbaptista/prism/internal/testing"
	"github.com/gcbaptista/prism/model"
	"github.com/gcbaptista/prism/services"
)

// --- Test Helpers ---

// fakePDF embeds a topic marker that fakeStructurer reads back.
func fakePDF(topic string) []byte {
	return testutil.PDFBytes("topic:" + topic)
}

var corpus = map[string]*structure.Result{
	"travel": {
		Title: "Coastal Travel Guide",
		Outline: model.Outline{Title: "Coastal Travel Guide", Outline: []model.OutlineEntry{
			{Level: model.LevelH1, Text: "Nightlife and Entertainment", Page: 1},
		}},
		Sections: []model.Section{
			{SectionID: "sec0000-p1-100", Title: "Nightlife and Entertainment", Level: model.LevelH1, Page: 1, Y: 100,
				Text: "The harbour bars stay open late every night. Live music fills the old town squares on weekends."},
			{SectionID: "sec0001-p2-80", Title: "Beaches", Level: model.LevelH2, Page: 2, Y: 80,
				Text: "The southern beaches are quiet and sandy. Lifeguards patrol the main beach during summer."},
		},
	},
	"food": {
		Title: "Dinner Menu Ideas",
		Outline: model.Outline{Title: "Dinner Menu Ideas", Outline: []model.OutlineEntry{
			{Level: model.LevelH1, Text: "Vegetarian Mains", Page: 1},
		}},
		Sections: []model.Section{
			{SectionID: "sec0000-p1-90", Title: "Vegetarian Mains", Level: model.LevelH1, Page: 1, Y: 90,
				Text: "Roasted vegetable lasagne serves a buffet of twelve guests. Falafel wraps are quick to prepare."},
		},
	},
}

type fakeStructurer struct {
	mu      sync.Mutex
	release chan struct{} // when set, Run blocks until it is closed or ctx ends
}

func (f *fakeStructurer) Run(ctx context.Context, path string) (*structure.Result, error) {
	f.mu.Lock()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewExtractionError(path, 0, err)
	}
	for topic, res := range corpus {
		if bytes.Contains(data, []byte("%topic:"+topic+"\n")) {
			return res, nil
		}
	}
	return nil, errors.ErrEmptyStructure
}

type fakePages struct{}

func (fakePages) PageTexts(context.Context, string) ([]string, error) {
	return []string{"Fallback page text that is long enough to index."}, nil
}

func newTestEngine(t *testing.T, st *fakeStructurer) *Engine {
	t.Helper()
	cfg := testutil.NewTestConfig(t)

	eng, err := New(cfg, logger.NewNop(),
		WithStructurer(st),
		WithPageTextSource(fakePages{}),
		WithDocTitle(func(string) string { return "" }),
		WithEmbedder(embedding.NewHashingEmbedder(64)),
	)
	require.NoError(t, err)
	eng.Start()
	t.Cleanup(eng.Close)
	return eng
}

func waitForJob(t *testing.T, eng *Engine, jobID string, status model.JobStatus) *model.Job {
	t.Helper()
	var job *model.Job
	require.Eventually(t, func() bool {
		var err error
		job, err = eng.JobStatus(jobID)
		return err == nil && job.Status == status
	}, 5*time.Second, 10*time.Millisecond, "job %s never reached %s", jobID, status)
	return job
}

func uploadAndWait(t *testing.T, eng *Engine, name, topic string) string {
	t.Helper()
	res, err := eng.UploadPDF(name, bytes.NewReader(fakePDF(topic)))
	require.NoError(t, err)
	require.Len(t, res.JobIDs, 1)
	waitForJob(t, eng, res.JobIDs[0], model.JobStatusDone)
	return res.DocID
}

// --- Test Cases ---

func TestEngine_UploadIndexSearch(t *testing.T) {
	eng := newTestEngine(t, &fakeStructurer{})

	_, err := eng.Search(context.Background(), model.SearchQuery{Query: "late night bars"})
	assert.ErrorIs(t, err, errors.ErrIndexNotReady)
	assert.False(t, eng.Health().IndexReady)

	travel := uploadAndWait(t, eng, "guide.pdf", "travel")
	food := uploadAndWait(t, eng, "menu.pdf", "food")

	job, err := eng.JobStatus(mustJobFor(t, eng, travel))
	require.NoError(t, err)
	assert.Equal(t, model.ProgressDone, job.Progress)

	res, err := eng.Search(context.Background(), model.SearchQuery{Query: "harbour bars open late with live music", K: 3})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.LessOrEqual(t, res.Total, 3)
	assert.NotEmpty(t, res.QueryId)

	docs := map[string]bool{}
	for _, h := range res.Hits {
		docs[h.DocID] = true
		assert.NotEmpty(t, h.Snippet)
	}
	assert.True(t, docs[travel])

	sections, err := eng.Sections(food)
	require.NoError(t, err)
	assert.Equal(t, "Dinner Menu Ideas", sections.Title)
	assert.Equal(t, "menu.pdf", sections.OrigName)

	outline, err := eng.Outline(travel)
	require.NoError(t, err)
	assert.Equal(t, "Nightlife and Entertainment", outline.Outline[0].Text)

	_, err = eng.Sections("unknown")
	assert.ErrorIs(t, err, errors.ErrDocumentNotFound)

	health := eng.Health()
	assert.True(t, health.IndexReady)
	assert.Equal(t, 2, health.Documents)
	assert.Equal(t, 6, health.Vectors)
	assert.Equal(t, "hashing-fnv64a", health.EmbeddingModel)
}

// mustJobFor finds the job recorded for docID.
func mustJobFor(t *testing.T, eng *Engine, docID string) string {
	t.Helper()
	jobs := eng.jobManager.ListJobs(docID, nil)
	require.Len(t, jobs, 1)
	return jobs[0].ID
}

func TestEngine_Blocklist(t *testing.T) {
	eng := newTestEngine(t, &fakeStructurer{})
	travel := uploadAndWait(t, eng, "guide.pdf", "travel")
	uploadAndWait(t, eng, "menu.pdf", "food")

	list, err := eng.BlockDocuments([]string{travel, " "})
	require.NoError(t, err)
	assert.Equal(t, []string{travel}, list)
	assert.Equal(t, []string{travel}, eng.Blocklist())

	res, err := eng.Search(context.Background(), model.SearchQuery{Query: "harbour bars open late", K: 5})
	require.NoError(t, err)
	for _, h := range res.Hits {
		assert.NotEqual(t, travel, h.DocID, "blocked documents never surface")
	}

	_, err = eng.BlockDocuments(nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	list, err = eng.UnblockDocuments([]string{travel})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = eng.BlockDocuments([]string{"a", "b"})
	require.NoError(t, err)
	require.NoError(t, eng.ClearBlocklist())
	assert.Empty(t, eng.Blocklist())
}

func TestEngine_FallbackAndFailures(t *testing.T) {
	eng := newTestEngine(t, &fakeStructurer{})

	res, err := eng.UploadPDF("scan.pdf", bytes.NewReader(fakePDF("unknown")))
	require.NoError(t, err)
	waitForJob(t, eng, res.JobIDs[0], model.JobStatusDone)
	sections, err := eng.Sections(res.DocID)
	require.NoError(t, err)
	assert.Equal(t, "Page 1", sections.Sections[0].Title)
	assert.Equal(t, res.DocID, sections.Title, "title falls back to the stored file stem")

	_, err = eng.UploadPDF("notes.txt", strings.NewReader("hello"))
	assert.ErrorIs(t, err, errors.ErrInvalidUpload)

	_, err = eng.UploadPDFs([]services.UploadFile{
		{Name: "a.pdf", Content: bytes.NewReader(fakePDF("travel"))},
		{Name: "b.docx", Content: strings.NewReader("x")},
	})
	assert.ErrorIs(t, err, errors.ErrInvalidUpload)
	assert.Equal(t, 1, eng.Health().Documents, "a rejected batch stores nothing")

	_, err = eng.UploadPDFs(nil)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	_, err = eng.JobStatus("does-not-exist")
	assert.ErrorIs(t, err, errors.ErrJobNotFound)
}

func TestEngine_UploadZip(t *testing.T) {
	eng := newTestEngine(t, &fakeStructurer{})

	archive := testutil.BuildZip(t,
		testutil.ZipMember{Name: "batch/guide.pdf", Data: fakePDF("travel")},
		testutil.ZipMember{Name: "batch/menu.pdf", Data: fakePDF("food")},
		testutil.ZipMember{Name: "__MACOSX/batch/._x.pdf", Data: fakePDF("travel")},
		testutil.ZipMember{Name: "batch/duplicate-menu.pdf", Data: fakePDF("food")},
	)

	results, err := eng.UploadZip(context.Background(), "batch.zip", archive)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		waitForJob(t, eng, r.JobIDs[0], model.JobStatusDone)
	}
	assert.Equal(t, 2, eng.Health().Documents)
}

func TestEngine_CancelJob(t *testing.T) {
	st := &fakeStructurer{release: make(chan struct{})}
	eng := newTestEngine(t, st)

	res, err := eng.UploadPDF("guide.pdf", bytes.NewReader(fakePDF("travel")))
	require.NoError(t, err)
	jobID := res.JobIDs[0]
	waitForJob(t, eng, jobID, model.JobStatusRunning)

	require.NoError(t, eng.CancelJob(jobID))
	job := waitForJob(t, eng, jobID, model.JobStatusCancelled)
	assert.Less(t, job.Progress, model.ProgressDone)

	assert.ErrorIs(t, eng.CancelJob(jobID), errors.ErrJobFinished)
	metrics := eng.JobMetrics()
	assert.Equal(t, int64(1), metrics.JobsCreated)
	assert.Equal(t, int64(1), metrics.JobsByStatus[model.JobStatusCancelled])
}

func TestEngine_LocalFiles(t *testing.T) {
	eng := newTestEngine(t, &fakeStructurer{})

	src := t.TempDir()
	for name, topic := range map[string]string{"guide.pdf": "travel", "menu.pdf": "food", "broken.pdf": "none"} {
		testutil.WriteFile(t, src, name, fakePDF(topic))
	}
	outDir := filepath.Join(t.TempDir(), "out")

	outcomes, err := eng.StructureFiles(context.Background(), []string{filepath.Join(src, "*.pdf")}, outDir, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		switch filepath.Base(o.Input) {
		case "broken.pdf":
			assert.ErrorIs(t, o.Err, errors.ErrEmptyStructure)
			assert.NoFileExists(t, o.Output)
		default:
			require.NoError(t, o.Err)
			assert.FileExists(t, filepath.Join(outDir, strings.TrimSuffix(filepath.Base(o.Input), ".pdf")+".json"))
		}
	}

	results, err := eng.IndexFiles(context.Background(), []string{filepath.Join(src, "*.pdf")}, indexing.BulkIndexingConfig{WorkerCount: 2})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err, fmt.Sprintf("indexing %s", r.Request.OrigName))
	}
	assert.Equal(t, 3, eng.Health().Documents)
}
