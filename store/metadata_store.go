package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/persistence"
	"github.com/gcbaptista/prism/model"
)

const (
	sectionsSuffix  = "_sections.json"
	sentencesSuffix = "_sentences.json"
	outlineSuffix   = "_outline.json"
)

// MetadataStore persists per-document section, sentence and outline records
// as JSON files and caches sentence lists for the query path.
type MetadataStore struct {
	dir   string
	cache *lru.Cache[string, []model.SentenceRecord]
	group singleflight.Group
}

// NewMetadataStore opens the metadata directory dir with a sentence cache of
// cacheSize documents.
func NewMetadataStore(dir string, cacheSize int) (*MetadataStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory %s: %w", dir, err)
	}
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, []model.SentenceRecord](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("init sentence cache: %w", err)
	}
	return &MetadataStore{dir: dir, cache: cache}, nil
}

func (ms *MetadataStore) path(docID, suffix string) string {
	return filepath.Join(ms.dir, docID+suffix)
}

// SaveSections writes the section metadata of one document.
func (ms *MetadataStore) SaveSections(meta model.SectionsMeta) error {
	return persistence.SaveJSON(ms.path(meta.DocID, sectionsSuffix), meta)
}

// Sections loads the section metadata of docID.
func (ms *MetadataStore) Sections(docID string) (*model.SectionsMeta, error) {
	var meta model.SectionsMeta
	if err := persistence.LoadJSON(ms.path(docID, sectionsSuffix), &meta); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.NewDocumentNotFoundError(docID)
		}
		return nil, err
	}
	return &meta, nil
}

// SaveOutline writes the outline of one document.
func (ms *MetadataStore) SaveOutline(docID string, outline model.Outline) error {
	return persistence.SaveJSON(ms.path(docID, outlineSuffix), outline)
}

// Outline loads the outline of docID.
func (ms *MetadataStore) Outline(docID string) (*model.Outline, error) {
	var outline model.Outline
	if err := persistence.LoadJSON(ms.path(docID, outlineSuffix), &outline); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.NewDocumentNotFoundError(docID)
		}
		return nil, err
	}
	return &outline, nil
}

// SaveSentences writes the sentence metadata of one document and drops its
// cached copy.
func (ms *MetadataStore) SaveSentences(meta model.SentencesMeta) error {
	if err := persistence.SaveJSON(ms.path(meta.DocID, sentencesSuffix), meta); err != nil {
		return err
	}
	ms.Invalidate(meta.DocID)
	return nil
}

// Sentences returns the sentence list of docID. Unknown documents yield an
// empty list. Concurrent loads of the same document share one disk read.
func (ms *MetadataStore) Sentences(docID string) ([]model.SentenceRecord, error) {
	if sents, ok := ms.cache.Get(docID); ok {
		return sents, nil
	}
	v, err, _ := ms.group.Do(docID, func() (any, error) {
		var meta model.SentencesMeta
		err := persistence.LoadJSON(ms.path(docID, sentencesSuffix), &meta)
		if errors.Is(err, os.ErrNotExist) {
			meta.Sentences = []model.SentenceRecord{}
		} else if err != nil {
			return nil, err
		}
		if meta.Sentences == nil {
			meta.Sentences = []model.SentenceRecord{}
		}
		ms.cache.Add(docID, meta.Sentences)
		return meta.Sentences, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]model.SentenceRecord), nil
}

// SectionText joins the sentences of one section until at least maxChars
// characters have been collected.
func (ms *MetadataStore) SectionText(docID, sectionID string, maxChars int) string {
	sents, err := ms.Sentences(docID)
	if err != nil {
		return ""
	}
	var out []string
	n := 0
	for _, s := range sents {
		if s.SectionID != sectionID {
			continue
		}
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		out = append(out, t)
		n += len([]rune(t))
		if n >= maxChars {
			break
		}
	}
	return strings.Join(out, " ")
}

// Invalidate drops the cached sentences of docID.
func (ms *MetadataStore) Invalidate(docID string) {
	ms.cache.Remove(docID)
}

// DocumentIDs lists the documents with section metadata, sorted.
func (ms *MetadataStore) DocumentIDs() ([]string, error) {
	entries, err := os.ReadDir(ms.dir)
	if err != nil {
		return nil, fmt.Errorf("listing metadata: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && strings.HasSuffix(name, sectionsSuffix) {
			ids = append(ids, strings.TrimSuffix(name, sectionsSuffix))
		}
	}
	sort.Strings(ids)
	return ids, nil
}
