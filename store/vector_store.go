package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/gcbaptista/prism/internal/errors"
	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/persistence"
	"github.com/gcbaptista/prism/model"
)

const (
	vectorsFile  = "vectors.f32"
	mappingFile  = "mapping.jsonl"
	manifestFile = "manifest.json"
	lockFile     = ".lock"

	lockRetryDelay = 50 * time.Millisecond
)

// Manifest describes the committed contents of the vector index. Vectors and
// mapping rows beyond Count are uncommitted and ignored.
type Manifest struct {
	Version    int64     `json:"version"`
	Dimensions int       `json:"dimensions"`
	Count      int       `json:"count"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ScoredID is a vector id with its inner-product similarity to a query.
type ScoredID struct {
	VecID int
	Score float64
}

type vectorSnapshot struct {
	manifest Manifest
	vectors  []float32 // Count*Dimensions, row-major
	rows     []model.VectorRecord
}

// VectorStore is an append-only flat inner-product index persisted as raw
// little-endian float32 rows plus a JSON-lines mapping file.
//
// Writers are serialised twice: by an in-process mutex and by an advisory
// file lock, so separate processes sharing the data directory cannot
// interleave appends. Readers share an immutable snapshot that is reloaded
// when the manifest version on disk moves past it.
type VectorStore struct {
	dir  string
	lock *flock.Flock
	log  logger.Logger

	writeMu sync.Mutex

	mu   sync.RWMutex
	snap *vectorSnapshot
}

// NewVectorStore opens (or prepares) the index under dir.
func NewVectorStore(dir string, log logger.Logger) (*VectorStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create index directory %s: %w", dir, err)
	}
	return &VectorStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, lockFile)),
		log:  log,
	}, nil
}

func (vs *VectorStore) path(name string) string {
	return filepath.Join(vs.dir, name)
}

func (vs *VectorStore) readManifest() (Manifest, error) {
	var m Manifest
	err := persistence.LoadJSON(vs.path(manifestFile), &m)
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, nil
	}
	return m, err
}

// Add appends vectors and their mapping rows, assigning consecutive vector
// ids starting at the current count. Vectors are L2-normalised on write.
// Adding nothing is a no-op.
func (vs *VectorStore) Add(ctx context.Context, vectors [][]float32, rows []model.VectorRecord) ([]int, error) {
	if len(vectors) != len(rows) {
		return nil, fmt.Errorf("vector store: %d vectors for %d rows", len(vectors), len(rows))
	}
	if len(vectors) == 0 {
		return []int{}, nil
	}

	vs.writeMu.Lock()
	defer vs.writeMu.Unlock()

	locked, err := vs.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("vector store: acquiring write lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("vector store: write lock %s is held", vs.lock.Path())
	}
	defer func() {
		if err := vs.lock.Unlock(); err != nil {
			vs.log.Warn("Failed to release index lock", "error", err)
		}
	}()

	m, err := vs.readManifest()
	if err != nil {
		return nil, err
	}
	if m.Dimensions == 0 {
		m.Dimensions = len(vectors[0])
	}
	for i, v := range vectors {
		if len(v) != m.Dimensions {
			return nil, fmt.Errorf("vector store: vector %d has %d dimensions, index has %d", i, len(v), m.Dimensions)
		}
	}
	if err := vs.truncateUncommitted(m); err != nil {
		return nil, err
	}

	ids := make([]int, len(vectors))
	var vecBuf bytes.Buffer
	var rowBuf bytes.Buffer
	enc := json.NewEncoder(&rowBuf)
	for i, v := range vectors {
		normalized := normalizeCopy(v)
		if err := binary.Write(&vecBuf, binary.LittleEndian, normalized); err != nil {
			return nil, fmt.Errorf("vector store: encoding vector: %w", err)
		}
		row := rows[i]
		row.VecID = m.Count + i
		ids[i] = row.VecID
		if err := enc.Encode(row); err != nil {
			return nil, fmt.Errorf("vector store: encoding mapping row: %w", err)
		}
	}

	if err := appendFile(vs.path(vectorsFile), vecBuf.Bytes()); err != nil {
		return nil, err
	}
	if err := appendFile(vs.path(mappingFile), rowBuf.Bytes()); err != nil {
		return nil, err
	}

	m.Count += len(vectors)
	m.Version++
	m.UpdatedAt = time.Now().UTC()
	if err := persistence.SaveJSON(vs.path(manifestFile), m); err != nil {
		return nil, fmt.Errorf("vector store: committing manifest: %w", err)
	}

	vs.Invalidate()
	vs.log.Debug("Appended vectors", "count", len(vectors), "total", m.Count, "version", m.Version)
	return ids, nil
}

// truncateUncommitted drops bytes written by an append whose manifest
// commit never happened, so new ids line up with file positions.
func (vs *VectorStore) truncateUncommitted(m Manifest) error {
	want := int64(m.Count) * int64(m.Dimensions) * 4
	if info, err := os.Stat(vs.path(vectorsFile)); err == nil && info.Size() > want {
		vs.log.Warn("Discarding uncommitted vectors", "bytes", info.Size()-want)
		if err := os.Truncate(vs.path(vectorsFile), want); err != nil {
			return fmt.Errorf("vector store: truncating vectors: %w", err)
		}
	}

	f, err := os.Open(vs.path(mappingFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("vector store: opening mapping: %w", err)
	}
	defer f.Close()

	var offset int64
	reader := bufio.NewReader(f)
	for line := 0; line < m.Count; line++ {
		b, err := reader.ReadBytes('\n')
		offset += int64(len(b))
		if err != nil {
			break
		}
	}
	if info, err := f.Stat(); err == nil && info.Size() > offset {
		if err := os.Truncate(vs.path(mappingFile), offset); err != nil {
			return fmt.Errorf("vector store: truncating mapping: %w", err)
		}
	}
	return nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640) // #nosec G304 -- path is inside the data directory
	if err != nil {
		return fmt.Errorf("vector store: opening %s: %w", filepath.Base(path), err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("vector store: appending %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Invalidate drops the in-memory snapshot; the next read reloads from disk.
func (vs *VectorStore) Invalidate() {
	vs.mu.Lock()
	vs.snap = nil
	vs.mu.Unlock()
}

// snapshot returns the current read snapshot, loading it when missing or
// older than the manifest on disk.
func (vs *VectorStore) snapshot() (*vectorSnapshot, error) {
	m, err := vs.readManifest()
	if err != nil {
		return nil, err
	}
	if m.Count == 0 {
		return nil, errors.ErrIndexNotReady
	}

	vs.mu.RLock()
	snap := vs.snap
	vs.mu.RUnlock()
	if snap != nil && snap.manifest.Version >= m.Version {
		return snap, nil
	}

	vs.mu.Lock()
	defer vs.mu.Unlock()
	if vs.snap != nil && vs.snap.manifest.Version >= m.Version {
		return vs.snap, nil
	}
	loaded, err := vs.load(m)
	if err != nil {
		return nil, err
	}
	vs.snap = loaded
	return loaded, nil
}

func (vs *VectorStore) load(m Manifest) (*vectorSnapshot, error) {
	f, err := os.Open(vs.path(vectorsFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrIndexNotReady, err)
	}
	defer f.Close()

	vectors := make([]float32, m.Count*m.Dimensions)
	if err := binary.Read(io.LimitReader(f, int64(len(vectors))*4), binary.LittleEndian, vectors); err != nil {
		return nil, fmt.Errorf("vector store: reading vectors: %w", err)
	}

	mf, err := os.Open(vs.path(mappingFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrIndexNotReady, err)
	}
	defer mf.Close()

	rows := make([]model.VectorRecord, 0, m.Count)
	scanner := bufio.NewScanner(mf)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for len(rows) < m.Count && scanner.Scan() {
		var row model.VectorRecord
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			return nil, fmt.Errorf("vector store: mapping row %d: %w", len(rows), err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("vector store: reading mapping: %w", err)
	}
	if len(rows) != m.Count {
		return nil, fmt.Errorf("vector store: mapping has %d rows, manifest %d", len(rows), m.Count)
	}

	vs.log.Debug("Loaded vector index", "count", m.Count, "version", m.Version)
	return &vectorSnapshot{manifest: m, vectors: vectors, rows: rows}, nil
}

// Search returns the topK vector ids by inner product with query, best
// first. Ties go to the lower id. An index with no vectors reports
// errors.ErrIndexNotReady.
func (vs *VectorStore) Search(ctx context.Context, query []float32, topK int) ([]ScoredID, error) {
	snap, err := vs.snapshot()
	if err != nil {
		return nil, err
	}
	dims := snap.manifest.Dimensions
	if len(query) != dims {
		return nil, fmt.Errorf("vector store: query has %d dimensions, index has %d", len(query), dims)
	}
	q := normalizeCopy(query)

	scored := make([]ScoredID, snap.manifest.Count)
	for i := range scored {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row := snap.vectors[i*dims : (i+1)*dims]
		var dot float64
		for j, x := range row {
			dot += float64(x) * float64(q[j])
		}
		scored[i] = ScoredID{VecID: i, Score: dot}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if topK < len(scored) {
		scored = scored[:max(topK, 0)]
	}
	return scored, nil
}

// Resolve returns the mapping rows of ids, skipping unknown ids.
func (vs *VectorStore) Resolve(ids []int) ([]model.VectorRecord, error) {
	snap, err := vs.snapshot()
	if err != nil {
		return nil, err
	}
	rows := make([]model.VectorRecord, 0, len(ids))
	for _, id := range ids {
		if id >= 0 && id < len(snap.rows) {
			rows = append(rows, snap.rows[id])
		}
	}
	return rows, nil
}

// Manifest returns the committed manifest; an empty index has Count 0.
func (vs *VectorStore) Manifest() (Manifest, error) {
	return vs.readManifest()
}

func normalizeCopy(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
