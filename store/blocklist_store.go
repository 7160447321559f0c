package store

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/gcbaptista/prism/internal/logger"
	"github.com/gcbaptista/prism/internal/persistence"
)

// BlocklistEnvVar names the environment variable holding extra blocked
// document ids, comma separated.
const BlocklistEnvVar = "PRISM_BLOCK_DOCS"

type blocklistFile struct {
	DocIDs []string `json:"docIds"`
}

// BlocklistStore keeps the set of document ids excluded from retrieval.
// The file is re-read on every call, so edits by other processes are seen
// immediately; malformed content is treated as an empty list.
type BlocklistStore struct {
	path  string
	extra []string
	log   logger.Logger

	mu sync.Mutex
}

// NewBlocklistStore manages the blocklist at path. extra ids (from config
// and the environment) are always blocked and cannot be removed.
func NewBlocklistStore(path string, extra []string, log logger.Logger) *BlocklistStore {
	ids := cleanIDs(extra)
	if env := os.Getenv(BlocklistEnvVar); env != "" {
		ids = cleanIDs(append(ids, strings.Split(env, ",")...))
	}
	return &BlocklistStore{path: path, extra: ids, log: log}
}

// fileIDs reads the ids stored in the file. Both {"docIds": [...]} and a bare
// JSON array are accepted.
func (bs *BlocklistStore) fileIDs() []string {
	data, err := os.ReadFile(bs.path)
	if err != nil {
		if !os.IsNotExist(err) {
			bs.log.Warn("Ignoring unreadable blocklist", "path", bs.path, "error", err)
		}
		return nil
	}
	var wrapped blocklistFile
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return cleanIDs(wrapped.DocIDs)
	}
	var bare []string
	if err := json.Unmarshal(data, &bare); err == nil {
		return cleanIDs(bare)
	}
	bs.log.Warn("Ignoring malformed blocklist", "path", bs.path)
	return nil
}

func (bs *BlocklistStore) save(ids []string) ([]string, error) {
	ids = cleanIDs(ids)
	if err := persistence.SaveJSON(bs.path, blocklistFile{DocIDs: ids}); err != nil {
		return nil, err
	}
	return ids, nil
}

// List returns the ids stored in the blocklist file, sorted.
func (bs *BlocklistStore) List() []string {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.fileIDs()
}

// Blocked returns the effective blocked set: file ids plus the fixed ids.
func (bs *BlocklistStore) Blocked() map[string]struct{} {
	bs.mu.Lock()
	ids := bs.fileIDs()
	bs.mu.Unlock()

	set := make(map[string]struct{}, len(ids)+len(bs.extra))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, id := range bs.extra {
		set[id] = struct{}{}
	}
	return set
}

// Add blocks ids and returns the stored list.
func (bs *BlocklistStore) Add(ids ...string) ([]string, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	return bs.save(append(bs.fileIDs(), ids...))
}

// Remove unblocks ids and returns the stored list.
func (bs *BlocklistStore) Remove(ids ...string) ([]string, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[strings.TrimSpace(id)] = struct{}{}
	}
	current := bs.fileIDs()
	kept := make([]string, 0, len(current))
	for _, id := range current {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	return bs.save(kept)
}

// Clear empties the stored list.
func (bs *BlocklistStore) Clear() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	_, err := bs.save(nil)
	return err
}

// cleanIDs trims, drops empties, de-duplicates and sorts ids.
func cleanIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
