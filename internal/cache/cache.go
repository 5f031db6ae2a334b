// Package cache persists per-file scan results keyed by content hash, so
// repeated scans of an unchanged tree replay findings instead of
// re-evaluating every rule. Replay keeps reports complete; this is a
// results cache, not a skip list.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/mobaudit/mobaudit/internal/types"
)

// Entry stores the raw (pre-suppression) findings for one file at one
// content hash. Suppression is re-applied on every run so policy changes
// take effect without invalidating the cache.
type Entry struct {
	Hash     string          `json:"hash"`
	Findings []types.Finding `json:"findings"`
}

// DB is the on-disk cache. Keys are "<category>|<relative path>".
type DB struct {
	RulesetVersion string           `json:"rulesetVersion"`
	Entries        map[string]Entry `json:"entries"`
}

// Store is a concurrency-safe handle over one loaded DB. Scanners running
// in parallel share a single Store so their entries accumulate into one
// snapshot that is written to disk exactly once.
type Store struct {
	mu sync.Mutex
	db DB
}

// Open loads the cache for a scan root into a shared Store.
func Open(root, rulesetVersion string) *Store {
	return &Store{db: Load(root, rulesetVersion)}
}

// Lookup returns the cached findings for a key when the content hash still
// matches.
func (s *Store) Lookup(key, hash string) ([]types.Finding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.db.Entries[key]
	if !ok || e.Hash != hash {
		return nil, false
	}
	return e.Findings, true
}

// Put records the findings for a key at a content hash.
func (s *Store) Put(key, hash string, findings []types.Finding) {
	s.mu.Lock()
	s.db.Entries[key] = Entry{Hash: hash, Findings: findings}
	s.mu.Unlock()
}

// Save writes the accumulated snapshot back to disk.
func (s *Store) Save(root string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Save(root, s.db)
}

// Key builds the cache key for a category/path pair.
func Key(cat types.Category, path string) string {
	return string(cat) + "|" + path
}

func defaultPath(root string) string {
	// store under .git when present to avoid accidental commits
	gitDir := filepath.Join(root, ".git")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		return filepath.Join(gitDir, "mobaudit_cache.json")
	}
	return filepath.Join(root, ".mobaudit_cache.json")
}

// Load reads the cache for a scan root. A missing or stale cache (ruleset
// version mismatch) yields an empty DB.
func Load(root, rulesetVersion string) DB {
	empty := DB{RulesetVersion: rulesetVersion, Entries: map[string]Entry{}}
	b, err := os.ReadFile(defaultPath(root))
	if err != nil {
		return empty
	}
	var db DB
	if err := json.Unmarshal(b, &db); err != nil {
		return empty
	}
	if db.RulesetVersion != rulesetVersion || db.Entries == nil {
		return empty
	}
	return db
}

// Save writes the cache back. Best effort; callers log and continue on error.
func Save(root string, db DB) error {
	if db.Entries == nil {
		return errors.New("empty cache")
	}
	b, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(defaultPath(root), b, 0o644)
}

// Hash returns the xxhash of file content as fixed-width hex.
func Hash(b []byte) string {
	if len(b) == 0 {
		return "0000000000000000"
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}
