package cache

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mobaudit/mobaudit/internal/types"
)

func TestRoundTrip(t *testing.T) {
	root := t.TempDir()
	db := DB{RulesetVersion: "v1", Entries: map[string]Entry{
		Key(types.CatSecrets, "lib/a.dart"): {
			Hash:     Hash([]byte("content")),
			Findings: []types.Finding{{RuleID: "secret-aws-access-key", FilePath: "lib/a.dart", Line: 3}},
		},
	}}
	if err := Save(root, db); err != nil {
		t.Fatal(err)
	}

	got := Load(root, "v1")
	e, ok := got.Entries[Key(types.CatSecrets, "lib/a.dart")]
	if !ok {
		t.Fatal("entry missing after reload")
	}
	if len(e.Findings) != 1 || e.Findings[0].RuleID != "secret-aws-access-key" {
		t.Fatalf("findings not replayed: %+v", e.Findings)
	}
}

func TestStore_ConcurrentPutsAccumulate(t *testing.T) {
	root := t.TempDir()
	s := Open(root, "v1")

	cats := []types.Category{types.CatSecrets, types.CatDependencies, types.CatNetwork, types.CatStorage}
	var wg sync.WaitGroup
	for _, c := range cats {
		wg.Add(1)
		go func(c types.Category) {
			defer wg.Done()
			s.Put(Key(c, "lib/a.dart"), "aa", nil)
		}(c)
	}
	wg.Wait()
	if err := s.Save(root); err != nil {
		t.Fatal(err)
	}

	got := Load(root, "v1")
	for _, c := range cats {
		if _, ok := got.Entries[Key(c, "lib/a.dart")]; !ok {
			t.Errorf("entry for %s lost", c)
		}
	}
}

func TestStore_LookupChecksHash(t *testing.T) {
	s := Open(t.TempDir(), "v1")
	s.Put("secrets|lib/a.dart", "aa", []types.Finding{{RuleID: "r"}})

	if fs, ok := s.Lookup("secrets|lib/a.dart", "aa"); !ok || len(fs) != 1 {
		t.Fatalf("matching hash should replay, got ok=%v fs=%v", ok, fs)
	}
	if _, ok := s.Lookup("secrets|lib/a.dart", "bb"); ok {
		t.Error("stale hash must miss")
	}
}

func TestLoad_RulesetMismatchDropsCache(t *testing.T) {
	root := t.TempDir()
	db := DB{RulesetVersion: "v1", Entries: map[string]Entry{"secrets|x": {Hash: "00"}}}
	if err := Save(root, db); err != nil {
		t.Fatal(err)
	}
	got := Load(root, "v2")
	if len(got.Entries) != 0 {
		t.Fatal("stale cache should be discarded")
	}
	if got.RulesetVersion != "v2" {
		t.Fatalf("reset version = %q", got.RulesetVersion)
	}
}

func TestLoad_MissingOrCorrupt(t *testing.T) {
	root := t.TempDir()
	if got := Load(root, "v1"); len(got.Entries) != 0 {
		t.Fatal("missing cache should be empty")
	}
	if err := os.WriteFile(filepath.Join(root, ".mobaudit_cache.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Load(root, "v1"); len(got.Entries) != 0 {
		t.Fatal("corrupt cache should be empty")
	}
}

func TestSave_PrefersGitDir(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Save(root, DB{RulesetVersion: "v1", Entries: map[string]Entry{}}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, ".git", "mobaudit_cache.json")); err != nil {
		t.Fatal("cache should live under .git when present")
	}
}

func TestHash(t *testing.T) {
	a, b := Hash([]byte("a")), Hash([]byte("b"))
	if a == b {
		t.Fatal("distinct content must hash differently")
	}
	if len(a) != 16 {
		t.Fatalf("hash width = %d", len(a))
	}
	if Hash(nil) != Hash([]byte{}) {
		t.Fatal("empty content hash must be stable")
	}
}
