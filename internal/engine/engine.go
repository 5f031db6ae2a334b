// Package engine orchestrates the four category scanners: catalog
// construction, bounded-parallel rule evaluation, suppression, and the
// hand-off to report building. The four scanners share one read-only
// catalog snapshot and one suppression policy; they never share mutable
// state.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/mobaudit/mobaudit/internal/cache"
	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/logging"
	"github.com/mobaudit/mobaudit/internal/rules"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

// RulesetVersion identifies the built-in rule tables. Bumped whenever a
// rule's behavior changes, which also invalidates the results cache.
const RulesetVersion = "2026.08"

// Config controls one scan invocation.
type Config struct {
	Root            string
	IncludeGlobs    string
	ExcludeGlobs    string
	MaxBytes        int64
	Threads         int
	DefaultExcludes bool
	NoCache         bool

	// operator-supplied configuration inputs
	SuppressionFile string
	BaselineFile    string
	DenylistFile    string
	ReleaseMetaFile string
	StaleAfter      time.Duration

	// test seam for the dependency staleness clock
	Now func() time.Time
}

// Result is the raw outcome of one category scan, before report assembly.
type Result struct {
	Category     types.Category
	Findings     []types.Finding
	FilesScanned int
	Skipped      []catalog.Skip
	Incomplete   bool
	Fingerprint  string // stable digest of the scanned content
	Duration     time.Duration
}

// Scanner runs one category's rule set over a catalog.
type Scanner struct {
	category types.Category
	set      *rules.Set
	pol      *suppress.Policy
	// post runs project-level passes after per-file evaluation and before
	// suppression (e.g. the missing-pinning heuristic).
	post func(cat *catalog.Catalog, pol *suppress.Policy, fs []types.Finding) []types.Finding
}

func (s *Scanner) Category() types.Category { return s.category }

// RuleIDs lists the scanner's rule IDs in table order.
func (s *Scanner) RuleIDs() []string { return s.set.IDs() }

// Scan evaluates the category rules over the catalog with a bounded worker
// pool. The context deadline aborts cleanly: files already evaluated are
// kept and the result is tagged incomplete. Worker count never affects the
// produced findings, only the wall time.
func (s *Scanner) Scan(ctx context.Context, cat *catalog.Catalog, cfg Config) Result {
	var store *cache.Store
	if !cfg.NoCache {
		store = cache.Open(cat.Root, RulesetVersion)
	}
	res := s.scan(ctx, cat, cfg, store)
	if store != nil {
		if err := store.Save(cat.Root); err != nil {
			logging.L.Debugw("cache save failed", "error", err)
		}
	}
	return res
}

// scan is the worker-pool core. The store may be shared with scanners of
// other categories running concurrently; the caller owns loading and saving
// it, so one on-disk snapshot holds every category's entries.
func (s *Scanner) scan(ctx context.Context, cat *catalog.Catalog, cfg Config, store *cache.Store) Result {
	started := time.Now()
	res := Result{Category: s.category}

	files := cat.Files
	perFile := make([][]types.Finding, len(files))
	skips := make([]*catalog.Skip, len(files))
	hashes := make([]string, len(files))

	workers := cfg.Threads
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > 32 {
		workers = 32
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				f := files[i]
				applicable := s.set.ForRole(f.Role)
				data, err := f.Content()
				if err != nil {
					skips[i] = &catalog.Skip{Path: f.Path, Reason: err.Error()}
					continue
				}
				hashes[i] = cache.Hash(data)
				if len(applicable) == 0 {
					continue
				}
				if catalog.LooksBinary(data) || catalog.LooksNonTextMIME(f.Path, data) {
					continue
				}

				key := cache.Key(s.category, f.Path)
				if store != nil {
					if cached, ok := store.Lookup(key, hashes[i]); ok {
						perFile[i] = cached
						continue
					}
				}

				var out []types.Finding
				for _, r := range applicable {
					fs, rerr := r.Evaluate(f.Path, data)
					if rerr != nil {
						// isolated to this rule/file pair
						logging.L.Warnw("rule evaluation failed",
							"rule", r.ID(), "path", f.Path, "error", rerr)
						continue
					}
					out = append(out, fs...)
				}
				perFile[i] = out
				if store != nil {
					store.Put(key, hashes[i], out)
				}
			}
		}()
	}

	dispatched := 0
	deadlineHit := false
dispatch:
	for i := range files {
		if ctx.Err() != nil {
			deadlineHit = true
			break
		}
		select {
		case <-ctx.Done():
			deadlineHit = true
			break dispatch
		case jobs <- i:
			dispatched++
		}
	}
	close(jobs)
	wg.Wait()

	// deterministic merge in catalog order
	var merged []types.Finding
	digest := xxhash.New()
	for i := 0; i < dispatched; i++ {
		merged = append(merged, perFile[i]...)
		_, _ = digest.WriteString(files[i].Path)
		_, _ = digest.WriteString(hashes[i])
	}
	res.FilesScanned = dispatched

	// files the catalog walk or the workers could not read degrade to LOW
	// informational findings rather than aborting the scan
	res.Skipped = append(res.Skipped, cat.Skipped...)
	for i := 0; i < dispatched; i++ {
		if skips[i] != nil {
			res.Skipped = append(res.Skipped, *skips[i])
		}
	}
	for _, sk := range res.Skipped {
		merged = append(merged, types.Finding{
			RuleID:     "file-unreadable",
			Category:   s.category,
			Severity:   types.SevLow,
			Confidence: types.ConfHigh,
			FilePath:   sk.Path,
			Message:    fmt.Sprintf("file could not be analyzed: %s", sk.Reason),
		})
		_, _ = digest.WriteString(sk.Path)
	}
	res.Incomplete = deadlineHit || len(res.Skipped) > 0

	// project-level passes read the catalog themselves, so they only run
	// when the deadline has not already cut the scan short
	if s.post != nil && !deadlineHit {
		merged = s.post(cat, s.pol, merged)
	}

	var kept []types.Finding
	for _, f := range merged {
		if out, keep := s.pol.Apply(f); keep {
			kept = append(kept, out)
		}
	}
	res.Findings = kept
	res.Fingerprint = fmt.Sprintf("%016x", digest.Sum64())
	res.Duration = time.Since(started)
	return res
}
