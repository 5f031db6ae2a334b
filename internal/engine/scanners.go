package engine

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/mobaudit/mobaudit/internal/cache"
	"github.com/mobaudit/mobaudit/internal/catalog"
	"github.com/mobaudit/mobaudit/internal/logging"
	"github.com/mobaudit/mobaudit/internal/scanners/deps"
	"github.com/mobaudit/mobaudit/internal/scanners/network"
	"github.com/mobaudit/mobaudit/internal/scanners/secrets"
	"github.com/mobaudit/mobaudit/internal/scanners/storage"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

// NewPolicy builds the shared suppression policy from the built-ins plus
// any operator allowlist and baseline files named in cfg.
func NewPolicy(cfg Config) (*suppress.Policy, error) {
	pol := suppress.NewPolicy()
	if cfg.SuppressionFile != "" {
		if err := pol.LoadFile(cfg.SuppressionFile); err != nil {
			return nil, err
		}
	}
	if cfg.BaselineFile != "" {
		b, err := suppress.LoadBaseline(cfg.BaselineFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		pol.UseBaseline(b)
	}
	return pol, nil
}

// NewScanner wires one category's rule table to the shared policy.
func NewScanner(category types.Category, pol *suppress.Policy, cfg Config) (*Scanner, error) {
	s := &Scanner{category: category, pol: pol}
	switch category {
	case types.CatSecrets:
		s.set = secrets.NewRules(pol)
	case types.CatDependencies:
		opts := deps.Options{StaleAfter: cfg.StaleAfter, Now: cfg.Now}
		if cfg.DenylistFile != "" {
			d, err := deps.LoadDenylist(cfg.DenylistFile)
			if err != nil {
				return nil, err
			}
			opts.Denylist = d
		}
		if cfg.ReleaseMetaFile != "" {
			m, err := deps.LoadReleaseMeta(cfg.ReleaseMetaFile)
			if err != nil {
				return nil, err
			}
			opts.Releases = m
		}
		s.set = deps.NewRules(pol, opts)
	case types.CatNetwork:
		s.set = network.NewRules(pol)
		s.post = network.Finalize
	case types.CatStorage:
		s.set = storage.NewRules(pol)
	default:
		return nil, fmt.Errorf("unknown category %q", category)
	}
	return s, nil
}

// BuildCatalog snapshots the tree once for any number of scanners.
func BuildCatalog(cfg Config) (*catalog.Catalog, error) {
	return catalog.Build(cfg.Root, catalog.Options{
		IncludeGlobs:    cfg.IncludeGlobs,
		ExcludeGlobs:    cfg.ExcludeGlobs,
		MaxBytes:        cfg.MaxBytes,
		DefaultExcludes: cfg.DefaultExcludes,
	})
}

// Run executes a single category scan end to end. Only a bad root is fatal.
func Run(ctx context.Context, cfg Config, category types.Category) (Result, error) {
	cat, err := BuildCatalog(cfg)
	if err != nil {
		return Result{}, err
	}
	pol, err := NewPolicy(cfg)
	if err != nil {
		return Result{}, err
	}
	s, err := NewScanner(category, pol, cfg)
	if err != nil {
		return Result{}, err
	}
	return s.Scan(ctx, cat, cfg), nil
}

// RunAll executes the four category scanners concurrently over one shared
// catalog snapshot. Results come back in canonical category order.
func RunAll(ctx context.Context, cfg Config) ([]Result, error) {
	cat, err := BuildCatalog(cfg)
	if err != nil {
		return nil, err
	}
	pol, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}

	cats := types.Categories()
	scanners := make([]*Scanner, len(cats))
	for i, c := range cats {
		if scanners[i], err = NewScanner(c, pol, cfg); err != nil {
			return nil, err
		}
	}

	// one shared store so the concurrent categories accumulate into a
	// single cache snapshot, written once after all of them finish
	var store *cache.Store
	if !cfg.NoCache {
		store = cache.Open(cat.Root, RulesetVersion)
	}

	results := make([]Result, len(scanners))
	var wg sync.WaitGroup
	for i, s := range scanners {
		wg.Add(1)
		go func(i int, s *Scanner) {
			defer wg.Done()
			results[i] = s.scan(ctx, cat, cfg, store)
		}(i, s)
	}
	wg.Wait()

	if store != nil {
		if err := store.Save(cat.Root); err != nil {
			logging.L.Debugw("cache save failed", "error", err)
		}
	}
	return results, nil
}
