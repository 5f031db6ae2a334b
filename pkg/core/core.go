package core

import (
	"context"

	"github.com/mobaudit/mobaudit/internal/engine"
	"github.com/mobaudit/mobaudit/internal/gitinfo"
	"github.com/mobaudit/mobaudit/internal/report"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type (
	Config     = engine.Config
	Finding    = types.Finding
	Category   = types.Category
	Severity   = types.Severity
	Report     = report.ScanReport
	ReportOpts = report.Options
)

// Canonical category names accepted by Scan.
const (
	Secrets      = types.CatSecrets
	Dependencies = types.CatDependencies
	Network      = types.CatNetwork
	Storage      = types.CatStorage
)

// Scan runs a single category and assembles its report.
func Scan(ctx context.Context, cfg Config, category Category) (Report, error) {
	res, err := engine.Run(ctx, cfg, category)
	if err != nil {
		return Report{}, err
	}
	return report.Build(res, report.Options{Git: gitinfo.Resolve(cfg.Root)}), nil
}

// ScanAll runs every category over one catalog snapshot and returns the
// per-category reports in canonical order.
func ScanAll(ctx context.Context, cfg Config) ([]Report, error) {
	results, err := engine.RunAll(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts := report.Options{Git: gitinfo.Resolve(cfg.Root)}
	reports := make([]Report, 0, len(results))
	for _, res := range results {
		reports = append(reports, report.Build(res, opts))
	}
	return reports, nil
}

// RuleIDs returns the built-in rule IDs for a category.
// This is exposed for convenience to avoid importing internals directly.
func RuleIDs(category Category) ([]string, error) {
	s, err := engine.NewScanner(category, suppress.NewPolicy(), engine.Config{})
	if err != nil {
		return nil, err
	}
	return s.RuleIDs(), nil
}
