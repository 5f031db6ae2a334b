package mobaudit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mobaudit/mobaudit/internal/config"
	"github.com/mobaudit/mobaudit/internal/engine"
	"github.com/mobaudit/mobaudit/internal/gitinfo"
	"github.com/mobaudit/mobaudit/internal/report"
	"github.com/mobaudit/mobaudit/internal/types"
	"github.com/spf13/cobra"
)

var (
	flagPath            string
	flagCategory        string
	flagOut             string
	flagSARIF           bool
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagTimeout         time.Duration
	flagSuppressions    string
	flagBaseline        string
	flagDenylist        string
	flagReleaseMeta     string
	flagStaleDays       int
	flagDefaultExcludes bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a mobile project tree",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "project root to scan")
	cmd.Flags().StringVar(&flagCategory, "category", "all", "category to run: secrets|dependencies|network|storage|all")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0 instead of the native JSON report")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "abort the scan after this duration (0 = no limit)")
	cmd.Flags().StringVar(&flagSuppressions, "suppressions", "", "YAML suppression policy file")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file of accepted findings")
	cmd.Flags().StringVar(&flagDenylist, "denylist", "", "YAML advisory denylist for dependency checks")
	cmd.Flags().StringVar(&flagReleaseMeta, "release-metadata", "", "YAML package release dates for staleness checks")
	cmd.Flags().IntVar(&flagStaleDays, "stale-days", 0, "age in days before a pinned dependency counts as stale (0 = default)")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (build output, vendored tools, images, etc.)")
}

func runScan(cmd *cobra.Command, _ []string) error {
	abs, _ := filepath.Abs(flagPath)
	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(abs); err == nil {
		lcfg = c
	}

	// Timeout precedence: CLI > local > global
	timeout := flagTimeout
	if !cmd.Flags().Changed("timeout") {
		if lcfg.Timeout != nil {
			if d, err := time.ParseDuration(*lcfg.Timeout); err == nil {
				timeout = d
			}
		} else if gcfg.Timeout != nil {
			if d, err := time.ParseDuration(*gcfg.Timeout); err == nil {
				timeout = d
			}
		}
	}

	cfg := engine.Config{
		Root:            abs,
		IncludeGlobs:    pickString(flagInclude, lcfg.Include, gcfg.Include),
		ExcludeGlobs:    pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		MaxBytes:        pickInt64(flagMaxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		DefaultExcludes: flagDefaultExcludes,
		NoCache:         pickBool(flagNoCache, lcfg.NoCache, gcfg.NoCache),
		SuppressionFile: pickString(flagSuppressions, lcfg.Suppressions, gcfg.Suppressions),
		BaselineFile:    pickString(flagBaseline, lcfg.Baseline, gcfg.Baseline),
		DenylistFile:    pickString(flagDenylist, lcfg.Denylist, gcfg.Denylist),
		ReleaseMetaFile: pickString(flagReleaseMeta, lcfg.ReleaseMeta, gcfg.ReleaseMeta),
	}
	if days := pickInt(flagStaleDays, lcfg.StaleDays, gcfg.StaleDays); days > 0 {
		cfg.StaleAfter = time.Duration(days) * 24 * time.Hour
	}

	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := report.Options{ToolVersion: version, Git: gitinfo.Resolve(abs)}

	var reports []report.ScanReport
	if flagCategory == "all" {
		results, err := engine.RunAll(ctx, cfg)
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		for _, res := range results {
			reports = append(reports, report.Build(res, opts))
		}
	} else {
		category, ok := parseCategory(flagCategory)
		if !ok {
			return fmt.Errorf("unknown category %q (want secrets, dependencies, network, storage or all)", flagCategory)
		}
		res, err := engine.Run(ctx, cfg, category)
		if err != nil {
			return fmt.Errorf("scan error: %w", err)
		}
		reports = append(reports, report.Build(res, opts))
	}

	out := io.Writer(os.Stdout)
	if flagOut != "" {
		f, err := os.Create(flagOut)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch {
	case flagSARIF && len(reports) == 1:
		if err := report.WriteSARIF(out, reports[0]); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagSARIF:
		if err := report.WriteSARIFAll(out, reports); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case len(reports) == 1:
		if err := report.WriteJSON(out, reports[0]); err != nil {
			return err
		}
	default:
		if err := report.WriteJSON(out, report.Merge(reports)); err != nil {
			return err
		}
	}

	if threshold := pickString(flagFailOn, lcfg.FailOn, gcfg.FailOn); threshold != "" {
		min, ok := types.ParseSeverity(threshold)
		if !ok {
			return fmt.Errorf("unknown --fail-on severity %q", threshold)
		}
		for _, r := range reports {
			for _, f := range r.Findings {
				if f.Severity.Rank() >= min.Rank() {
					os.Exit(1)
				}
			}
		}
	}
	return nil
}

func parseCategory(s string) (types.Category, bool) {
	if s == "deps" {
		return types.CatDependencies, true
	}
	for _, c := range types.Categories() {
		if s == string(c) {
			return c, true
		}
	}
	return "", false
}
