package mobaudit

import (
	"fmt"
	"os"

	"github.com/mobaudit/mobaudit/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgOutput          string
	cfgThreads         int
	cfgMaxBytes        int64
	cfgSuppressions    string
	cfgDenylist        string
	cfgStaleDays       int
	cfgFailOn          string
	cfgDefaultExcludes bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .mobaudit.yml with the selected options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".mobaudit.yml", "output file path")
	initCmd.Flags().IntVar(&cfgThreads, "threads", 0, "worker threads (0=GOMAXPROCS)")
	initCmd.Flags().Int64Var(&cfgMaxBytes, "max-bytes", 1<<20, "skip files larger than this")
	initCmd.Flags().StringVar(&cfgSuppressions, "suppressions", "", "suppression policy file to reference")
	initCmd.Flags().StringVar(&cfgDenylist, "denylist", "", "dependency denylist file to reference")
	initCmd.Flags().IntVar(&cfgStaleDays, "stale-days", 0, "staleness threshold in days (0 = built-in default)")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "", "severity threshold for exit code 1")
	initCmd.Flags().BoolVar(&cfgDefaultExcludes, "default-excludes", true, "enable built-in exclude patterns")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	var cfg config.FileConfig
	if cfgThreads != 0 {
		cfg.Threads = &cfgThreads
	}
	if cfgMaxBytes != 0 {
		cfg.MaxBytes = &cfgMaxBytes
	}
	if cfgSuppressions != "" {
		cfg.Suppressions = &cfgSuppressions
	}
	if cfgDenylist != "" {
		cfg.Denylist = &cfgDenylist
	}
	if cfgStaleDays != 0 {
		cfg.StaleDays = &cfgStaleDays
	}
	if cfgFailOn != "" {
		cfg.FailOn = &cfgFailOn
	}
	cfg.DefaultExcludes = &cfgDefaultExcludes

	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Wrote", cfgOutput)
	return nil
}
