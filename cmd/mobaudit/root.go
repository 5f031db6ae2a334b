package mobaudit

import (
	"fmt"
	"os"

	"github.com/mobaudit/mobaudit/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagThreads int
	flagNoCache bool
	flagFailOn  string
	flagDebug   bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the mobaudit CLI.
var rootCmd = &cobra.Command{
	Use:           "mobaudit",
	Short:         "Static security audit for mobile app projects",
	Long:          "Mobaudit statically scans a mobile application project (Flutter, Android, iOS) for hardcoded secrets, risky dependency constraints, insecure network configuration and unsafe local storage, and emits deterministic JSON or SARIF reports.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.Init(flagDebug)
	},
}

// Execute runs the mobaudit CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable the incremental results cache")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "", "exit 1 when a finding at or above this severity survives (LOW|MEDIUM|HIGH|CRITICAL; empty disables)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "verbose diagnostic logging")
}
