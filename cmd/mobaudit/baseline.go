package mobaudit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mobaudit/mobaudit/internal/engine"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage the accepted-findings baseline",
	}

	var path, out string
	update := &cobra.Command{
		Use:   "update",
		Short: "Record all current findings as accepted",
		RunE: func(_ *cobra.Command, _ []string) error {
			abs, _ := filepath.Abs(path)
			cfg := engine.Config{Root: abs, Threads: flagThreads, DefaultExcludes: true, NoCache: flagNoCache}
			results, err := engine.RunAll(context.Background(), cfg)
			if err != nil {
				return err
			}
			var all []types.Finding
			for _, res := range results {
				all = append(all, res.Findings...)
			}
			if err := suppress.SaveBaseline(out, all); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Baseline updated: %d findings recorded.\n", len(all))
			return nil
		},
	}
	update.Flags().StringVarP(&path, "path", "p", ".", "project root to scan")
	update.Flags().StringVarP(&out, "out", "o", "mobaudit.baseline.json", "baseline file to write")

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
