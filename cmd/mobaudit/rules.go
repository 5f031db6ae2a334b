package mobaudit

import (
	"fmt"

	"github.com/mobaudit/mobaudit/internal/engine"
	"github.com/mobaudit/mobaudit/internal/suppress"
	"github.com/mobaudit/mobaudit/internal/types"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List built-in rule IDs by category",
		RunE: func(_ *cobra.Command, _ []string) error {
			pol := suppress.NewPolicy()
			for _, c := range types.Categories() {
				s, err := engine.NewScanner(c, pol, engine.Config{})
				if err != nil {
					return err
				}
				for _, id := range s.RuleIDs() {
					fmt.Printf("%s\t%s\n", c, id)
				}
			}
			return nil
		},
	}
	rootCmd.AddCommand(cmd)
}
