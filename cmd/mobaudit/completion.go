package mobaudit

import (
	"os"

	"github.com/spf13/cobra"
)

// completionCmd prints a completion script for the named shell on stdout.
var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Print a shell completion script",
	Long: `Print a completion script for one of the supported shells.

Source the output from the shell's init file, for example:

  mobaudit completion bash > /etc/bash_completion.d/mobaudit
  mobaudit completion zsh  > "${fpath[1]}/_mobaudit"
  mobaudit completion fish > ~/.config/fish/completions/mobaudit.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		switch args[0] {
		case "zsh":
			return root.GenZshCompletion(os.Stdout)
		case "fish":
			return root.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return root.GenBashCompletion(os.Stdout)
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
