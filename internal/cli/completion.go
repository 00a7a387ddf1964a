package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand prints a shell completion script for the command tree,
// including the kinds accepted by "card --kind".
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Print a shell completion script",
		Long: `Print a completion script for hovercard to standard output.

Load it for the current shell:

  bash        source <(hovercard completion bash)
  zsh         source <(hovercard completion zsh)
  fish        hovercard completion fish | source
  powershell  hovercard completion powershell | Out-String | Invoke-Expression

To keep completions across sessions, write the script to your shell's
completion directory, for example:

  hovercard completion zsh > "${fpath[1]}/_hovercard"
  hovercard completion fish > ~/.config/fish/completions/hovercard.fish`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, w := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
