package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command. Scripts are written to
// the result stream so they can be piped or redirected.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for ` + appName + `.

CI jobs never need this; it is meant for running the analyzer locally
before pushing.

  $ source <(` + appName + ` completion bash)
  $ ` + appName + ` completion zsh > "${fpath[1]}/_` + appName + `"
  $ ` + appName + ` completion fish | source
  PS> ` + appName + ` completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(resultOut, true)
			case "zsh":
				return root.GenZshCompletion(resultOut)
			case "fish":
				return root.GenFishCompletion(resultOut, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(resultOut)
			}
			return fmt.Errorf("unsupported shell: %q", args[0])
		},
	}
}
