package cmd

import (
	"github.com/spf13/cobra"
)

const completionLong = `Generate shell completion scripts for hitreq.

To load completions:

Bash:
  $ source <(hitreq completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ hitreq completion bash > /etc/bash_completion.d/hitreq
  # macOS:
  $ hitreq completion bash > $(brew --prefix)/etc/bash_completion.d/hitreq

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ hitreq completion zsh > "${fpath[1]}/_hitreq"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ hitreq completion fish | source

  # To load completions for each session, execute once:
  $ hitreq completion fish > ~/.config/fish/completions/hitreq.fish

PowerShell:
  PS> hitreq completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> hitreq completion powershell > hitreq.ps1
  # and source this file from your PowerShell profile.
`

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion scripts",
		Long:                  completionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  usageArgs(cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs)),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
