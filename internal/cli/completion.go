package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/pkg/store"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for stemma.

To load completions:

Bash:
  $ source <(stemma completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ stemma completion bash > /etc/bash_completion.d/stemma
  # macOS:
  $ stemma completion bash > $(brew --prefix)/etc/bash_completion.d/stemma

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ stemma completion zsh > "${fpath[1]}/_stemma"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ stemma completion fish | source

  # To load completions for each session, execute once:
  $ stemma completion fish > ~/.config/fish/completions/stemma.fish

PowerShell:
  PS> stemma completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> stemma completion powershell > stemma.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
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

	return cmd
}

// completeTrees completes the tree argument of 'tree' subcommands with the
// names held in the configured store, each described by its id.
// Completion runs without the root's pre-run hook, so the config is loaded
// here.
func (c *CLI) completeTrees(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	c.Config = cfg

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	prefix := strings.ToLower(toComplete)
	var names []string
	err = c.withStore(ctx, func(s store.Store) error {
		list, err := s.List(ctx)
		if err != nil {
			return err
		}
		for _, sum := range list {
			if strings.HasPrefix(strings.ToLower(sum.Name), prefix) {
				names = append(names, sum.Name+"\t"+sum.ID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
