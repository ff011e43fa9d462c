package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The config file is read before any subcommand runs, so every command
// sees the same store, cache and layout defaults. --config overrides the
// default location; STEMMA_* variables override the file.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stemma lays out and exports family trees",
		Long: `Stemma keeps named family trees, arranges their households generation by
generation and exports them as SVG, PNG, PDF, JSON or Graphviz DOT.

Trees are stored in the editor's JSON format, so files saved by the web
editor can be imported, laid out and rendered directly.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			c.Logger.Debug("loaded config", "path", c.configPath, "store", c.backendName(), "cache", cfg.Cache.Backend)
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", c.configPath, "config file")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
