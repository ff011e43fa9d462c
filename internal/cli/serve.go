package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/internal/server"
	"github.com/matzehuels/stemma/pkg/store"
)

// serveCommand creates the serve command that exposes the store over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
		photos  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree API over HTTP",
		Long: `Serve the configured store over a JSON HTTP API under /api.

The API lists, creates, edits and deletes trees, runs auto-layout and
exports trees in every render format. Requests use the layout and render
defaults from the config file; query parameters override them per request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Server.Addr
			}
			if addr == "" {
				addr = server.DefaultAddr
			}
			if !cmd.Flags().Changed("photos") {
				photos = c.Config.Render.Photos
			}

			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			return c.withStore(ctx, func(s store.Store) error {
				defaults := c.cliOptions()
				defaults.Photos = c.photoFetcher(photos)
				srv := server.New(s, runner, server.WithLogger(c.Logger), server.WithDefaults(defaults))

				printInfo("Serving %s store on http://%s/api", c.backendName(), addr)
				printDetail("Press Ctrl+C to stop")
				if err := srv.ListenAndServe(ctx, addr); err != nil {
					return err
				}
				printSuccess("Server stopped")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+server.DefaultAddr+")")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&photos, "photos", false, "download and embed remote member photos in exports")

	return cmd
}
