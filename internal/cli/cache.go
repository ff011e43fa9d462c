package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached layouts, renders and photos",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts, renders and photos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend == backendRedis {
				printWarning("Redis entries expire on their own; clearing local caches only")
			}

			layouts, err := c.clearLayoutCache(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear layout cache: %w", err)
			}

			photos := 0
			if pc, err := photoCache(); err == nil {
				if photos, err = pc.Clear(); err != nil {
					return fmt.Errorf("clear photo cache: %w", err)
				}
			}

			if layouts+photos == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", layouts+photos)
			printDetail("%d layouts and renders, %d photos", layouts, photos)
			return nil
		},
	}
}

func (c *CLI) clearLayoutCache(ctx context.Context) (int, error) {
	dir, err := c.layoutCacheDir()
	if err != nil {
		return 0, err
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return 0, err
	}
	defer fc.Close()
	c.Logger.Debug("clearing cache", "dir", dir)
	return fc.Clear()
}

// layoutCacheDir returns the directory of the file cache backend.
func (c *CLI) layoutCacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "layouts"), nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.layoutCacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
