package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/pipeline"
)

// layoutFlags holds the flags shared by every command that lays out a tree.
type layoutFlags struct {
	direction string
	drawer    string
	rankSep   float64
	nodeSep   float64
	noCache   bool
	refresh   bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "flow direction: TB (top to bottom) or LR (left to right)")
	cmd.Flags().StringVar(&f.drawer, "drawer", "", "layout backend: "+strings.Join(pipeline.DrawerNames(), ", "))
	cmd.Flags().Float64Var(&f.rankSep, "rank-sep", 0, "gap between generations in pixels (default 100)")
	cmd.Flags().Float64Var(&f.nodeSep, "node-sep", 0, "gap between households of one generation in pixels (default 50)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached result exists")
}

// apply overrides configured defaults with the flags that were set.
func (f *layoutFlags) apply(opts *pipeline.Options) {
	if f.direction != "" {
		opts.Direction = f.direction
	}
	if f.drawer != "" {
		opts.Drawer = f.drawer
	}
	if f.rankSep != 0 {
		opts.RankSep = f.rankSep
	}
	if f.nodeSep != 0 {
		opts.NodeSep = f.nodeSep
	}
	opts.Refresh = f.refresh
}

// layoutCommand creates the layout command for positioning a tree file.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout [tree.json]",
		Short: "Compute household positions for a family tree",
		Long: `Compute household positions for a family tree.

The layout command reads a tree saved by the editor (or exported with
'render -f json'), arranges its households in generations and writes the
tree back with positions and connection sides filled in. The result can be
loaded into the editor or rendered with 'stemma render'.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cliOptions()
			flags.apply(&opts)
			return c.runLayout(cmd.Context(), args[0], opts, output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	flags.register(cmd)

	return cmd
}

// runLayout loads the tree, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	t, err := family.ReadTreeFile(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	laidOut, cacheHit, err := runner.Layout(ctx, t, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done("layout computed", "households", len(laidOut.Nodes), "cached", cacheHit)

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}

	if err := family.WriteTreeFile(outputPath, laidOut); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(laidOut.Nodes), laidOut.MemberCount(), len(laidOut.Edges), cacheHit)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}
