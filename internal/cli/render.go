package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/pipeline"
)

// renderFlags holds the command-line flags for the render command.
type renderFlags struct {
	layoutFlags
	output      string
	formats     string
	rasterizer  string
	margin      float64
	scale       float64
	transparent bool
	detailed    bool
	photos      bool
}

// renderCommand creates the render command for exporting a tree.
// It lays the tree out first, so unpositioned trees render too.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [tree.json]",
		Short: "Export a family tree as SVG, PNG, PDF, JSON or DOT",
		Long: `Export a family tree as SVG, PNG, PDF, JSON or DOT.

Several formats can be requested at once (-f svg,png). Each is written next
to the input, or next to the -o path, with the format as its extension.

PNG and PDF are rasterized from the SVG drawing with rsvg-convert, or with
headless Chrome when --rasterizer chrome is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cliOptions()
			flags.apply(&opts)
			formats, err := parseFormats(flags.formats)
			if err != nil {
				return err
			}
			opts.Formats = formats
			if flags.rasterizer != "" {
				opts.Rasterizer = flags.rasterizer
			}
			if cmd.Flags().Changed("margin") {
				opts.Margin = flags.margin
			}
			if cmd.Flags().Changed("transparent") {
				opts.Transparent = flags.transparent
			}
			opts.Scale = flags.scale
			opts.Detailed = flags.detailed
			photos := c.Config.Render.Photos
			if cmd.Flags().Changed("photos") {
				photos = flags.photos
			}
			opts.Photos = c.photoFetcher(photos)
			return c.runRender(cmd.Context(), args[0], opts, flags.output, flags.noCache)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVar(&flags.rasterizer, "rasterizer", "", "PNG/PDF converter: rsvg (default), chrome")
	cmd.Flags().Float64Var(&flags.margin, "margin", pipeline.DefaultMargin, "page margin in pixels")
	cmd.Flags().Float64Var(&flags.scale, "scale", 0, "PNG pixel ratio (default: chosen from the drawing size)")
	cmd.Flags().BoolVar(&flags.transparent, "transparent", false, "omit the page background")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "include nickname, gender and child index in DOT labels")
	cmd.Flags().BoolVar(&flags.photos, "photos", false, "download and embed remote member photos")
	flags.register(cmd)

	return cmd
}

// parseFormats parses the --format flag into output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) ([]string, error) {
	formats := pipeline.ParseFormats(s)
	if len(formats) == 0 {
		return []string{pipeline.FormatSVG}, nil
	}
	if err := pipeline.ValidateFormats(formats); err != nil {
		return nil, err
	}
	return formats, nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to the file it is written to. A single
// format with an explicit -o is written exactly there.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// runRender loads the tree, runs the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	t, err := family.ReadTreeFile(input)
	if err != nil {
		return fmt.Errorf("load tree %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.Formats, ", ")+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, t, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(output, input, opts.Formats)
	written := make([]string, 0, len(paths))
	for _, format := range opts.Formats {
		path := paths[format]
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		c.Logger.Debug("wrote artifact", "format", format, "bytes", len(result.Artifacts[format]))
		written = append(written, path)
	}
	slices.Sort(written)

	printSuccess("Rendered %s", plural(len(written), "file"))
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.Households, result.Stats.Members, result.Stats.Edges, result.CacheInfo.LayoutHit)
	printKeyValue("Size", fmt.Sprintf("%.0f × %.0f px", result.Stats.Width, result.Stats.Height))

	return nil
}
