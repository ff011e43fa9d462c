package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
	"github.com/matzehuels/stemma/pkg/observability"
	"github.com/matzehuels/stemma/pkg/render"
	"github.com/matzehuels/stemma/pkg/render/nodelink"
	"github.com/matzehuels/stemma/pkg/render/svg"
)

// Render generates output artifacts in the requested formats from a
// laid-out tree, without caching. Options must have been validated with
// ValidateForRender.
func Render(ctx context.Context, t family.Tree, opts Options) (map[string][]byte, error) {
	observability.Layout().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	artifacts, err := renderFormats(ctx, t, opts)
	observability.Layout().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, t family.Tree, opts Options) (map[string][]byte, error) {
	bounds := layout.Bounds(t.Nodes)
	if render.TooLarge(bounds.Width, bounds.Height) && opts.NeedsRasterizer() {
		opts.Logger.Warn("drawing is very large; exports may fail or be unreadable",
			"width", bounds.Width, "height", bounds.Height)
	}

	dir := directionOf(t, opts.LayoutDirection())
	drawn := t
	if opts.Photos != nil && needsDrawing(opts.Formats) {
		var err error
		if drawn, err = InlinePhotos(ctx, t, opts.Photos, opts.Logger); err != nil {
			return nil, err
		}
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	var doc []byte
	svgDoc := func() []byte {
		if doc == nil {
			doc = renderSVG(drawn, dir, opts, opts.Margin)
		}
		return doc
	}

	for _, format := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svgDoc()
		case FormatPNG:
			scale := opts.Scale
			if scale == 0 {
				scale = render.PixelRatio(bounds.Width, bounds.Height)
			}
			data, err = opts.RasterizerImpl().PNG(ctx, svgDoc(), scale)
		case FormatPDF:
			// PDF pages always carry the fixed page margin.
			data, err = opts.RasterizerImpl().PDF(ctx, renderSVG(drawn, dir, opts, render.PDFMargin))
		case FormatJSON:
			data, err = family.MarshalTree(t)
		case FormatDOT:
			data = []byte(nodelink.TreeToDOT(t, nodelink.Options{
				Detailed:    opts.Detailed,
				LeftToRight: dir == layout.LR,
			}))
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderSVG(t family.Tree, dir layout.Direction, opts Options, margin float64) []byte {
	svgOpts := []svg.Option{
		svg.WithMargin(margin),
		svg.WithDirection(dir),
	}
	if opts.Transparent {
		svgOpts = append(svgOpts, svg.WithTransparentBackground())
	}
	return svg.RenderTree(t, svgOpts...)
}

func needsDrawing(formats []string) bool {
	return slices.ContainsFunc(formats, func(f string) bool {
		return f == FormatSVG || f == FormatPNG || f == FormatPDF
	})
}

// directionOf reads the flow a tree was laid out in from its sides.
func directionOf(t family.Tree, fallback layout.Direction) layout.Direction {
	for _, h := range t.Nodes {
		switch h.SourceSide {
		case family.SideRight:
			return layout.LR
		case family.SideBottom:
			return layout.TB
		}
	}
	return fallback
}
