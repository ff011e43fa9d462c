// Package pipeline provides the layout → render pipeline for Stemma.
//
// This package implements the pipeline that the CLI and the API server
// share. By centralizing this logic, both entry points lay out and export
// trees with the same defaults and the same cache keys.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: Position every household with the layered engine
//  2. Render: Generate output in various formats (SVG, PNG, PDF, JSON, DOT)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, tree, pipeline.Options{
//	    Direction: "LR",
//	    Formats:   []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Layout only
//	laidOut, hit, err := runner.Layout(ctx, tree, opts)
//
//	// Render an already laid-out tree
//	artifacts, hit, err := runner.Render(ctx, laidOut, opts)
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stemma/pkg/cache"
	"github.com/matzehuels/stemma/pkg/errors"
	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/layout"
	"github.com/matzehuels/stemma/pkg/layout/dot"
	"github.com/matzehuels/stemma/pkg/render"
	"github.com/matzehuels/stemma/pkg/render/chrome"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultDrawer is the layout backend used when none is named.
	DefaultDrawer = layout.NativeName

	// DefaultRasterizer converts SVG to PNG and PDF.
	DefaultRasterizer = RasterizerRSVG

	// DefaultMargin pads rendered documents on every side, in pixels.
	DefaultMargin = render.PDFMargin
)

// DefaultDirection is the default flow direction.
const DefaultDirection = layout.DefaultDirection

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
	FormatDOT  = "dot"
)

// Rasterizer names.
const (
	RasterizerRSVG   = "rsvg"
	RasterizerChrome = chrome.Name
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
	FormatDOT:  true,
}

// Drawers maps drawer names to their factories.
var Drawers = map[string]layout.DrawerFactory{
	layout.NativeName: layout.NewNative,
	dot.Name:          dot.New,
}

// ValidRasterizers is the set of supported rasterizers.
var ValidRasterizers = map[string]bool{
	RasterizerRSVG:   true,
	RasterizerChrome: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Direction string  `json:"direction,omitempty"`
	Drawer    string  `json:"drawer,omitempty"`
	RankSep   float64 `json:"rank_sep,omitempty"` // gap between generations; 0 means layout.SpacingY
	NodeSep   float64 `json:"node_sep,omitempty"` // gap between siblings; 0 means layout.SpacingX

	// Render options
	Formats     []string `json:"formats,omitempty"`
	Margin      float64  `json:"margin,omitempty"`
	Scale       float64  `json:"scale,omitempty"` // PNG pixel ratio; 0 picks one from the drawing size
	Transparent bool     `json:"transparent,omitempty"`
	Rasterizer  string   `json:"rasterizer,omitempty"`
	Detailed    bool     `json:"detailed,omitempty"` // DOT labels include nickname, gender and child index

	// Refresh skips cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	// Raster overrides the rasterizer named by Rasterizer.
	Raster render.Rasterizer `json:"-"`
	// Photos, when set, embeds remote member photos in SVG, PNG and PDF
	// output.
	Photos PhotoFetcher `json:"-"`
	// ChromePath and ChromeNoSandbox configure the chrome rasterizer.
	ChromePath      string `json:"-"`
	ChromeNoSandbox bool   `json:"-"`

	dir       layout.Direction
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Tree is the laid-out tree.
	Tree family.Tree

	// TreeHash is the content hash the layout was cached under.
	TreeHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Households int
	Members    int
	Edges      int
	Width      float64
	Height     float64
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json, dot)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDrawer checks that a drawer name is known.
func ValidateDrawer(name string) error {
	if _, ok := Drawers[name]; !ok {
		return errors.New(errors.ErrCodeInvalidInput, "invalid drawer: %q (must be one of: %s)", name, strings.Join(DrawerNames(), ", "))
	}
	return nil
}

// ValidateRasterizer checks that a rasterizer name is known.
func ValidateRasterizer(name string) error {
	if !ValidRasterizers[name] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid rasterizer: %q (must be one of: rsvg, chrome)", name)
	}
	return nil
}

// DrawerNames lists the registered drawers, sorted.
func DrawerNames() []string {
	names := make([]string, 0, len(Drawers))
	for name := range Drawers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseFormats splits a comma-separated format list, dropping blanks and
// duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Direction == "" {
		o.Direction = string(DefaultDirection)
	}
	if o.Drawer == "" {
		o.Drawer = DefaultDrawer
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	dir, err := layout.ParseDirection(o.Direction)
	if err != nil {
		return err
	}
	o.dir, o.Direction = dir, string(dir)
	if o.RankSep < 0 || o.NodeSep < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "separations must not be negative")
	}
	return ValidateDrawer(o.Drawer)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.Rasterizer == "" {
		o.Rasterizer = DefaultRasterizer
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Margin < 0 || o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "margin and scale must not be negative")
	}
	if o.Raster != nil {
		return nil
	}
	return ValidateRasterizer(o.Rasterizer)
}

// LayoutDirection returns the parsed direction. Valid after ValidateForLayout.
func (o *Options) LayoutDirection() layout.Direction {
	if o.dir == "" {
		return DefaultDirection
	}
	return o.dir
}

// Separation returns the engine separations with defaults filled in.
func (o *Options) Separation() layout.Separation {
	sep := layout.DefaultSeparation()
	if o.RankSep > 0 {
		sep.RankSep = o.RankSep
	}
	if o.NodeSep > 0 {
		sep.NodeSep = o.NodeSep
	}
	return sep
}

// RasterizerImpl returns the rasterizer to convert SVG with.
func (o *Options) RasterizerImpl() render.Rasterizer {
	if o.Raster != nil {
		return o.Raster
	}
	if o.Rasterizer == RasterizerChrome {
		return chrome.Rasterizer{ExecPath: o.ChromePath, NoSandbox: o.ChromeNoSandbox}
	}
	return render.RSVG{}
}

// NeedsRasterizer reports whether any requested format is rasterized.
func (o *Options) NeedsRasterizer() bool {
	return slices.Contains(o.Formats, FormatPNG) || slices.Contains(o.Formats, FormatPDF)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	sep := o.Separation()
	return cache.LayoutKeyOpts{
		Direction: string(o.LayoutDirection()),
		Drawer:    o.Drawer,
		RankSep:   sep.RankSep,
		NodeSep:   sep.NodeSep,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Format: format, Margin: o.Margin, Transparent: o.Transparent, Photos: o.Photos != nil}
	switch format {
	case FormatPNG:
		opts.Rasterizer = o.RasterizerImpl().Name()
		opts.Scale = o.Scale
	case FormatPDF:
		opts.Rasterizer = o.RasterizerImpl().Name()
	case FormatDOT:
		opts.Detailed = o.Detailed
		opts.Margin, opts.Transparent, opts.Photos = 0, false, false
	case FormatJSON:
		opts.Margin, opts.Transparent, opts.Photos = 0, false, false
	}
	return opts
}

