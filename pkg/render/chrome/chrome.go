// Package chrome rasterizes SVG documents with headless Chrome.
//
// It is an alternative to rsvg-convert for machines that have Chrome or
// Chromium installed but not librsvg. The SVG is loaded from a data URI,
// so nothing touches the filesystem.
package chrome

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/matzehuels/stemma/pkg/errors"
)

// Name identifies this rasterizer.
const Name = "chrome"

// Rasterizer renders through a fresh headless browser per call.
type Rasterizer struct {
	// ExecPath overrides the browser binary chromedp looks up.
	ExecPath string
	// NoSandbox disables Chrome's sandbox, needed inside most containers.
	NoSandbox bool
}

func (r Rasterizer) Name() string { return Name }

// PNG screenshots the SVG element at the given device scale factor.
func (r Rasterizer) PNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	w, h, err := size(svg)
	if err != nil {
		return nil, err
	}
	var buf []byte
	err = r.run(ctx,
		emulation.SetDeviceMetricsOverride(int64(w), int64(h), scale, false),
		chromedp.Navigate(dataURI(svg)),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("chrome: empty screenshot")
	}
	return buf, nil
}

// PDF prints the SVG onto a single page of exactly its size.
func (r Rasterizer) PDF(ctx context.Context, svg []byte) ([]byte, error) {
	w, h, err := size(svg)
	if err != nil {
		return nil, err
	}
	var buf []byte
	err = r.run(ctx,
		chromedp.Navigate(dataURI(svg)),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(w / cssPixelsPerInch).
				WithPaperHeight(h / cssPixelsPerInch).
				WithMarginTop(0).WithMarginBottom(0).
				WithMarginLeft(0).WithMarginRight(0).
				Do(ctx)
			buf = data
			return err
		}),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

const cssPixelsPerInch = 96.0

func (r Rasterizer) run(ctx context.Context, actions ...chromedp.Action) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}
	if r.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrap(errors.ErrCodeUnsupported, err, "chrome rasterizer")
	}
	return nil
}

func dataURI(svg []byte) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(svg)
}

var sizeRe = regexp.MustCompile(`<svg[^>]*\swidth="([0-9.]+)"[^>]*\sheight="([0-9.]+)"`)

// size reads the pixel size from the root element's width and height.
func size(svg []byte) (float64, float64, error) {
	m := sizeRe.FindSubmatch(svg)
	if m == nil {
		return 0, 0, errors.New(errors.ErrCodeInvalidFormat, "svg has no width and height")
	}
	w, _ := strconv.ParseFloat(string(m[1]), 64)
	h, _ := strconv.ParseFloat(string(m[2]), 64)
	if w <= 0 || h <= 0 {
		return 0, 0, errors.New(errors.ErrCodeInvalidFormat, "svg size %gx%g", w, h)
	}
	return w, h, nil
}
