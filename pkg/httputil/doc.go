// Package httputil fetches remote resources referenced by family trees.
//
// # Overview
//
// Members may carry a photo given as an http(s) URL. Browsers load those
// on their own, but rasterizers and offline SVG viewers do not, so exports
// embed each photo as a data URI first. This package provides the pieces:
//
//   - [Fetcher]: bounded GET requests with retry and caching
//   - [Cache]: file-based caching of fetched bodies
//   - [Retry]: automatic retry with exponential backoff
//
// # Caching
//
// [Cache] stores entries under ~/.cache/stemma/photos/ with a configurable
// TTL, so exporting the same tree twice downloads nothing the second time.
//
//	cache, err := httputil.NewCache("", httputil.DefaultTTL)
//	f := httputil.NewFetcher(cache)
//	uri, err := f.DataURI(ctx, "https://example.com/ada.jpg")
//
// # Retry
//
// Network errors, 5xx responses and 429 rate limits are retried up to three
// times with doubling delays. Other failures are returned immediately.
//
// The cache can be cleared via `stemma cache clear` or by deleting the
// cache directory.
package httputil
