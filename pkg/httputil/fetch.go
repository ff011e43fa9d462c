package httputil

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/stemma/pkg/buildinfo"
)

// Fetcher defaults.
const (
	DefaultMaxBytes = 5 << 20
	DefaultTimeout  = 20 * time.Second
	DefaultAttempts = 3
)

// Fetcher downloads small resources, caching bodies by URL.
type Fetcher struct {
	Client   *http.Client
	Cache    *Cache // nil disables caching
	MaxBytes int64
	Attempts int
	Delay    time.Duration

	mu sync.Mutex
}

// entry is the cached form of a response body.
type entry struct {
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// NewFetcher returns a fetcher with default limits. cache may be nil.
func NewFetcher(cache *Cache) *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Cache:    cache,
		MaxBytes: DefaultMaxBytes,
		Attempts: DefaultAttempts,
		Delay:    time.Second,
	}
}

// Fetch returns the body and content type of url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if e, ok := f.cached(url); ok {
		return e.Body, e.ContentType, nil
	}

	var e entry
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		var err error
		e, err = f.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	if f.Cache != nil {
		f.mu.Lock()
		_ = f.Cache.Set(url, e)
		f.mu.Unlock()
	}
	return e.Body, e.ContentType, nil
}

// DataURI fetches url and encodes it as a base64 data URI.
func (f *Fetcher) DataURI(ctx context.Context, url string) (string, error) {
	body, ctype, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return "data:" + ctype + ";base64," + base64.StdEncoding.EncodeToString(body), nil
}

func (f *Fetcher) cached(url string) (entry, bool) {
	if f.Cache == nil {
		return entry{}, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var e entry
	ok, err := f.Cache.Get(url, &e)
	return e, ok && err == nil
}

func (f *Fetcher) get(ctx context.Context, url string) (entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return entry{}, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return entry{}, &RetryableError{Err: err}
		}
		if ctx.Err() != nil {
			return entry{}, ctx.Err()
		}
		return entry{}, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		return entry{}, err
	}

	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return entry{}, &RetryableError{Err: err}
	}
	if int64(len(body)) > limit {
		return entry{}, fmt.Errorf("%s: larger than %d bytes", url, limit)
	}

	ctype := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(ctype, ';'); i >= 0 {
		ctype = ctype[:i]
	}
	ctype = strings.TrimSpace(ctype)
	if ctype == "" || ctype == "application/octet-stream" {
		ctype = http.DetectContentType(body)
	}
	if !strings.HasPrefix(ctype, "image/") {
		return entry{}, fmt.Errorf("%s: not an image (%s)", url, ctype)
	}
	return entry{ContentType: ctype, Body: body}, nil
}
