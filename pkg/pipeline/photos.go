package pipeline

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/httputil"
)

// PhotoFetcher resolves a remote photo reference to a data URI.
type PhotoFetcher interface {
	DataURI(ctx context.Context, url string) (string, error)
}

var _ PhotoFetcher = (*httputil.Fetcher)(nil)

// InlinePhotos returns a copy of t whose http(s) photo references are
// replaced by data URIs. Photos that cannot be fetched are dropped, so the
// card falls back to initials, and a warning is logged.
func InlinePhotos(ctx context.Context, t family.Tree, f PhotoFetcher, logger *log.Logger) (family.Tree, error) {
	out := t.Clone()
	resolved := map[string]string{}
	inline := func(m *family.Member) error {
		if !isRemote(m.Photo) {
			return nil
		}
		uri, ok := resolved[m.Photo]
		if !ok {
			var err error
			uri, err = f.DataURI(ctx, m.Photo)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if logger != nil {
					logger.Warn("photo not embedded", "member", m.Name, "err", err)
				}
				uri = ""
			}
			resolved[m.Photo] = uri
		}
		m.Photo = uri
		return nil
	}
	for i := range out.Nodes {
		h := &out.Nodes[i]
		if err := inline(&h.Primary); err != nil {
			return family.Tree{}, err
		}
		for j := range h.Spouses {
			if err := inline(&h.Spouses[j]); err != nil {
				return family.Tree{}, err
			}
		}
	}
	return out, nil
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
