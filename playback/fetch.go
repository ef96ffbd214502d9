package playback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go-fretboard/debug"
)

// maxScoreBytes caps a downloaded score
const maxScoreBytes = 32 << 20

// Fetcher loads score bytes from a URL or a local path
type Fetcher struct {
	Client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: 30 * time.Second}}
}

// Fetch tries each URL encoding in turn (fully encoded path, spaces only,
// raw) and wraps ErrFetchFailed when all of them fail.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	if path, ok := localPath(src); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		return data, nil
	}

	var lastErr error
	for _, u := range EncodingStrategies(src) {
		data, err := f.get(ctx, u)
		if err == nil {
			debug.Log("fetch", "loaded %d bytes from %s", len(data), u)
			return data, nil
		}
		debug.Log("fetch", "%s: %v", u, err)
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %s: %w", ErrFetchFailed, src, lastErr)
}

func (f *Fetcher) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxScoreBytes))
}

func localPath(src string) (string, bool) {
	if rest, ok := strings.CutPrefix(src, "file://"); ok {
		return rest, true
	}
	return src, !strings.Contains(src, "://")
}

// EncodingStrategies lists the URL variants to try, most encoded first,
// without duplicates.
func EncodingStrategies(raw string) []string {
	candidates := []string{
		encodePath(raw),
		strings.ReplaceAll(raw, " ", "%20"),
		raw,
	}
	var out []string
	seen := map[string]bool{}
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// encodePath re-escapes every path segment, leaving scheme, host and
// query alone.
func encodePath(raw string) string {
	schemeEnd := strings.Index(raw, "://")
	if schemeEnd < 0 {
		return raw
	}
	rest := raw[schemeEnd+3:]
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return raw
	}
	prefix := raw[:schemeEnd+3] + rest[:slash]
	path, query, hasQuery := strings.Cut(rest[slash:], "?")

	segs := strings.Split(path, "/")
	for i, seg := range segs {
		if un, err := url.PathUnescape(seg); err == nil {
			seg = un
		}
		segs[i] = url.PathEscape(seg)
	}
	out := prefix + strings.Join(segs, "/")
	if hasQuery {
		out += "?" + query
	}
	return out
}
