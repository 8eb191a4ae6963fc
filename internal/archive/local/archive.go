// Package local archives raw fetched pages on the filesystem.
package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metaboatrace/crawler/internal/boatrace"
)

// Archive saves HTML snapshots and a metadata sidecar to disk.
type Archive struct {
	root     string
	maxBytes int64
}

type pageMeta struct {
	URL        string        `json:"url"`
	StatusCode int           `json:"status_code"`
	FetchedAt  time.Time     `json:"fetched_at"`
	Duration   time.Duration `json:"duration_ns"`
	Size       int           `json:"size"`
	SHA256     string        `json:"sha256"`
}

// New returns an Archive rooted at dir.
func New(root string, maxBytes int64) (*Archive, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create archive dir %s: %w", root, err)
	}
	if maxBytes <= 0 {
		maxBytes = 8 << 20
	}
	return &Archive{root: root, maxBytes: maxBytes}, nil
}

// Save writes the page body and a metadata json next to it, returning
// the HTML path. Pages are laid out by fetch date and content hash so
// re-crawls of the same bytes collapse into one file.
func (a *Archive) Save(ctx context.Context, page boatrace.Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context canceled: %w", err)
	}
	if len(page.Body) == 0 {
		return "", fmt.Errorf("empty page body")
	}
	if int64(len(page.Body)) > a.maxBytes {
		return "", fmt.Errorf("page size %d exceeds max %d", len(page.Body), a.maxBytes)
	}

	sum := sha256.Sum256(page.Body)
	digest := hex.EncodeToString(sum[:])

	fetchedAt := page.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	target := filepath.Join(a.root, fetchedAt.Format("20060102"), pathSegment(page.URL), digest[:16]+".html")

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("create dir for %s: %w", target, err)
	}
	if err := os.WriteFile(target, page.Body, 0o600); err != nil {
		return "", fmt.Errorf("write html %s: %w", target, err)
	}

	meta := pageMeta{
		URL:        page.URL,
		StatusCode: page.StatusCode,
		FetchedAt:  fetchedAt,
		Duration:   page.Duration,
		Size:       len(page.Body),
		SHA256:     digest,
	}
	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal meta: %w", err)
	}
	metaPath := strings.TrimSuffix(target, ".html") + ".json"
	if err := os.WriteFile(metaPath, payload, 0o600); err != nil {
		return "", fmt.Errorf("write meta %s: %w", metaPath, err)
	}
	return target, nil
}

// pathSegment derives a directory name from the page URL's path,
// falling back to "page" for unparseable URLs.
func pathSegment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "page"
	}
	segment := strings.Trim(u.Path, "/")
	segment = strings.ReplaceAll(segment, "/", "_")
	if segment == "" {
		return "page"
	}
	return segment
}
