// Package imagecheck validates that product image URLs point at real,
// renderable images before they are pushed into the storefront.
package imagecheck

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Checker reports whether an image URL is usable.
type Checker interface {
	Valid(ctx context.Context, url string) bool
}

const (
	requestTimeout = 5 * time.Second
	minImageBytes  = 1000
	// Some CDNs refuse requests with default Go user agents.
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var imageContentTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
}

// HTTPChecker probes image URLs over HTTP. A HEAD request covers the common
// case; Shopify CDN URLs additionally get a small GET because that CDN
// answers HEAD with 200 for URLs that actually serve an HTML error page.
type HTTPChecker struct {
	client *http.Client
	logger *logrus.Logger
}

func NewHTTPChecker(logger *logrus.Logger) *HTTPChecker {
	return &HTTPChecker{
		client: &http.Client{Timeout: requestTimeout},
		logger: logger,
	}
}

func (c *HTTPChecker) Valid(ctx context.Context, url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", url).Debug("image probe failed")
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !isImageContentType(contentType) {
		return false
	}

	if length := resp.Header.Get("Content-Length"); length != "" {
		n, err := strconv.ParseInt(length, 10, 64)
		if err == nil && n < minImageBytes {
			return false
		}
	}

	if strings.Contains(url, "cdn.shopify.com") {
		return c.sniff(ctx, url)
	}
	return true
}

// sniff fetches the first bytes of the body and checks they look like an
// image payload rather than an HTML placeholder.
func (c *HTTPChecker) sniff(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Range", "bytes=0-63")

	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	head := make([]byte, 64)
	n, _ := io.ReadFull(resp.Body, head)
	head = head[:n]

	lowered := bytes.ToLower(head)
	if bytes.Contains(lowered, []byte("<!doctype html")) || bytes.Contains(lowered, []byte("<html")) {
		return false
	}
	return looksLikeImage(head)
}

func isImageContentType(contentType string) bool {
	for _, t := range imageContentTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

var imageMagics = [][]byte{
	{0x89, 'P', 'N', 'G'},
	{0xFF, 0xD8, 0xFF},
	[]byte("GIF87a"),
	[]byte("GIF89a"),
	[]byte("RIFF"), // WEBP container
}

func looksLikeImage(head []byte) bool {
	for _, magic := range imageMagics {
		if bytes.HasPrefix(head, magic) {
			return true
		}
	}
	// SVG has no magic number.
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}
