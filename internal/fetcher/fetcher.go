package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrNotFound is returned for a 404 response
var ErrNotFound = errors.New("resource not found")

// maxBody caps a downloaded resource (25MB covers the example videos)
const maxBody = 25 * 1024 * 1024

// Fetcher downloads remote resources over HTTP
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher. A zero timeout means 30 seconds.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Get retrieves rawURL and returns the body
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	// Validate URL
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "devlog/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", u.String(), ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// pageChrome holds elements of a built page that are layout rather than
// entry content.
var pageChrome = map[string]bool{
	"head": true, "script": true, "style": true, "noscript": true,
	"nav": true, "header": true, "footer": true, "aside": true, "iframe": true,
}

// ExtractText returns the words of a built page: the entry's text plus image
// alt text, with the page chrome around it left out.
func ExtractText(page string) string {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return ""
	}

	var words []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if pageChrome[n.Data] {
				return
			}
			if n.Data == "img" {
				for _, attr := range n.Attr {
					if attr.Key == "alt" {
						words = append(words, strings.Fields(attr.Val)...)
					}
				}
			}
		case html.TextNode:
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(words, " ")
}
