// Package pages resolves articles, picks random starting pages and
// extracts outbound links for the race.
package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aaronzipp/link-race/internal/models"
)

var debug bool

func init() {
	debug = os.Getenv("DEBUG") != ""
}

// ErrNotFound is returned for articles the site does not have
var ErrNotFound = errors.New("page not found")

// Lookup is the page lookup service used by the match coordinator
type Lookup interface {
	// Resolve fetches a page by article path ("/Apple_Inc.") or full URL.
	// isRedirect reports whether the site served a different article.
	Resolve(ctx context.Context, pathOrURL string) (page models.Page, isRedirect bool, err error)
	// FetchRandom returns a random article
	FetchRandom(ctx context.Context) (models.Page, error)
	// FetchOutboundLinks lists the articles page links to
	FetchOutboundLinks(ctx context.Context, page models.Page) ([]models.Page, error)
}

// Config configures the fetcher.
type Config struct {
	BaseURL      string        // Site root. Default: https://en.m.wikipedia.org
	Timeout      time.Duration // HTTP timeout. Default: 10s.
	MaxBytes     int64         // Max response body size. Default: 8MB.
	MaxRedirects int           // Default: 5.
	UserAgent    string
}

const (
	DefaultBaseURL = "https://en.m.wikipedia.org"
	DefaultTimeout = 10 * time.Second
)

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 8 * 1024 * 1024
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 5
	}
	if c.UserAgent == "" {
		c.UserAgent = "link-race/1.0"
	}
}

// Fetcher implements Lookup over HTTP against a MediaWiki site
type Fetcher struct {
	client *http.Client
	config Config
}

// NewFetcher creates a Fetcher with a capped redirect chain.
func NewFetcher(cfg Config) *Fetcher {
	cfg.defaults()
	maxRedirects := cfg.MaxRedirects
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
	}
}

// ArticleURL turns an article path into an absolute URL on the site
func (f *Fetcher) ArticleURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	if strings.HasPrefix(pathOrURL, "/wiki/") {
		return f.config.BaseURL + pathOrURL
	}
	return f.config.BaseURL + "/wiki" + pathOrURL
}

// Resolve implements Lookup
func (f *Fetcher) Resolve(ctx context.Context, pathOrURL string) (models.Page, bool, error) {
	if strings.Trim(pathOrURL, "/") == "" {
		return models.Page{}, false, fmt.Errorf("resolve: empty path: %w", ErrNotFound)
	}
	requested := models.CanonicalURL(f.ArticleURL(pathOrURL))
	doc, err := f.get(ctx, requested)
	if err != nil {
		return models.Page{}, false, fmt.Errorf("resolve %s: %w", pathOrURL, err)
	}
	page := doc.page()
	return page, page.Key() != requested, nil
}

// FetchRandom implements Lookup
func (f *Fetcher) FetchRandom(ctx context.Context) (models.Page, error) {
	doc, err := f.get(ctx, f.ArticleURL("/Special:Random"))
	if err != nil {
		return models.Page{}, fmt.Errorf("fetch random: %w", err)
	}
	return doc.page(), nil
}

// FetchOutboundLinks implements Lookup
func (f *Fetcher) FetchOutboundLinks(ctx context.Context, page models.Page) ([]models.Page, error) {
	doc, err := f.get(ctx, page.URL)
	if err != nil {
		return nil, fmt.Errorf("outbound links of %s: %w", page, err)
	}
	return doc.links, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (*document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if debug {
		log.Printf("[pages] GET %s -> %s (%d bytes)", rawURL, resp.Request.URL, len(body))
	}

	return parseDocument(resp.Request.URL, body)
}
