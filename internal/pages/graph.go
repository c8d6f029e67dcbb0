package pages

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/aaronzipp/link-race/internal/models"
)

// Graph is an in-memory article graph implementing Lookup. It backs
// offline practice matches and tests.
type Graph struct {
	mu        sync.RWMutex
	base      string
	pages     map[string]models.Page
	links     map[string][]models.Page
	redirects map[string]string
	order     []string
	rng       *rand.Rand
}

// NewGraph creates an empty graph rooted at base ("https://example.org")
func NewGraph(base string, seed int64) *Graph {
	return &Graph{
		base:      strings.TrimSuffix(base, "/"),
		pages:     make(map[string]models.Page),
		links:     make(map[string][]models.Page),
		redirects: make(map[string]string),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Page returns the page for an article path, adding it if needed
func (g *Graph) Page(path string) models.Page {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.add(path)
}

func (g *Graph) add(path string) models.Page {
	path = "/" + strings.Trim(path, "/")
	if p, ok := g.pages[path]; ok {
		return p
	}
	title := strings.ReplaceAll(strings.TrimPrefix(path, "/"), "_", " ")
	p := models.NewPage(g.base+"/wiki"+path, title)
	g.pages[path] = p
	g.order = append(g.order, path)
	return p
}

// Link adds directed links from one article to others
func (g *Graph) Link(from string, to ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	src := g.add(from)
	for _, t := range to {
		g.links[src.Key()] = append(g.links[src.Key()], g.add(t))
	}
}

// Redirect makes alias resolve to target
func (g *Graph) Redirect(alias, target string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.add(target)
	g.redirects["/"+strings.Trim(alias, "/")] = "/" + strings.Trim(target, "/")
}

// Paths lists every article path in insertion order
func (g *Graph) Paths() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.order...)
}

// Resolve implements Lookup
func (g *Graph) Resolve(ctx context.Context, pathOrURL string) (models.Page, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Page{}, false, err
	}
	path := pathOrURL
	if strings.HasPrefix(path, "http") {
		path = models.Page{URL: path}.Path()
	}
	path = "/" + strings.Trim(strings.TrimPrefix(path, "/wiki/"), "/")

	g.mu.RLock()
	defer g.mu.RUnlock()
	redirected := false
	if target, ok := g.redirects[path]; ok {
		path, redirected = target, true
	}
	p, ok := g.pages[path]
	if !ok {
		return models.Page{}, false, fmt.Errorf("resolve %s: %w", pathOrURL, ErrNotFound)
	}
	return p, redirected, nil
}

// FetchRandom implements Lookup
func (g *Graph) FetchRandom(ctx context.Context) (models.Page, error) {
	if err := ctx.Err(); err != nil {
		return models.Page{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.order) == 0 {
		return models.Page{}, fmt.Errorf("fetch random: %w", ErrNotFound)
	}
	return g.pages[g.order[g.rng.Intn(len(g.order))]], nil
}

// FetchOutboundLinks implements Lookup
func (g *Graph) FetchOutboundLinks(ctx context.Context, page models.Page) ([]models.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]models.Page(nil), g.links[page.Key()]...), nil
}
