package pages

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aaronzipp/link-race/internal/models"
)

// PortalTitle is the title removed articles sometimes redirect to
const PortalTitle = "Wikipedia, the free encyclopedia"

const titleSuffix = " - Wikipedia"

type document struct {
	url   *url.URL
	title string
	links []models.Page
}

func (d *document) page() models.Page {
	return models.NewPage(d.url.String(), d.title)
}

func parseDocument(base *url.URL, body []byte) (*document, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	d := &document{url: base}
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if d.title == "" && n.FirstChild != nil {
					d.title = strings.TrimSuffix(strings.TrimSpace(n.FirstChild.Data), titleSuffix)
				}
			case atom.Link:
				if attr(n, "rel") == "canonical" {
					if u, err := base.Parse(attr(n, "href")); err == nil {
						// keep the host we fetched from; mobile sites point
						// their canonical link at the desktop host
						c := *base
						c.Path, c.RawPath = u.Path, u.RawPath
						c.RawQuery, c.Fragment = "", ""
						d.url = &c
					}
				}
			case atom.A:
				if p, ok := articleLink(base, attr(n, "href")); ok && !seen[p.Key()] {
					seen[p.Key()] = true
					d.links = append(d.links, p)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return d, nil
}

// articleLink accepts in-site article links. Namespaced pages
// ("/wiki/File:x") are skipped and section anchors are dropped.
func articleLink(base *url.URL, href string) (models.Page, bool) {
	if !strings.HasPrefix(href, "/wiki/") {
		return models.Page{}, false
	}
	href, _, _ = strings.Cut(href, "#")
	article := strings.TrimPrefix(href, "/wiki/")
	if article == "" || strings.Contains(article, ":") {
		return models.Page{}, false
	}
	u, err := base.Parse(href)
	if err != nil {
		return models.Page{}, false
	}
	u.RawQuery = ""
	u.Fragment = ""
	return models.NewPage(u.String(), ""), true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
