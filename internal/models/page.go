package models

import (
	"net/url"
	"strings"
)

// Page identifies a navigable document by its canonical URL
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// NewPage builds a Page with a canonical URL
func NewPage(rawURL, title string) Page {
	return Page{URL: CanonicalURL(rawURL), Title: title}
}

// CanonicalURL lower-cases the scheme and host, drops any trailing slash
// and leaves the path untouched. Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}
	return u.String()
}

// Key is the identity used for equality and map lookups
func (p Page) Key() string {
	return CanonicalURL(p.URL)
}

// Equal reports whether two pages share a canonical URL
func (p Page) Equal(other Page) bool {
	return p.Key() == other.Key()
}

// IsZero reports whether the page is unset
func (p Page) IsZero() bool {
	return p.URL == ""
}

// Path returns the article path ("/Apple_Inc.") below the /wiki/ prefix.
// Pages outside that layout return their plain URL path.
func (p Page) Path() string {
	u, err := url.Parse(p.URL)
	if err != nil {
		return ""
	}
	path := u.EscapedPath()
	if i := strings.Index(path, "/wiki/"); i >= 0 {
		return path[i+len("/wiki"):]
	}
	return path
}

// HasFragment reports whether the page points at a section anchor
func (p Page) HasFragment() bool {
	return strings.Contains(p.URL, "#")
}

func (p Page) String() string {
	if p.Title != "" {
		return p.Title
	}
	return p.URL
}
