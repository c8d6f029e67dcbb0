package pages

import (
	_ "embed"
	"strings"
)

//go:embed final_articles.txt
var finalArticles string

// FinalArticles returns the bundled catalogue of candidate ending
// articles as paths ("/Apple_Inc.").
func FinalArticles() []string {
	var out []string
	for _, line := range strings.Split(finalArticles, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// offlineFanout is how many catalogue neighbours each offline article links to
const offlineFanout = 3

// CatalogueGraph builds an offline graph over the bundled catalogue.
// Each article links to the next few in catalogue order, wrapping
// around, so every target is reachable from every start.
func CatalogueGraph(base string, seed int64) *Graph {
	g := NewGraph(base, seed)
	paths := FinalArticles()
	g.Page(ConnectionTestPath)
	for i, p := range paths {
		for k := 1; k <= offlineFanout && k < len(paths); k++ {
			g.Link(p, paths[(i+k)%len(paths)])
		}
	}
	return g
}
