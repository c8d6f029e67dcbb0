package pages

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/aaronzipp/link-race/internal/models"
)

var (
	// ErrNoStartingPage is returned when no random starting page could be fetched
	ErrNoStartingPage = errors.New("no starting page")
	// ErrNoCandidates is returned when every candidate lookup failed or was filtered
	ErrNoCandidates = errors.New("no usable voting candidates")
)

// Candidates supplies article paths for the voting slate
type Candidates interface {
	UnseenCandidates(ctx context.Context, n int) ([]string, error)
	MarkSeen(ctx context.Context, paths []string) error
}

// fetchConcurrency bounds the candidate lookups in flight
const fetchConcurrency = 4

// BuildPreRaceConfig fetches a random starting page, then resolves one
// more candidate than needed in parallel and keeps the first count usable
// ones in candidate order.
func BuildPreRaceConfig(ctx context.Context, lookup Lookup, candidates Candidates, count int) (models.PreRaceConfig, error) {
	paths, err := candidates.UnseenCandidates(ctx, count+1)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.PreRaceConfig{}, ctxErr
		}
		// a degraded store behaves like a reset seen set
		log.Printf("[pages] unseen candidates: %v; drawing from the full catalogue", err)
		paths = catalogueSample(count + 1)
	}

	start, err := lookup.FetchRandom(ctx)
	if err != nil {
		return models.PreRaceConfig{}, fmt.Errorf("%w: %v", ErrNoStartingPage, err)
	}

	resolved := make([]models.Page, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			page, _, err := lookup.Resolve(gctx, path)
			if err != nil {
				// a stale article only shrinks the slate
				if debug {
					log.Printf("[pages] candidate %s: %v", path, err)
				}
				return nil
			}
			resolved[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.PreRaceConfig{}, err
	}
	if err := ctx.Err(); err != nil {
		return models.PreRaceConfig{}, err
	}

	var usable []models.Page
	for _, page := range resolved {
		if usableCandidate(page, start) {
			usable = append(usable, page)
		}
	}
	info := models.NewVoteInfo(usable)
	if len(info.Pages) > count {
		info.Pages = info.Pages[:count]
	}
	if len(info.Pages) == 0 {
		return models.PreRaceConfig{}, ErrNoCandidates
	}

	seen := make([]string, len(info.Pages))
	for i, p := range info.Pages {
		seen[i] = p.Path()
	}
	if err := candidates.MarkSeen(ctx, seen); err != nil {
		log.Printf("[pages] mark seen: %v", err)
	}

	return models.PreRaceConfig{StartingPage: start, VoteInfo: info}, nil
}

// catalogueSample draws n shuffled paths from the bundled catalogue
func catalogueSample(n int) []string {
	paths := FinalArticles()
	rand.Shuffle(len(paths), func(i, j int) {
		paths[i], paths[j] = paths[j], paths[i]
	})
	if n > len(paths) {
		n = len(paths)
	}
	return paths[:n]
}

func usableCandidate(page, start models.Page) bool {
	switch {
	case page.IsZero():
		return false
	case page.HasFragment():
		return false
	case page.Title == PortalTitle:
		return false
	case page.Equal(start):
		return false
	}
	return true
}
