// Package store keeps track of which ending articles have already been
// offered so voting slates stay fresh.
package store

import (
	"context"
	"math/rand"

	"github.com/aaronzipp/link-race/internal/game"
)

// SeenStore hands out candidate article paths the match has not used
type SeenStore interface {
	UnseenCandidates(ctx context.Context, n int) ([]string, error)
	MarkSeen(ctx context.Context, paths []string) error
	Close() error
}

// minUnseen is how many unseen articles must remain before the seen
// set is kept. Small catalogues scale the buffer down to half their size.
func minUnseen(catalogue, n int) int {
	buffer := game.MinUnseenBuffer
	if half := catalogue / 2; buffer > half {
		buffer = half
	}
	if buffer < n {
		buffer = n
	}
	return buffer
}

// selectUnseen shuffles the catalogue minus seen and returns the first n.
// reset is true when too few unseen articles were left and the whole
// catalogue was used instead.
func selectUnseen(catalogue []string, seen map[string]bool, n int, rng *rand.Rand) (picked []string, reset bool) {
	unseen := make([]string, 0, len(catalogue))
	for _, path := range catalogue {
		if !seen[path] {
			unseen = append(unseen, path)
		}
	}
	if len(unseen) < minUnseen(len(catalogue), n) {
		unseen = append(unseen[:0], catalogue...)
		reset = true
	}
	rng.Shuffle(len(unseen), func(i, j int) {
		unseen[i], unseen[j] = unseen[j], unseen[i]
	})
	if n > len(unseen) {
		n = len(unseen)
	}
	return unseen[:n], reset
}
