package pages

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ConnectionTestTimeout is how long the reachability check may take
const ConnectionTestTimeout = 4 * time.Second

// ConnectionTestPath is a well-known article fetched by the reachability check
const ConnectionTestPath = "/Apple_Inc."

// ConnectionTest checks that the lookup service answers within timeout
func ConnectionTest(ctx context.Context, lookup Lookup, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = ConnectionTestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if _, _, err := lookup.Resolve(ctx, ConnectionTestPath); err != nil {
		return fmt.Errorf("connection test: %w", err)
	}
	if debug {
		log.Printf("[pages] connection test ok in %v", time.Since(start))
	}
	return nil
}
