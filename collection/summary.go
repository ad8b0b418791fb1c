// ABOUTME: Dashboard summary counts across collections
// ABOUTME: Fetches one-item pages concurrently and reads each collection's total count
package collection

import (
	"context"
	"sync"

	"github.com/harperreed/innkeep/models"
	"golang.org/x/sync/errgroup"
)

// Summarize returns the total record count of each named collection. The
// limit of one is only a size hint; counts come from TotalCount.
func Summarize(ctx context.Context, store Store, names ...string) (map[string]int, error) {
	var mu sync.Mutex
	counts := make(map[string]int, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			res, err := store.GetAll(ctx, name, models.ListOptions{Limit: 1})
			if err != nil {
				return &FetchError{Collection: name, Err: err}
			}
			mu.Lock()
			counts[name] = res.TotalCount
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}
