// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"sync"

	"github.com/nmbu-cigene/pubgrab/pkg/types"
)

const defaultWorkers = 4

// Failure records one author query that could not be completed.
type Failure struct {
	Author string
	Err    error
}

// FetchOutput holds the merged records and per-author failures from a
// fan-out run.
type FetchOutput struct {
	Publications []types.Publication
	Failures     []Failure
}

// FetchAll dispatches the queries to a bounded worker pool and merges
// the results after every worker has finished. A failing author query
// is recorded and logged but does not abort the run; the remaining
// authors' records are still returned.
func FetchAll(ctx context.Context, c *Client, queries []Query, workers int) FetchOutput {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(queries) {
		workers = len(queries)
	}

	type authorResult struct {
		author string
		pubs   []types.Publication
		err    error
	}

	jobs := make(chan Query)
	results := make(chan authorResult, len(queries))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for q := range jobs {
				pubs, err := c.Fetch(ctx, q)
				results <- authorResult{author: q.Author, pubs: pubs, err: err}
			}
		}()
	}

	go func() {
		for _, q := range queries {
			jobs <- q
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var out FetchOutput
	for r := range results {
		if r.err != nil {
			c.log.Debug().Str("author", r.author).Err(r.err).Msg("author query failed")
			out.Failures = append(out.Failures, Failure{Author: r.author, Err: r.err})
			continue
		}
		out.Publications = append(out.Publications, r.pubs...)
	}
	return out
}
