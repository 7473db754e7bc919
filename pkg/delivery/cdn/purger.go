package cdn

import "context"

// Purger asks the edge to drop cached copies of fully-qualified URLs.
// Purging is best effort: callers log failures instead of failing requests.
type Purger interface {
	Purge(ctx context.Context, urls []string) error
}

// Noop is used when no edge is configured; every purge succeeds.
type Noop struct{}

func (Noop) Purge(context.Context, []string) error { return nil }
