package client

import (
	"context"

	"freelance/notifier/internal/domain"
)

// Query carries one resolved filter selection into an adapter call.
// Callers must pass freshly constructed slices, never a shared default.
type Query struct {
	CategoryIDs    []string
	SubcategoryIDs []string
	Keywords       string

	// Delay asks the fetcher for its fixed post-fetch pause.
	Delay bool
}

// JobSource is the per-marketplace adapter contract. Jobs returns the
// listings newest-first with best-effort field population; any fetch or
// parse failure collapses to an empty result, never an error.
type JobSource interface {
	Host() domain.Host
	BuildCategories(ctx context.Context) ([]domain.Category, error)
	Jobs(ctx context.Context, q Query) []domain.Job
}

// Registry maps hosts to their adapters. Adding a marketplace means
// registering a new JobSource, not branching dispatch code.
type Registry map[domain.Host]JobSource

func NewRegistry(sources ...JobSource) Registry {
	r := make(Registry, len(sources))
	for _, src := range sources {
		r[src.Host()] = src
	}
	return r
}

func (r Registry) Lookup(host domain.Host) (JobSource, bool) {
	src, ok := r[host]
	return src, ok
}
