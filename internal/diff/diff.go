// Package diff computes the "new since last time" slice of a freshly
// fetched listing sequence.
package diff

import "freelance/notifier/internal/domain"

// Recent walks jobs in their newest-first order and returns the prefix
// of non-pinned listings that precede the one whose url equals lastURL.
// Pinned listings are skipped unconditionally and never terminate the
// walk. When lastURL matches nothing the whole non-pinned prefix is new.
//
// This is a prefix diff, not a set difference: it relies on the site
// keeping its ordering stable between fetch cycles. A listing reordered
// or backfilled ahead of the watermark is delivered again; that
// approximation is accepted.
func Recent(jobs []domain.Job, lastURL string) []domain.Job {
	var recent []domain.Job
	for _, job := range jobs {
		if job.Pinned {
			continue
		}
		if job.URL == lastURL {
			break
		}
		recent = append(recent, job)
	}
	return recent
}
