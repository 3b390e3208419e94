package diff

import (
	"testing"

	"freelance/notifier/internal/domain"

	"github.com/stretchr/testify/assert"
)

func job(url string) domain.Job {
	return domain.Job{Title: "job " + url, URL: url}
}

func pinned(url string) domain.Job {
	return domain.Job{Pinned: true, Title: "pinned " + url, URL: url}
}

func TestRecentEmptyWhenNewestMatchesWatermark(t *testing.T) {
	jobs := []domain.Job{job("a"), job("b"), job("c")}
	assert.Empty(t, Recent(jobs, "a"))
}

func TestRecentStopsAtWatermark(t *testing.T) {
	jobs := []domain.Job{job("a"), job("b"), job("c"), job("d"), job("e")}
	assert.Equal(t, []domain.Job{job("a")}, Recent(jobs, "b"))
	assert.Equal(t, []domain.Job{job("a"), job("b"), job("c")}, Recent(jobs, "d"))
}

func TestRecentFullPrefixWhenWatermarkUnknown(t *testing.T) {
	jobs := []domain.Job{job("a"), pinned("x"), job("b")}
	assert.Equal(t, []domain.Job{job("a"), job("b")}, Recent(jobs, "gone"))
}

func TestRecentMissingWatermarkIsNotAnError(t *testing.T) {
	jobs := []domain.Job{job("a"), job("b")}
	assert.Equal(t, jobs, Recent(jobs, ""))
}

func TestRecentNeverEmitsPinned(t *testing.T) {
	jobs := []domain.Job{pinned("s1"), job("a"), pinned("s2"), job("b"), job("c")}
	assert.Equal(t, []domain.Job{job("a"), job("b")}, Recent(jobs, "c"))
}

func TestRecentPinnedWatermarkDoesNotTerminate(t *testing.T) {
	// A pinned record carrying the watermark url must not stop the walk.
	jobs := []domain.Job{job("a"), pinned("b"), job("c")}
	assert.Equal(t, []domain.Job{job("a"), job("c")}, Recent(jobs, "b"))
}

func TestRecentEmptyInput(t *testing.T) {
	assert.Empty(t, Recent(nil, "a"))
}
