package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"freelance/notifier/internal/client"
	"freelance/notifier/internal/config"
	"freelance/notifier/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users []domain.User
}

func (f *fakeUsers) Users(ctx context.Context) ([]domain.User, error) {
	return f.users, nil
}

type filterKey struct {
	userID int64
	host   domain.Host
	kind   domain.FilterKind
}

type fakeFilters struct {
	filters map[filterKey]domain.Filter
	saved   []domain.Filter
}

func (f *fakeFilters) Filter(ctx context.Context, userID int64, host domain.Host, kind domain.FilterKind) (*domain.Filter, error) {
	filter, ok := f.filters[filterKey{userID, host, kind}]
	if !ok {
		return nil, nil
	}
	return &filter, nil
}

func (f *fakeFilters) SaveFilter(ctx context.Context, filter domain.Filter) error {
	f.saved = append(f.saved, filter)
	return nil
}

type fakeSource struct {
	host       domain.Host
	byKeyword  []domain.Job
	byCategory []domain.Job
	queries    []client.Query
}

func (f *fakeSource) Host() domain.Host { return f.host }

func (f *fakeSource) BuildCategories(ctx context.Context) ([]domain.Category, error) {
	return nil, nil
}

func (f *fakeSource) Jobs(ctx context.Context, q client.Query) []domain.Job {
	f.queries = append(f.queries, q)
	if q.Keywords != "" {
		return f.byKeyword
	}
	return f.byCategory
}

type fakeMessenger struct {
	err   error
	texts []string
}

func (f *fakeMessenger) Send(ctx context.Context, userID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	return nil
}

type fakeMailer struct {
	err  error
	sent []Email
}

func (f *fakeMailer) Send(email Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

func testService(users *fakeUsers, filters *fakeFilters, source *fakeSource, messenger *fakeMessenger, mailer *fakeMailer) *Service {
	return NewService(Deps{
		Users:     users,
		Filters:   filters,
		Sources:   client.NewRegistry(source),
		Messenger: messenger,
		Mailer:    mailer,
	}, config.NotifyConfig{Period: 1, MaxJobs: 10})
}

func job(url string) domain.Job {
	return domain.Job{Title: "Проект " + url, URL: url, Price: "100 ₽"}
}

func pinnedJob(url string) domain.Job {
	j := job(url)
	j.Pinned = true
	return j
}

func categoryFilter(userID int64, lastURL string) domain.Filter {
	return domain.Filter{
		UserID:      userID,
		Host:        domain.HostFLRU,
		CategoryIDs: []string{"2"},
		LastJobURL:  lastURL,
	}
}

func TestSweepFirstNotification(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{
		host:       domain.HostFLRU,
		byCategory: []domain.Job{pinnedJob("p"), job("a"), job("b"), job("c")},
	}
	messenger := &fakeMessenger{}
	mailer := &fakeMailer{}

	sent := testService(users, filters, source, messenger, mailer).Sweep(context.Background())
	assert.True(t, sent)

	// Without a watermark every non-pinned listing is new.
	require.Len(t, messenger.texts, 1)
	assert.Equal(t, digestMessage(domain.HostFLRU, []domain.Job{job("a"), job("b"), job("c")}), messenger.texts[0])
	assert.Empty(t, mailer.sent)

	// The watermark moves to the newest non-pinned listing.
	require.Len(t, filters.saved, 1)
	assert.Equal(t, "a", filters.saved[0].LastJobURL)

	require.Len(t, source.queries, 1)
	assert.Equal(t, []string{"2"}, source.queries[0].CategoryIDs)
	assert.Empty(t, source.queries[0].Keywords)
}

func TestSweepMergesAndDeduplicates(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterKeywords}: {
			UserID: 1, Host: domain.HostFLRU, Keywords: "go,golang",
		},
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{
		host:       domain.HostFLRU,
		byKeyword:  []domain.Job{job("a"), job("b")},
		byCategory: []domain.Job{job("b"), job("c")},
	}
	messenger := &fakeMessenger{}

	sent := testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())
	assert.True(t, sent)

	// Keyword results come first; the shared url appears once.
	require.Len(t, messenger.texts, 1)
	assert.Equal(t, digestMessage(domain.HostFLRU, []domain.Job{job("a"), job("b"), job("c")}), messenger.texts[0])

	require.Len(t, source.queries, 2)
	assert.Equal(t, "go,golang", source.queries[0].Keywords)
	assert.Empty(t, source.queries[1].Keywords)
}

func TestSweepWatermarkSkipsSeen(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, "b"),
	}}
	source := &fakeSource{
		host:       domain.HostFLRU,
		byCategory: []domain.Job{pinnedJob("p"), job("a"), job("b"), job("c")},
	}
	messenger := &fakeMessenger{}

	sent := testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())
	assert.True(t, sent)

	require.Len(t, messenger.texts, 1)
	assert.Equal(t, digestMessage(domain.HostFLRU, []domain.Job{job("a")}), messenger.texts[0])

	require.Len(t, filters.saved, 1)
	assert.Equal(t, "a", filters.saved[0].LastJobURL)
}

func TestSweepNothingNew(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, "a"),
	}}
	source := &fakeSource{
		host:       domain.HostFLRU,
		byCategory: []domain.Job{pinnedJob("p"), job("a"), job("b")},
	}
	messenger := &fakeMessenger{}

	sent := testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())
	assert.False(t, sent)
	assert.Empty(t, messenger.texts)
	assert.Empty(t, filters.saved)
}

func TestSweepCapsDigest(t *testing.T) {
	var jobs []domain.Job
	for i := 0; i < 15; i++ {
		jobs = append(jobs, job(fmt.Sprintf("j%02d", i)))
	}

	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{host: domain.HostFLRU, byCategory: jobs}
	messenger := &fakeMessenger{}

	testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())

	require.Len(t, messenger.texts, 1)
	assert.Equal(t, digestMessage(domain.HostFLRU, jobs[:10]), messenger.texts[0])

	// The watermark still reflects the newest listing, not the cap.
	require.Len(t, filters.saved, 1)
	assert.Equal(t, "j00", filters.saved[0].LastJobURL)
}

func TestSweepEmailFanOut(t *testing.T) {
	users := &fakeUsers{users: []domain.User{
		{ID: 1, Active: true, Email: "user@example.com", EmailActive: true},
	}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{host: domain.HostFLRU, byCategory: []domain.Job{job("a")}}
	messenger := &fakeMessenger{}
	mailer := &fakeMailer{}

	sent := testService(users, filters, source, messenger, mailer).Sweep(context.Background())
	assert.True(t, sent)

	assert.Len(t, messenger.texts, 1)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "user@example.com", mailer.sent[0].To)
	assert.Equal(t, emailSubject(domain.HostFLRU, []domain.Job{job("a")}), mailer.sent[0].Subject)
}

func TestSweepChannelFailureIsolation(t *testing.T) {
	users := &fakeUsers{users: []domain.User{
		{ID: 1, Active: true, Email: "user@example.com", EmailActive: true},
	}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{host: domain.HostFLRU, byCategory: []domain.Job{job("a")}}
	messenger := &fakeMessenger{err: errors.New("blocked by user")}
	mailer := &fakeMailer{}

	// The failed Telegram send must not stop the email delivery.
	sent := testService(users, filters, source, messenger, mailer).Sweep(context.Background())
	assert.True(t, sent)
	assert.Empty(t, messenger.texts)
	assert.Len(t, mailer.sent, 1)
}

func TestSweepWatermarkAdvancesOnSendFailure(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{host: domain.HostFLRU, byCategory: []domain.Job{job("a")}}
	messenger := &fakeMessenger{err: errors.New("blocked by user")}

	sent := testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())
	assert.False(t, sent)

	// The watermark is persisted before delivery; a lost batch is never
	// re-sent.
	require.Len(t, filters.saved, 1)
	assert.Equal(t, "a", filters.saved[0].LastJobURL)
}

func TestSweepSkipsInactiveUser(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{
		{1, domain.HostFLRU, domain.FilterCategories}: categoryFilter(1, ""),
	}}
	source := &fakeSource{host: domain.HostFLRU, byCategory: []domain.Job{job("a")}}
	messenger := &fakeMessenger{}

	sent := testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())
	assert.False(t, sent)
	assert.Empty(t, source.queries)
	assert.Empty(t, messenger.texts)
}

func TestSweepNoFilters(t *testing.T) {
	users := &fakeUsers{users: []domain.User{{ID: 1, Active: true}}}
	filters := &fakeFilters{filters: map[filterKey]domain.Filter{}}
	source := &fakeSource{host: domain.HostFLRU, byCategory: []domain.Job{job("a")}}
	messenger := &fakeMessenger{}

	sent := testService(users, filters, source, messenger, &fakeMailer{}).Sweep(context.Background())
	assert.False(t, sent)
	assert.Empty(t, source.queries)
}
