package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/campusdesk/internal/domain"
	"github.com/spec-kit/campusdesk/internal/events"
	"github.com/spec-kit/campusdesk/internal/repository"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return repository.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func record(status domain.RequestStatus, created time.Time, elapsed time.Duration) domain.Request {
	return domain.Request{Status: status, CreatedAt: created, UpdatedAt: created.Add(elapsed)}
}

func TestSummarizeRequestsCountsCategories(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := SummarizeRequests([]domain.Request{
		record(domain.StatusSubmitted, base, 0),
		record(domain.StatusApproved, base, 2*time.Hour),
		record(domain.StatusRejected, base, 4*time.Hour),
		record(domain.StatusInReview, base, time.Hour),
	})

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Approved)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 0, stats.Escalated)
	require.NotNil(t, stats.AvgResolutionHours)
	assert.Equal(t, 3.0, *stats.AvgResolutionHours)
}

func TestSummarizeRequestsAllStatuses(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]domain.Request, 0, len(domain.Statuses))
	for _, s := range domain.Statuses {
		records = append(records, record(s, base, time.Hour))
	}
	stats := SummarizeRequests(records)

	assert.Equal(t, 9, stats.Total)
	assert.Equal(t, 3, stats.Pending)
	assert.Equal(t, 2, stats.Escalated)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 2, stats.Rejected)
	assert.Equal(t, stats.Total, stats.Pending+stats.Escalated+stats.Approved+stats.Rejected)
}

func TestSummarizeRequestsWithoutResolved(t *testing.T) {
	stats := SummarizeRequests([]domain.Request{record(domain.StatusEscalated, time.Now(), time.Hour)})
	assert.Nil(t, stats.AvgResolutionHours)

	empty := SummarizeRequests(nil)
	assert.Equal(t, 0, empty.Total)
	assert.Nil(t, empty.AvgResolutionHours)
}

func TestSummarizeRequestsRoundsToOneDecimal(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stats := SummarizeRequests([]domain.Request{
		record(domain.StatusApproved, base, 1*time.Hour),
		record(domain.StatusFinalApproved, base, 1*time.Hour+20*time.Minute),
		record(domain.StatusAuthorityRejected, base, 2*time.Hour),
	})
	require.NotNil(t, stats.AvgResolutionHours)
	assert.Equal(t, 1.4, *stats.AvgResolutionHours)
}

func TestStatsServiceCachesUntilLifecycleEvent(t *testing.T) {
	repo := repository.NewMemoryRequestRepository()
	cache := newMemoryCache()
	dispatcher := events.NewInMemoryDispatcher()
	stats := NewStatsService(StatsDependencies{
		RequestRepo: repo,
		Cache:       cache,
		Dispatcher:  dispatcher,
		TTL:         time.Minute,
	})
	stats.RegisterHandlers()
	requests := NewRequestService(RequestDependencies{RequestRepo: repo, Dispatcher: dispatcher})

	ctx := context.Background()
	first, err := stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Total)
	assert.Equal(t, 1, cache.sets)

	require.NoError(t, repo.Create(ctx, &domain.Request{ID: "REQ-900", Status: domain.StatusSubmitted}))
	cached, err := stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, cached.Total)
	assert.Equal(t, 1, cache.sets)

	_, err = requests.Create(ctx, CreateRequestInput{RequestText: "hall ticket missing", StudentName: "Meera", StudentID: "S7"})
	require.NoError(t, err)

	fresh, err := stats.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Total)
	assert.Equal(t, 2, fresh.Pending)
	assert.Equal(t, 2, cache.sets)
}

func TestStatsServiceWithoutCache(t *testing.T) {
	repo := repository.NewMemoryRequestRepository()
	stats := NewStatsService(StatsDependencies{RequestRepo: repo})
	stats.RegisterHandlers()

	require.NoError(t, repo.Create(context.Background(), &domain.Request{ID: "REQ-001", Status: domain.StatusApproved}))
	got, err := stats.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Approved)
	require.NotNil(t, got.AvgResolutionHours)
	assert.Equal(t, 0.0, *got.AvgResolutionHours)
}

func TestStatsServiceRefreshesAfterRemarksOnlyUpdate(t *testing.T) {
	repo := repository.NewMemoryRequestRepository()
	cache := newMemoryCache()
	dispatcher := events.NewInMemoryDispatcher()
	clock := &fixedClock{now: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)}

	stats := NewStatsService(StatsDependencies{
		RequestRepo: repo,
		Cache:       cache,
		Dispatcher:  dispatcher,
		TTL:         time.Hour,
	})
	stats.RegisterHandlers()
	requests := NewRequestService(RequestDependencies{RequestRepo: repo, Dispatcher: dispatcher, Now: clock.Now})

	ctx := context.Background()
	created := clock.Now()
	require.NoError(t, repo.Create(ctx, &domain.Request{
		ID:        "REQ-001",
		StudentID: "S1",
		Status:    domain.StatusApproved,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}))

	before, err := stats.Summary(ctx)
	require.NoError(t, err)
	require.NotNil(t, before.AvgResolutionHours)
	assert.Equal(t, 1.0, *before.AvgResolutionHours)

	clock.Advance(10 * time.Hour)
	_, err = requests.Transition(ctx, "REQ-001", TransitionInput{AdminRemarks: strPtr("archived copy sent")})
	require.NoError(t, err)

	after, err := stats.Summary(ctx)
	require.NoError(t, err)
	require.NotNil(t, after.AvgResolutionHours)
	assert.Equal(t, 10.0, *after.AvgResolutionHours)
}
