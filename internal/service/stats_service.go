package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campusdesk/internal/domain"
	"github.com/spec-kit/campusdesk/internal/events"
	"github.com/spec-kit/campusdesk/internal/repository"
	"github.com/spec-kit/campusdesk/pkg/util/errorutil"
)

// StatsCacheKey is the cache entry holding the request summary.
const StatsCacheKey = "requests:stats:summary"

// StatsCache is the subset of the cache repository used for stats.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// StatsService computes request summaries and keeps them cached until the
// request set changes.
type StatsService struct {
	requests   repository.RequestRepository
	cache      StatsCache
	dispatcher events.Dispatcher
	ttl        time.Duration
	logger     *zap.Logger
}

// StatsDependencies bundles collaborators for the stats service.
type StatsDependencies struct {
	RequestRepo repository.RequestRepository
	Cache       StatsCache
	Dispatcher  events.Dispatcher
	TTL         time.Duration
	Logger      *zap.Logger
}

// NewStatsService constructs the service. A nil cache computes every call.
func NewStatsService(deps StatsDependencies) *StatsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		requests:   deps.RequestRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		ttl:        deps.TTL,
		logger:     logger,
	}
}

// Summary returns aggregate counts over every request.
func (s *StatsService) Summary(ctx context.Context) (domain.RequestStats, error) {
	if s.cache != nil {
		var cached domain.RequestStats
		err := s.cache.Get(ctx, StatsCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	records, err := s.requests.List(ctx, repository.RequestFilter{})
	if err != nil {
		return domain.RequestStats{}, errorutil.NewInternalError(fmt.Errorf("list requests for stats: %w", err))
	}
	stats := SummarizeRequests(records)

	if s.cache != nil {
		if err := s.cache.Set(ctx, StatsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// RegisterHandlers subscribes cache invalidation to every lifecycle event.
func (s *StatsService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	for _, eventType := range events.LifecycleEvents {
		s.dispatcher.Subscribe(eventType, s.handleRequestChanged)
	}
}

func (s *StatsService) handleRequestChanged(ctx context.Context, event events.Event) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, StatsCacheKey); err != nil {
		return fmt.Errorf("invalidate stats cache for %s: %w", event.RequestID, err)
	}
	s.logger.Debug("stats cache invalidated",
		zap.String("event_type", string(event.Type)),
		zap.String("request_id", event.RequestID),
	)
	return nil
}

// SummarizeRequests counts records per status category and averages the
// resolution time of resolved records in hours, rounded to one decimal.
func SummarizeRequests(records []domain.Request) domain.RequestStats {
	stats := domain.RequestStats{Total: len(records)}

	var (
		resolved   int
		totalHours float64
	)
	for _, r := range records {
		category, ok := r.Status.Category()
		if !ok {
			continue
		}
		switch category {
		case domain.CategoryPending:
			stats.Pending++
		case domain.CategoryEscalated:
			stats.Escalated++
		case domain.CategoryApproved:
			stats.Approved++
		case domain.CategoryRejected:
			stats.Rejected++
		}
		if r.Status.Resolved() {
			resolved++
			totalHours += r.UpdatedAt.Sub(r.CreatedAt).Hours()
		}
	}

	if resolved > 0 {
		avg := math.Round(totalHours/float64(resolved)*10) / 10
		stats.AvgResolutionHours = &avg
	}
	return stats
}
