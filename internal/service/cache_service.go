package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/uni-payroll/catams-api/pkg/errors"
	"github.com/uni-payroll/catams-api/pkg/jobs"
)

const dashboardKeyPrefix = "catams:dashboard"

// CacheStore is the subset of the cache repository the service consumes.
type CacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService mediates dashboard summary caching. All failures degrade to
// cache bypass; callers never see a Redis error.
type CacheService struct {
	store   CacheStore
	queue   *jobs.Queue
	logger  *zap.Logger
	metrics *MetricsService
	enabled bool
	ttl     time.Duration
}

func NewCacheService(store CacheStore, logger *zap.Logger, metrics *MetricsService, enabled bool, ttl time.Duration) *CacheService {
	s := &CacheService{
		store:   store,
		logger:  logger,
		metrics: metrics,
		enabled: enabled,
		ttl:     ttl,
	}
	s.queue = jobs.NewQueue("dashboard-cache", s.handleInvalidation, jobs.QueueConfig{
		Workers:    2,
		BufferSize: 64,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
		Logger:     logger,
	})
	return s
}

// Start launches the background invalidation workers.
func (s *CacheService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains in-flight invalidation work.
func (s *CacheService) Stop() {
	s.queue.Stop()
}

// DashboardKey builds the cache key for one user's dashboard view.
func DashboardKey(userID, courseID string) string {
	if courseID == "" {
		courseID = "all"
	}
	return fmt.Sprintf("%s:%s:%s", dashboardKeyPrefix, userID, courseID)
}

// GetDashboard loads a cached summary into dest. Returns false on miss,
// disabled cache, or any Redis error.
func (s *CacheService) GetDashboard(ctx context.Context, key string, dest interface{}) bool {
	if !s.enabled || s.store == nil {
		return false
	}
	if err := s.store.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
		return false
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(true)
	}
	return true
}

// SetDashboard stores a summary under key for the configured TTL.
func (s *CacheService) SetDashboard(ctx context.Context, key string, value interface{}) {
	if !s.enabled || s.store == nil {
		return
	}
	if err := s.store.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateDashboards schedules removal of every cached dashboard view
// touched by a timesheet change. Invalidation runs on the background queue
// so approval latency never waits on Redis.
func (s *CacheService) InvalidateDashboards(userIDs ...string) {
	if !s.enabled || s.store == nil {
		return
	}
	ids := make([]string, 0, len(userIDs))
	seen := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return
	}
	s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "dashboard-invalidate",
		Payload: ids,
	})
}

func (s *CacheService) handleInvalidation(ctx context.Context, job jobs.Job) error {
	ids, ok := job.Payload.([]string)
	if !ok {
		s.logger.Error("unexpected invalidation payload", zap.String("id", job.ID))
		return nil
	}
	for _, id := range ids {
		pattern := fmt.Sprintf("%s:%s:*", dashboardKeyPrefix, id)
		if err := s.store.DeleteByPattern(ctx, pattern); err != nil {
			return fmt.Errorf("invalidate %s: %w", pattern, err)
		}
	}
	return nil
}
