package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-fees-api/internal/models"
	appErrors "github.com/noah-isme/sma-fees-api/pkg/errors"
)

type outstandingLister interface {
	ListOutstanding(ctx context.Context, schoolID string) ([]models.OutstandingStudent, error)
}

type outstandingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// OutstandingCacheKey returns the cache key for a school's outstanding
// listing. The payment service deletes this key when a payment commits.
func OutstandingCacheKey(schoolID string) string {
	return fmt.Sprintf("fees:outstanding:%s", schoolID)
}

// OutstandingService lists students carrying unpaid fees. The listing is a
// lock-free read and may trail an in-flight commit; the short cache TTL
// only widens that window slightly.
type OutstandingService struct {
	repo   outstandingLister
	cache  outstandingCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewOutstandingService constructs OutstandingService.
func NewOutstandingService(repo outstandingLister, cache outstandingCache, ttl time.Duration, logger *zap.Logger) *OutstandingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &OutstandingService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// List returns every student with a positive balance on any assignment.
func (s *OutstandingService) List(ctx context.Context, schoolID string) ([]models.OutstandingStudent, error) {
	key := OutstandingCacheKey(schoolID)
	if s.cache != nil {
		var cached []models.OutstandingStudent
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("outstanding cache read failed", zap.Error(err), zap.String("school_id", schoolID))
		}
	}

	students, err := s.repo.ListOutstanding(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list outstanding fees")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, students, s.ttl); err != nil {
			s.logger.Warn("outstanding cache write failed", zap.Error(err), zap.String("school_id", schoolID))
		}
	}
	return students, nil
}
