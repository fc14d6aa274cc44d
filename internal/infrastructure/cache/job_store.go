package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/repository"
)

const jobTTL = 24 * time.Hour

func jobKey(id string) string {
	return "scrape:job:" + strings.TrimSpace(id)
}

// RedisJobStore keeps jobs as JSON documents. Each job has a single writer
// (its orchestrator goroutine), so Update's read-modify-write only needs to
// be serialised within this process.
type RedisJobStore struct {
	redis *Redis
	mu    sync.Mutex
}

func NewRedisJobStore(r *Redis) (*RedisJobStore, error) {
	if !r.Available() {
		return nil, ErrUnavailable
	}
	return &RedisJobStore{redis: r}, nil
}

func (s *RedisJobStore) Insert(ctx context.Context, job market.ScrapeJob) error {
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("empty job id")
	}
	ok, err := s.redis.SetJSONIfNotExists(ctx, jobKey(job.ID), job, jobTTL)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrJobExists
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id string) (market.ScrapeJob, error) {
	var job market.ScrapeJob
	found, err := s.redis.GetJSON(ctx, jobKey(id), &job)
	if err != nil {
		return market.ScrapeJob{}, err
	}
	if !found {
		return market.ScrapeJob{}, repository.ErrJobNotFound
	}
	return job, nil
}

func (s *RedisJobStore) Update(ctx context.Context, id string, fn func(job *market.ScrapeJob)) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	fn(&job)
	return s.redis.SetJSON(ctx, jobKey(id), job, jobTTL)
}

func (s *RedisJobStore) Backend() string {
	return "redis"
}

var _ repository.JobStore = (*RedisJobStore)(nil)
