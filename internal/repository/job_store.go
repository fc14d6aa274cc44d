package repository

import (
	"context"
	"errors"
	"strings"
	"sync"

	"metro-scrape/internal/domain/market"
)

var (
	ErrJobNotFound = errors.New("scrape job not found")
	ErrJobExists   = errors.New("scrape job already exists")
)

// JobStore holds scrape jobs by id. Update applies fn atomically with
// respect to Get, so readers never observe a half-applied iteration.
type JobStore interface {
	Insert(ctx context.Context, job market.ScrapeJob) error
	Get(ctx context.Context, id string) (market.ScrapeJob, error)
	Update(ctx context.Context, id string, fn func(job *market.ScrapeJob)) error
	Backend() string
}

type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*market.ScrapeJob
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: map[string]*market.ScrapeJob{}}
}

func (s *MemoryJobStore) Insert(_ context.Context, job market.ScrapeJob) error {
	id := strings.TrimSpace(job.ID)
	if id == "" {
		return errors.New("empty job id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; ok {
		return ErrJobExists
	}
	j := job.Clone()
	s.jobs[id] = &j
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (market.ScrapeJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[strings.TrimSpace(id)]
	if !ok {
		return market.ScrapeJob{}, ErrJobNotFound
	}
	return j.Clone(), nil
}

func (s *MemoryJobStore) Update(_ context.Context, id string, fn func(job *market.ScrapeJob)) error {
	if fn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[strings.TrimSpace(id)]
	if !ok {
		return ErrJobNotFound
	}
	fn(j)
	return nil
}

func (s *MemoryJobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryJobStore) Backend() string {
	return "memory"
}

var _ JobStore = (*MemoryJobStore)(nil)
