package usecase

import (
	"context"
	"crypto/subtle"
	"time"

	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/repository"
)

const (
	DefaultActivityLimit = 200
	MaxActivityLimit     = 1000
)

type HealthStatus struct {
	Status          string    `json:"status"`
	JobStore        string    `json:"jobStore"`
	ActivityLog     string    `json:"activityLog"`
	RedisHealthy    *bool     `json:"redisHealthy,omitempty"`
	DatabaseHealthy *bool     `json:"databaseHealthy,omitempty"`
	ServerTime      time.Time `json:"serverTime"`
}

type DiagnosticsUsecase struct {
	key      string
	activity repository.ActivityRepository
	jobs     repository.JobStore
	redis    Pinger
	db       Pinger
	now      func() time.Time
}

// NewDiagnosticsUsecase takes optional redis and db pingers; nil means the
// dependency is not configured and is left out of the health report.
func NewDiagnosticsUsecase(key string, activity repository.ActivityRepository, jobs repository.JobStore, redis Pinger, db Pinger) *DiagnosticsUsecase {
	return &DiagnosticsUsecase{
		key:      key,
		activity: activity,
		jobs:     jobs,
		redis:    redis,
		db:       db,
		now:      time.Now,
	}
}

// Activity returns the newest entries first. An unset key disables the
// endpoint entirely.
func (u *DiagnosticsUsecase) Activity(ctx context.Context, key string, limit int) ([]market.ActivityEntry, error) {
	if u.key == "" {
		return nil, ErrDiagnosticsDisabled
	}
	if subtle.ConstantTimeCompare([]byte(key), []byte(u.key)) != 1 {
		return nil, ErrForbidden
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	entries, err := u.activity.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []market.ActivityEntry{}
	}
	return entries, nil
}

func (u *DiagnosticsUsecase) Health(ctx context.Context) HealthStatus {
	out := HealthStatus{
		Status:     "ok",
		ServerTime: u.now().UTC(),
	}
	if u.jobs != nil {
		out.JobStore = u.jobs.Backend()
	}
	if u.activity != nil {
		out.ActivityLog = u.activity.Backend()
	}
	out.RedisHealthy = ping(ctx, u.redis)
	out.DatabaseHealthy = ping(ctx, u.db)
	return out
}

func ping(ctx context.Context, p Pinger) *bool {
	if p == nil {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ok := p.Ping(pingCtx) == nil
	return &ok
}
