package usecase

import (
	"context"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

type Authenticator interface {
	Login(ctx context.Context, page browser.Page, creds market.Credentials) error
}

type Extractor interface {
	Extract(ctx context.Context, page browser.Page, zipCode string) (market.ZipRecord, error)
}

type MetroClient interface {
	ListMetroAreas(ctx context.Context, page browser.Page) ([]market.MetroArea, error)
	GetMetroAreaDetail(ctx context.Context, page browser.Page, metroID string) (market.MetroAreaDetail, error)
}

// ProgressPublisher receives a snapshot after every job state write.
type ProgressPublisher interface {
	PublishProgress(job market.ScrapeJob)
}

type JSONCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}
