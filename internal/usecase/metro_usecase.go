package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

func metroListKey(email string) string {
	return "metros:" + strings.ToLower(strings.TrimSpace(email))
}

// MetroUsecase reads the market directory behind a freshly authenticated
// browser session. Listings are cached per account when a cache is wired.
type MetroUsecase struct {
	launcher browser.Launcher
	auth     Authenticator
	client   MetroClient
	cache    JSONCache
	ttl      time.Duration
	logger   *log.Logger
}

func NewMetroUsecase(launcher browser.Launcher, auth Authenticator, client MetroClient, cache JSONCache, ttl time.Duration, logger *log.Logger) *MetroUsecase {
	if logger == nil {
		logger = log.Default()
	}
	return &MetroUsecase{
		launcher: launcher,
		auth:     auth,
		client:   client,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func (u *MetroUsecase) ListMetroAreas(ctx context.Context, creds market.Credentials) ([]market.MetroArea, error) {
	key := metroListKey(creds.Email)
	if u.cache != nil {
		var cached []market.MetroArea
		found, err := u.cache.GetJSON(ctx, key, &cached)
		if err == nil && found {
			return cached, nil
		}
	}

	var areas []market.MetroArea
	err := browser.With(ctx, u.launcher, func(page browser.Page) error {
		if err := u.auth.Login(ctx, page, creds); err != nil {
			return err
		}
		var err error
		areas, err = u.client.ListMetroAreas(ctx, page)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.remember(ctx, creds.Email, areas)
	return areas, nil
}

func (u *MetroUsecase) GetMetroAreaDetail(ctx context.Context, creds market.Credentials, metroID string) (market.MetroAreaDetail, error) {
	metroID = strings.TrimSpace(metroID)
	if metroID == "" {
		return market.MetroAreaDetail{}, fmt.Errorf("%w: metro id is required", ErrInvalidInput)
	}

	var detail market.MetroAreaDetail
	err := browser.With(ctx, u.launcher, func(page browser.Page) error {
		if err := u.auth.Login(ctx, page, creds); err != nil {
			return err
		}
		var err error
		detail, err = u.client.GetMetroAreaDetail(ctx, page, metroID)
		return err
	})
	if err != nil {
		return market.MetroAreaDetail{}, err
	}
	return detail, nil
}

func (u *MetroUsecase) remember(ctx context.Context, email string, areas []market.MetroArea) {
	if u.cache == nil {
		return
	}
	if err := u.cache.SetJSON(ctx, metroListKey(email), areas, u.ttl); err != nil {
		u.logger.Printf("metro_cache op=set status=failed err=%v", err)
	}
}

func (u *MetroUsecase) forget(ctx context.Context, email string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, metroListKey(email)); err != nil {
		u.logger.Printf("metro_cache op=delete status=failed err=%v", err)
	}
}
