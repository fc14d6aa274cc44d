package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLoginFailed        = errors.New("login failed")
	ErrExtraction         = errors.New("extraction failed")
	ErrDirectory          = errors.New("metro directory request failed")
)

const (
	DashboardPath = "/host/insights"
	MetroListPath = "/api/host/insights/metro-areas"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func joinURL(base string, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path = strings.TrimSpace(path)
	if path == "" {
		return base
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func dashboardURL(base string, zipCode string) string {
	u := joinURL(base, DashboardPath)
	if zipCode == "" {
		return u
	}
	q := url.Values{}
	q.Set("zip", zipCode)
	return u + "?" + q.Encode()
}

func metroDetailPath(metroID string) string {
	return MetroListPath + "/" + url.PathEscape(strings.TrimSpace(metroID))
}
