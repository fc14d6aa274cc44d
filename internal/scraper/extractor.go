package scraper

import (
	"context"
	"fmt"
	"log"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

// ZipExtractor renders one zip code's dashboard view and parses its text.
type ZipExtractor struct {
	baseURL string
	policy  *Policy
	settle  time.Duration
	sleep   Sleeper
	logger  *log.Logger
}

func NewZipExtractor(baseURL string, policy *Policy, settle time.Duration, logger *log.Logger) *ZipExtractor {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ZipExtractor{
		baseURL: baseURL,
		policy:  policy,
		settle:  settle,
		sleep:   SleepContext,
		logger:  logger,
	}
}

// Extract returns ErrExtraction-wrapped errors for navigation or evaluation
// failures. Classification of the record happens in Policy.ParseZipText.
func (e *ZipExtractor) Extract(ctx context.Context, page browser.Page, zipCode string) (market.ZipRecord, error) {
	target := dashboardURL(e.baseURL, zipCode)

	if err := page.Goto(ctx, target); err != nil {
		return market.ZipRecord{}, fmt.Errorf("%w: zip=%s: %w", ErrExtraction, zipCode, err)
	}
	if err := e.sleep(ctx, e.settle); err != nil {
		return market.ZipRecord{}, fmt.Errorf("%w: zip=%s: %w", ErrExtraction, zipCode, err)
	}

	text, err := page.BodyText(ctx)
	if err != nil {
		return market.ZipRecord{}, fmt.Errorf("%w: zip=%s: read page text: %w", ErrExtraction, zipCode, err)
	}

	rec := e.policy.ParseZipText(zipCode, text)
	if !rec.RegionFound {
		e.logger.Printf("zip_extract zip=%s region=not_found fallback=full_page hint=session_may_have_expired text_len=%d", zipCode, len(text))
	}
	return rec, nil
}
