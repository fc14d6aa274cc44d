package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/export"
	"metro-scrape/internal/repository"
	"metro-scrape/internal/scraper"
)

type JobProgress struct {
	Status            market.JobStatus `json:"status"`
	TotalZipCodes     int              `json:"totalZipCodes"`
	CompletedZipCodes int              `json:"completedZipCodes"`
	CurrentZipCode    string           `json:"currentZipCode"`
	ProgressPercent   int              `json:"progressPercent"`
	Error             string           `json:"error,omitempty"`
}

type JobResults struct {
	Status     market.JobStatus   `json:"status"`
	CityName   string             `json:"cityName"`
	Results    []market.ZipRecord `json:"results"`
	DurationMs *int64             `json:"durationMs"`
}

type ScrapeOptions struct {
	RequestDelay time.Duration
	Publisher    ProgressPublisher
	Logger       *log.Logger
}

// ScrapeUsecase owns scrape jobs. Each job is written only by the goroutine
// started for it in Start; everyone else reads snapshots from the store.
type ScrapeUsecase struct {
	store     repository.JobStore
	launcher  browser.Launcher
	auth      Authenticator
	extractor Extractor
	exporter  *export.Exporter
	publisher ProgressPublisher
	delay     time.Duration
	logger    *log.Logger

	sleep scraper.Sleeper
	now   func() time.Time
	newID func() string

	mu      sync.Mutex
	running map[string]chan struct{}
}

func NewScrapeUsecase(store repository.JobStore, launcher browser.Launcher, auth Authenticator, extractor Extractor, exporter *export.Exporter, opts ScrapeOptions) *ScrapeUsecase {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if exporter == nil {
		exporter = export.NewExporter()
	}
	return &ScrapeUsecase{
		store:     store,
		launcher:  launcher,
		auth:      auth,
		extractor: extractor,
		exporter:  exporter,
		publisher: opts.Publisher,
		delay:     opts.RequestDelay,
		logger:    logger,
		sleep:     scraper.SleepContext,
		now:       time.Now,
		newID:     uuid.NewString,
		running:   map[string]chan struct{}{},
	}
}

// Start registers a running job and returns its id before any browser work
// happens. The job outlives ctx.
func (u *ScrapeUsecase) Start(ctx context.Context, cityName string, zipCodes []string, creds market.Credentials) (string, error) {
	zips := normalizeZipCodes(zipCodes)
	if len(zips) == 0 {
		return "", fmt.Errorf("%w: zipCodes must not be empty", ErrInvalidInput)
	}
	cityName = strings.TrimSpace(cityName)

	job := market.ScrapeJob{
		ID:             u.newID(),
		Status:         market.JobStatusRunning,
		CityName:       cityName,
		ZipCodes:       zips,
		TotalZipCodes:  len(zips),
		CurrentZipCode: "",
		Results:        []market.ZipRecord{},
		StartTime:      u.now().UTC(),
	}
	if err := u.store.Insert(ctx, job); err != nil {
		return "", err
	}
	u.publish(job)

	done := make(chan struct{})
	u.mu.Lock()
	u.running[job.ID] = done
	u.mu.Unlock()

	u.logger.Printf("scrape_job id=%s status=started city=%q zips=%d store=%s", job.ID, cityName, len(zips), u.store.Backend())
	go u.run(context.WithoutCancel(ctx), job.ID, cityName, zips, creds, done)

	return job.ID, nil
}

// Wait blocks until the job started under id has finished. Unknown or
// already-finished ids return immediately.
func (u *ScrapeUsecase) Wait(ctx context.Context, id string) error {
	u.mu.Lock()
	done, ok := u.running[id]
	u.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (u *ScrapeUsecase) run(ctx context.Context, id string, cityName string, zips []string, creds market.Credentials, done chan struct{}) {
	started := u.now()
	defer func() {
		u.mu.Lock()
		delete(u.running, id)
		u.mu.Unlock()
		close(done)
	}()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return browser.With(ctx, u.launcher, func(page browser.Page) error {
			return u.scrapeAll(ctx, page, id, cityName, zips, creds)
		})
	}()

	if err != nil {
		u.logger.Printf("scrape_job id=%s status=error duration=%s err=%v", id, u.now().Sub(started).Round(time.Millisecond), err)
		_ = u.write(ctx, id, func(j *market.ScrapeJob) {
			end := u.now().UTC()
			j.Status = market.JobStatusError
			j.Error = err.Error()
			j.EndTime = &end
		})
		return
	}

	u.logger.Printf("scrape_job id=%s status=completed zips=%d duration=%s", id, len(zips), u.now().Sub(started).Round(time.Millisecond))
}

func (u *ScrapeUsecase) scrapeAll(ctx context.Context, page browser.Page, id string, cityName string, zips []string, creds market.Credentials) error {
	if err := u.auth.Login(ctx, page, creds); err != nil {
		return err
	}

	for i, zip := range zips {
		if err := u.write(ctx, id, func(j *market.ScrapeJob) {
			j.CurrentZipCode = zip
		}); err != nil {
			return err
		}

		t0 := u.now()
		rec, err := u.extractor.Extract(ctx, page, zip)
		if err != nil {
			rec = market.ZipRecord{ZipCode: zip, Status: market.ZipStatusError, Error: errorMessage(err)}
			u.logger.Printf("scrape_job id=%s zip=%s status=error duration=%s err=%v", id, zip, u.now().Sub(t0).Round(time.Millisecond), err)
		} else {
			u.logger.Printf("scrape_job id=%s zip=%s status=%s duration=%s", id, zip, rec.Status, u.now().Sub(t0).Round(time.Millisecond))
		}
		rec.ZipCode = zip
		rec.City = cityName

		// The last record and the completed status land in one write, so
		// completedZipCodes == totalZipCodes only ever shows up as completed.
		if err := u.write(ctx, id, func(j *market.ScrapeJob) {
			j.Results = append(j.Results, rec)
			j.CompletedZipCodes = len(j.Results)
			j.CurrentZipCode = zip
			if j.CompletedZipCodes >= j.TotalZipCodes {
				end := u.now().UTC()
				j.Status = market.JobStatusCompleted
				j.EndTime = &end
			}
		}); err != nil {
			return err
		}

		if i < len(zips)-1 {
			if err := u.sleep(ctx, u.delay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *ScrapeUsecase) write(ctx context.Context, id string, fn func(j *market.ScrapeJob)) error {
	if err := u.store.Update(ctx, id, fn); err != nil {
		u.logger.Printf("scrape_job id=%s status=store_error err=%v", id, err)
		return err
	}
	if u.publisher != nil {
		if job, err := u.store.Get(ctx, id); err == nil {
			u.publisher.PublishProgress(job)
		}
	}
	return nil
}

func (u *ScrapeUsecase) publish(job market.ScrapeJob) {
	if u.publisher != nil {
		u.publisher.PublishProgress(job)
	}
}

func (u *ScrapeUsecase) Job(ctx context.Context, id string) (market.ScrapeJob, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return market.ScrapeJob{}, fmt.Errorf("%w: empty id", ErrJobNotFound)
	}
	job, err := u.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return market.ScrapeJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return market.ScrapeJob{}, err
	}
	return job, nil
}

func (u *ScrapeUsecase) Progress(ctx context.Context, id string) (JobProgress, error) {
	job, err := u.Job(ctx, id)
	if err != nil {
		return JobProgress{}, err
	}
	return ProgressOf(job), nil
}

func (u *ScrapeUsecase) Results(ctx context.Context, id string) (JobResults, error) {
	job, err := u.Job(ctx, id)
	if err != nil {
		return JobResults{}, err
	}
	out := JobResults{
		Status:   job.Status,
		CityName: job.CityName,
		Results:  job.Results,
	}
	if out.Results == nil {
		out.Results = []market.ZipRecord{}
	}
	if d := job.Duration(); d != nil {
		ms := d.Milliseconds()
		out.DurationMs = &ms
	}
	return out, nil
}

func (u *ScrapeUsecase) Export(ctx context.Context, id string) (export.Document, error) {
	job, err := u.Job(ctx, id)
	if err != nil {
		return export.Document{}, err
	}
	doc, err := u.exporter.Export(job)
	if err != nil {
		if errors.Is(err, export.ErrNotCompleted) {
			return export.Document{}, fmt.Errorf("%w: status=%s", ErrJobNotCompleted, job.Status)
		}
		return export.Document{}, err
	}
	return doc, nil
}

func ProgressOf(job market.ScrapeJob) JobProgress {
	return JobProgress{
		Status:            job.Status,
		TotalZipCodes:     job.TotalZipCodes,
		CompletedZipCodes: job.CompletedZipCodes,
		CurrentZipCode:    job.CurrentZipCode,
		ProgressPercent:   job.ProgressPercent(),
		Error:             job.Error,
	}
}

func normalizeZipCodes(in []string) []string {
	out := make([]string, 0, len(in))
	for _, z := range in {
		z = strings.TrimSpace(z)
		if z != "" {
			out = append(out, z)
		}
	}
	return out
}

func errorMessage(err error) string {
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		return "extraction failed"
	}
	return msg
}
