package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

type nopPage struct{}

func (nopPage) Goto(context.Context, string) error { return nil }
func (nopPage) Fill(context.Context, string, string) error { return nil }
func (nopPage) Evaluate(context.Context, string, any) error { return nil }
func (nopPage) BodyText(context.Context) (string, error) { return "", nil }
func (nopPage) URL(context.Context) (string, error) { return "", nil }

type fakeSession struct {
	mu     sync.Mutex
	closed int
}

func (s *fakeSession) Page() browser.Page { return nopPage{} }

func (s *fakeSession) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

type fakeLauncher struct {
	mu       sync.Mutex
	err      error
	sessions []*fakeSession
}

func (l *fakeLauncher) Acquire(context.Context) (browser.Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	s := &fakeSession{}
	l.mu.Lock()
	l.sessions = append(l.sessions, s)
	l.mu.Unlock()
	return s, nil
}

// released reports acquired and closed session counts.
func (l *fakeLauncher) released() (acquired int, closed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.sessions {
		s.mu.Lock()
		closed += s.closed
		s.mu.Unlock()
	}
	return len(l.sessions), closed
}

type fakeAuth struct {
	gate  chan struct{}
	err   error
	mu    sync.Mutex
	calls []market.Credentials
}

func (a *fakeAuth) Login(ctx context.Context, _ browser.Page, creds market.Credentials) error {
	a.mu.Lock()
	a.calls = append(a.calls, creds)
	a.mu.Unlock()
	if a.gate != nil {
		select {
		case <-a.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return a.err
}

func (a *fakeAuth) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

type fakeExtractor struct {
	fail map[string]error
	mu   sync.Mutex
	seen []string
}

func (e *fakeExtractor) Extract(_ context.Context, _ browser.Page, zip string) (market.ZipRecord, error) {
	e.mu.Lock()
	e.seen = append(e.seen, zip)
	e.mu.Unlock()
	if err := e.fail[zip]; err != nil {
		return market.ZipRecord{}, err
	}
	return market.ZipRecord{
		ZipCode:       zip,
		Status:        market.ZipStatusActive,
		ActiveUnits:   market.IntPtr(len(zip)),
		UpcomingUnits: market.IntPtr(1),
		RegionFound:   true,
	}, nil
}

type fakeMetroClient struct {
	areas     []market.MetroArea
	detail    market.MetroAreaDetail
	err       error
	listCalls int
}

func (c *fakeMetroClient) ListMetroAreas(context.Context, browser.Page) ([]market.MetroArea, error) {
	c.listCalls++
	if c.err != nil {
		return nil, c.err
	}
	return c.areas, nil
}

func (c *fakeMetroClient) GetMetroAreaDetail(_ context.Context, _ browser.Page, id string) (market.MetroAreaDetail, error) {
	if c.err != nil {
		return market.MetroAreaDetail{}, c.err
	}
	d := c.detail
	d.ID = id
	return d, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []market.ScrapeJob
}

func (p *recordingPublisher) PublishProgress(job market.ScrapeJob) {
	p.mu.Lock()
	p.jobs = append(p.jobs, job)
	p.mu.Unlock()
}

func (p *recordingPublisher) snapshot() []market.ScrapeJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]market.ScrapeJob(nil), p.jobs...)
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]market.MetroArea
	ttls map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]market.MetroArea{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	p, ok := out.(*[]market.MetroArea)
	if !ok {
		return false, errors.New("unexpected target")
	}
	*p = append([]market.MetroArea(nil), v...)
	return true, nil
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := value.([]market.MetroArea)
	if !ok {
		return errors.New("unexpected value")
	}
	c.data[key] = v
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

type memActivity struct {
	mu      sync.Mutex
	entries []market.ActivityEntry
}

func (a *memActivity) Append(_ context.Context, e market.ActivityEntry) error {
	a.mu.Lock()
	a.entries = append(a.entries, e)
	a.mu.Unlock()
	return nil
}

func (a *memActivity) Recent(_ context.Context, limit int) ([]market.ActivityEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]market.ActivityEntry, 0, len(a.entries))
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, a.entries[i])
	}
	return out, nil
}

func (a *memActivity) Backend() string { return "memory" }

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }
