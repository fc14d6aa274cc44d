package browser

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// Session is one isolated browser instance with a single tab. It must be
// closed on every exit path.
type Session interface {
	Page() Page
	Close() error
}

// Launcher hands out a fresh Session per logical operation.
type Launcher interface {
	Acquire(ctx context.Context) (Session, error)
}

const startupTimeout = 30 * time.Second

type Options struct {
	Headless          bool
	ExecPath          string
	UserAgent         string
	NavigationTimeout time.Duration
}

type ChromeLauncher struct {
	opts   Options
	logger *log.Logger
}

func NewChromeLauncher(opts Options, logger *log.Logger) *ChromeLauncher {
	if logger == nil {
		logger = log.Default()
	}
	return &ChromeLauncher{opts: opts, logger: logger}
}

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1440, 900),
	)
	if l.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.opts.UserAgent))
	}
	if l.opts.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.opts.ExecPath))
	}
	return opts
}

// Acquire launches a new browser process. The session is detached from ctx's
// cancellation so that a request-scoped ctx cannot kill a background job's
// browser; callers control the lifetime through Close.
func (l *ChromeLauncher) Acquire(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), l.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...any) {}))

	// The first Run binds the browser lifetime to its ctx, so it must not
	// carry the startup timeout.
	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	var err error
	select {
	case err = <-started:
	case <-time.After(startupTimeout):
		err = fmt.Errorf("no response after %s", startupTimeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	l.logger.Printf("browser_session status=acquired headless=%t", l.opts.Headless)
	return &chromeSession{
		ctx:           browserCtx,
		page:          newChromePage(browserCtx, l.opts.NavigationTimeout),
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		logger:        l.logger,
	}, nil
}

type chromeSession struct {
	ctx           context.Context
	page          *chromePage
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        *log.Logger

	once sync.Once
}

func (s *chromeSession) Page() Page {
	return s.page
}

// Close shuts down the whole browser process, not only the tab.
func (s *chromeSession) Close() error {
	var err error
	s.once.Do(func() {
		closeCtx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		err = chromedp.Cancel(closeCtx)
		cancel()
		s.browserCancel()
		s.allocCancel()
		if s.logger != nil {
			s.logger.Printf("browser_session status=released")
		}
	})
	return err
}

var _ Launcher = (*ChromeLauncher)(nil)

// With acquires a session, runs fn against its page and always releases the
// session afterwards, whatever fn returns.
func With(ctx context.Context, l Launcher, fn func(p Page) error) error {
	s, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = s.Close()
	}()
	return fn(s.Page())
}
