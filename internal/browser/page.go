package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

var (
	ErrLaunch     = errors.New("browser launch failed")
	ErrNavigation = errors.New("navigation failed")
)

// Page is the subset of page automation the scrapers depend on.
type Page interface {
	// Goto navigates and returns once the network has gone idle.
	Goto(ctx context.Context, url string) error
	Fill(ctx context.Context, selector string, value string) error
	// Evaluate runs a JS expression; promises are awaited.
	Evaluate(ctx context.Context, expr string, out any) error
	BodyText(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

type chromePage struct {
	ctx        context.Context
	navTimeout time.Duration
}

func newChromePage(ctx context.Context, navTimeout time.Duration) *chromePage {
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	return &chromePage{ctx: ctx, navTimeout: navTimeout}
}

// run executes actions on the browser tab while honoring cancellation of the
// caller's ctx as well as the tab's own lifetime.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Goto(ctx context.Context, url string) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.navTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	idle := make(chan struct{}, 1)
	listenCtx, stopListen := context.WithCancel(runCtx)
	defer stopListen()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			select {
			case <-idle:
			default:
			}
		case "networkIdle":
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	err := chromedp.Run(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.SetLifecycleEventsEnabled(true).Do(ctx)
		}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}

	select {
	case <-idle:
		return nil
	case <-runCtx.Done():
		return fmt.Errorf("%w: %s: waiting for network idle: %v", ErrNavigation, url, runCtx.Err())
	}
}

func (p *chromePage) Fill(ctx context.Context, selector string, value string) error {
	return p.run(ctx, p.navTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

func (p *chromePage) Evaluate(ctx context.Context, expr string, out any) error {
	return p.run(ctx, p.navTimeout,
		chromedp.Evaluate(expr, out, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
			return ep.WithAwaitPromise(true)
		}),
	)
}

func (p *chromePage) BodyText(ctx context.Context) (string, error) {
	var text string
	err := p.run(ctx, p.navTimeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text),
	)
	return text, err
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var u string
	err := p.run(ctx, p.navTimeout, chromedp.Location(&u))
	return u, err
}

var _ Page = (*chromePage)(nil)
