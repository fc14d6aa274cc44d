package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

const (
	emailSelector    = `input[name="email"]`
	passwordSelector = `input[name="password"]`
)

// clickSignInJS clicks the first visible control whose label reads "sign in"
// and that is not a third-party SSO button.
const clickSignInJS = `(() => {
	const controls = Array.from(document.querySelectorAll('button, input[type="submit"], [role="button"]'));
	const label = el => ((el.innerText || el.value || el.getAttribute('aria-label') || '') + '').trim();
	const target = controls.find(el => {
		const text = label(el);
		return /sign\s*in/i.test(text) && !/google|facebook|apple/i.test(text);
	});
	if (!target) {
		return false;
	}
	target.click();
	return true;
})()`

type Authenticator struct {
	baseURL   string
	loginPath string
	settle    time.Duration
	sleep     Sleeper
	logger    *log.Logger
}

func NewAuthenticator(baseURL string, loginPath string, settle time.Duration, logger *log.Logger) *Authenticator {
	if strings.TrimSpace(loginPath) == "" {
		loginPath = "/login"
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Authenticator{
		baseURL:   baseURL,
		loginPath: loginPath,
		settle:    settle,
		sleep:     SleepContext,
		logger:    logger,
	}
}

// Login submits the login form. Success means the browser navigated away
// from the login path; nothing else is verified.
func (a *Authenticator) Login(ctx context.Context, page browser.Page, creds market.Credentials) error {
	loginURL := joinURL(a.baseURL, a.loginPath)

	if err := page.Goto(ctx, loginURL); err != nil {
		return err
	}
	if err := page.Fill(ctx, emailSelector, creds.Email); err != nil {
		return fmt.Errorf("%w: fill email: %v", ErrLoginFailed, err)
	}
	if err := page.Fill(ctx, passwordSelector, creds.Password); err != nil {
		return fmt.Errorf("%w: fill password: %v", ErrLoginFailed, err)
	}

	var clicked bool
	if err := page.Evaluate(ctx, clickSignInJS, &clicked); err != nil {
		return fmt.Errorf("%w: click sign in: %v", ErrLoginFailed, err)
	}
	if !clicked {
		return fmt.Errorf("%w: sign in control not found", ErrLoginFailed)
	}

	if err := a.sleep(ctx, a.settle); err != nil {
		return err
	}

	current, err := page.URL(ctx)
	if err != nil {
		return fmt.Errorf("%w: read location: %v", ErrLoginFailed, err)
	}
	if !isLoginPath(current, a.loginPath) {
		a.logger.Printf("auth_login email=%s status=ok url=%s", creds.Email, current)
		return nil
	}

	body, err := page.BodyText(ctx)
	if err != nil {
		a.logger.Printf("auth_login email=%s status=failed url=%s err=%v", creds.Email, current, err)
		return fmt.Errorf("%w: still on login page", ErrLoginFailed)
	}
	failure := classifyLoginFailure(body)
	a.logger.Printf("auth_login email=%s status=failed url=%s reason=%v", creds.Email, current, failure)
	return failure
}

func isLoginPath(rawURL string, loginPath string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return strings.Contains(rawURL, loginPath)
	}
	p := strings.TrimRight(u.Path, "/")
	lp := strings.TrimRight(loginPath, "/")
	return p == lp || strings.HasPrefix(p, lp+"/")
}

func classifyLoginFailure(body string) error {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "invalid") || strings.Contains(lower, "incorrect") {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("%w: still on login page", ErrLoginFailed)
}
