package scraper

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
)

func newTestAuthenticator() *Authenticator {
	a := NewAuthenticator("https://example.test", "/login", 0, log.New(io.Discard, "", 0))
	a.sleep = noSleep
	return a
}

var testCreds = market.Credentials{Email: "host@example.test", Password: "hunter2"}

func TestAuthenticator_Success(t *testing.T) {
	page := newFakePage()
	page.evals["sign"] = true
	page.urlAfter = "https://example.test/host/dashboard"

	if err := newTestAuthenticator().Login(context.Background(), page, testCreds); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.filled[emailSelector] != testCreds.Email || page.filled[passwordSelector] != testCreds.Password {
		t.Fatalf("form not filled: %v", page.filled)
	}
	if page.visited[0] != "https://example.test/login" {
		t.Fatalf("unexpected login url: %s", page.visited[0])
	}
}

func TestAuthenticator_InvalidCredentials(t *testing.T) {
	page := newFakePage()
	page.evals["sign"] = true
	page.urlAfter = "https://example.test/login?error=1"
	page.texts[""] = "Incorrect email or password"

	err := newTestAuthenticator().Login(context.Background(), page, testCreds)
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticator_GenericFailure(t *testing.T) {
	page := newFakePage()
	page.evals["sign"] = true
	page.urlAfter = "https://example.test/login/"
	page.texts[""] = "Something went wrong"

	err := newTestAuthenticator().Login(context.Background(), page, testCreds)
	if !errors.Is(err, ErrLoginFailed) || errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected generic ErrLoginFailed, got %v", err)
	}
}

func TestAuthenticator_NoSignInControl(t *testing.T) {
	page := newFakePage()
	page.evals["sign"] = false

	err := newTestAuthenticator().Login(context.Background(), page, testCreds)
	if !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected ErrLoginFailed, got %v", err)
	}
}

func TestAuthenticator_NavigationFailurePropagates(t *testing.T) {
	page := newFakePage()
	page.gotoErr["/login"] = browser.ErrNavigation

	err := newTestAuthenticator().Login(context.Background(), page, testCreds)
	if !errors.Is(err, browser.ErrNavigation) {
		t.Fatalf("expected ErrNavigation, got %v", err)
	}
}

func TestIsLoginPath(t *testing.T) {
	cases := map[string]bool{
		"https://example.test/login":         true,
		"https://example.test/login?next=/x": true,
		"https://example.test/login/mfa":     true,
		"https://example.test/loginhelp":     false,
		"https://example.test/host/insights": false,
	}
	for u, want := range cases {
		if got := isLoginPath(u, "/login"); got != want {
			t.Errorf("isLoginPath(%q) = %t, want %t", u, got, want)
		}
	}
}
