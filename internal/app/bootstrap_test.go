package app

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/config"
	"metro-scrape/internal/export"
	"metro-scrape/internal/pkg/jwt"
	"metro-scrape/internal/repository"
	"metro-scrape/internal/scraper"
	"metro-scrape/internal/session"
	"metro-scrape/internal/usecase"
	"metro-scrape/internal/ws"
)

type noLauncher struct{}

func (noLauncher) Acquire(context.Context) (browser.Session, error) {
	return nil, browser.ErrLaunch
}

func testContainer(t *testing.T) *Container {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	activity, err := repository.NewFileActivityRepository(filepath.Join(t.TempDir(), "activity.log"))
	if err != nil {
		t.Fatalf("activity repo: %v", err)
	}
	jobs := repository.NewMemoryJobStore()
	sessions := session.NewStore(time.Hour)
	tokens := jwt.NewHMACService("secret", time.Hour)
	auth := scraper.NewAuthenticator("https://example.test", "/login", 0, logger)
	directory := scraper.NewMetroDirectory("https://example.test", 0, logger)
	extractor := scraper.NewZipExtractor("https://example.test", nil, 0, logger)

	c := &Container{
		Config:   config.Config{App: config.AppConfig{AppName: "metro-scrape", Environment: "test"}},
		Logger:   logger,
		Jobs:     jobs,
		Activity: activity,
		Sessions: sessions,
		Tokens:   tokens,
		Launcher: noLauncher{},
		Hub:      ws.NewHub(logger),
	}
	c.Metros = usecase.NewMetroUsecase(c.Launcher, auth, directory, nil, 0, logger)
	c.Auth = usecase.NewAuthUsecase(c.Launcher, auth, c.Metros, sessions, tokens, activity, logger)
	c.Scrape = usecase.NewScrapeUsecase(jobs, c.Launcher, auth, extractor, export.NewExporter(), usecase.ScrapeOptions{Publisher: c.Hub, Logger: logger})
	c.Diagnostics = usecase.NewDiagnosticsUsecase("diag", activity, jobs, nil, nil)
	return c
}

func TestNew_Routes(t *testing.T) {
	a := New(testContainer(t))

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/health", "", 200},
		{http.MethodGet, "/api/v1/scrape/unknown/progress", "", 404},
		{http.MethodGet, "/api/v1/scrape/unknown/results", "", 404},
		{http.MethodGet, "/api/v1/scrape/unknown/export", "", 404},
		{http.MethodPost, "/api/v1/scrape", `{"cityName":"Atlanta","zipCodes":["30301"]}`, 401},
		{http.MethodGet, "/api/v1/metros/1", "", 401},
		{http.MethodGet, "/api/v1/diagnostics/activity?key=wrong", "", 403},
		{http.MethodGet, "/api/v1/diagnostics/activity?key=diag", "", 200},
		{http.MethodPost, "/api/v1/auth/logout", "", 200},
		{http.MethodPost, "/api/v1/auth/login", `{"email":"","password":""}`, 400},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.path, body)
			req.Header.Set("Content-Type", "application/json")
			resp, err := a.Fiber.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.StatusCode)
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Fatalf("expected request id header")
			}
		})
	}
}

func TestNew_LoginWithBrowserDownIsRecorded(t *testing.T) {
	c := testContainer(t)
	a := New(c)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"host@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.Fiber.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	entries, err := c.Activity.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Success || entries[0].Detail != "browser launch failed" || entries[0].Email != "host@example.com" {
		t.Fatalf("unexpected activity: %+v", entries)
	}
}

func TestListenAddr(t *testing.T) {
	cases := map[string]string{"8080": ":8080", ":9000": ":9000", " 80 ": ":80"}
	for in, want := range cases {
		got, err := ListenAddr(in)
		if err != nil || got != want {
			t.Fatalf("ListenAddr(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ListenAddr(" "); err == nil {
		t.Fatalf("expected error for empty port")
	}
}
