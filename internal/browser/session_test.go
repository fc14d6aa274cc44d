package browser

import (
	"context"
	"errors"
	"testing"
)

type stubSession struct {
	closed int
}

func (s *stubSession) Page() Page   { return nil }
func (s *stubSession) Close() error { s.closed++; return nil }

type stubLauncher struct {
	session *stubSession
	err     error
}

func (l *stubLauncher) Acquire(context.Context) (Session, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.session, nil
}

func TestWith_ReleasesOnError(t *testing.T) {
	s := &stubSession{}
	boom := errors.New("boom")
	err := With(context.Background(), &stubLauncher{session: s}, func(Page) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if s.closed != 1 {
		t.Fatalf("expected session closed once, got %d", s.closed)
	}
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	s := &stubSession{}
	func() {
		defer func() { _ = recover() }()
		_ = With(context.Background(), &stubLauncher{session: s}, func(Page) error { panic("x") })
	}()
	if s.closed != 1 {
		t.Fatalf("expected session closed once, got %d", s.closed)
	}
}

func TestWith_LaunchFailurePropagates(t *testing.T) {
	called := false
	err := With(context.Background(), &stubLauncher{err: ErrLaunch}, func(Page) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrLaunch) {
		t.Fatalf("expected ErrLaunch, got %v", err)
	}
	if called {
		t.Fatalf("fn must not run when launch fails")
	}
}

func TestAllocatorOptions_IncludeUserAgentAndExecPath(t *testing.T) {
	base := NewChromeLauncher(Options{Headless: true}, nil).allocatorOptions()
	full := NewChromeLauncher(Options{Headless: true, UserAgent: "ua", ExecPath: "/usr/bin/chromium"}, nil).allocatorOptions()
	if len(full) != len(base)+2 {
		t.Fatalf("expected 2 extra options, got base=%d full=%d", len(base), len(full))
	}
}
