package session

import (
	"errors"
	"testing"
	"time"

	"metro-scrape/internal/domain/market"
)

func TestStore_CreateGetDelete(t *testing.T) {
	s := NewStore(time.Hour)
	sess := s.Create(market.Credentials{Email: "host@example.com", Password: "pw"})
	if sess.ID == "" {
		t.Fatalf("expected id")
	}
	if got := sess.ExpiresAt.Sub(sess.CreatedAt); got != time.Hour {
		t.Fatalf("expected 1h window, got %s", got)
	}

	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Credentials.Password != "pw" {
		t.Fatalf("unexpected credentials: %+v", got.Credentials)
	}

	s.Delete(sess.ID)
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := NewStore(time.Hour)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	sess := s.Create(market.Credentials{Email: "a@b.c"})

	s.now = func() time.Time { return base.Add(59 * time.Minute) }
	if _, err := s.Get(sess.ID); err != nil {
		t.Fatalf("expected live session, got %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected eviction after expiry, got %v", err)
	}
}

func TestStore_Sweep(t *testing.T) {
	s := NewStore(time.Minute)
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	s.Create(market.Credentials{Email: "one"})
	s.now = func() time.Time { return base.Add(30 * time.Second) }
	keep := s.Create(market.Credentials{Email: "two"})

	s.now = func() time.Time { return base.Add(time.Minute + time.Second) }
	if n := s.Sweep(); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if _, err := s.Get(keep.ID); err != nil {
		t.Fatalf("expected second session to survive, got %v", err)
	}
}
