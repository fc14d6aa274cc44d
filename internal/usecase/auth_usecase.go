package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/pkg/jwt"
	"metro-scrape/internal/repository"
	"metro-scrape/internal/session"
)

const (
	ActionLogin  = "login"
	ActionLogout = "logout"
)

const maxDetailBytes = 200

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	Token      string
	ExpiresAt  time.Time
	MetroAreas []market.MetroArea
}

// AuthUsecase verifies credentials against the target site and keeps them in
// a server-side session addressed by a signed token.
type AuthUsecase struct {
	launcher browser.Launcher
	auth     Authenticator
	metros   *MetroUsecase
	sessions *session.Store
	tokens   jwt.Service
	activity repository.ActivityRepository
	logger   *log.Logger
	now      func() time.Time
}

func NewAuthUsecase(launcher browser.Launcher, auth Authenticator, metros *MetroUsecase, sessions *session.Store, tokens jwt.Service, activity repository.ActivityRepository, logger *log.Logger) *AuthUsecase {
	if logger == nil {
		logger = log.Default()
	}
	return &AuthUsecase{
		launcher: launcher,
		auth:     auth,
		metros:   metros,
		sessions: sessions,
		tokens:   tokens,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// Login drives the target login form in a fresh browser session and, on
// success, fetches the metro list through the same session. Every attempt is
// recorded in the activity log.
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	creds := market.Credentials{Email: email, Password: in.Password}

	var areas []market.MetroArea
	err := browser.With(ctx, u.launcher, func(page browser.Page) error {
		if err := u.auth.Login(ctx, page, creds); err != nil {
			return err
		}
		var err error
		areas, err = u.metros.client.ListMetroAreas(ctx, page)
		return err
	})

	u.record(ctx, ActionLogin, in, err)
	if err != nil {
		u.logger.Printf("auth_login email=%s status=failed err=%v", email, err)
		return LoginResult{}, err
	}

	u.metros.remember(ctx, email, areas)

	sess := u.sessions.Create(creds)
	token, err := u.tokens.GenerateSessionToken(sess.ID, email)
	if err != nil {
		u.sessions.Delete(sess.ID)
		return LoginResult{}, fmt.Errorf("%w: sign session: %v", ErrInternal, err)
	}

	u.logger.Printf("auth_login email=%s status=ok metros=%d", email, len(areas))
	return LoginResult{Token: token, ExpiresAt: sess.ExpiresAt, MetroAreas: areas}, nil
}

// Authenticate resolves a session token to its live server-side session.
func (u *AuthUsecase) Authenticate(token string) (session.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return session.Session{}, ErrUnauthorized
	}
	claims, err := u.tokens.ValidateToken(token)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	sess, err := u.sessions.Get(claims.SessionID)
	if err != nil {
		return session.Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return sess, nil
}

// Logout is idempotent: unknown or expired tokens succeed silently.
func (u *AuthUsecase) Logout(ctx context.Context, token string, ip string, userAgent string) {
	claims, err := u.tokens.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		return
	}
	if sess, err := u.sessions.Get(claims.SessionID); err == nil {
		u.metros.forget(ctx, sess.Credentials.Email)
	}
	u.sessions.Delete(claims.SessionID)
	u.record(ctx, ActionLogout, LoginInput{Email: claims.Email, IP: ip, UserAgent: userAgent}, nil)
}

func (u *AuthUsecase) record(ctx context.Context, action string, in LoginInput, err error) {
	if u.activity == nil {
		return
	}
	entry := market.ActivityEntry{
		Timestamp: u.now().UTC(),
		Action:    action,
		Success:   err == nil,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		Email:     strings.TrimSpace(in.Email),
	}
	if err != nil {
		entry.Detail = activityDetail(err)
	}
	if aerr := u.activity.Append(context.WithoutCancel(ctx), entry); aerr != nil {
		u.logger.Printf("activity_log action=%s status=failed err=%v", action, aerr)
	}
}

func activityDetail(err error) string {
	var msg string
	switch {
	case errors.Is(err, browser.ErrLaunch):
		msg = "browser launch failed"
	default:
		msg = err.Error()
	}
	if len(msg) > maxDetailBytes {
		cut := maxDetailBytes
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
