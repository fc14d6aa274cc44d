package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/session"
)

const (
	SessionCookie = "session"
	CtxSessionKey = "session"
)

type SessionAuthenticator interface {
	Authenticate(token string) (session.Session, error)
}

// AuthMiddleware resolves the session cookie (or a bearer token) to the
// server-side session and stores it in Locals.
type AuthMiddleware struct {
	auth SessionAuthenticator
}

func NewAuthMiddleware(auth SessionAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		token := SessionToken(c)
		if token == "" {
			return NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
		}

		sess, err := m.auth.Authenticate(token)
		if err != nil {
			return NewAppError(fiber.StatusUnauthorized, "Session expired or invalid", nil, err)
		}

		c.Locals(CtxSessionKey, sess)
		return c.Next()
	}
}

func SessionFrom(c fiber.Ctx) (session.Session, bool) {
	sess, ok := c.Locals(CtxSessionKey).(session.Session)
	return sess, ok
}

// SessionToken prefers the cookie and falls back to an Authorization bearer.
func SessionToken(c fiber.Ctx) string {
	if tok := strings.TrimSpace(c.Cookies(SessionCookie)); tok != "" {
		return tok
	}
	tok, _ := bearerTokenFromHeader(c.Get("Authorization"))
	return tok
}

func bearerTokenFromHeader(authHeader string) (string, bool) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
