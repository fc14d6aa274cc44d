package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/delivery/http/middleware"
	"metro-scrape/internal/pkg/response"
	"metro-scrape/internal/usecase"
)

type AuthService interface {
	Login(ctx context.Context, in usecase.LoginInput) (usecase.LoginResult, error)
	Logout(ctx context.Context, token string, ip string, userAgent string)
}

type AuthHandler struct {
	uc           AuthService
	secureCookie bool
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(uc AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{uc: uc, secureCookie: secureCookie}
}

func (h *AuthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	res, err := h.uc.Login(c.Context(), usecase.LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		return mapUsecaseError(err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	data := map[string]any{
		"metroAreas": res.MetroAreas,
		"expiresAt":  res.ExpiresAt.UTC().Format(time.RFC3339),
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

func (h *AuthHandler) Logout(c fiber.Ctx) error {
	if tok := middleware.SessionToken(c); tok != "" {
		h.uc.Logout(c.Context(), tok, c.IP(), c.Get("User-Agent"))
	}
	c.ClearCookie(middleware.SessionCookie)
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}
