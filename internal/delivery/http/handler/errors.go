package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/delivery/http/middleware"
	"metro-scrape/internal/pkg/response"
	"metro-scrape/internal/scraper"
	"metro-scrape/internal/session"
	"metro-scrape/internal/usecase"
)

func mapUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, scraper.ErrInvalidCredentials), errors.Is(err, scraper.ErrLoginFailed):
		return middleware.NewAppError(fiber.StatusUnauthorized, err.Error(), nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrJobNotCompleted):
		return middleware.NewAppError(fiber.StatusBadRequest, "Job not completed", nil, err)
	case errors.Is(err, usecase.ErrForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, "Forbidden", nil, err)
	case errors.Is(err, usecase.ErrDiagnosticsDisabled):
		return middleware.NewAppError(fiber.StatusNotFound, "Not found", nil, err)
	case errors.Is(err, browser.ErrLaunch):
		return middleware.NewAppError(fiber.StatusServiceUnavailable, response.MessageInternalServerError, nil, err)
	case errors.Is(err, browser.ErrNavigation), errors.Is(err, scraper.ErrDirectory):
		return middleware.NewAppError(fiber.StatusBadGateway, response.MessageInternalServerError, nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}

func requireSession(c fiber.Ctx) (session.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return session.Session{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return sess, nil
}
