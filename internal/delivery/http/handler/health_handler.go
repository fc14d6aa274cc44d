package handler

import (
	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/pkg/response"
)

type HealthHandler struct {
	uc DiagnosticsService
}

func NewHealthHandler(uc DiagnosticsService) *HealthHandler {
	return &HealthHandler{uc: uc}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	if h.uc == nil {
		return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, h.uc.Health(c.Context()))
}
