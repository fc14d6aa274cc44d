package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/pkg/response"
	"metro-scrape/internal/usecase"
)

type DiagnosticsService interface {
	Activity(ctx context.Context, key string, limit int) ([]market.ActivityEntry, error)
	Health(ctx context.Context) usecase.HealthStatus
}

type DiagnosticsHandler struct {
	uc DiagnosticsService
}

func NewDiagnosticsHandler(uc DiagnosticsService) *DiagnosticsHandler {
	return &DiagnosticsHandler{uc: uc}
}

func (h *DiagnosticsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/activity", h.Activity)
}

func (h *DiagnosticsHandler) Activity(c fiber.Ctx) error {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return mapUsecaseError(usecase.ErrInvalidInput)
		}
		limit = n
	}

	entries, err := h.uc.Activity(c.Context(), c.Query("key"), limit)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}
