package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/pkg/response"
)

type MetroService interface {
	ListMetroAreas(ctx context.Context, creds market.Credentials) ([]market.MetroArea, error)
	GetMetroAreaDetail(ctx context.Context, creds market.Credentials, metroID string) (market.MetroAreaDetail, error)
}

type MetroHandler struct {
	uc MetroService
}

func NewMetroHandler(uc MetroService) *MetroHandler {
	return &MetroHandler{uc: uc}
}

func (h *MetroHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Get("/", h.List)
	r.Get("/:id", h.Detail)
}

func (h *MetroHandler) List(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	areas, err := h.uc.ListMetroAreas(c.Context(), sess.Credentials)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, map[string]any{"metroAreas": areas})
}

func (h *MetroHandler) Detail(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}
	detail, err := h.uc.GetMetroAreaDetail(c.Context(), sess.Credentials, c.Params("id"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, detail)
}
