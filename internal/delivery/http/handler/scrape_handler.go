package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/delivery/http/middleware"
	"metro-scrape/internal/domain/market"
	"metro-scrape/internal/export"
	"metro-scrape/internal/pkg/response"
	"metro-scrape/internal/usecase"
)

type ScrapeService interface {
	Start(ctx context.Context, cityName string, zipCodes []string, creds market.Credentials) (string, error)
	Progress(ctx context.Context, id string) (usecase.JobProgress, error)
	Results(ctx context.Context, id string) (usecase.JobResults, error)
	Export(ctx context.Context, id string) (export.Document, error)
}

type ScrapeHandler struct {
	uc ScrapeService
}

type startScrapeRequest struct {
	CityName string   `json:"cityName"`
	ZipCodes []string `json:"zipCodes"`
}

func NewScrapeHandler(uc ScrapeService) *ScrapeHandler {
	return &ScrapeHandler{uc: uc}
}

// RegisterRoutes mounts the job endpoints. Start needs a session; the
// id-addressed reads do not, the job id acts as the capability.
func (h *ScrapeHandler) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	if r == nil {
		return
	}

	r.Post("/", auth, h.Start)
	r.Get("/:id/progress", h.Progress)
	r.Get("/:id/results", h.Results)
	r.Get("/:id/export", h.Export)
}

func (h *ScrapeHandler) Start(c fiber.Ctx) error {
	sess, err := requireSession(c)
	if err != nil {
		return err
	}

	var req startScrapeRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}

	id, err := h.uc.Start(c.Context(), req.CityName, req.ZipCodes, sess.Credentials)
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusAccepted, response.MessageAccepted, map[string]any{"jobId": id})
}

func (h *ScrapeHandler) Progress(c fiber.Ctx) error {
	p, err := h.uc.Progress(c.Context(), c.Params("id"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, p)
}

func (h *ScrapeHandler) Results(c fiber.Ctx) error {
	r, err := h.uc.Results(c.Context(), c.Params("id"))
	if err != nil {
		return mapUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, r)
}

func (h *ScrapeHandler) Export(c fiber.Ctx) error {
	doc, err := h.uc.Export(c.Context(), c.Params("id"))
	if err != nil {
		return mapUsecaseError(err)
	}

	return response.Attachment(c, export.ContentType, doc.Filename, doc.Data)
}
