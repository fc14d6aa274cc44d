package routes

import (
	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/delivery/http/handler"
	"metro-scrape/internal/delivery/http/middleware"
	"metro-scrape/internal/ws"
)

type Registry struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Metro       *handler.MetroHandler
	Scrape      *handler.ScrapeHandler
	Diagnostics *handler.DiagnosticsHandler
	WS          *ws.Handler
	AuthMw      *middleware.AuthMiddleware
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	v1 := app.Group("/api").Group("/v1")

	if r.Auth != nil {
		r.Auth.RegisterRoutes(v1.Group("/auth"))
	}
	if r.Metro != nil {
		r.Metro.RegisterRoutes(v1.Group("/metros", r.AuthMw.Middleware()))
	}
	if r.Scrape != nil {
		scrape := v1.Group("/scrape")
		if r.WS != nil {
			scrape.Get("/ws", r.WS.HandleScrapeWS)
		}
		r.Scrape.RegisterRoutes(scrape, r.AuthMw.Middleware())
	}
	if r.Diagnostics != nil {
		r.Diagnostics.RegisterRoutes(v1.Group("/diagnostics"))
	}
}
