package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"

	"metro-scrape/internal/config"
	"metro-scrape/internal/delivery/http/handler"
	"metro-scrape/internal/delivery/http/middleware"
	"metro-scrape/internal/delivery/http/routes"
	"metro-scrape/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap builds the container and HTTP app. The returned cleanup stops
// background workers and closes storage.
func Bootstrap(ctx context.Context, cfg config.Config) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	bgCtx, stop := context.WithCancel(context.Background())
	c.StartBackground(bgCtx)

	cleanup := func() error {
		stop()
		return c.Close()
	}
	return New(c), cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(c.Logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	secure := strings.EqualFold(c.Config.App.Environment, "production")
	reg := &routes.Registry{
		Health:      handler.NewHealthHandler(c.Diagnostics),
		Auth:        handler.NewAuthHandler(c.Auth, secure),
		Metro:       handler.NewMetroHandler(c.Metros),
		Scrape:      handler.NewScrapeHandler(c.Scrape),
		Diagnostics: handler.NewDiagnosticsHandler(c.Diagnostics),
		WS:          ws.NewHandler(c.Hub, c.Logger),
		AuthMw:      middleware.NewAuthMiddleware(c.Auth),
	}
	reg.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
