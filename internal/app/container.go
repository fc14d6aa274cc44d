package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"metro-scrape/internal/browser"
	"metro-scrape/internal/config"
	"metro-scrape/internal/database"
	"metro-scrape/internal/database/migration"
	dbpostgres "metro-scrape/internal/database/postgres"
	"metro-scrape/internal/export"
	"metro-scrape/internal/infrastructure/cache"
	"metro-scrape/internal/pkg/jwt"
	"metro-scrape/internal/repository"
	"metro-scrape/internal/scraper"
	"metro-scrape/internal/session"
	"metro-scrape/internal/usecase"
	"metro-scrape/internal/ws"
	"metro-scrape/migrations"
)

// Container owns every long-lived dependency of the service and the CLI.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB       database.DB
	Redis    *cache.Redis
	Jobs     repository.JobStore
	Activity repository.ActivityRepository
	Sessions *session.Store
	Tokens   *jwt.HMACService
	Launcher browser.Launcher
	Hub      *ws.Hub

	Scrape      *usecase.ScrapeUsecase
	Auth        *usecase.AuthUsecase
	Metros      *usecase.MetroUsecase
	Diagnostics *usecase.DiagnosticsUsecase
}

func NewContainer(ctx context.Context, cfg config.Config, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	if err := c.initStorage(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	policy, err := scraper.DefaultPolicy().
		WithRegionWindow(cfg.Scrape.RegionWindow).
		WithHeuristics(cfg.Scrape.NoDataPhrases, cfg.Scrape.NoActivePattern)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("invalid NO_ACTIVE_PATTERN: %w", err)
	}

	c.Launcher = browser.NewChromeLauncher(browser.Options{
		Headless:          cfg.Browser.Headless,
		ExecPath:          cfg.Browser.ExecPath,
		UserAgent:         cfg.Browser.UserAgent,
		NavigationTimeout: cfg.Scrape.NavigationTimeout,
	}, logger)

	authenticator := scraper.NewAuthenticator(cfg.Target.BaseURL, cfg.Target.LoginPath, cfg.Scrape.LoginSettleDelay, logger)
	directory := scraper.NewMetroDirectory(cfg.Target.BaseURL, cfg.Scrape.SettleDelay, logger)
	extractor := scraper.NewZipExtractor(cfg.Target.BaseURL, policy, cfg.Scrape.SettleDelay, logger)

	c.Hub = ws.NewHub(logger)
	c.Sessions = session.NewStore(cfg.Session.TTL)
	c.Tokens = jwt.NewHMACService(cfg.Session.Secret, cfg.Session.TTL)

	var metroCache usecase.JSONCache
	if c.Redis.Available() {
		metroCache = c.Redis
	}
	c.Metros = usecase.NewMetroUsecase(c.Launcher, authenticator, directory, metroCache, cfg.Redis.TTL, logger)
	c.Auth = usecase.NewAuthUsecase(c.Launcher, authenticator, c.Metros, c.Sessions, c.Tokens, c.Activity, logger)
	c.Scrape = usecase.NewScrapeUsecase(c.Jobs, c.Launcher, authenticator, extractor, export.NewExporter(), usecase.ScrapeOptions{
		RequestDelay: cfg.Scrape.RequestDelay,
		Publisher:    c.Hub,
		Logger:       logger,
	})

	var redisPing, dbPing usecase.Pinger
	if c.Redis.Available() {
		redisPing = c.Redis
	}
	if c.DB != nil {
		dbPing = c.DB
	}
	c.Diagnostics = usecase.NewDiagnosticsUsecase(cfg.Diagnostics.Key, c.Activity, c.Jobs, redisPing, dbPing)

	logger.Printf("container status=ready job_store=%s activity_log=%s policy=%s", c.Jobs.Backend(), c.Activity.Backend(), policy.Version)
	return c, nil
}

func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config

	c.Redis = cache.NewRedis(cfg.Redis, c.Logger)

	switch cfg.Storage.JobStore {
	case "redis":
		store, err := cache.NewRedisJobStore(c.Redis)
		if err != nil {
			return fmt.Errorf("JOB_STORE=redis: %w", err)
		}
		c.Jobs = store
	default:
		c.Jobs = repository.NewMemoryJobStore()
	}

	if cfg.Database.Enabled() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := dbpostgres.Connect(connectCtx, cfg.Database)
		if err != nil {
			return err
		}
		c.DB = db

		runner := migration.Runner{FS: migrations.FS, Logger: c.Logger}
		if err := runner.Run(ctx, db.SQLDB()); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		c.Activity = repository.NewPostgresActivityRepository(db)
		return nil
	}

	activity, err := repository.NewFileActivityRepository(cfg.Storage.ActivityLogPath)
	if err != nil {
		return err
	}
	c.Activity = activity
	return nil
}

// StartBackground runs the websocket hub and the session sweeper until ctx
// is done.
func (c *Container) StartBackground(ctx context.Context) {
	go c.Hub.Run(ctx)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sessions.Sweep(); n > 0 {
					c.Logger.Printf("session_sweep removed=%d", n)
				}
			}
		}
	}()
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var firstErr error
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
