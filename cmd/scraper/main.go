package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"metro-scrape/internal/app"
	"metro-scrape/internal/config"
	"metro-scrape/internal/domain/market"
)

// Runs one scrape job synchronously and writes the xlsx export.
// The password is read from SCRAPER_PASSWORD so it stays out of shell history.
func main() {
	city := flag.String("city", "", "city name used to tag rows and name the export")
	zips := flag.String("zips", "", "comma-separated zip codes")
	email := flag.String("email", os.Getenv("SCRAPER_EMAIL"), "account email (default $SCRAPER_EMAIL)")
	out := flag.String("out", "", "output directory (default EXPORT_DIR)")
	timeout := flag.Duration("timeout", 2*time.Hour, "overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zipCodes := splitZips(*zips)
	if strings.TrimSpace(*city) == "" || len(zipCodes) == 0 {
		log.Fatalf("provide -city and -zips")
	}
	password := os.Getenv("SCRAPER_PASSWORD")
	if strings.TrimSpace(*email) == "" || password == "" {
		log.Fatalf("provide -email (or SCRAPER_EMAIL) and SCRAPER_PASSWORD")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c, err := app.NewContainer(ctx, cfg, log.Default())
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()
	c.StartBackground(ctx)

	id, err := c.Scrape.Start(ctx, *city, zipCodes, market.Credentials{Email: strings.TrimSpace(*email), Password: password})
	if err != nil {
		log.Fatalf("start scrape failed: %v", err)
	}
	if err := c.Scrape.Wait(ctx, id); err != nil {
		log.Fatalf("scrape did not finish: %v", err)
	}

	job, err := c.Scrape.Job(ctx, id)
	if err != nil {
		log.Fatalf("read job failed: %v", err)
	}
	if job.Status != market.JobStatusCompleted {
		log.Fatalf("scrape failed: status=%s err=%s", job.Status, job.Error)
	}

	doc, err := c.Scrape.Export(ctx, id)
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	dir := strings.TrimSpace(*out)
	if dir == "" {
		dir = cfg.Storage.ExportDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	path := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		log.Fatalf("write export: %v", err)
	}

	fmt.Println(path)
}

func splitZips(raw string) []string {
	var out []string
	for _, z := range strings.Split(raw, ",") {
		if z = strings.TrimSpace(z); z != "" {
			out = append(out, z)
		}
	}
	return out
}
