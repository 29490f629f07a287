package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jobscout-engine/internal/config"
	"jobscout-engine/internal/enrich"
	"jobscout-engine/internal/export"
	"jobscout-engine/internal/pipeline"
	"jobscout-engine/internal/render"
	"jobscout-engine/internal/store"
	"jobscout-engine/internal/walk"
)

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	dataDir := os.Getenv("JOBSCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	cfg, err := config.Load(userCfgPath)
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	if dsn := os.Getenv("JOBSCOUT_DSN"); dsn != "" {
		cfg.Store.DSN = dsn
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store.DSN)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		log.Fatalf("migrate store: %v", err)
	}

	// The browser drives the search UI; detail pages are served
	// server-rendered for guest sessions and go over plain HTTP so each
	// concurrent fetch owns an independent session.
	chrome, err := render.NewChrome(ctx, cfg.Render.Headless)
	if err != nil {
		log.Fatalf("renderer setup: %v", err)
	}
	defer chrome.Close()
	static := render.NewStatic(cfg.Render.RequestsPerSecond, cfg.Render.Burst)

	walker := walk.New(chrome, cfg.Search.Keywords, cfg.Search.Location, cfg.Search.Pages)
	walker.ProbeTimeout = time.Duration(cfg.Walk.ProbeTimeoutSeconds) * time.Second
	walker.Settle = time.Duration(cfg.Walk.SettleSeconds) * time.Second

	enricher := enrich.New(static, cfg.Search.Location)
	enricher.FetchTimeout = time.Duration(cfg.Enrich.FetchTimeoutSeconds) * time.Second
	enricher.WaitTimeout = time.Duration(cfg.Enrich.WaitTimeoutSeconds) * time.Second
	enricher.Settle = time.Duration(cfg.Enrich.SettleSeconds) * time.Second

	p := &pipeline.Pipeline{
		Walker:    walker,
		Enricher:  enricher,
		Store:     st,
		Export:    export.NewWriter(filepath.Join(dataDir, cfg.Export.Path)),
		BatchSize: cfg.Enrich.BatchSize,
	}

	if err := p.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
