package main

import (
	"os"
	"time"

	"bibliodash/internal/api"
	"bibliodash/internal/config"
	"bibliodash/internal/engine"

	"github.com/labstack/gommon/log"
)

func main() {
	// 1. Configuration (env, then flags)
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	log.SetPrefix("bibliodash")
	log.SetLevel(cfg.Level())

	// 2. Catalog and handler. Data endpoints answer 503 until the warm-up finishes
	catalog := engine.NewCatalog(engine.CatalogConfig{
		DataDir:  cfg.DataDir,
		Workbook: cfg.Workbook,
		Seed:     cfg.Seed,
	}, engine.NewStore())
	h := api.NewHandler(catalog, cfg.Seed)

	e := api.NewServer(api.ServerConfig{Origins: cfg.Origins, Rate: cfg.Rate}, h)
	e.Logger.SetLevel(cfg.Level())

	// 3. Load snapshots in the background
	go func() {
		log.Infof("BACKGROUND: loading datasets from %s", cfg.DataDir)
		t0 := time.Now()
		catalog.Warm()
		h.SetReady()
		log.Infof("Load Complete. Time: %v", time.Since(t0))
	}()

	// 4. Start server
	log.Infof("Server ready on port %s (data loading in background...)", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
