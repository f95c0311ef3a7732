package main

import (
	"flag"
	"log"
	"os"

	"NightScan/internal/di"
	"NightScan/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", config.ModeFull, "run mode: test or full")
	flag.Parse()

	if *mode != config.ModeTest && *mode != config.ModeFull {
		log.Fatalf("unknown mode %q: want %s or %s", *mode, config.ModeTest, config.ModeFull)
	}

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s mode=%s universe=%s", cfg.Environment, *mode, cfg.Universe.File)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run the nightly pipeline (blocks until done or signal)
	if err := app.Run(*mode); err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(1)
	}
}
