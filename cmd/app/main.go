package main

import (
	"flag"
	"log"
	"os"

	"OppRadar/internal/di"
	"OppRadar/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// Local overrides; absence is fine
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s exchange=bybit interval=%s", cfg.Environment, cfg.Analysis.Interval)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
