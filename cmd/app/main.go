package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"SigForge/internal/di"
	"SigForge/pkg/config"
	"SigForge/pkg/util"

	"github.com/joho/godotenv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "serve", "serve, generate or backfill")
	symbol := flag.String("symbol", "", "symbol for -mode generate")
	date := flag.String("date", "", "trading date YYYY-MM-DD (generate: optional, backfill: ignored)")
	task := flag.String("task", "all", "pipeline stage: features, signals or all")
	symbols := flag.String("symbols", "", "comma-separated symbols for -mode backfill")
	from := flag.String("from", "", "backfill range start YYYY-MM-DD")
	to := flag.String("to", "", "backfill range end YYYY-MM-DD")
	flag.Parse()

	// .env is optional; real env wins either way
	_ = godotenv.Load()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s backend=%s data_dir=%s", cfg.Environment, cfg.Storage.Backend, cfg.Storage.DataDir)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	switch *mode {
	case "serve":
		// Run application (blocks until signal)
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}

	case "generate":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		summary, err := app.RunOnce(ctx, *symbol, *date, *task)
		app.Close()
		if err != nil {
			log.Fatalf("generate failed: %v", err)
		}
		out, _ := json.MarshalIndent(summary, "", "  ")
		fmt.Println(string(out))

	case "backfill":
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		done, err := app.RunBackfill(ctx, util.SplitCSV(*symbols), *from, *to, *task)
		app.Close()
		if err != nil {
			log.Fatalf("backfill failed after %d runs: %v", done, err)
		}
		log.Printf("backfill done: %d runs", done)

	default:
		log.Fatalf("unknown mode %q (want serve, generate or backfill)", *mode)
	}
}
