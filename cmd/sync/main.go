package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/stockdd-timeline/internal/app"
	"github.com/ajharbinger/stockdd-timeline/internal/database"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
	"github.com/ajharbinger/stockdd-timeline/pkg/config"
)

func main() {
	ticker := flag.String("ticker", "", "sync a single tracked ticker instead of all companies")
	summarize := flag.Bool("summarize", true, "generate headlines for new filings")
	limit := flag.Int("limit", 0, "filings requested per company (0 uses the default)")
	resummarize := flag.Bool("resummarize", false, "only backfill missing headlines")
	extractComp := flag.Bool("extract-comp", false, "only extract executive compensation")
	flag.Parse()

	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.New()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Debug("No .env file found")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	application := app.Build(cfg, db.DB, log)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	symbol := strings.ToUpper(strings.TrimSpace(*ticker))
	start := time.Now()

	switch {
	case *resummarize:
		result, err := application.Services.Filing.Resummarize(ctx, symbol, 0)
		if err != nil {
			log.Fatal("Resummarize failed", err)
		}
		printResult(result.Message, result.Errors, start)

	case *extractComp:
		result, err := application.Services.Compensation.ExtractAll(ctx, symbol)
		if err != nil {
			log.Fatal("Compensation extraction failed", err)
		}
		printResult(result.Message, result.Errors, start)

	default:
		status, err := application.Services.Sync.Run(ctx, services.SyncOptions{
			Ticker:    symbol,
			Summarize: *summarize,
			Limit:     *limit,
		})
		if err != nil {
			log.Fatal("Sync failed", err)
		}
		printResult(status.Message, status.Errors, start)
		if status.State == services.SyncFailed {
			os.Exit(1)
		}
	}
}

func printResult(message string, errs []string, start time.Time) {
	fmt.Printf("%s (%v)\n", message, time.Since(start).Round(time.Second))
	for _, e := range errs {
		fmt.Printf("  - %s\n", e)
	}
}
