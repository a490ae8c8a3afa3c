package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ajharbinger/stockdd-timeline/internal/edgar"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/models"
	"github.com/ajharbinger/stockdd-timeline/internal/scraper"
	"github.com/ajharbinger/stockdd-timeline/pkg/config"
)

func main() {
	// Command line flags
	ticker := flag.String("ticker", "ASTS", "Ticker symbol to look up")
	limit := flag.Int("limit", 10, "Number of filings to list")
	extract := flag.Bool("extract", false, "Extract text of the newest filing")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.New()
	level := "warn"
	if *verbose {
		level = "debug"
	}

	monitor := scraper.NewHealthMonitor()
	httpClient := scraper.NewClient(scraper.ClientConfig{
		Name:              "edgar",
		UserAgent:         cfg.SECUserAgent,
		RequestsPerSecond: float64(cfg.EDGARRequestsPerSecond),
		Monitor:           monitor,
	})
	directory := edgar.NewDirectory(httpClient, edgar.Config{}, 0, logger.New(level))
	client := edgar.NewClient(httpClient, edgar.Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	symbol := strings.ToUpper(*ticker)
	fmt.Printf("Looking up %s (User-Agent %q)\n", symbol, cfg.SECUserAgent)

	entry, err := directory.Lookup(ctx, symbol)
	if err != nil {
		log.Fatalf("Failed to resolve ticker %s: %v", symbol, err)
	}
	fmt.Printf("Company: %s (CIK %s)\n", entry.Name, entry.CIK)

	startTime := time.Now()
	filings, err := client.GetCompanyFilings(ctx, entry.CIK, edgar.FilingQuery{
		FormTypes: models.TrackedFormTypes,
		Limit:     *limit,
	})
	if err != nil {
		log.Fatalf("Failed to list filings for %s: %v", symbol, err)
	}
	fmt.Printf("Fetched %d filings in %v\n\n", len(filings), time.Since(startTime).Round(time.Millisecond))

	for _, f := range filings {
		fmt.Printf("%s  %-8s %s  %s\n", f.FiledDate.Format("2006-01-02"), f.FormType, f.AccessionNumber, models.FormTypeDescription(f.FormType))
		if *verbose {
			fmt.Printf("            %s\n", f.DocumentURL)
		}
	}

	if *extract && len(filings) > 0 {
		extractor := edgar.NewExtractor(httpClient, logger.New(level))
		text, err := extractor.Extract(ctx, filings[0].DocumentURL, edgar.DefaultMaxChars)
		if err != nil {
			log.Fatalf("Failed to extract %s: %v", filings[0].AccessionNumber, err)
		}
		fmt.Printf("\nExtracted %d characters from %s:\n%s\n", len(text), filings[0].AccessionNumber, preview(text, 1500))
	}

	if *verbose {
		status, _ := json.MarshalIndent(monitor.GetHealthStatus(), "", "  ")
		fmt.Println("\nUpstream health:")
		fmt.Println(string(status))
	}
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Check SEC EDGAR connectivity for one ticker\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample usage:\n")
		fmt.Fprintf(os.Stderr, "  %s -ticker=RKLB -v\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -ticker=ASTS -extract\n", os.Args[0])
	}
}
