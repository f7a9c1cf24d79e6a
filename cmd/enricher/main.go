package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"tradelens-api/internal/cli"
	"tradelens-api/internal/config"
	"tradelens-api/internal/svc"
)

const (
	enrichInterval  = 2 * time.Minute  // periodic enrichment run
	shutdownTimeout = 10 * time.Second // grace period for shutdown
)

var configFile = flag.String("f", "etc/tradelens.yaml", "the config file")

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("[main] Starting enricher...")

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	svcCtx := svc.NewServiceContext(*appCfg)
	defer svcCtx.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runEnrichLoop(ctx, svcCtx)
	}()

	log.Println("[main] Enricher started. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[main] Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[main] Enrich loop stopped cleanly")
	case <-shutdownCtx.Done():
		log.Println("[main] Shutdown timeout exceeded, forcing exit")
	}

	log.Println("[main] Enricher stopped")
}

// runEnrichLoop runs one enrichment pass per tick.
func runEnrichLoop(ctx context.Context, svcCtx *svc.ServiceContext) {
	ticker := time.NewTicker(enrichInterval)
	defer ticker.Stop()

	// Run once immediately on startup
	enrichOnce(ctx, svcCtx)

	for {
		select {
		case <-ctx.Done():
			log.Println("[enrich] Stopping enrich loop")
			return
		case <-ticker.C:
			enrichOnce(ctx, svcCtx)
		}
	}
}

// enrichOnce fetches the latest batch, enriches it and mirrors resolved
// births when Postgres is wired.
func enrichOnce(parentCtx context.Context, svcCtx *svc.ServiceContext) {
	if parentCtx.Err() != nil {
		return
	}

	start := time.Now()
	batch, err := svcCtx.TradeFeed.Recent(parentCtx, svcCtx.Config.TradeFeed.BatchLimit)
	if err != nil {
		log.Printf("[enrich.fetch] [ERROR] %v, took %dms", err, time.Since(start).Milliseconds())
		return
	}
	log.Printf("[enrich.fetch] [OK] %d trades, took %dms", len(batch), time.Since(start).Milliseconds())

	start = time.Now()
	enriched := svcCtx.Enricher.Enrich(parentCtx, batch)
	elapsed := time.Since(start)

	known := 0
	categorized := 0
	for _, trade := range enriched {
		if trade.WalletCreatedAt != nil {
			known++
		}
		if trade.Category != "Other" {
			categorized++
		}
	}
	log.Printf("[enrich.run] [OK] %d unique trades, births=%d/%d, categorized=%d/%d, took %dms",
		len(enriched), known, len(enriched), categorized, len(enriched), elapsed.Milliseconds())

	if svcCtx.Births != nil {
		births := make(map[string]*time.Time, len(enriched))
		for _, trade := range enriched {
			births[strings.ToLower(trade.ProxyWallet)] = trade.WalletCreatedAt
		}
		svcCtx.Births.RecordBirths(parentCtx, births)
	}
}
