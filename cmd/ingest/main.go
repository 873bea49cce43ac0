package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/card-authorization-gateway/internal/config"
	"github.com/card-authorization-gateway/internal/data/postgres"
	"github.com/card-authorization-gateway/internal/data/redis"
	"github.com/card-authorization-gateway/internal/ingestion"
	"github.com/card-authorization-gateway/internal/logger"
	"github.com/card-authorization-gateway/internal/platform/persistence"
)

func main() {
	dir := flag.String("dir", "", "directory holding BankTable.csv, BankTable-CCs.csv and merchant_data.csv")
	banksFile := flag.String("banks", "", "bank table CSV file")
	cardsFile := flag.String("cards", "", "credit card table CSV file")
	merchantsFile := flag.String("merchants", "", "merchant table CSV file")
	flag.Parse()

	if *dir == "" && *banksFile == "" && *cardsFile == "" && *merchantsFile == "" {
		fmt.Fprintln(os.Stderr, "nothing to load: pass -dir or at least one of -banks, -cards, -merchants")
		flag.Usage()
		os.Exit(2)
	}

	// Stop between rows on Ctrl-C
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("ingest")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

	redisClient, err := persistence.NewRedisClient(ctx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Merchant upserts go through the cache so stale credentials are evicted
	loader := ingestion.NewLoader(
		log,
		postgres.NewBankRepository(log, postgresDB),
		postgres.NewIssuerRepository(log, postgresDB),
		redis.WithCredentialCache(log, postgres.NewMerchantRepository(log, postgresDB), redisClient, cfg.Redis.CredentialTTL),
		cfg.Ingest.BcryptCost,
	)

	var summaries []*ingestion.Summary
	if *dir != "" {
		loaded, err := loader.LoadDir(ctx, *dir)
		summaries = append(summaries, loaded...)
		if err != nil {
			log.Error("Batch ingestion failed", "dir", *dir, "error", err)
			os.Exit(1)
		}
	}

	explicit := []struct {
		kind ingestion.Kind
		path string
	}{
		{ingestion.KindBanks, *banksFile},
		{ingestion.KindCards, *cardsFile},
		{ingestion.KindMerchants, *merchantsFile},
	}
	for _, f := range explicit {
		if f.path == "" {
			continue
		}
		summary, err := loader.LoadFile(ctx, f.kind, f.path)
		if err != nil {
			log.Error("Batch ingestion failed", "file", f.path, "error", err)
			os.Exit(1)
		}
		summaries = append(summaries, summary)
	}

	var loaded, skipped int
	for _, s := range summaries {
		loaded += s.Loaded
		skipped += s.Skipped
	}
	log.Info("Batch ingestion completed", "files", len(summaries), "loaded", loaded, "skipped", skipped)
}
