package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/agent"
	"github.com/rafaelmp/invoicedesk/internal/config"
	"github.com/rafaelmp/invoicedesk/internal/database"
	"github.com/rafaelmp/invoicedesk/internal/embedding"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	limit := flag.Int("limit", 100, "Maximum number of transactions to backfill in one run")
	workers := flag.Int("workers", 4, "Number of concurrent embedding workers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	client, err := agent.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	embedder := embedding.NewGeminiEmbedder(client, cfg.Gemini.EmbeddingModel)
	backfiller := embedding.NewBackfiller(postgres.New(db), embedder, *workers)

	log.Info().Int("limit", *limit).Int("workers", *workers).Msg("Starting embedding backfill")

	result, err := backfiller.Run(ctx, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("Backfill failed")
	}

	fmt.Printf("Backfill finished: %d scanned, %d updated, %d failed.\n",
		result.Scanned, result.Updated, result.Failed)
}
