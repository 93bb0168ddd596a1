package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/agent"
	"github.com/rafaelmp/invoicedesk/internal/config"
	"github.com/rafaelmp/invoicedesk/internal/database"
	"github.com/rafaelmp/invoicedesk/internal/embedding"
	"github.com/rafaelmp/invoicedesk/internal/extract"
	"github.com/rafaelmp/invoicedesk/internal/gcsarchive"
	"github.com/rafaelmp/invoicedesk/internal/ingest"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Parse CLI flags
	filePath := flag.String("file", "", "Path to the invoice PDF (required)")
	archive := flag.Bool("archive", false, "Store the PDF in GCS after a successful ingestion")
	flag.Parse()

	if *filePath == "" {
		log.Fatal().Msg("Usage: ingest -file /path/to/invoice.pdf [-archive]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Add logger to context
	ctx = logger.WithContext(ctx, log)

	pdf, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read PDF")
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	store := postgres.New(db)

	client, err := agent.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	extractor := extract.NewExtractor(client, cfg.Gemini.Model)
	service := ingest.NewService(store, embedding.NewGeminiEmbedder(client, cfg.Gemini.EmbeddingModel))

	log.Info().Str("file", *filePath).Msg("Starting ingestion")

	extracted, err := extractor.Extract(ctx, pdf)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	result := service.Process(ctx, extracted)

	for _, msg := range result.Messages {
		fmt.Println(msg)
	}

	if !result.Success {
		log.Fatal().Str("error", result.Error).Msg("Ingestion failed")
	}

	if *archive {
		if cfg.GCS.Bucket == "" {
			log.Warn().Msg("No GCS bucket configured - skipping archive")
		} else {
			archivePDF(ctx, cfg.GCS.Bucket, cfg.GCS.Prefix, *filePath, pdf)
		}
	}

	fmt.Println("Ingestion completed successfully.")
}

func archivePDF(ctx context.Context, bucket, prefix, filePath string, pdf []byte) {
	log := logger.FromContext(ctx)

	gcs, err := gcsarchive.New(ctx, bucket, prefix)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create GCS archive")
	}
	defer gcs.Close()

	uri, err := gcs.Put(ctx, filepath.Base(filePath), pdf)
	if err != nil {
		log.Error().Err(err).Msg("Failed to archive PDF")
		return
	}

	fmt.Printf("Archived PDF at %s\n", uri)
}
