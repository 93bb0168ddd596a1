package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rafaelmp/invoicedesk/internal/bqexport"
	"github.com/rafaelmp/invoicedesk/internal/config"
	"github.com/rafaelmp/invoicedesk/internal/database"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	project := flag.String("project", "", "GCP project ID (defaults to BQ_PROJECT_ID)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if *project == "" {
		*project = cfg.BigQuery.ProjectID
	}
	if *project == "" {
		log.Fatal().Msg("Usage: export-bigquery -project PROJECT_ID (or set BQ_PROJECT_ID)")
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

	exporter, err := bqexport.New(ctx, *project, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create BigQuery exporter")
	}
	defer exporter.Close()

	result, err := exporter.Run(ctx, postgres.New(db))
	if err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}

	fmt.Printf("Export finished: %d rows inserted, %d months already present.\n",
		result.RowsInserted, result.MonthsSkipped)
}
