package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rafaelmp/invoicedesk/internal/agent"
	"github.com/rafaelmp/invoicedesk/internal/api"
	"github.com/rafaelmp/invoicedesk/internal/api/handlers"
	"github.com/rafaelmp/invoicedesk/internal/config"
	"github.com/rafaelmp/invoicedesk/internal/database"
	"github.com/rafaelmp/invoicedesk/internal/embedding"
	"github.com/rafaelmp/invoicedesk/internal/extract"
	"github.com/rafaelmp/invoicedesk/internal/gcsarchive"
	"github.com/rafaelmp/invoicedesk/internal/ingest"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
	"github.com/rafaelmp/invoicedesk/internal/session"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := logger.WithContext(context.Background(), log)

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

	embedder := embedding.NewGeminiEmbedder(client, cfg.Gemini.EmbeddingModel)
	sessions := session.New(cfg.Session.TTL)
	retrier := agent.Retrier{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay}

	sqlAgent := agent.NewSQLAgent(client, cfg.Gemini.Model, agent.NewSQLTool(db), sessions, retrier)
	lexicalAgent := agent.NewLexicalAgent(client, cfg.Gemini.Model, agent.NewBuilder(store), retrier)
	semanticAgent := agent.NewSemanticAgent(client, cfg.Gemini.Model, embedder, store, sessions)

	extractor := extract.NewExtractor(client, cfg.Gemini.Model)
	ingestor := ingest.NewService(store, embedder)

	var archive handlers.Archiver

	if cfg.GCS.Bucket != "" {
		gcs, err := gcsarchive.New(ctx, cfg.GCS.Bucket, cfg.GCS.Prefix)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create GCS archive")
		}
		defer gcs.Close()

		archive = gcs
	} else {
		log.Warn().Msg("No GCS bucket configured - uploaded PDFs will not be archived")
	}

	router := api.New(
		handlers.NewInvoicesHandler(extractor, ingestor, archive, log),
		handlers.NewTransactionsHandler(store, log),
		handlers.NewAskHandler(sqlAgent, lexicalAgent, semanticAgent, log),
		handlers.NewSessionsHandler(sessions, log),
		log,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	// Start server in a goroutine
	go func() {
		log.Info().Int("port", cfg.App.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
