package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rafaelmp/invoicedesk/internal/agent"
	"github.com/rafaelmp/invoicedesk/internal/config"
	"github.com/rafaelmp/invoicedesk/internal/database"
	"github.com/rafaelmp/invoicedesk/internal/embedding"
	"github.com/rafaelmp/invoicedesk/internal/logger"
	"github.com/rafaelmp/invoicedesk/internal/postgres"
	"github.com/rafaelmp/invoicedesk/internal/session"
)

// askFunc answers one question, threading the conversation session for
// agents that keep one.
type askFunc func(ctx context.Context, question, sessionID string) (answer, nextSessionID string)

func main() {
	// Initialize structured logger
	log := logger.New()

	agentKind := flag.String("agent", "tools", "Agent to use: tools, context or semantic")
	question := flag.String("question", "", "Ask a single question and exit")
	flag.Parse()

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

	sessions := session.New(cfg.Session.TTL)
	retrier := agent.Retrier{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay}

	var ask askFunc

	switch *agentKind {
	case "tools":
		sqlAgent := agent.NewSQLAgent(client, cfg.Gemini.Model, agent.NewSQLTool(db), sessions, retrier)
		ask = func(ctx context.Context, q, sid string) (string, string) {
			res := sqlAgent.AskWithSession(ctx, q, sid)
			return displayAnswer(res.Response, res.Error), res.SessionID
		}
	case "context":
		lexical := agent.NewLexicalAgent(client, cfg.Gemini.Model, agent.NewBuilder(store), retrier)
		ask = func(ctx context.Context, q, _ string) (string, string) {
			res := lexical.Ask(ctx, q)
			return displayAnswer(res.Response, res.Error), ""
		}
	case "semantic":
		embedder := embedding.NewGeminiEmbedder(client, cfg.Gemini.EmbeddingModel)
		semantic := agent.NewSemanticAgent(client, cfg.Gemini.Model, embedder, store, sessions)
		ask = func(ctx context.Context, q, sid string) (string, string) {
			res, err := semantic.AskWithHistory(ctx, q, sid, agent.DefaultTopK)
			if err != nil {
				return "Erro: " + err.Error(), sid
			}

			return displayAnswer(res.Response, res.Error), res.SessionID
		}
	default:
		log.Fatal().Str("agent", *agentKind).Msg("Unknown agent, expected tools, context or semantic")
	}

	if *question != "" {
		answer, _ := ask(ctx, *question, "")
		fmt.Println(answer)
		return
	}

	runPrompt(ctx, *agentKind, ask)
}

func runPrompt(ctx context.Context, agentKind string, ask askFunc) {
	fmt.Printf("Agente %q pronto. Digite sua pergunta (ou \"sair\" para encerrar).\n", agentKind)

	scanner := bufio.NewScanner(os.Stdin)

	var sessionID string

	for {
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "sair" || line == "exit" || line == "quit" {
			break
		}

		answer, next := ask(ctx, line, sessionID)
		if next != "" {
			sessionID = next
		}

		fmt.Println(answer)
		fmt.Println()
	}
}

// displayAnswer prefers the model's reply and falls back to the
// envelope error when no reply was produced.
func displayAnswer(response, errMsg string) string {
	if response != "" {
		return response
	}
	if errMsg != "" {
		return "Erro: " + errMsg
	}

	return ""
}
