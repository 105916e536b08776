// Package main provides the webhook and dashboard server for resolvebot.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/analytics"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/config"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/convstate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/escalate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/llm"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/metrics"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/nlu"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/orchestrator"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/server"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/tools"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/webhook"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/ws"
)

const version = "0.1.0"

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("resolvebot-server starting",
		"version", version,
		"listen_addr", cfg.ListenAddr,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	dbClient, err := db.NewClient(connectCtx, dbCfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(context.Background())
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("RESOLVEBOT_WIPE_DB") == "true" {
		if err := dbClient.WipeData(ctx); err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
		logger.Warn("database wiped")
	}

	// LLM and NLU
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		logger.Error("failed to create llm model", "error", err)
		os.Exit(1)
	}
	classifier := nlu.NewHTTPClassifier(cfg.NLUServiceURL, cfg.NLUTimeout, logger)

	// Alert feed
	alertFeed := ws.NewHub(logger)
	go alertFeed.Run(ctx)

	// Services and the turn pipeline
	collector := metrics.NewCollector()
	refunds := refund.NewService(dbClient, logger)
	escalations := escalate.NewService(dbClient, alertFeed, logger)
	dispatcher := tools.NewDispatcher(logger,
		tools.NewTriageTool(classifier),
		tools.NewOrderLookupTool(refunds),
		tools.NewEligibilityTool(refunds),
		tools.NewProcessRefundTool(refunds),
		tools.NewEscalationTool(escalations),
	)
	agent := orchestrator.New(model, classifier, convstate.NewStore(logger), dispatcher, dbClient, collector, logger)

	// Webhook boundary
	sender := webhook.NewGraphSender(cfg.GraphAPIVersion, cfg.PageAccessToken)
	hook := webhook.NewHandler(cfg.VerifyToken, agent, dbClient, sender, cfg.TurnTimeout, logger)

	srv := server.New(cfg.ListenAddr, server.Deps{
		Webhook:   hook,
		Analytics: analytics.NewService(dbClient, logger),
		Collector: collector,
		AlertFeed: alertFeed,
	}, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
