// Package main provides the entry point for the resolvebot MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/config"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/db"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/escalate"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/mcptools"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/nlu"
	"github.com/LeeMinNguyeen/E-com-Automated-Resolution/internal/refund"
)

const version = "0.1.0"

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON). Stdout belongs to
	// the MCP transport.
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("resolvebot-mcp starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database
	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	dbClient, err := db.NewClient(ctx, dbCfg, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		logger.Info("closing database connection")
		_ = dbClient.Close(ctx)
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	deps := &mcptools.Dependencies{
		Refund:     refund.NewService(dbClient, logger),
		Escalate:   escalate.NewService(dbClient, nil, logger),
		Classifier: nlu.NewHTTPClassifier(cfg.NLUServiceURL, cfg.NLUTimeout, logger),
		Logger:     logger,
	}

	srv := mcptools.NewServer(version, deps, logger)
	logger.Info("server ready, awaiting connections")

	// Run server (blocks until disconnect or context cancelled)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
