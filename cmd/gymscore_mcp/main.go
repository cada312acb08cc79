// Package main runs the gymscore MCP server over stdio, for local MCP clients.
// The same MCP server is also mounted on the main backend at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymscore/internal"
	"github.com/2beens/gymscore/internal/config"
	"github.com/2beens/gymscore/internal/gymscore"
	gymscoremcp "github.com/2beens/gymscore/internal/gymscore/mcp"
	"github.com/2beens/gymscore/internal/logging"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	envFile := flag.String("envfile", ".env", "optional .env file with secrets")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the MCP protocol, never log there
	log.SetOutput(os.Stderr)
	if cfg.LogsPath != "" {
		logging.Setup(logging.LoggerSetupParams{
			LogFileName: cfg.LogsPath,
			LogLevel:    cfg.LogLevel,
			Environment: cfg.Environment,
		})
	} else {
		log.SetLevel(logging.GetLevel(cfg.LogLevel))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opened, err := internal.OpenStore(ctx, internal.OpenStoreParams{
		Config:           cfg,
		PostgresUser:     os.Getenv("GYMSCORE_POSTGRES_USER"),
		PostgresPassword: os.Getenv("GYMSCORE_POSTGRES_PASS"),
	})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer opened.Close()

	svc := gymscore.NewService(gymscore.NewServiceParams{
		Store: opened.Store,
	})
	server := gymscoremcp.NewServer(svc, opened.DBPool)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp server: %s", err)
	}
}
