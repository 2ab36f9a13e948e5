package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/server"
	"github.com/incidentkb/rag-agent/appconfig"
	"github.com/incidentkb/rag-agent/controller"
	"github.com/incidentkb/rag-agent/mcp"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()
	ctx := getCancellableContext()

	// "rag-agent mcp" serves the search tool over stdio instead of HTTP.
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		if err := mcp.Serve(ctx, appconfig.ProvideAppConfig()); err != nil {
			logger.Fatal("MCP server failed", zap.Error(err))
		}
		return
	}

	boot, err := server.New().
		GRPCPort(":50051").
		HTTPPort(":8081").
		ProvideFunc(appconfig.ProvideAppConfig).
		AddRestController(controller.ProvideQueryController).
		AddRestController(controller.ProvideMetadataController).
		AddRestController(controller.ProvidePrivacyController).
		Build()

	if err != nil {
		logger.Fatal("Dependency Injection Failed", zap.Error(err))
	}

	boot.Serve(ctx)
}

func getCancellableContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		cancel()
	}()

	return ctx
}
