// Command server runs the Parallel Search MCP server: a stateless
// streamable-HTTP MCP endpoint exposing the parallel_search tool, plus a
// /health liveness endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dallenpyrah/parallel-ai-mcp/internal/adapter/parallel"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/adapter/tool"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/infra/config"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/infra/logger"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/infra/tracer"
	"github.com/dallenpyrah/parallel-ai-mcp/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	timeout, err := cfg.Search.RequestTimeout()
	if err != nil {
		return err
	}
	client := parallel.NewClient(cfg.Search.BaseURL, timeout, log)

	registry := tool.NewRegistry(log)
	if err := registry.Register(tool.NewParallelSearchTool(client, cfg.Search.Processor, log)); err != nil {
		return fmt.Errorf("register tool: %w", err)
	}

	srv := server.New(cfg.Server, registry, log)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
