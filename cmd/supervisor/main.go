package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/triadflow/triad/internal/config"
	"github.com/triadflow/triad/internal/hub"
	"github.com/triadflow/triad/internal/policy"
	"github.com/triadflow/triad/internal/repository"
	"github.com/triadflow/triad/internal/service"
	handler "github.com/triadflow/triad/internal/transport/http"
)

func main() {
	cfg := config.Load()

	log.Printf("Starting supervisor...")
	log.Printf("Port: %d", cfg.SupervisorPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("Pipeline timeout: %s", cfg.PipelineTimeout)

	// Initialize run-history store
	store, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize event hub
	eventHub := hub.New()
	go eventHub.Run()

	// Initialize service and resolve all pipeline agents. A single
	// resolution failure aborts startup: no partial pipeline.
	svc := service.New(cfg, store, policyEngine, eventHub)
	if err := svc.ResolveAgents(ctx); err != nil {
		log.Fatalf("Failed to resolve pipeline agents: %v", err)
	}

	server := handler.NewServer(svc)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.SupervisorPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Supervisor API started on port %d", cfg.SupervisorPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down supervisor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Supervisor stopped")
}
