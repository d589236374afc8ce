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

	"github.com/triadflow/triad/internal/agenthttp"
	"github.com/triadflow/triad/internal/agents"
	"github.com/triadflow/triad/internal/config"
	"github.com/triadflow/triad/internal/executor"
	"github.com/triadflow/triad/internal/mcpclient"
	"github.com/triadflow/triad/internal/protocol"
	"github.com/triadflow/triad/internal/taskstore"
)

func main() {
	cfg := config.Load()

	log.Printf("Starting data agent...")
	log.Printf("Port: %d", cfg.DataAgentPort)
	log.Printf("Tool backend: %s", cfg.DataMCPURL)

	card := &protocol.AgentCard{
		Name:               "Data MCP Agent",
		Description:        "Loads CSV data, performs feature engineering, and returns preprocessed file path.",
		URL:                fmt.Sprintf("http://localhost:%d/", cfg.DataAgentPort),
		Version:            "1.0.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Capabilities:       protocol.AgentCapabilities{Streaming: false, PushNotifications: false},
		Skills: []protocol.AgentSkill{{
			ID:          "data_loader",
			Name:        "Data Loader MCP",
			Description: "Loads data from local path or remote MCP, selects columns, and performs preprocessing.",
			Tags:        []string{"data", "mcp", "feature-engineering"},
		}},
	}

	mcp := mcpclient.NewClient(&http.Client{Timeout: cfg.ClientTimeout}, cfg.DataMCPURL)
	exec := executor.New(agents.NewDataHandler(mcp), taskstore.New())

	server := agenthttp.NewServer(card, exec)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.DataAgentPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("data agent started on port %d", cfg.DataAgentPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down data agent...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("data agent stopped")
}
